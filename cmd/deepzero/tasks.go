package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/born-ml/deepzero/internal/config"
	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/serialization"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/train"
	"github.com/born-ml/deepzero/internal/wordvec"
)

const (
	spiralPoints  = 100
	spiralClasses = 3
	evalBatchSize = 10
)

var errNoData = errors.New("--data is required for this task")

func runSpiral(ctx context.Context, s config.Settings, r run) error {
	rng := tensor.NewRNG(s.Seed)
	x, t := dataset.Spiral(rng, spiralPoints, spiralClasses)
	m := models.NewTwoLayerNet(rng, 2, s.HiddenSize, spiralClasses)

	tr := train.NewTrainer(m, newOptimizer(s), train.WithLogger(r.log), train.WithRNG(rng))
	if err := tr.Fit(x, t, train.FitConfig{
		MaxEpoch: s.MaxEpoch, BatchSize: s.BatchSize, MaxGrad: s.MaxGrad, EvalInterval: s.EvalInterval,
	}); err != nil {
		return err
	}
	r.log.Info("done", "accuracy", m.Accuracy(x, t))

	meta := runMeta{Dataset: "spiral", HiddenSize: s.HiddenSize}
	return save(m, s, r, meta, serialization.CheckpointMeta{
		Epoch: tr.Epoch(), Loss: lastOf(tr.History().Losses), LearningRate: s.LearningRate,
	}, tr.History())
}

func runWord2Vec(ctx context.Context, s config.Settings, r run) error {
	if s.Data == "" {
		return errNoData
	}
	text, err := os.ReadFile(s.Data)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	tok, err := tokenizerFor(r.tokenizer)
	if err != nil {
		return err
	}
	corpus, vocab, err := dataset.BuildCorpus(string(text), tok)
	if err != nil {
		return err
	}
	if r.corpusSize > 0 && r.corpusSize < len(corpus) {
		corpus = corpus[:r.corpusSize]
	}
	contexts, target, err := dataset.CreateContextsTarget(corpus, s.WindowSize)
	if err != nil {
		return err
	}
	r.log.Info("corpus", "tokens", len(corpus), "vocab", vocab.Len(), "samples", target.Len())

	rng := tensor.NewRNG(s.Seed)
	V := vocab.Len()
	var m models.Model
	switch s.Model {
	case config.SimpleCBOW:
		m = models.NewSimpleCBOW(rng, V, s.HiddenSize)
		contexts, target = dataset.ConvertOneHot(contexts, V), dataset.ConvertOneHot(target, V)
	case config.CBOW:
		m = models.NewCBOW(rng, word2vecConfig(s, V), corpus)
	case config.SkipGram:
		m = models.NewSkipGram(rng, word2vecConfig(s, V), corpus)
	}

	tr := train.NewTrainer(m, newOptimizer(s), train.WithLogger(r.log), train.WithRNG(rng))
	if err := tr.Fit(contexts, target, train.FitConfig{
		MaxEpoch: s.MaxEpoch, BatchSize: s.BatchSize, MaxGrad: s.MaxGrad, EvalInterval: s.EvalInterval,
	}); err != nil {
		return err
	}

	W := m.(models.WordVectors).WordVecs()
	for _, q := range vocab.Words()[:min(3, V)] {
		if neighbors, err := wordvec.MostSimilar(q, vocab, W, 5); err == nil {
			r.log.Debug("most similar", "query", q, "neighbors", neighbors)
		}
	}

	meta := runMeta{Dataset: s.Data, Tokenizer: r.tokenizer, Vocab: vocab.Words(), HiddenSize: s.HiddenSize}
	return save(m, s, r, meta, serialization.CheckpointMeta{
		Epoch: tr.Epoch(), Loss: lastOf(tr.History().Losses), LearningRate: s.LearningRate,
	}, tr.History())
}

func word2vecConfig(s config.Settings, V int) models.Word2VecConfig {
	return models.Word2VecConfig{
		VocabSize: V, HiddenSize: s.HiddenSize, WindowSize: s.WindowSize, SampleSize: s.SampleSize,
	}
}

// trainable is the part of BetterRnnlm that switches dropout.
type trainable interface {
	SetTrain(train bool)
}

func setTrain(m models.Model, on bool) {
	if t, ok := m.(trainable); ok {
		t.SetTrain(on)
	}
}

func runRnnlm(ctx context.Context, s config.Settings, r run) error {
	if s.Data == "" {
		return errNoData
	}
	ptb, err := dataset.LoadPTB(s.Data)
	if err != nil {
		return err
	}
	corpus := ptb.Train
	if r.corpusSize > 0 && r.corpusSize < len(corpus) {
		corpus = corpus[:r.corpusSize]
	}
	r.log.Info("corpus", "tokens", len(corpus), "vocab", ptb.Vocab.Len())

	rng := tensor.NewRNG(s.Seed)
	meta := runMeta{
		Model: s.Model, Dataset: s.Data, Vocab: ptb.Vocab.Words(),
		WordvecSize: s.WordvecSize, HiddenSize: s.HiddenSize, Dropout: s.Dropout,
	}
	m, err := newLanguageModel(rng, meta)
	if err != nil {
		return err
	}
	opt := newOptimizer(s)
	tr := train.NewRnnlmTrainer(m, opt, train.WithLogger(r.log), train.WithRNG(rng))
	fit := train.RnnlmFitConfig{
		MaxEpoch: s.MaxEpoch, BatchSize: s.BatchSize, TimeSize: s.TimeSize,
		MaxGrad: s.MaxGrad, EvalInterval: s.EvalInterval,
	}
	xs, ts := corpus[:len(corpus)-1], corpus[1:]
	state := serialization.CheckpointMeta{}

	evaluate := func(split []int) (float64, error) {
		m.ResetState()
		setTrain(m, false)
		defer func() {
			m.ResetState()
			setTrain(m, true)
		}()
		return train.EvalPerplexity(m, split, evalBatchSize, s.TimeSize)
	}

	if ptb.Valid == nil {
		if err := tr.Fit(xs, ts, fit); err != nil {
			return err
		}
	} else {
		// Validate after every epoch; keep the best parameters and decay the
		// learning rate when validation perplexity regresses.
		keeper := &train.BestKeeper{Optimizer: opt, Save: func() error {
			state.Epoch, state.LearningRate = tr.Epoch(), opt.GetLR()
			return save(m, s, r, meta, state, nil)
		}}
		fit.MaxEpoch = 1
		for range s.MaxEpoch {
			if err := tr.Fit(xs, ts, fit); err != nil {
				return err
			}
			ppl, err := evaluate(ptb.Valid)
			if err != nil {
				return err
			}
			state.Perplexity = min(ppl, keeper.Best())
			improved, err := keeper.Observe(ppl)
			if err != nil {
				return err
			}
			r.log.Info("valid", "epoch", tr.Epoch(), "perplexity", ppl, "improved", improved, "lr", opt.GetLR())
		}
		if _, err := models.LoadParams(m, s.Checkpoint); err != nil {
			return err
		}
	}

	if ptb.Test != nil {
		ppl, err := evaluate(ptb.Test)
		if err != nil {
			return err
		}
		r.log.Info("test", "perplexity", ppl)
		state.Perplexity = ppl
	}
	state.Epoch, state.LearningRate = tr.Epoch(), opt.GetLR()
	state.Loss = lastOf(tr.History().Perplexities)
	return save(m, s, r, meta, state, tr.History())
}

// translator is a sequence model that decodes greedily.
type translator interface {
	models.Model
	Generate(xs *tensor.Tensor, startID, sampleSize int) []int
}

func runSeq2seq(ctx context.Context, s config.Settings, r run) error {
	if s.Data == "" {
		return errNoData
	}
	rng := tensor.NewRNG(s.Seed)
	seq, err := dataset.LoadSequence(s.Data, rng)
	if err != nil {
		return err
	}
	trainX, testX := seq.TrainX, seq.TestX
	if s.Reverse {
		trainX, testX = dataset.ReverseRows(trainX), dataset.ReverseRows(testX)
	}

	V, D, H := seq.Vocab.Len(), s.WordvecSize, s.HiddenSize
	var m translator
	switch s.Model {
	case config.Seq2seq:
		m = models.NewSeq2seq(rng, V, D, H)
	case config.PeekySeq2seq:
		m = models.NewPeekySeq2seq(rng, V, D, H)
	case config.AttentionSeq2seq:
		m = models.NewAttentionSeq2seq(rng, V, D, H)
	}

	tr := train.NewTrainer(m, newOptimizer(s), train.WithLogger(r.log), train.WithRNG(rng))
	fit := train.FitConfig{MaxEpoch: 1, BatchSize: s.BatchSize, MaxGrad: s.MaxGrad, EvalInterval: s.EvalInterval}
	var acc float64
	for range s.MaxEpoch {
		if err := tr.Fit(trainX, seq.TrainT, fit); err != nil {
			return err
		}
		acc = seq2seqAccuracy(m, testX, seq.TestT)
		r.log.Info("test", "epoch", tr.Epoch(), "accuracy", acc)
	}

	if n := testX.Dim(0); n > 0 {
		q := tensor.SliceRows(testX, 0, 1)
		want := seq.TestT.Ints()[:seq.TestT.Dim(1)]
		got := m.Generate(q, want[0], len(want)-1)
		r.log.Info("sample", "answer", seq.Decode(want[1:]), "guess", seq.Decode(got))
	}

	meta := runMeta{Dataset: s.Data, Vocab: seq.Vocab.Words(), WordvecSize: D, HiddenSize: H}
	return save(m, s, r, meta, serialization.CheckpointMeta{
		Epoch: tr.Epoch(), Loss: lastOf(tr.History().Losses), LearningRate: s.LearningRate,
	}, tr.History())
}

func seq2seqAccuracy(m translator, xs, ts *tensor.Tensor) float64 {
	n := xs.Dim(0)
	if n == 0 {
		return 0
	}
	T := ts.Dim(1)
	answers := ts.Ints()
	correct := 0
	for i := range n {
		if train.EvalSeq2seq(m, tensor.SliceRows(xs, i, i+1), answers[i*T:(i+1)*T]) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}
