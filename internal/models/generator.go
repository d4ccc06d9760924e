package models

import (
	"fmt"

	"github.com/born-ml/deepzero/internal/generate"
	"github.com/born-ml/deepzero/internal/tensor"
)

// RnnlmGen generates text from a recurrent language model one id at a time.
//
// Each step feeds the previous id as a (1, 1) batch, turns the (1, 1, V)
// scores into a distribution and samples the next id. The model's recurrent
// state carries the context between steps.
//
// Example:
//
//	gen := models.NewRnnlmGen(model, generate.NewSampler(generate.DefaultSamplingConfig(), rng))
//	ids, err := gen.Generate(word2id["you"], skipIDs, 100)
type RnnlmGen struct {
	model   LanguageModel
	sampler *generate.Sampler
}

// NewRnnlmGen wraps model. A nil sampler draws from the model distribution
// with a fixed seed.
func NewRnnlmGen(model LanguageModel, sampler *generate.Sampler) *RnnlmGen {
	if sampler == nil {
		sampler = generate.NewSampler(generate.DefaultSamplingConfig(), nil)
	}
	return &RnnlmGen{model: model, sampler: sampler}
}

// NewBetterRnnlmGen wraps a BetterRnnlm and switches its dropout off.
func NewBetterRnnlmGen(model *BetterRnnlm, sampler *generate.Sampler) *RnnlmGen {
	model.SetTrain(false)
	return NewRnnlmGen(model, sampler)
}

// Model returns the wrapped language model.
func (g *RnnlmGen) Model() LanguageModel { return g.model }

// Generate returns sampleSize ids starting with startID.
//
// Ids in skip are never emitted. A rejected draw is redrawn from the same
// distribution without advancing the model. When the sampler gives up the
// ids produced so far are returned together with the error, which wraps
// generate.ErrSamplingExhausted.
func (g *RnnlmGen) Generate(startID int, skip []int, sampleSize int) ([]int, error) {
	if err := g.checkID(startID); err != nil {
		return nil, err
	}
	skipSet := generate.SkipSet(skip...)

	ids := []int{startID}
	x := startID
	for len(ids) < sampleSize {
		next, err := g.sampler.SampleSkipping(g.step(x), skipSet)
		if err != nil {
			return ids, fmt.Errorf("generate step %d: %w", len(ids), err)
		}
		x = next
		ids = append(ids, x)
	}
	return ids, nil
}

// Prime feeds ids through the model to build up its state before Generate.
// It returns the scores after the last id.
func (g *RnnlmGen) Prime(ids []int) ([]float64, error) {
	var scores []float64
	for _, id := range ids {
		if err := g.checkID(id); err != nil {
			return nil, err
		}
		scores = g.step(id)
	}
	return scores, nil
}

// ResetState clears the model's recurrent state.
func (g *RnnlmGen) ResetState() { g.model.ResetState() }

// State returns a copy of the model's recurrent state.
func (g *RnnlmGen) State() ([]State, error) { return g.model.State() }

// SetState restores a state returned by State.
func (g *RnnlmGen) SetState(states []State) error { return g.model.SetState(states) }

func (g *RnnlmGen) step(id int) []float64 {
	score := g.model.Predict(tensor.FromInts([]int{id}, 1, 1))
	return score.Data()
}

func (g *RnnlmGen) checkID(id int) error {
	if id < 0 || id >= g.model.VocabSize() {
		return fmt.Errorf("id %d outside vocabulary of %d words", id, g.model.VocabSize())
	}
	return nil
}
