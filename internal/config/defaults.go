package config

import "fmt"

// Optimizer names.
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// DefaultSeed seeds every run that does not set one.
const DefaultSeed = 1984

// Defaults returns the reference hyperparameters of model.
func Defaults(model string) (Config, error) {
	base := Config{
		Model:        Ptr(model),
		Seed:         Ptr(uint64(DefaultSeed)),
		EvalInterval: Ptr(20),
		Dropout:      Ptr(0.0),
		MaxGrad:      Ptr(0.0),
		Reverse:      Ptr(false),
		LogLevel:     "info",
		LogFormat:    "text",
	}

	var d Config
	switch model {
	case TwoLayerNet:
		d = Config{MaxEpoch: Ptr(300), BatchSize: Ptr(30), HiddenSize: Ptr(10),
			Optimizer: Ptr(OptimizerSGD), LearningRate: Ptr(1.0), EvalInterval: Ptr(10)}
	case SimpleCBOW:
		d = Config{MaxEpoch: Ptr(1000), BatchSize: Ptr(3), HiddenSize: Ptr(5), WindowSize: Ptr(1),
			Optimizer: Ptr(OptimizerAdam), LearningRate: Ptr(0.001)}
	case CBOW, SkipGram:
		d = Config{MaxEpoch: Ptr(10), BatchSize: Ptr(100), HiddenSize: Ptr(100), WindowSize: Ptr(5),
			SampleSize: Ptr(5), Optimizer: Ptr(OptimizerAdam), LearningRate: Ptr(0.001)}
	case SimpleRnnlm:
		d = Config{MaxEpoch: Ptr(100), BatchSize: Ptr(10), WordvecSize: Ptr(100), HiddenSize: Ptr(100),
			TimeSize: Ptr(5), Optimizer: Ptr(OptimizerSGD), LearningRate: Ptr(0.1)}
	case Rnnlm:
		d = Config{MaxEpoch: Ptr(4), BatchSize: Ptr(20), WordvecSize: Ptr(100), HiddenSize: Ptr(100),
			TimeSize: Ptr(35), Optimizer: Ptr(OptimizerSGD), LearningRate: Ptr(20.0), MaxGrad: Ptr(0.25)}
	case BetterRnnlm:
		d = Config{MaxEpoch: Ptr(40), BatchSize: Ptr(20), WordvecSize: Ptr(650), HiddenSize: Ptr(650),
			TimeSize: Ptr(35), Optimizer: Ptr(OptimizerSGD), LearningRate: Ptr(20.0), MaxGrad: Ptr(0.25),
			Dropout: Ptr(0.5)}
	case Seq2seq, PeekySeq2seq:
		d = Config{MaxEpoch: Ptr(25), BatchSize: Ptr(128), WordvecSize: Ptr(16), HiddenSize: Ptr(128),
			Optimizer: Ptr(OptimizerAdam), LearningRate: Ptr(0.001), MaxGrad: Ptr(5.0), Reverse: Ptr(true)}
	case AttentionSeq2seq:
		d = Config{MaxEpoch: Ptr(10), BatchSize: Ptr(128), WordvecSize: Ptr(16), HiddenSize: Ptr(256),
			Optimizer: Ptr(OptimizerAdam), LearningRate: Ptr(0.001), MaxGrad: Ptr(5.0), Reverse: Ptr(true)}
	default:
		return Config{}, fmt.Errorf("%w: unknown model %q", ErrInvalid, model)
	}
	return Merge(base, d), nil
}

// Settings is a validated Config with every value filled in.
type Settings struct {
	Model        string
	Task         string
	Seed         uint64
	Data         string
	MaxEpoch     int
	BatchSize    int
	EvalInterval int
	HiddenSize   int
	WordvecSize  int
	WindowSize   int
	SampleSize   int
	TimeSize     int
	Dropout      float64
	Reverse      bool
	Optimizer    string
	LearningRate float64
	MaxGrad      float64
	Checkpoint   string
	History      string
	LogLevel     string
	LogFormat    string
}

// Resolve lays cfg over the defaults of cfg.Model and validates the result.
func Resolve(cfg Config) (Settings, error) {
	if cfg.Model == nil || *cfg.Model == "" {
		return Settings{}, fmt.Errorf("%w: model is required", ErrInvalid)
	}
	defaults, err := Defaults(*cfg.Model)
	if err != nil {
		return Settings{}, err
	}
	c := Merge(defaults, cfg)
	s := Settings{
		Model:        *c.Model,
		Task:         TaskOf(*c.Model),
		Seed:         *c.Seed,
		Data:         c.Data,
		MaxEpoch:     deref(c.MaxEpoch),
		BatchSize:    deref(c.BatchSize),
		EvalInterval: deref(c.EvalInterval),
		HiddenSize:   deref(c.HiddenSize),
		WordvecSize:  deref(c.WordvecSize),
		WindowSize:   deref(c.WindowSize),
		SampleSize:   deref(c.SampleSize),
		TimeSize:     deref(c.TimeSize),
		Dropout:      deref(c.Dropout),
		Reverse:      deref(c.Reverse),
		Optimizer:    deref(c.Optimizer),
		LearningRate: deref(c.LearningRate),
		MaxGrad:      deref(c.MaxGrad),
		Checkpoint:   c.Checkpoint,
		History:      c.History,
		LogLevel:     c.LogLevel,
		LogFormat:    c.LogFormat,
	}
	if s.Checkpoint == "" {
		s.Checkpoint = s.Model + ".born"
	}
	return s, s.Validate()
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	switch {
	case s.Task == "":
		return fmt.Errorf("%w: unknown model %q", ErrInvalid, s.Model)
	case s.MaxEpoch <= 0:
		return fmt.Errorf("%w: max_epoch must be positive, got %d", ErrInvalid, s.MaxEpoch)
	case s.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalid, s.BatchSize)
	case s.HiddenSize <= 0:
		return fmt.Errorf("%w: hidden_size must be positive, got %d", ErrInvalid, s.HiddenSize)
	case s.EvalInterval < 0:
		return fmt.Errorf("%w: eval_interval must not be negative, got %d", ErrInvalid, s.EvalInterval)
	case s.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be positive, got %g", ErrInvalid, s.LearningRate)
	case s.MaxGrad < 0:
		return fmt.Errorf("%w: max_grad must not be negative, got %g", ErrInvalid, s.MaxGrad)
	case s.Dropout < 0 || s.Dropout >= 1:
		return fmt.Errorf("%w: dropout must be in [0, 1), got %g", ErrInvalid, s.Dropout)
	case s.Optimizer != OptimizerSGD && s.Optimizer != OptimizerAdam:
		return fmt.Errorf("%w: optimizer must be %q or %q, got %q", ErrInvalid, OptimizerSGD, OptimizerAdam, s.Optimizer)
	case s.LogFormat != "text" && s.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalid, s.LogFormat)
	}

	switch s.Task {
	case TaskWord2Vec:
		if s.WindowSize <= 0 {
			return fmt.Errorf("%w: window_size must be positive, got %d", ErrInvalid, s.WindowSize)
		}
		if s.Model != SimpleCBOW && s.SampleSize <= 0 {
			return fmt.Errorf("%w: sample_size must be positive, got %d", ErrInvalid, s.SampleSize)
		}
		if s.Model == SimpleCBOW && s.WindowSize != 1 {
			return fmt.Errorf("%w: %s uses window_size 1, got %d", ErrInvalid, s.Model, s.WindowSize)
		}
	case TaskRnnlm:
		if s.TimeSize <= 0 || s.WordvecSize <= 0 {
			return fmt.Errorf("%w: time_size and wordvec_size must be positive", ErrInvalid)
		}
		if s.Model == BetterRnnlm && s.WordvecSize != s.HiddenSize {
			return fmt.Errorf("%w: %s ties weights and needs wordvec_size == hidden_size (%d != %d)",
				ErrInvalid, s.Model, s.WordvecSize, s.HiddenSize)
		}
	case TaskSeq2seq:
		if s.WordvecSize <= 0 {
			return fmt.Errorf("%w: wordvec_size must be positive, got %d", ErrInvalid, s.WordvecSize)
		}
	}
	return nil
}
