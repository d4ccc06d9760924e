// Package config reads deepzero training configuration from YAML.
//
// All fields of Config are pointers or strings so a file can leave a value
// unset; Merge lays a file over the per-model Defaults and Resolve checks
// the result and returns plain values.
//
// Example config.yaml:
//
//	model: Rnnlm
//	data: ./ptb
//	batch_size: 20
//	time_size: 35
//	learning_rate: 20
//	max_grad: 0.25
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Model names accepted in the model field.
const (
	TwoLayerNet      = "TwoLayerNet"
	SimpleCBOW       = "SimpleCBOW"
	CBOW             = "CBOW"
	SkipGram         = "SkipGram"
	SimpleRnnlm      = "SimpleRnnlm"
	Rnnlm            = "Rnnlm"
	BetterRnnlm      = "BetterRnnlm"
	Seq2seq          = "Seq2seq"
	PeekySeq2seq     = "PeekySeq2seq"
	AttentionSeq2seq = "AttentionSeq2seq"
)

// Tasks group models that share a dataset and training loop.
const (
	TaskSpiral   = "spiral"
	TaskWord2Vec = "cbow"
	TaskRnnlm    = "rnnlm"
	TaskSeq2seq  = "seq2seq"
)

var modelTasks = map[string]string{
	TwoLayerNet:      TaskSpiral,
	SimpleCBOW:       TaskWord2Vec,
	CBOW:             TaskWord2Vec,
	SkipGram:         TaskWord2Vec,
	SimpleRnnlm:      TaskRnnlm,
	Rnnlm:            TaskRnnlm,
	BetterRnnlm:      TaskRnnlm,
	Seq2seq:          TaskSeq2seq,
	PeekySeq2seq:     TaskSeq2seq,
	AttentionSeq2seq: TaskSeq2seq,
}

// Models returns the accepted model names in sorted order.
func Models() []string {
	names := make([]string, 0, len(modelTasks))
	for name := range modelTasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TaskOf returns the task a model belongs to, or "" for unknown models.
func TaskOf(model string) string { return modelTasks[model] }

// Config is one training run as written in a YAML file.
type Config struct {
	Model *string `yaml:"model"`
	Seed  *uint64 `yaml:"seed"`

	// Data is a file or directory, depending on the task: a text corpus for
	// word2vec, a PTB directory for rnnlm, a question_answer file for seq2seq.
	Data string `yaml:"data"`

	MaxEpoch     *int `yaml:"max_epoch"`
	BatchSize    *int `yaml:"batch_size"`
	EvalInterval *int `yaml:"eval_interval"`

	HiddenSize  *int     `yaml:"hidden_size"`
	WordvecSize *int     `yaml:"wordvec_size"`
	WindowSize  *int     `yaml:"window_size"`
	SampleSize  *int     `yaml:"sample_size"`
	TimeSize    *int     `yaml:"time_size"`
	Dropout     *float64 `yaml:"dropout"`
	Reverse     *bool    `yaml:"reverse"`

	Optimizer    *string  `yaml:"optimizer"`
	LearningRate *float64 `yaml:"learning_rate"`
	MaxGrad      *float64 `yaml:"max_grad"`

	Checkpoint string `yaml:"checkpoint"`
	History    string `yaml:"history"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads a YAML file. Unknown fields are an error.
func Load(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // G304: config path comes from the command line
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge returns base with every field set in override replacing it.
func Merge(base, override Config) Config {
	out := base
	setPtr(&out.Model, override.Model)
	setPtr(&out.Seed, override.Seed)
	setPtr(&out.MaxEpoch, override.MaxEpoch)
	setPtr(&out.BatchSize, override.BatchSize)
	setPtr(&out.EvalInterval, override.EvalInterval)
	setPtr(&out.HiddenSize, override.HiddenSize)
	setPtr(&out.WordvecSize, override.WordvecSize)
	setPtr(&out.WindowSize, override.WindowSize)
	setPtr(&out.SampleSize, override.SampleSize)
	setPtr(&out.TimeSize, override.TimeSize)
	setPtr(&out.Dropout, override.Dropout)
	setPtr(&out.Reverse, override.Reverse)
	setPtr(&out.Optimizer, override.Optimizer)
	setPtr(&out.LearningRate, override.LearningRate)
	setPtr(&out.MaxGrad, override.MaxGrad)
	setStr(&out.Data, override.Data)
	setStr(&out.Checkpoint, override.Checkpoint)
	setStr(&out.History, override.History)
	setStr(&out.LogLevel, override.LogLevel)
	setStr(&out.LogFormat, override.LogFormat)
	return out
}

func setPtr[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Ptr returns a pointer to v, for building configs in code.
func Ptr[T any](v T) *T { return &v }
