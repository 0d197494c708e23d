package classify

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	formatName    = "factbot/logreg"
	formatVersion = 1
)

// persistedModel is the portable representation of a Model
type persistedModel struct {
	Format   string      `json:"format"`
	Version  int         `json:"version"`
	MaxNGram int         `json:"max_ngram"`
	Labels   []string    `json:"labels"`
	Terms    []string    `json:"terms"`
	IDF      []float64   `json:"idf"`
	Weights  [][]float64 `json:"weights"`
	Bias     []float64   `json:"bias"`
}

// Serialize encodes the model parameters
func (m *Model) Serialize() ([]byte, error) {
	data, err := json.Marshal(persistedModel{
		Format:   formatName,
		Version:  formatVersion,
		MaxNGram: m.maxNGram,
		Labels:   m.labels,
		Terms:    m.vec.terms,
		IDF:      m.vec.idf,
		Weights:  m.lr.weights,
		Bias:     m.lr.bias,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize model: %w", err)
	}
	return data, nil
}

// Restore decodes a model produced by Serialize. Every failure wraps ErrModelLoad.
func Restore(data []byte) (*Model, error) {
	var p persistedModel
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	return &Model{
		labels:   p.Labels,
		maxNGram: p.MaxNGram,
		vec:      newVectorizer(p.Terms, p.IDF),
		lr:       &logisticRegression{weights: p.Weights, bias: p.Bias},
		stats: TrainingStats{
			Labels:   len(p.Labels),
			Features: len(p.Terms),
			Status:   "restored",
		},
	}, nil
}

// check verifies the shape and values of the decoded parameters
func (p *persistedModel) check() error {
	if p.Format != formatName {
		return fmt.Errorf("unknown format %q", p.Format)
	}
	if p.Version != formatVersion {
		return fmt.Errorf("unsupported version %d", p.Version)
	}
	if p.MaxNGram < 1 {
		return fmt.Errorf("invalid max n-gram %d", p.MaxNGram)
	}
	if len(p.Labels) == 0 {
		return fmt.Errorf("no labels")
	}
	if len(p.IDF) != len(p.Terms) {
		return fmt.Errorf("%d idf weights for %d terms", len(p.IDF), len(p.Terms))
	}
	if len(p.Weights) != len(p.Labels) || len(p.Bias) != len(p.Labels) {
		return fmt.Errorf("parameters do not match %d labels", len(p.Labels))
	}

	seen := make(map[string]bool, len(p.Terms))
	for _, term := range p.Terms {
		if seen[term] {
			return fmt.Errorf("duplicate term %q", term)
		}
		seen[term] = true
	}
	if !finite(p.IDF) || !finite(p.Bias) {
		return fmt.Errorf("non-finite parameter")
	}
	for k, row := range p.Weights {
		if len(row) != len(p.Terms) {
			return fmt.Errorf("weight row %d has %d values, want %d", k, len(row), len(p.Terms))
		}
		if !finite(row) {
			return fmt.Errorf("non-finite parameter")
		}
	}
	return nil
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
