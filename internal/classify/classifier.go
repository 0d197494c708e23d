// Package classify trains and runs the intent classifier: TF-IDF features
// over stemmed n-grams fed into a multinomial logistic regression.
package classify

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/nlp"
)

// Options controls training
type Options struct {
	NoneIntent     string  // Reserved label excluded from training
	MaxNGram       int     // Highest n-gram order
	Regularization float64 // Inverse L2 strength (C)
	MaxIterations  int     // L-BFGS iteration cap
}

// DefaultOptions returns the training defaults
func DefaultOptions() Options {
	return Options{
		NoneIntent:     "None",
		MaxNGram:       3,
		Regularization: 1.0,
		MaxIterations:  200,
	}
}

// OptionsFromConfig maps NLU configuration onto training options,
// keeping defaults for unset values
func OptionsFromConfig(cfg model.NLUConfig) Options {
	opts := DefaultOptions()
	if cfg.NoneIntent != "" {
		opts.NoneIntent = cfg.NoneIntent
	}
	if cfg.MaxNGram > 0 {
		opts.MaxNGram = cfg.MaxNGram
	}
	if cfg.Regularization > 0 {
		opts.Regularization = cfg.Regularization
	}
	if cfg.MaxIterations > 0 {
		opts.MaxIterations = cfg.MaxIterations
	}
	return opts
}

// TrainingStats describes a training run
type TrainingStats struct {
	Examples   int           `json:"examples"`
	Skipped    int           `json:"skipped"` // Utterances that produced no features
	Labels     int           `json:"labels"`
	Features   int           `json:"features"`
	Iterations int           `json:"iterations"`
	Loss       float64       `json:"loss"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"duration"`
}

// Model is a trained classifier. It is immutable and safe for concurrent use.
type Model struct {
	labels   []string
	maxNGram int
	vec      *vectorizer
	lr       *logisticRegression
	stats    TrainingStats
}

// Train fits a classifier on every utterance of every non-reserved intent in corpus
func Train(corpus model.Corpus, opts Options) (*Model, error) {
	start := time.Now()
	if opts.MaxNGram < 1 {
		opts.MaxNGram = 1
	}

	// 1. Collect labeled examples, labels in first-appearance order
	var (
		labels  []string
		labelIx = make(map[string]int)
		docs    [][]string
		ys      []int
		skipped int
	)
	for _, src := range corpus {
		for _, entry := range src.Entries {
			if entry.Intent == "" || entry.Intent == opts.NoneIntent {
				continue
			}
			for _, utt := range entry.Utterances {
				features := nlp.Features(utt, opts.MaxNGram)
				if len(features) == 0 {
					skipped++
					continue
				}
				ix, ok := labelIx[entry.Intent]
				if !ok {
					ix = len(labels)
					labelIx[entry.Intent] = ix
					labels = append(labels, entry.Intent)
				}
				docs = append(docs, features)
				ys = append(ys, ix)
			}
		}
	}
	if len(docs) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	// 2. Vectorize
	vec := fitVectorizer(docs)
	xs := make([]sparseVector, len(docs))
	for i, doc := range docs {
		xs[i] = vec.transform(doc)
	}

	// 3. Fit
	lr, res, err := fitLogistic(xs, ys, len(labels), vec.size(), opts.Regularization, opts.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	return &Model{
		labels:   labels,
		maxNGram: opts.MaxNGram,
		vec:      vec,
		lr:       lr,
		stats: TrainingStats{
			Examples:   len(docs),
			Skipped:    skipped,
			Labels:     len(labels),
			Features:   vec.size(),
			Iterations: res.iterations,
			Loss:       res.loss,
			Status:     res.status,
			Duration:   time.Since(start),
		},
	}, nil
}

// Classify scores text against every known label, highest first.
// Ties keep label order. Blank text yields an empty list.
func (m *Model) Classify(text string) []model.Classification {
	if nlp.IsBlank(text) {
		return []model.Classification{}
	}

	probs := m.lr.predict(m.vec.transform(nlp.Features(text, m.maxNGram)))
	out := make([]model.Classification, len(m.labels))
	for i, label := range m.labels {
		out[i] = model.Classification{Label: label, Score: probs[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Labels returns the trained labels in corpus order
func (m *Model) Labels() []string {
	labels := make([]string, len(m.labels))
	copy(labels, m.labels)
	return labels
}

// Stats returns the statistics of the run that produced the model.
// Restored models only carry label and feature counts.
func (m *Model) Stats() TrainingStats {
	return m.stats
}

// Fingerprint identifies the training input: the same corpus and options
// always produce the same fingerprint.
func Fingerprint(corpus model.Corpus, opts Options) string {
	h := sha256.New()
	writeString := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	writeString(formatName)
	writeString(fmt.Sprintf("%d|%s|%d|%g|%d", formatVersion, opts.NoneIntent, opts.MaxNGram, opts.Regularization, opts.MaxIterations))
	for _, src := range corpus {
		writeString(src.Name)
		for _, entry := range src.Entries {
			writeString(entry.Intent)
			writeString(fmt.Sprint(len(entry.Utterances)))
			for _, utt := range entry.Utterances {
				writeString(utt)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
