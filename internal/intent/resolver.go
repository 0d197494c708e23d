// Package intent turns a ranked classification list into a single decision.
package intent

import "github.com/ppiankov/factbot/internal/model"

// DefaultThreshold is the confidence a top score must exceed
const DefaultThreshold = 0.04

// Resolver applies the confidence threshold to classifier output
type Resolver struct {
	threshold float64
}

// NewResolver creates a new resolver
func NewResolver(threshold float64) *Resolver {
	return &Resolver{threshold: threshold}
}

// Threshold returns the configured confidence threshold
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve accepts the top-ranked label only when its score is strictly
// greater than the threshold. Anything else is Unrecognized with confidence 0.
func (r *Resolver) Resolve(ranked []model.Classification) model.ResolvedIntent {
	if len(ranked) == 0 {
		return model.ResolvedIntent{Intent: model.Unrecognized}
	}

	top := ranked[0]
	if top.Score > r.threshold {
		return model.ResolvedIntent{Intent: top.Label, Confidence: top.Score}
	}
	return model.ResolvedIntent{Intent: model.Unrecognized}
}
