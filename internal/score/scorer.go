// Package score evaluates classifier decisions against labeled messages.
package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/factbot/internal/model"
)

const (
	weakRecall       = 0.5
	highGatingRate   = 0.3
	warningAccuracy  = 0.8
	criticalAccuracy = 0.6
)

// Scorer calculates evaluation metrics and generates signals
type Scorer struct {
	outOfScope map[string]bool
}

// NewScorer creates a new scorer. Expected labels in outOfScope (and the
// unrecognized sentinel) count as correctly gated when the threshold rejects them.
func NewScorer(outOfScope ...string) *Scorer {
	s := &Scorer{outOfScope: map[string]bool{model.Unrecognized: true}}
	for _, label := range outOfScope {
		s.outOfScope[label] = true
	}
	return s
}

// Calculate builds the evaluation report for a set of predictions
func (s *Scorer) Calculate(predictions []model.Prediction, threshold float64) model.EvalReport {
	report := model.EvalReport{
		Total:     len(predictions),
		Confusion: make(map[string]map[string]int),
		Gating:    model.GatingAnalysis{Threshold: threshold},
	}

	// 1. Accuracy and confusion matrix
	for _, p := range predictions {
		if p.Expected == p.Predicted {
			report.Correct++
		}
		row, ok := report.Confusion[p.Expected]
		if !ok {
			row = make(map[string]int)
			report.Confusion[p.Expected] = row
		}
		row[p.Predicted]++
	}
	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}

	// 2. Per-intent precision, recall, F1
	report.PerIntent = s.perIntent(predictions)
	report.Macro = macro(report.PerIntent)

	// 3. Gating
	report.Gating = s.gating(predictions, threshold)

	// 4. Signals
	report.Signals = append(report.Signals, s.accuracySignal(report))
	report.Signals = append(report.Signals, s.weakIntentSignals(report.PerIntent)...)
	if sig, ok := s.gatingSignal(report.Gating); ok {
		report.Signals = append(report.Signals, sig)
	}

	return report
}

// perIntent computes metrics for every label seen as expected or predicted,
// sorted by name. The unrecognized sentinel is not a class of its own.
func (s *Scorer) perIntent(predictions []model.Prediction) []model.IntentMetrics {
	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	support := make(map[string]int)
	labels := make(map[string]bool)

	for _, p := range predictions {
		if p.Expected != model.Unrecognized {
			labels[p.Expected] = true
			support[p.Expected]++
		}
		if p.Predicted != model.Unrecognized {
			labels[p.Predicted] = true
		}

		if p.Expected == p.Predicted {
			tp[p.Expected]++
			continue
		}
		fp[p.Predicted]++
		fn[p.Expected]++
	}

	names := make([]string, 0, len(labels))
	for l := range labels {
		names = append(names, l)
	}
	sort.Strings(names)

	metrics := make([]model.IntentMetrics, 0, len(names))
	for _, l := range names {
		m := model.IntentMetrics{
			Intent:    l,
			Precision: ratio(tp[l], tp[l]+fp[l]),
			Recall:    ratio(tp[l], tp[l]+fn[l]),
			Support:   support[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// macro averages metrics with equal weight per intent
func macro(metrics []model.IntentMetrics) model.IntentMetrics {
	m := model.IntentMetrics{Intent: "macro"}
	if len(metrics) == 0 {
		return m
	}
	for _, im := range metrics {
		m.Precision += im.Precision
		m.Recall += im.Recall
		m.F1 += im.F1
		m.Support += im.Support
	}
	n := float64(len(metrics))
	m.Precision /= n
	m.Recall /= n
	m.F1 /= n
	return m
}

// gating reports how many messages the threshold rejected and whether they
// were expected to be rejected
func (s *Scorer) gating(predictions []model.Prediction, threshold float64) model.GatingAnalysis {
	g := model.GatingAnalysis{Threshold: threshold}

	accepted := 0
	var confSum float64
	for _, p := range predictions {
		if p.Predicted != model.Unrecognized {
			accepted++
			confSum += p.Confidence
			continue
		}
		g.Gated++
		if s.outOfScope[p.Expected] {
			g.GatedOutOfScope++
		} else {
			g.GatedInScope++
		}
	}

	if len(predictions) > 0 {
		g.GatedRate = float64(g.Gated) / float64(len(predictions))
	}
	if accepted > 0 {
		g.MeanConfidence = confSum / float64(accepted)
	}
	return g
}

func (s *Scorer) accuracySignal(r model.EvalReport) model.Signal {
	severity := model.SeverityInfo
	switch {
	case r.Total == 0:
		severity = model.SeverityWarning
	case r.Accuracy < criticalAccuracy:
		severity = model.SeverityCritical
	case r.Accuracy < warningAccuracy:
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAccuracy,
		Severity:    severity,
		Description: fmt.Sprintf("Accuracy: %.1f%% (%d/%d)", r.Accuracy*100, r.Correct, r.Total),
		Data: map[string]interface{}{
			"total":    r.Total,
			"correct":  r.Correct,
			"accuracy": r.Accuracy,
			"macro_f1": r.Macro.F1,
		},
	}
}

// weakIntentSignals flags intents that are never predicted or mostly missed
func (s *Scorer) weakIntentSignals(metrics []model.IntentMetrics) []model.Signal {
	var signals []model.Signal
	for _, m := range metrics {
		if m.Support == 0 {
			continue
		}
		if m.Recall == 0 && m.Precision == 0 {
			signals = append(signals, model.Signal{
				Type:        model.SignalUnseenIntent,
				Severity:    model.SeverityCritical,
				Description: fmt.Sprintf("Intent %s was never predicted correctly", m.Intent),
				Data:        map[string]interface{}{"intent": m.Intent, "support": m.Support},
			})
			continue
		}
		if m.Recall < weakRecall {
			signals = append(signals, model.Signal{
				Type:        model.SignalWeakIntent,
				Severity:    model.SeverityWarning,
				Description: fmt.Sprintf("Intent %s has low recall: %.2f", m.Intent, m.Recall),
				Data: map[string]interface{}{
					"intent":    m.Intent,
					"recall":    m.Recall,
					"precision": m.Precision,
					"support":   m.Support,
				},
			})
		}
	}
	return signals
}

func (s *Scorer) gatingSignal(g model.GatingAnalysis) (model.Signal, bool) {
	if g.GatedRate <= highGatingRate {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalHighGating,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%.1f%% of messages fell below the %.2f confidence threshold", g.GatedRate*100, g.Threshold),
		Data: map[string]interface{}{
			"gated":              g.Gated,
			"gated_in_scope":     g.GatedInScope,
			"gated_out_of_scope": g.GatedOutOfScope,
			"threshold":          g.Threshold,
		},
	}, true
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
