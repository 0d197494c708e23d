package score

import (
	"math"
	"testing"

	"github.com/ppiankov/factbot/internal/model"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func findMetrics(t *testing.T, metrics []model.IntentMetrics, intent string) model.IntentMetrics {
	t.Helper()
	for _, m := range metrics {
		if m.Intent == intent {
			return m
		}
	}
	t.Fatalf("Expected metrics for %s", intent)
	return model.IntentMetrics{}
}

func hasSignal(signals []model.Signal, typ model.SignalType) bool {
	for _, s := range signals {
		if s.Type == typ {
			return true
		}
	}
	return false
}

func TestScorer_Calculate_Metrics(t *testing.T) {
	predictions := []model.Prediction{
		{Text: "hi", Expected: "greeting.hello", Predicted: "greeting.hello", Confidence: 0.9},
		{Text: "hello", Expected: "greeting.hello", Predicted: "greeting.hello", Confidence: 0.8},
		{Text: "yo", Expected: "greeting.hello", Predicted: "greeting.bye", Confidence: 0.5},
		{Text: "bye", Expected: "greeting.bye", Predicted: "greeting.bye", Confidence: 0.7},
	}

	report := NewScorer().Calculate(predictions, 0.04)

	if report.Total != 4 || report.Correct != 3 {
		t.Errorf("Expected 3/4 correct, got %d/%d", report.Correct, report.Total)
	}
	if !almost(report.Accuracy, 0.75) {
		t.Errorf("Expected accuracy 0.75, got %f", report.Accuracy)
	}

	hello := findMetrics(t, report.PerIntent, "greeting.hello")
	if !almost(hello.Precision, 1) || !almost(hello.Recall, 2.0/3.0) || hello.Support != 3 {
		t.Errorf("Unexpected hello metrics: %+v", hello)
	}
	if !almost(hello.F1, 0.8) {
		t.Errorf("Expected hello F1 0.8, got %f", hello.F1)
	}

	bye := findMetrics(t, report.PerIntent, "greeting.bye")
	if !almost(bye.Precision, 0.5) || !almost(bye.Recall, 1) {
		t.Errorf("Unexpected bye metrics: %+v", bye)
	}

	if report.PerIntent[0].Intent != "greeting.bye" {
		t.Errorf("Expected metrics sorted by intent, got %s first", report.PerIntent[0].Intent)
	}
	if !almost(report.Macro.Precision, 0.75) || report.Macro.Support != 4 {
		t.Errorf("Unexpected macro metrics: %+v", report.Macro)
	}

	if report.Confusion["greeting.hello"]["greeting.bye"] != 1 || report.Confusion["greeting.hello"]["greeting.hello"] != 2 {
		t.Errorf("Unexpected confusion matrix: %v", report.Confusion)
	}

	if !almost(report.Gating.MeanConfidence, 0.725) {
		t.Errorf("Expected mean confidence 0.725, got %f", report.Gating.MeanConfidence)
	}
	if report.Signals[0].Type != model.SignalAccuracy || report.Signals[0].Severity != model.SeverityWarning {
		t.Errorf("Expected accuracy warning first, got %+v", report.Signals[0])
	}
}

func TestScorer_Calculate_Gating(t *testing.T) {
	predictions := []model.Prediction{
		{Expected: "intent.outofscope", Predicted: model.Unrecognized},
		{Expected: model.Unrecognized, Predicted: model.Unrecognized},
		{Expected: "band.members", Predicted: model.Unrecognized},
		{Expected: "band.members", Predicted: "band.members", Confidence: 0.6},
	}

	report := NewScorer("intent.outofscope").Calculate(predictions, 0.5)

	g := report.Gating
	if g.Gated != 3 || g.GatedOutOfScope != 2 || g.GatedInScope != 1 {
		t.Errorf("Unexpected gating: %+v", g)
	}
	if !almost(g.GatedRate, 0.75) || g.Threshold != 0.5 {
		t.Errorf("Unexpected gating rate/threshold: %+v", g)
	}
	if !hasSignal(report.Signals, model.SignalHighGating) {
		t.Error("Expected high gating signal")
	}

	for _, m := range report.PerIntent {
		if m.Intent == model.Unrecognized {
			t.Error("Expected no metrics row for the unrecognized sentinel")
		}
	}
	members := findMetrics(t, report.PerIntent, "band.members")
	if !almost(members.Recall, 0.5) || members.Support != 2 {
		t.Errorf("Unexpected band.members metrics: %+v", members)
	}
}

func TestScorer_Calculate_WeakAndUnseen(t *testing.T) {
	predictions := []model.Prediction{
		{Expected: "album.info", Predicted: "band.members", Confidence: 0.6},
		{Expected: "song.info", Predicted: "song.info", Confidence: 0.6},
		{Expected: "song.info", Predicted: "album.specific", Confidence: 0.6},
		{Expected: "song.info", Predicted: "album.specific", Confidence: 0.6},
		{Expected: "band.members", Predicted: "band.members", Confidence: 0.6},
	}

	report := NewScorer().Calculate(predictions, 0.04)

	if !hasSignal(report.Signals, model.SignalUnseenIntent) {
		t.Error("Expected unseen intent signal for album.info")
	}
	if !hasSignal(report.Signals, model.SignalWeakIntent) {
		t.Error("Expected weak intent signal for song.info")
	}
	if report.Signals[0].Severity != model.SeverityCritical {
		t.Errorf("Expected critical accuracy at 40%%, got %s", report.Signals[0].Severity)
	}
	if hasSignal(report.Signals, model.SignalHighGating) {
		t.Error("Expected no gating signal")
	}
}

func TestScorer_Calculate_Empty(t *testing.T) {
	report := NewScorer().Calculate(nil, 0.04)

	if report.Total != 0 || report.Accuracy != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
	if len(report.PerIntent) != 0 {
		t.Errorf("Expected no per-intent metrics, got %d", len(report.PerIntent))
	}
	if report.Macro.Intent != "macro" {
		t.Errorf("Expected macro row, got %+v", report.Macro)
	}
	if len(report.Signals) != 1 || report.Signals[0].Severity != model.SeverityWarning {
		t.Errorf("Expected a single accuracy warning, got %+v", report.Signals)
	}
}
