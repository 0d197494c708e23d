package model

// LabeledMessage is one evaluation example
type LabeledMessage struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

// Prediction pairs an evaluation example with the pipeline's decision
type Prediction struct {
	Text       string  `json:"text"`
	Expected   string  `json:"expected"`
	Predicted  string  `json:"predicted"`
	Confidence float64 `json:"confidence"`
}

// EvalReport is the complete classifier evaluation
type EvalReport struct {
	Total     int             `json:"total"`
	Correct   int             `json:"correct"`
	Accuracy  float64         `json:"accuracy"`
	Macro     IntentMetrics   `json:"macro"` // Intent field is "macro"
	PerIntent []IntentMetrics `json:"per_intent"`

	// Confusion[expected][predicted] = count
	Confusion map[string]map[string]int `json:"confusion"`

	Gating  GatingAnalysis `json:"gating"`
	Signals []Signal       `json:"signals"`
}

// IntentMetrics holds per-intent precision/recall/F1
type IntentMetrics struct {
	Intent    string  `json:"intent"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"` // Number of examples expecting this intent
}

// GatingAnalysis describes how often the confidence threshold rejected a message
type GatingAnalysis struct {
	Threshold       float64 `json:"threshold"`
	Gated           int     `json:"gated"` // Resolved to unrecognized
	GatedRate       float64 `json:"gated_rate"`
	GatedOutOfScope int     `json:"gated_out_of_scope"` // Expected unrecognized or out-of-scope
	GatedInScope    int     `json:"gated_in_scope"`     // A real intent was expected
	MeanConfidence  float64 `json:"mean_confidence"`    // Over accepted predictions
}

// Signal is a diagnostic finding with its scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the diagnostic signal
type SignalType string

const (
	SignalAccuracy     SignalType = "accuracy"      // Overall accuracy level
	SignalWeakIntent   SignalType = "weak_intent"   // Intent with low recall
	SignalHighGating   SignalType = "high_gating"   // Too many messages fell below threshold
	SignalUnseenIntent SignalType = "unseen_intent" // Expected intent never predicted
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
