package classify

import "errors"

// Sentinel errors for classifier training and persistence.
var (
	// ErrEmptyTrainingSet is returned when the corpus yields no trainable utterance.
	ErrEmptyTrainingSet = errors.New("corpus produced no training examples")
	// ErrModelLoad is returned when persisted model bytes are unreadable or incompatible.
	ErrModelLoad = errors.New("persisted model cannot be restored")
)
