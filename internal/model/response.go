package model

// Unrecognized is the resolved intent when no label clears the confidence threshold
const Unrecognized = "unrecognized"

// Classification is one (label, score) pair from the classifier
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"` // In [0,1]
}

// ResolvedIntent is the single decision taken for a message
type ResolvedIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"` // Always 0 when Intent is Unrecognized
}

// IsUnrecognized reports whether no intent was accepted
func (r ResolvedIntent) IsUnrecognized() bool {
	return r.Intent == Unrecognized
}

// EntityType classifies a dictionary match
type EntityType string

const (
	EntityPerson  EntityType = "person"  // Current or former member
	EntityWork    EntityType = "work"    // Album of any category
	EntitySubWork EntityType = "subwork" // Track, tagged with its album
)

// ReferenceEntity is the reference record behind a match. Person and Work are
// nil when the matched key has no record; Name then holds the key itself.
type ReferenceEntity struct {
	Name   string  `json:"name"`
	Person *Person `json:"person,omitempty"`
	Work   *Work   `json:"work,omitempty"`
}

// EntityMatch is one occurrence of a known name or title in a message
type EntityMatch struct {
	Type       EntityType      `json:"type"`
	Reference  ReferenceEntity `json:"reference"`
	ParentWork string          `json:"parent_work,omitempty"` // Sub-works only
}

// ChatResponse is the only output of message processing
type ChatResponse struct {
	Message         string           `json:"message"`
	Intent          string           `json:"intent"`
	Confidence      float64          `json:"confidence"`
	Entities        []EntityMatch    `json:"entities"`
	Classifications []Classification `json:"classifications"`
}
