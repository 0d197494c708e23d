package model

import "strings"

// CorpusEntry is one labeled intent: example phrasings plus candidate answers
type CorpusEntry struct {
	Intent     string   `json:"intent" yaml:"intent"`         // Unique within its source
	Utterances []string `json:"utterances" yaml:"utterances"` // Training phrasings
	Answers    []string `json:"answers" yaml:"answers"`       // Fallback replies (may be empty)
}

// Replies returns the answers that have text, in file order
func (e *CorpusEntry) Replies() []string {
	replies := make([]string, 0, len(e.Answers))
	for _, a := range e.Answers {
		if strings.TrimSpace(a) != "" {
			replies = append(replies, a)
		}
	}
	return replies
}

// CorpusSource is one named corpus file
type CorpusSource struct {
	Name    string        `json:"name" yaml:"name"`
	Locale  string        `json:"locale,omitempty" yaml:"locale,omitempty"`
	Entries []CorpusEntry `json:"data" yaml:"data"`
}

// Corpus is the ordered list of sources; order is the fallback-answer priority
type Corpus []CorpusSource

// Find returns the entry for intent in the first source that defines it with
// at least one non-blank answer.
func (c Corpus) Find(intent string) (*CorpusEntry, bool) {
	for i := range c {
		for j := range c[i].Entries {
			entry := &c[i].Entries[j]
			if entry.Intent != intent {
				continue
			}
			if len(entry.Replies()) > 0 {
				return entry, true
			}
			break // intents are unique per source; try the next source
		}
	}
	return nil, false
}

// Intents returns every distinct intent in source order
func (c Corpus) Intents() []string {
	seen := make(map[string]bool)
	var intents []string
	for _, src := range c {
		for _, entry := range src.Entries {
			if !seen[entry.Intent] {
				seen[entry.Intent] = true
				intents = append(intents, entry.Intent)
			}
		}
	}
	return intents
}
