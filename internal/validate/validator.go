// Package validate checks corpus and reference data for problems that would
// break training or produce wrong replies.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/factbot/internal/model"
)

// Issue is one validation finding
type Issue struct {
	Severity model.SignalSeverity `json:"severity"`
	Source   string               `json:"source"`            // Corpus source name or "reference"
	Subject  string               `json:"subject,omitempty"` // Intent or entity name
	Message  string               `json:"message"`
}

func (i Issue) String() string {
	if i.Subject == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Source, i.Message)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", i.Severity, i.Source, i.Subject, i.Message)
}

// HasCritical reports whether any issue is critical
func HasCritical(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == model.SeverityCritical {
			return true
		}
	}
	return false
}

// Validator checks corpus sources concurrently
type Validator struct {
	rules      Rules
	maxWorkers int
}

// NewValidator creates a new validator
func NewValidator(rules Rules, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Validator{rules: rules, maxWorkers: maxWorkers}
}

// ValidateCorpus checks every source. Issues are grouped by source in corpus order.
func (v *Validator) ValidateCorpus(ctx context.Context, corpus model.Corpus) ([]Issue, error) {
	pattern, err := v.rules.compile()
	if err != nil {
		return nil, err
	}

	perSource := make([][]Issue, len(corpus))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i := range corpus {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			perSource[idx] = v.validateSource(corpus[idx], pattern)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []Issue
	for _, src := range perSource {
		issues = append(issues, src...)
	}
	return issues, nil
}

// validateSource applies the corpus rules to one source
func (v *Validator) validateSource(src model.CorpusSource, pattern *regexp.Regexp) []Issue {
	var issues []Issue
	add := func(sev model.SignalSeverity, subject, format string, args ...interface{}) {
		issues = append(issues, Issue{Severity: sev, Source: src.Name, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	if len(src.Entries) == 0 {
		add(model.SeverityWarning, "", "source has no entries")
	}

	seen := make(map[string]bool)
	for idx, entry := range src.Entries {
		intent := strings.TrimSpace(entry.Intent)
		if intent == "" {
			add(model.SeverityCritical, fmt.Sprintf("#%d", idx), "empty intent name")
			continue
		}
		if seen[intent] {
			add(model.SeverityCritical, intent, "duplicate intent in source")
		}
		seen[intent] = true

		reserved := intent == v.rules.NoneIntent
		if !reserved && pattern != nil && !pattern.MatchString(intent) {
			add(model.SeverityWarning, intent, "intent name does not match %s", v.rules.IntentPattern)
		}

		trainable := 0
		for n, utt := range entry.Utterances {
			if strings.TrimSpace(utt) == "" {
				add(model.SeverityCritical, intent, "utterance %d is empty", n)
				continue
			}
			trainable++
			if v.rules.MaxUtteranceLength > 0 && utf8.RuneCountInString(utt) > v.rules.MaxUtteranceLength {
				add(model.SeverityWarning, intent, "utterance %d longer than %d characters", n, v.rules.MaxUtteranceLength)
			}
		}

		if reserved {
			continue
		}
		if trainable < v.rules.MinUtterances {
			add(model.SeverityWarning, intent, "only %d utterances, want at least %d", trainable, v.rules.MinUtterances)
		}
		if len(entry.Answers) == 0 {
			add(model.SeverityWarning, intent, "no answers")
		} else if blank := len(entry.Answers) - len(entry.Replies()); blank > 0 {
			add(model.SeverityWarning, intent, "%d of %d answers are blank", blank, len(entry.Answers))
		}
	}

	return issues
}

// ValidateReference checks entity names and release metadata
func ValidateReference(ref *model.Reference) []Issue {
	var issues []Issue
	add := func(sev model.SignalSeverity, subject, format string, args ...interface{}) {
		issues = append(issues, Issue{Severity: sev, Source: "reference", Subject: subject, Message: fmt.Sprintf(format, args...)})
	}
	if ref == nil {
		add(model.SeverityCritical, "", "no reference data")
		return issues
	}

	people := make(map[string]bool)
	for i, p := range ref.People() {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			add(model.SeverityCritical, fmt.Sprintf("person #%d", i), "empty person name")
			continue
		}
		if people[key] {
			add(model.SeverityWarning, p.Name, "duplicate person name")
		}
		people[key] = true
	}

	works := make(map[string]bool)
	for _, cat := range ref.Discography {
		for i, w := range cat.Works {
			key := strings.ToLower(strings.TrimSpace(w.Name))
			if key == "" {
				add(model.SeverityCritical, fmt.Sprintf("%s #%d", cat.Name, i), "empty work name")
				continue
			}
			if works[key] {
				add(model.SeverityWarning, w.Name, "duplicate work name")
			}
			works[key] = true
			if w.ReleaseDate == "" {
				add(model.SeverityWarning, w.Name, "missing release date")
			}
			for n, track := range w.Tracks {
				if strings.TrimSpace(track) == "" {
					add(model.SeverityCritical, w.Name, "track %d has an empty title", n)
				}
			}
		}
	}

	return issues
}
