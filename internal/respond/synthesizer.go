// Package respond selects the reply for a resolved intent through an ordered
// rule chain: unrecognized, entity handlers, aggregate handlers, corpus
// answers, and finally a no-answer message.
package respond

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/factbot/internal/extract"
	"github.com/ppiankov/factbot/internal/model"
)

// Fixed replies
const (
	MessageUnrecognized = "Sorry, I didn't understand that."
	MessageFailure      = "Sorry, I couldn't process your request."
	messageNoAnswer     = "I understood your intent is '%s', but I don't have a specific response for that yet."
)

// NoAnswerMessage is the reply for a recognized intent without any answer
func NoAnswerMessage(intent string) string {
	return fmt.Sprintf(messageNoAnswer, intent)
}

// Synthesizer picks reply text. It holds only read-only data and is safe for
// concurrent use when its Chooser is.
type Synthesizer struct {
	corpus     model.Corpus
	reference  *model.Reference
	registry   *Registry
	chooser    Chooser
	noneIntent string
	logger     *zap.Logger
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithChooser sets the answer selection source
func WithChooser(c Chooser) Option {
	return func(s *Synthesizer) { s.chooser = c }
}

// WithRegistry replaces the default handlers
func WithRegistry(r *Registry) Option {
	return func(s *Synthesizer) { s.registry = r }
}

// WithNoneIntent sets the reserved label answered like an unrecognized message
func WithNoneIntent(label string) Option {
	return func(s *Synthesizer) { s.noneIntent = label }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSynthesizer creates a new synthesizer over corpus and reference data
func NewSynthesizer(corpus model.Corpus, reference *model.Reference, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		corpus:     corpus,
		reference:  reference,
		registry:   NewRegistry(DefaultHandlers()...),
		chooser:    NewChooser(0),
		noneIntent: "None",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond returns the reply for a resolved intent and the entities found in
// the message. It never returns an empty string; a panicking handler yields
// MessageFailure.
func (s *Synthesizer) Respond(resolved model.ResolvedIntent, entities []model.EntityMatch) (message string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("response handler panicked",
				zap.String("intent", resolved.Intent),
				zap.Any("panic", r))
			message = MessageFailure
		}
	}()

	intent := resolved.Intent

	// 1. Unrecognized
	if resolved.IsUnrecognized() || intent == "" || intent == s.noneIntent {
		return MessageUnrecognized
	}

	// 2. Dedicated handlers that need an entity
	for _, h := range s.registry.Entity(intent) {
		match, ok := extract.First(entities, h.Requires)
		if !ok {
			continue
		}
		if msg := h.Respond(Request{Intent: intent, Entities: entities, Entity: match, Reference: s.reference}); msg != "" {
			s.logger.Debug("answered by handler", zap.String("handler", h.Name), zap.String("intent", intent))
			return msg
		}
	}

	// 3. Aggregate listings from reference data
	for _, h := range s.registry.Aggregates(intent) {
		if msg := h.Respond(Request{Intent: intent, Entities: entities, Reference: s.reference}); msg != "" {
			s.logger.Debug("answered by handler", zap.String("handler", h.Name), zap.String("intent", intent))
			return msg
		}
	}

	// 4. Corpus fallback, first source with answers wins
	if entry, ok := s.corpus.Find(intent); ok {
		replies := entry.Replies()
		return replies[s.chooser.IntN(len(replies))]
	}

	// 5. Recognized but unanswerable
	s.logger.Debug("no answer for intent", zap.String("intent", intent))
	return NoAnswerMessage(intent)
}
