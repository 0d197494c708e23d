// Package pipeline drives one message through normalization, classification,
// entity extraction, intent resolution and reply selection.
package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/factbot/internal/classify"
	"github.com/ppiankov/factbot/internal/dataset"
	"github.com/ppiankov/factbot/internal/extract"
	"github.com/ppiankov/factbot/internal/intent"
	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/nlp"
	"github.com/ppiankov/factbot/internal/respond"
)

// Pipeline orchestrates message processing. It holds no per-message state
// and is safe for concurrent use.
type Pipeline struct {
	init      *Initializer
	resolver  *intent.Resolver
	extractor *extract.EntityExtractor
	synth     *respond.Synthesizer
	logger    *zap.Logger
}

// Option configures a Pipeline
type Option func(*pipelineOptions)

type pipelineOptions struct {
	chooser  respond.Chooser
	registry *respond.Registry
}

// WithChooser overrides answer selection
func WithChooser(c respond.Chooser) Option {
	return func(o *pipelineOptions) { o.chooser = c }
}

// WithRegistry overrides the dedicated reply handlers
func WithRegistry(r *respond.Registry) Option {
	return func(o *pipelineOptions) { o.registry = r }
}

// NewPipeline creates a new pipeline over a loaded data set. The initializer
// is owned by the caller so several pipelines may share one classifier.
func NewPipeline(cfg *model.Config, data *dataset.DataSet, initializer *Initializer, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := pipelineOptions{chooser: respond.NewChooser(cfg.NLU.Seed)}
	for _, opt := range opts {
		opt(&o)
	}

	synthOpts := []respond.Option{
		respond.WithChooser(o.chooser),
		respond.WithNoneIntent(classify.OptionsFromConfig(cfg.NLU).NoneIntent),
		respond.WithLogger(logger),
	}
	if o.registry != nil {
		synthOpts = append(synthOpts, respond.WithRegistry(o.registry))
	}

	return &Pipeline{
		init:      initializer,
		resolver:  intent.NewResolver(cfg.NLU.ConfidenceThreshold),
		extractor: extract.NewEntityExtractor(extract.BuildDictionaries(data.Reference)),
		synth:     respond.NewSynthesizer(data.Corpus, data.Reference, synthOpts...),
		logger:    logger,
	}
}

// NewInitializerFromConfig creates the initializer a pipeline for cfg would use
func NewInitializerFromConfig(cfg *model.Config, data *dataset.DataSet, logger *zap.Logger, options ...InitOption) *Initializer {
	return NewInitializer(data.Corpus, classify.OptionsFromConfig(cfg.NLU), logger, options...)
}

// Warm builds the classifier ahead of the first message
func (p *Pipeline) Warm(ctx context.Context) error {
	_, err := p.init.Model(ctx)
	return err
}

// Model returns the classifier, building it if needed
func (p *Pipeline) Model(ctx context.Context) (*classify.Model, error) {
	return p.init.Model(ctx)
}

// Threshold returns the confidence threshold in use
func (p *Pipeline) Threshold() float64 {
	return p.resolver.Threshold()
}

// ProcessMessage answers one message. Input that is not valid UTF-8 is
// rejected with ErrInvalidMessage; a classifier that cannot be built is
// reported as an error. Every other failure yields a valid response.
func (p *Pipeline) ProcessMessage(ctx context.Context, raw string) (*model.ChatResponse, error) {
	start := time.Now()

	// 1. Check input
	if !utf8.ValidString(raw) {
		return nil, ErrInvalidMessage
	}

	// 2. Classifier
	if !p.init.Ready() {
		p.logger.Debug("waiting for classifier")
	}
	clf, err := p.init.Model(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize classifier: %w", err)
	}

	// 3. Normalize
	normalized := nlp.Normalize(raw)

	// 4. Classify and extract entities independently
	var (
		classifications []model.Classification
		entities        []model.EntityMatch
		g               errgroup.Group
	)
	g.Go(guard("classify", func() {
		classifications = clf.Classify(normalized)
	}))
	g.Go(guard("extract", func() {
		entities = p.extractor.Extract(normalized)
	}))
	if err := g.Wait(); err != nil {
		p.logger.Error("message processing failed", zap.Error(err))
		return failedResponse(), nil
	}

	// 5. Resolve intent
	resolved := p.resolver.Resolve(classifications)

	// 6. Select reply
	message := p.synth.Respond(resolved, entities)

	p.logger.Debug("message processed",
		zap.String("intent", resolved.Intent),
		zap.Float64("confidence", resolved.Confidence),
		zap.Int("entities", len(entities)),
		zap.Duration("elapsed", time.Since(start)))

	return &model.ChatResponse{
		Message:         message,
		Intent:          resolved.Intent,
		Confidence:      resolved.Confidence,
		Entities:        entities,
		Classifications: classifications,
	}, nil
}

// guard turns a panic in a stage into an error
func guard(stage string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s: panic: %v", stage, r)
			}
		}()
		fn()
		return nil
	}
}

func failedResponse() *model.ChatResponse {
	return &model.ChatResponse{
		Message:         respond.MessageFailure,
		Intent:          model.Unrecognized,
		Entities:        []model.EntityMatch{},
		Classifications: []model.Classification{},
	}
}
