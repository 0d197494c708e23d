package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/factbot/internal/cache"
	"github.com/ppiankov/factbot/internal/dataset"
	"github.com/ppiankov/factbot/internal/pipeline"
	"github.com/ppiankov/factbot/internal/validate"
	"github.com/ppiankov/factbot/internal/worker"
)

// modelFile is shared by commands that accept a serialized classifier
var modelFile string

// app is everything a command needs to answer messages
type app struct {
	data     *dataset.DataSet
	store    *cache.ModelStore
	init     *pipeline.Initializer
	pipeline *pipeline.Pipeline
}

// newApp loads the data set and wires the pipeline. Extra initializer options
// are applied after the configured ones.
func newApp(ctx context.Context, extra ...pipeline.InitOption) (*app, error) {
	data, err := dataset.Load(cfg.Data.Dir, cfg.Data.CorpusFiles, cfg.Data.ReferenceFile)
	if err != nil {
		return nil, fmt.Errorf("load data set: %w", err)
	}
	logIssues(ctx, data)

	a := &app{data: data}
	var opts []pipeline.InitOption
	if cfg.Cache.Enabled {
		a.store = cache.NewModelStore(cache.NewLayeredCache(cfg.Cache))
		opts = append(opts, pipeline.WithModelStore(a.store))
	}
	if modelFile != "" {
		raw, err := os.ReadFile(modelFile)
		if err != nil {
			return nil, fmt.Errorf("read model: %w", err)
		}
		opts = append(opts, pipeline.WithPersistedModel(raw))
	}
	opts = append(opts, extra...)

	a.init = pipeline.NewInitializerFromConfig(cfg, data, logger, opts...)
	a.pipeline = pipeline.NewPipeline(cfg, data, a.init, logger)
	return a, nil
}

// batchProcessor returns a processor over the app's pipeline
func (a *app) batchProcessor(workers int) *worker.BatchProcessor {
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	return worker.NewBatchProcessor(a.pipeline, workers, worker.NewLimiterFromConfig(cfg.RateLimiting), logger)
}

// logIssues validates the data set and logs what it finds. Problems never
// block startup; the validate command reports them properly.
func logIssues(ctx context.Context, data *dataset.DataSet) {
	v := validate.NewValidator(validationRules(), cfg.Concurrency.Workers)
	issues, err := v.ValidateCorpus(ctx, data.Corpus)
	if err != nil {
		logger.Warn("corpus validation failed", zap.Error(err))
	}
	issues = append(issues, validate.ValidateReference(data.Reference)...)
	for _, issue := range issues {
		logger.Warn("data issue",
			zap.String("severity", string(issue.Severity)),
			zap.String("source", issue.Source),
			zap.String("subject", issue.Subject),
			zap.String("message", issue.Message))
	}
}

// validationRules returns the default rules with the configured none intent
func validationRules() validate.Rules {
	rules := validate.DefaultRules()
	rules.NoneIntent = cfg.NLU.NoneIntent
	return rules
}
