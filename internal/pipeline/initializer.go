package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/factbot/internal/classify"
	"github.com/ppiankov/factbot/internal/model"
)

// ModelStore persists serialized classifiers by training fingerprint
type ModelStore interface {
	Load(fingerprint string) ([]byte, bool)
	Save(fingerprint string, data []byte) error
	Forget(fingerprint string) error
}

// Initializer produces the classifier exactly once. Concurrent callers that
// arrive while it is being built share the single in-flight build.
// A failed build is not memoized, so a later call tries again.
type Initializer struct {
	corpus     model.Corpus
	opts       classify.Options
	store      ModelStore
	persisted  []byte
	forceTrain bool
	logger     *zap.Logger

	group singleflight.Group
	model atomic.Pointer[classify.Model]
}

// InitOption configures an Initializer
type InitOption func(*Initializer)

// WithModelStore loads from and saves to store
func WithModelStore(store ModelStore) InitOption {
	return func(i *Initializer) { i.store = store }
}

// WithPersistedModel restores data before consulting the store
func WithPersistedModel(data []byte) InitOption {
	return func(i *Initializer) { i.persisted = data }
}

// WithForceTrain skips every persisted model and always trains
func WithForceTrain() InitOption {
	return func(i *Initializer) { i.forceTrain = true }
}

// NewInitializer creates a new initializer for corpus
func NewInitializer(corpus model.Corpus, opts classify.Options, logger *zap.Logger, options ...InitOption) *Initializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Initializer{corpus: corpus, opts: opts, logger: logger}
	for _, o := range options {
		o(i)
	}
	return i
}

// Model returns the classifier, building it on first use. Waiting callers
// give up when ctx is done; the build itself continues for later callers.
func (i *Initializer) Model(ctx context.Context) (*classify.Model, error) {
	if m := i.model.Load(); m != nil {
		return m, nil
	}

	ch := i.group.DoChan("model", func() (interface{}, error) {
		if m := i.model.Load(); m != nil {
			return m, nil
		}
		m, err := i.build()
		if err != nil {
			return nil, err
		}
		i.model.Store(m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*classify.Model), nil
	}
}

// Ready reports whether the classifier has been built
func (i *Initializer) Ready() bool {
	return i.model.Load() != nil
}

// build restores a persisted model when possible and trains otherwise
func (i *Initializer) build() (*classify.Model, error) {
	fingerprint := classify.Fingerprint(i.corpus, i.opts)
	var loadErr error

	if !i.forceTrain {
		// 1. Explicit model bytes
		if len(i.persisted) > 0 {
			m, err := classify.Restore(i.persisted)
			if err == nil {
				i.logger.Info("classifier restored", zap.String("source", "persisted"), zap.Int("labels", len(m.Labels())))
				return m, nil
			}
			loadErr = fmt.Errorf("restore persisted model: %w", err)
			i.logger.Warn("persisted model rejected, retraining", zap.Error(err))
		}

		// 2. Model store
		if i.store != nil {
			if data, ok := i.store.Load(fingerprint); ok {
				m, err := classify.Restore(data)
				if err == nil {
					i.logger.Info("classifier restored",
						zap.String("source", "store"),
						zap.String("fingerprint", short(fingerprint)),
						zap.Int("labels", len(m.Labels())))
					return m, nil
				}
				loadErr = errors.Join(loadErr, fmt.Errorf("restore stored model: %w", err))
				i.logger.Warn("stored model rejected, retraining", zap.Error(err))
				// Unreadable entries must not outlive a failed save
				if err := i.store.Forget(fingerprint); err != nil {
					i.logger.Warn("failed to drop stored model", zap.Error(err))
				}
			}
		}
	}

	// 3. Train
	start := time.Now()
	m, err := classify.Train(i.corpus, i.opts)
	if err != nil {
		return nil, errors.Join(loadErr, fmt.Errorf("train classifier: %w", err))
	}
	stats := m.Stats()
	i.logger.Info("classifier trained",
		zap.Int("examples", stats.Examples),
		zap.Int("labels", stats.Labels),
		zap.Int("features", stats.Features),
		zap.Int("iterations", stats.Iterations),
		zap.String("status", stats.Status),
		zap.Duration("elapsed", time.Since(start)))

	// 4. Persist for the next start; failure only costs a retrain
	if i.store != nil {
		data, err := m.Serialize()
		if err == nil {
			err = i.store.Save(fingerprint, data)
		}
		if err != nil {
			i.logger.Warn("failed to save classifier", zap.Error(err))
		} else {
			i.logger.Debug("classifier saved", zap.String("fingerprint", short(fingerprint)), zap.Int("bytes", len(data)))
		}
	}

	return m, nil
}

func short(fingerprint string) string {
	return fingerprint[:min(12, len(fingerprint))]
}
