package cache

import "fmt"

// ModelStore saves and loads serialized classifiers by training fingerprint
type ModelStore struct {
	cache Cache
}

// NewModelStore creates a new model store over any cache
func NewModelStore(c Cache) *ModelStore {
	return &ModelStore{cache: c}
}

// Load returns the serialized model trained for fingerprint
func (s *ModelStore) Load(fingerprint string) ([]byte, bool) {
	return s.cache.Get(ModelKey(fingerprint))
}

// Save stores a serialized model with the cache's default expiry
func (s *ModelStore) Save(fingerprint string, data []byte) error {
	if err := s.cache.Set(ModelKey(fingerprint), data, 0); err != nil {
		return fmt.Errorf("save model %s: %w", fingerprint[:min(12, len(fingerprint))], err)
	}
	return nil
}

// Forget drops the model stored for fingerprint
func (s *ModelStore) Forget(fingerprint string) error {
	return s.cache.Delete(ModelKey(fingerprint))
}
