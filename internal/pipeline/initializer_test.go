package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factbot/internal/classify"
	"github.com/ppiankov/factbot/internal/model"
)

// memoryStore records every call
type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loads   int
	saves   int
	forgets int
	saveErr error
	block   chan struct{} // Load waits on it when set
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Load(fingerprint string) ([]byte, bool) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	data, ok := s.data[fingerprint]
	return data, ok
}

func (s *memoryStore) Save(fingerprint string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[fingerprint] = data
	return nil
}

func (s *memoryStore) Forget(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgets++
	delete(s.data, fingerprint)
	return nil
}

func smallCorpus() model.Corpus {
	return model.Corpus{{
		Name: "test",
		Entries: []model.CorpusEntry{
			{Intent: "greeting.hello", Utterances: []string{"hello", "hi there", "hey"}},
			{Intent: "greeting.bye", Utterances: []string{"goodbye", "see you later", "bye"}},
			{Intent: "None", Utterances: []string{"asdf"}},
		},
	}}
}

func TestInitializer_TrainsOnceUnderConcurrency(t *testing.T) {
	store := newMemoryStore()
	initializer := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store))
	assert.False(t, initializer.Ready())

	const callers = 16
	models := make([]*classify.Model, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := initializer.Model(context.Background())
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	require.NotNil(t, models[0])
	for _, m := range models {
		assert.Same(t, models[0], m)
	}
	assert.True(t, initializer.Ready())
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, store.saves)
}

func TestInitializer_RestoresFromStore(t *testing.T) {
	store := newMemoryStore()
	first := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store))
	trained, err := first.Model(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "restored", trained.Stats().Status)

	second := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store))
	restored, err := second.Model(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "restored", restored.Stats().Status)
	assert.Equal(t, trained.Labels(), restored.Labels())
	assert.Equal(t, 1, store.saves)

	want := trained.Classify("hi there")
	got := restored.Classify("hi there")
	require.NotEmpty(t, got)
	assert.Equal(t, want[0].Label, got[0].Label)
	assert.InDelta(t, want[0].Score, got[0].Score, 1e-12)
}

func TestInitializer_ForceTrainIgnoresStore(t *testing.T) {
	store := newMemoryStore()
	_, err := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store)).Model(context.Background())
	require.NoError(t, err)

	m, err := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store), WithForceTrain()).Model(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "restored", m.Stats().Status)
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 2, store.saves)
}

func TestInitializer_PersistedModel(t *testing.T) {
	trained, err := classify.Train(smallCorpus(), classify.DefaultOptions())
	require.NoError(t, err)
	data, err := trained.Serialize()
	require.NoError(t, err)

	m, err := NewInitializer(nil, classify.DefaultOptions(), nil, WithPersistedModel(data)).Model(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "restored", m.Stats().Status)
	assert.Equal(t, trained.Labels(), m.Labels())
}

func TestInitializer_CorruptModelFallsBackToTraining(t *testing.T) {
	store := newMemoryStore()
	store.data[classify.Fingerprint(smallCorpus(), classify.DefaultOptions())] = []byte(`{"format":"junk"}`)

	initializer := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil,
		WithPersistedModel([]byte("not a model")),
		WithModelStore(store))

	m, err := initializer.Model(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "restored", m.Stats().Status)
	assert.Equal(t, []string{"greeting.hello", "greeting.bye"}, m.Labels())
	assert.Equal(t, 1, store.saves)
}

func TestInitializer_SaveFailureIsNotFatal(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")

	m, err := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store)).Model(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestInitializer_EmptyCorpus(t *testing.T) {
	initializer := NewInitializer(model.Corpus{}, classify.DefaultOptions(), nil)

	_, err := initializer.Model(context.Background())
	assert.ErrorIs(t, err, classify.ErrEmptyTrainingSet)
	assert.False(t, initializer.Ready())

	// Failures are not memoized
	_, err = initializer.Model(context.Background())
	assert.ErrorIs(t, err, classify.ErrEmptyTrainingSet)
}

func TestInitializer_EmptyCorpusAndBadModel(t *testing.T) {
	initializer := NewInitializer(nil, classify.DefaultOptions(), nil, WithPersistedModel([]byte("{")))

	_, err := initializer.Model(context.Background())
	assert.ErrorIs(t, err, classify.ErrEmptyTrainingSet)
	assert.ErrorIs(t, err, classify.ErrModelLoad)
}

func TestInitializer_ContextCanceled(t *testing.T) {
	store := newMemoryStore()
	store.block = make(chan struct{})
	initializer := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := initializer.Model(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The build keeps going for later callers
	close(store.block)
	m, err := initializer.Model(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestInitializer_DropsUnreadableStoredModel(t *testing.T) {
	fp := classify.Fingerprint(smallCorpus(), classify.DefaultOptions())
	store := newMemoryStore()
	store.data[fp] = []byte("garbage")
	store.saveErr = errors.New("read-only cache")

	m, err := NewInitializer(smallCorpus(), classify.DefaultOptions(), nil, WithModelStore(store)).Model(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)

	assert.Equal(t, 1, store.forgets)
	_, ok := store.data[fp]
	assert.False(t, ok, "corrupt entry should be gone even though the save failed")
}
