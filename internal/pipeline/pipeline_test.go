package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factbot/internal/dataset"
	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/respond"
)

var (
	sharedOnce sync.Once
	sharedData *dataset.DataSet
	sharedInit *Initializer
	sharedErr  error
)

// newTestPipeline builds a pipeline over the default data set. The classifier
// is trained once and shared across tests.
func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()

	sharedOnce.Do(func() {
		sharedData, sharedErr = dataset.Default()
		if sharedErr == nil {
			sharedInit = NewInitializerFromConfig(cfg, sharedData, nil)
		}
	})
	require.NoError(t, sharedErr)

	opts = append([]Option{WithChooser(respond.FirstChooser{})}, opts...)
	p := NewPipeline(cfg, sharedData, sharedInit, nil, opts...)
	require.NoError(t, p.Warm(context.Background()))
	return p
}

func TestProcessMessage_Greeting(t *testing.T) {
	p := newTestPipeline(t)

	resp, err := p.ProcessMessage(context.Background(), "Hello")
	require.NoError(t, err)

	assert.Equal(t, "greeting.hello", resp.Intent)
	assert.Greater(t, resp.Confidence, p.Threshold())
	assert.Equal(t, "Hey there! Ask me anything about the Red Hot Chili Peppers.", resp.Message)
	assert.Empty(t, resp.Entities)
	require.NotEmpty(t, resp.Classifications)
	assert.Equal(t, "greeting.hello", resp.Classifications[0].Label)
}

func TestProcessMessage_BandMembers(t *testing.T) {
	p := newTestPipeline(t)

	resp, err := p.ProcessMessage(context.Background(), "Who are the members of the band?")
	require.NoError(t, err)

	assert.Equal(t, "band.members", resp.Intent)
	for _, name := range []string{"Anthony Kiedis", "Flea", "Chad Smith", "John Frusciante"} {
		assert.Contains(t, resp.Message, name)
	}
}

func TestProcessMessage_OutOfScope(t *testing.T) {
	p := newTestPipeline(t)

	resp, err := p.ProcessMessage(context.Background(), "Tell me about quantum physics")
	require.NoError(t, err)

	assert.Equal(t, "intent.outofscope", resp.Intent)
	assert.Equal(t, "Sorry, I can only help with questions about the Red Hot Chili Peppers.", resp.Message)
}

func TestProcessMessage_PersonAndWork(t *testing.T) {
	p := newTestPipeline(t)

	resp, err := p.ProcessMessage(context.Background(), "Did Flea play on Mother's Milk?")
	require.NoError(t, err)

	require.Len(t, resp.Entities, 2)
	assert.Equal(t, model.EntityPerson, resp.Entities[0].Type)
	assert.Equal(t, "Flea", resp.Entities[0].Reference.Name)
	assert.Equal(t, model.EntityWork, resp.Entities[1].Type)
	assert.Equal(t, "Mother's Milk", resp.Entities[1].Reference.Name)
	assert.NotEmpty(t, resp.Message)
}

func TestProcessMessage_BlankInput(t *testing.T) {
	p := newTestPipeline(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		resp, err := p.ProcessMessage(context.Background(), text)
		require.NoError(t, err)

		assert.Equal(t, model.Unrecognized, resp.Intent)
		assert.Zero(t, resp.Confidence)
		assert.Equal(t, respond.MessageUnrecognized, resp.Message)
		assert.NotNil(t, resp.Classifications)
		assert.Empty(t, resp.Classifications)
		assert.Empty(t, resp.Entities)
	}
}

func TestProcessMessage_InvalidUTF8(t *testing.T) {
	p := newTestPipeline(t)

	resp, err := p.ProcessMessage(context.Background(), "hello \xff\xfe")
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Nil(t, resp)
}

func TestProcessMessage_Idempotent(t *testing.T) {
	p := newTestPipeline(t)

	first, err := p.ProcessMessage(context.Background(), "What albums have they released?")
	require.NoError(t, err)
	second, err := p.ProcessMessage(context.Background(), "What albums have they released?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcessMessage_Concurrent(t *testing.T) {
	p := newTestPipeline(t)
	messages := []string{"Hello", "Who are the members of the band?", "Tell me about quantum physics", "goodbye"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			resp, err := p.ProcessMessage(context.Background(), text)
			assert.NoError(t, err)
			assert.NotEmpty(t, resp.Message)
		}(messages[i%len(messages)])
	}
	wg.Wait()
}

func TestProcessMessage_HandlerPanic(t *testing.T) {
	registry := respond.NewRegistry(respond.Handler{
		Name:    "broken",
		Intents: []string{"greeting.hello"},
		Respond: func(respond.Request) string { panic("boom") },
	})
	p := newTestPipeline(t, WithRegistry(registry))

	resp, err := p.ProcessMessage(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, respond.MessageFailure, resp.Message)
}

func TestProcessMessage_InitializationFailure(t *testing.T) {
	cfg := model.DefaultConfig()
	data := &dataset.DataSet{Corpus: model.Corpus{}, Reference: &model.Reference{}}
	p := NewPipeline(cfg, data, NewInitializerFromConfig(cfg, data, nil), nil)

	resp, err := p.ProcessMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, strings.Contains(err.Error(), "initialize classifier"))
}

func TestGuard_RecoversPanic(t *testing.T) {
	err := guard("classify", func() { panic("boom") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify")

	assert.NoError(t, guard("extract", func() {})())
}
