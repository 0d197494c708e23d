package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/factbot/internal/model"
)

// mockResponder implements Responder
type mockResponder struct {
	calls int32
	fail  string // Text that produces an error
}

func (m *mockResponder) ProcessMessage(ctx context.Context, text string) (*model.ChatResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(time.Millisecond)
	if text == m.fail {
		return nil, errors.New("invalid message")
	}
	return &model.ChatResponse{Message: "re: " + text, Intent: "greeting.hello", Confidence: 0.9}, nil
}

func TestBatchProcessor_ProcessMessages(t *testing.T) {
	responder := &mockResponder{fail: "bad"}
	processor := NewBatchProcessor(responder, 3, NewLimiter(0, 1), nil)

	messages := []InputMessage{
		{ID: "1", Text: "hello"},
		{ID: "2", Text: "bad"},
		{ID: "3", Text: "hello"},
		{ID: "4", Channel: "slack", Text: "bye"},
	}

	results := processor.ProcessMessages(context.Background(), messages)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Message.ID != messages[i].ID {
			t.Errorf("expected result %d to be message %s, got %s", i, messages[i].ID, r.Message.ID)
		}
	}
	if results[1].Error == nil || results[1].Response != nil {
		t.Errorf("expected error result for bad message, got %+v", results[1])
	}
	if results[3].Response == nil || results[3].Response.Message != "re: bye" {
		t.Errorf("unexpected response: %+v", results[3].Response)
	}
	if atomic.LoadInt32(&responder.calls) != 4 {
		t.Errorf("expected duplicates to be processed, got %d calls", responder.calls)
	}
}

func TestBatchProcessor_ProcessMessages_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockResponder{}, 2, nil, nil)

	results := processor.ProcessMessages(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockResponder{}, 1, NewLimiter(0.001, 1), nil)
	results := processor.ProcessMessages(ctx, []InputMessage{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error == nil {
			t.Errorf("expected error for message %s", r.Message.ID)
		}
	}
}

func TestReadMessages(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"Hello",
		"",
		`{"id":"m1","channel":"web","text":"Who are the members?"}`,
		`{"text":"no id"}`,
		"Hello",
	}, "\n")

	messages, err := ReadMessages(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[1].ID != "m1" || messages[1].Channel != "web" {
		t.Errorf("unexpected JSON message: %+v", messages[1])
	}
	for _, i := range []int{0, 2, 3} {
		if _, err := uuid.Parse(messages[i].ID); err != nil {
			t.Errorf("expected generated UUID for message %d, got %q", i, messages[i].ID)
		}
	}
	if messages[0].ID == messages[3].ID {
		t.Error("expected duplicate texts to get distinct IDs")
	}
}

func TestReadMessages_BadJSON(t *testing.T) {
	if _, err := ReadMessages(strings.NewReader("{broken")); err == nil {
		t.Error("expected error for malformed JSON line")
	}
}

func TestReadMessagesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	if err := os.WriteFile(path, []byte("hello\nbye\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	messages, err := ReadMessagesFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(messages))
	}

	if _, err := ReadMessagesFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	_ = os.WriteFile(path, []byte("hello\n# skip\nbye\n"), 0o644)

	processor := NewBatchProcessor(&mockResponder{}, 2, nil, nil)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[1].Message.Text != "bye" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestWriteResults(t *testing.T) {
	results := []*MessageResult{
		{Message: InputMessage{ID: "1", Text: "hi"}, Response: &model.ChatResponse{Message: "Hello!", Intent: "greeting.hello"}},
		{Message: InputMessage{ID: "2", Text: "bad"}, Error: errors.New("boom")},
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first outputRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.Response == nil || first.Response.Message != "Hello!" || first.Error != "" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if !strings.Contains(lines[1], `"error":"boom"`) {
		t.Errorf("expected error in second record, got %s", lines[1])
	}
}

func TestBatchProcessor_MarksThrottledMessages(t *testing.T) {
	processor := NewBatchProcessor(&mockResponder{}, 2, NewLimiter(5, 1), nil)
	messages := []InputMessage{
		{ID: "1", Channel: "web", Text: "hello"},
		{ID: "2", Channel: "web", Text: "hello again"},
		{ID: "3", Channel: "slack", Text: "hi"},
	}

	results := processor.ProcessMessages(context.Background(), messages)

	throttled := 0
	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("message %s: unexpected error %v", r.Message.ID, r.Error)
		}
		if r.Throttled {
			throttled++
			if r.Message.Channel != "web" {
				t.Errorf("message %s on %s should not wait", r.Message.ID, r.Message.Channel)
			}
		}
	}
	if throttled != 1 {
		t.Errorf("expected 1 throttled message, got %d", throttled)
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		t.Fatalf("write results: %v", err)
	}
	if strings.Count(buf.String(), `"throttled":true`) != 1 {
		t.Errorf("expected one throttled record in output:\n%s", buf.String())
	}
}
