package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/factbot/internal/model"
)

// ErrNotProcessed marks messages dropped because the batch was cancelled
var ErrNotProcessed = errors.New("message not processed")

// Responder processes one chat message
type Responder interface {
	ProcessMessage(ctx context.Context, text string) (*model.ChatResponse, error)
}

// InputMessage is one line of a batch file
type InputMessage struct {
	ID      string `json:"id"`
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
	Intent  string `json:"intent,omitempty"` // Expected intent, for evaluation
}

// MessageJob processes one message after waiting for its channel's turn
type MessageJob struct {
	Message   InputMessage
	Responder Responder
	Limiter   *Limiter
}

// Execute executes the message job
func (j *MessageJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &MessageResult{Message: j.Message}

	if j.Limiter != nil && !j.Limiter.Allow(j.Message.Channel) {
		result.Throttled = true
		if err := j.Limiter.Wait(ctx, j.Message.Channel); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	result.Response, result.Error = j.Responder.ProcessMessage(ctx, j.Message.Text)
	result.Duration = time.Since(start)
	return result
}

// MessageResult represents the result of a message job
type MessageResult struct {
	Message   InputMessage
	Response  *model.ChatResponse
	Error     error
	Duration  time.Duration
	Throttled bool // Had to wait for its channel's rate limit
}

// GetError returns the error from the message result
func (r *MessageResult) GetError() error {
	return r.Error
}

// outputRecord is the JSONL form of a result
type outputRecord struct {
	ID         string              `json:"id"`
	Channel    string              `json:"channel,omitempty"`
	Text       string              `json:"text"`
	Response   *model.ChatResponse `json:"response,omitempty"`
	Error      string              `json:"error,omitempty"`
	DurationMS float64             `json:"duration_ms"`
	Throttled  bool                `json:"throttled,omitempty"`
}

// BatchProcessor processes many messages concurrently
type BatchProcessor struct {
	responder   Responder
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor. A nil limiter disables throttling.
func NewBatchProcessor(responder Responder, concurrency int, limiter *Limiter, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		responder:   responder,
		concurrency: concurrency,
		limiter:     limiter,
		logger:      logger,
	}
}

// ProcessMessages processes messages concurrently and returns results in input order
func (b *BatchProcessor) ProcessMessages(ctx context.Context, messages []InputMessage) []*MessageResult {
	if len(messages) == 0 {
		return []*MessageResult{}
	}

	start := time.Now()
	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, msg := range messages {
		pool.Submit(&MessageJob{
			Message:   msg,
			Responder: b.responder,
			Limiter:   b.limiter,
		})
	}

	results := pool.Wait()

	out := make([]*MessageResult, len(messages))
	failed, throttled := 0, 0
	for i := range messages {
		var r *MessageResult
		if i < len(results) && results[i] != nil {
			r = results[i].(*MessageResult)
		} else {
			r = &MessageResult{Message: messages[i], Error: ErrNotProcessed}
			if cause := context.Cause(ctx); cause != nil {
				r.Error = fmt.Errorf("%w: %w", ErrNotProcessed, cause)
			}
		}
		if r.Error != nil {
			failed++
			b.logger.Warn("message failed", zap.String("id", r.Message.ID), zap.Error(r.Error))
		}
		if r.Throttled {
			throttled++
		}
		out[i] = r
	}

	b.logger.Info("batch complete",
		zap.Int("messages", len(messages)),
		zap.Int("failed", failed),
		zap.Int("throttled", throttled),
		zap.Duration("elapsed", time.Since(start)))

	return out
}

// ProcessFile reads messages from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*MessageResult, error) {
	messages, err := ReadMessagesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	return b.ProcessMessages(ctx, messages), nil
}

// ReadMessagesFromFile reads one message per line. Lines starting with "{"
// are JSON InputMessage records, anything else is plain message text.
// Blank lines and # comments are skipped; missing IDs get a UUID.
// Duplicate messages are kept.
func ReadMessagesFromFile(filePath string) ([]InputMessage, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadMessages(file)
}

// ReadMessages reads messages from r; see ReadMessagesFromFile
func ReadMessages(r io.Reader) ([]InputMessage, error) {
	var messages []InputMessage

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		msg := InputMessage{Text: line}
		if strings.HasPrefix(line, "{") {
			msg = InputMessage{}
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		messages = append(messages, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return messages, nil
}

// WriteResults writes results as JSON lines in order
func WriteResults(w io.Writer, results []*MessageResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		rec := outputRecord{
			ID:         r.Message.ID,
			Channel:    r.Message.Channel,
			Text:       r.Message.Text,
			Response:   r.Response,
			DurationMS: float64(r.Duration) / float64(time.Millisecond),
			Throttled:  r.Throttled,
		}
		if r.Error != nil {
			rec.Error = r.Error.Error()
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write result %s: %w", r.Message.ID, err)
		}
	}
	return nil
}
