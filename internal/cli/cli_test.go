package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/factbot/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "factbot ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAsk(t *testing.T) {
	out, err := execute(t, "ask", "--no-cache", "--seed", "7", "Who", "are", "the", "members", "of", "the", "band?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	for _, name := range []string{"Anthony Kiedis", "Flea", "Chad Smith", "John Frusciante"} {
		if !strings.Contains(out, name) {
			t.Errorf("reply %q does not mention %s", out, name)
		}
	}
}

func TestAsk_JSON(t *testing.T) {
	out, err := execute(t, "ask", "--no-cache", "--json", "hello")
	askJSON = false
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	var resp model.ChatResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Intent != "greeting.hello" {
		t.Errorf("intent = %q, want greeting.hello", resp.Intent)
	}
	if resp.Message == "" {
		t.Error("empty message")
	}
}

func TestTrainWritesModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	_, err := execute(t, "train", "--no-cache", "--out", path)
	trainOut = ""
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	if !bytes.Contains(data, []byte(`"factbot/logreg"`)) {
		t.Errorf("model file does not look like a serialized classifier")
	}
}

func TestValidateDefaultData(t *testing.T) {
	out, err := execute(t, "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 sources") {
		t.Errorf("unexpected summary %q", out)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"", "console", "json"} {
		l, err := newLogger(model.OutputConfig{LogFormat: format})
		if err != nil {
			t.Errorf("format %q: %v", format, err)
			continue
		}
		_ = l.Sync()
	}

	if _, err := newLogger(model.OutputConfig{LogFormat: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Error("expected error when the file exists")
	}
	_, err = execute(t, "config", "init", "--path", path, "--force")
	initForce, initPath = false, ""
	if err != nil {
		t.Errorf("config init --force: %v", err)
	}

	out, err = execute(t, "config", "show", "--defaults")
	showDefaults = false
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "confidence_threshold: 0.04") {
		t.Errorf("defaults missing threshold:\n%s", out)
	}
}

func TestNoCacheFlagDisablesStore(t *testing.T) {
	if _, err := execute(t, "config", "show", "--no-cache"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Error("expected --no-cache to disable the model cache")
	}
}

func TestEvalResubstitution(t *testing.T) {
	out, err := execute(t, "eval", "--no-cache")
	if err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	for _, want := range []string{"Evaluation", "Accuracy:", "greeting.hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("report misses %q:\n%s", want, out)
		}
	}
}

func TestBatchWritesResultsInOrder(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "messages.jsonl")
	out := filepath.Join(dir, "replies.jsonl")
	lines := `{"id":"m1","channel":"web","text":"Hello"}
{"id":"m2","channel":"web","text":"Who are the members of the band?"}
`
	if err := os.WriteFile(in, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "batch", "--no-cache", "--out", out, in)
	batchOut = ""
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	records := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d:\n%s", len(records), data)
	}

	wantIntent := []string{"greeting.hello", "band.members"}
	for i, line := range records {
		var rec struct {
			ID       string              `json:"id"`
			Response *model.ChatResponse `json:"response"`
			Error    string              `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if rec.ID != fmt.Sprintf("m%d", i+1) {
			t.Errorf("record %d has id %q", i, rec.ID)
		}
		if rec.Error != "" || rec.Response == nil {
			t.Fatalf("record %d failed: %s", i, rec.Error)
		}
		if rec.Response.Intent != wantIntent[i] {
			t.Errorf("record %d intent = %q, want %q", i, rec.Response.Intent, wantIntent[i])
		}
	}
}

func TestChatAnswersEachLine(t *testing.T) {
	rootCmd.SetIn(strings.NewReader("Hello\n\nWho are the members of the band?\nquit\nnever read\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "chat", "--no-cache")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.HasPrefix(out, "> ") {
		t.Errorf("expected a prompt, got %q", out)
	}
	if !strings.Contains(out, "Chad Smith") {
		t.Errorf("expected the members reply, got %q", out)
	}
	if strings.Count(out, "> ") != 4 {
		t.Errorf("expected 4 prompts before quit, got %q", out)
	}
}
