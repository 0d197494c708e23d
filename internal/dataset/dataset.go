// Package dataset loads the corpus and reference data the responder is built
// from, either from a directory or from the embedded default data set.
package dataset

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factbot/internal/model"
)

//go:embed files/*
var embedded embed.FS

// ErrUnsupportedFormat is returned for data files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported data file format")

// DataSet is the fully loaded, read-only input of the responder
type DataSet struct {
	Corpus    model.Corpus
	Reference *model.Reference
}

// Load reads corpus files in priority order and the reference file from dir.
// An empty dir reads the embedded default data set.
func Load(dir string, corpusFiles []string, referenceFile string) (*DataSet, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "files")
		if err != nil {
			return nil, fmt.Errorf("open embedded data: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadFS(fsys, corpusFiles, referenceFile)
}

// LoadFS reads the data set from any file system
func LoadFS(fsys fs.FS, corpusFiles []string, referenceFile string) (*DataSet, error) {
	if len(corpusFiles) == 0 {
		return nil, fmt.Errorf("no corpus files configured")
	}

	ds := &DataSet{Corpus: make(model.Corpus, 0, len(corpusFiles))}
	for _, name := range corpusFiles {
		var src model.CorpusSource
		if err := decodeFile(fsys, name, &src); err != nil {
			return nil, fmt.Errorf("load corpus %s: %w", name, err)
		}
		if src.Name == "" {
			src.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		ds.Corpus = append(ds.Corpus, src)
	}

	ref := &model.Reference{}
	if referenceFile != "" {
		if err := decodeFile(fsys, referenceFile, ref); err != nil {
			return nil, fmt.Errorf("load reference %s: %w", referenceFile, err)
		}
	}
	ds.Reference = ref

	return ds, nil
}

// Default returns the embedded data set with the default file names
func Default() (*DataSet, error) {
	cfg := model.DefaultConfig()
	return Load("", cfg.Data.CorpusFiles, cfg.Data.ReferenceFile)
}

// decodeFile picks the decoder from the file extension
func decodeFile(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, filepath.ToSlash(name))
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return nil
}

// ReadLabeled reads a JSONL file of {"text", "intent"} records. Blank lines
// and lines starting with # are skipped.
func ReadLabeled(path string) ([]model.LabeledMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labeled file: %w", err)
	}

	var out []model.LabeledMessage
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var msg model.LabeledMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// Resubstitution labels every trainable corpus utterance with its intent
func Resubstitution(corpus model.Corpus, noneIntent string) []model.LabeledMessage {
	var out []model.LabeledMessage
	for _, src := range corpus {
		for _, entry := range src.Entries {
			if entry.Intent == "" || entry.Intent == noneIntent {
				continue
			}
			for _, utt := range entry.Utterances {
				if strings.TrimSpace(utt) == "" {
					continue
				}
				out = append(out, model.LabeledMessage{Text: utt, Intent: entry.Intent})
			}
		}
	}
	return out
}
