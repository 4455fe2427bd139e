package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mmbarrys/navigara/internal/orgraph"
)

const fileProvider = "file"

// FileStore keeps the dataset in a JSON or YAML file, chosen by extension.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the dataset file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) isYAML() bool {
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// DefaultGraph reads the dataset file. When the file does not exist the
// built-in dataset is written to it and returned.
func (s *FileStore) DefaultGraph(ctx context.Context) (*orgraph.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("dataset file is missing, writing default", zap.String("path", s.path))

		ds := DefaultDataset()
		if err := s.write(ds); err != nil {
			return nil, err
		}
		return &ds, nil
	}
	if err != nil {
		return nil, &Error{Provider: fileProvider, Message: "reading dataset", Err: err}
	}

	ds, err := s.decode(data)
	if err != nil {
		return nil, &Error{Provider: fileProvider, Message: fmt.Sprintf("decoding %s", s.path), Err: err}
	}

	s.logger.Debug("dataset loaded",
		zap.String("path", s.path),
		zap.Int("employees", len(ds.Employees)),
		zap.Int("collaborations", len(ds.Edges)),
	)

	return ds, nil
}

// Save validates ds and replaces the dataset file with it.
func (s *FileStore) Save(ctx context.Context, ds orgraph.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g, err := orgraph.FromDataset(ds)
	if err != nil {
		return fmt.Errorf("validating dataset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(g.SnapshotInput())
}

func (s *FileStore) decode(data []byte) (*orgraph.Dataset, error) {
	if !s.isYAML() {
		return orgraph.ParseDataset(data)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &orgraph.ValidationError{Reason: "malformed YAML", Err: err}
	}
	return orgraph.DecodeDataset(doc)
}

func (s *FileStore) encode(ds orgraph.Dataset) ([]byte, error) {
	if s.isYAML() {
		return yaml.Marshal(ds)
	}
	return json.MarshalIndent(ds, "", "  ")
}

// write replaces the file through a temporary sibling so readers never see
// a partial dataset.
func (s *FileStore) write(ds orgraph.Dataset) error {
	data, err := s.encode(ds)
	if err != nil {
		return &Error{Provider: fileProvider, Message: "encoding dataset", Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".dataset-*")
	if err != nil {
		return &Error{Provider: fileProvider, Message: "writing dataset", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &Error{Provider: fileProvider, Message: "writing dataset", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Provider: fileProvider, Message: "writing dataset", Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &Error{Provider: fileProvider, Message: "writing dataset", Err: err}
	}

	return nil
}
