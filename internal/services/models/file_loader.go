package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
)

const artifactExt = ".json"

// ErrInvalidModelID is returned by Save for ids that cannot name a file.
var ErrInvalidModelID = errors.New("invalid model id")

// FileLoader reads linear artifacts from <dir>/<model_id>.json.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// Dir returns the artifact directory.
func (l *FileLoader) Dir() string { return l.dir }

// path maps modelID to its artifact file. Ids that cannot name a file inside
// dir report false.
func (l *FileLoader) path(modelID string) (string, bool) {
	if modelID == "" || strings.ContainsAny(modelID, `/\`) || strings.Contains(modelID, "..") {
		return "", false
	}
	return filepath.Join(l.dir, modelID+artifactExt), true
}

// Load reads and validates the artifact for modelID.
func (l *FileLoader) Load(_ context.Context, modelID string) (domrepo.ModelHandle, error) {
	p, ok := l.path(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: no local artifact for model id %q", domsvc.ErrArtifactNotFound, modelID)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domsvc.ErrArtifactNotFound, p)
		}
		return nil, fmt.Errorf("read artifact %s: %w", p, err)
	}
	var a LinearArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", p, err)
	}
	if a.ModelID == "" {
		a.ModelID = modelID
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes an artifact atomically, replacing any previous version.
func (l *FileLoader) Save(a *LinearArtifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	p, ok := l.path(a.ModelID)
	if !ok {
		return fmt.Errorf("%w %q", ErrInvalidModelID, a.ModelID)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return os.Rename(tmp, p)
}

// List returns the ids of the artifacts in dir, sorted. A missing dir is empty.
func (l *FileLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, artifactExt))
	}
	sort.Strings(ids)
	return ids, nil
}

var _ domrepo.ModelLoader = (*FileLoader)(nil)
