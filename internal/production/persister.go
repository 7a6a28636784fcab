// Package production provides production integrations for interpreter
// runtime state: file-based snapshot persistence in JSON and YAML. It does
// not load or parse statechart models — only the running interpreter's
// configuration, history and event queue.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harelcraft/statecraft"
)

// Persister saves and loads interpreter snapshots keyed by an arbitrary
// run identifier (not the statechart name, so multiple runs of the same
// statechart can be tracked independently).
type Persister interface {
	Save(ctx context.Context, runID string, snap statecraft.Snapshot) error
	Load(ctx context.Context, runID string) (statecraft.Snapshot, error)
}

// JSONPersister is a file-based Persister using JSON serialization,
// mirroring the teacher's JSONPersister.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring dir exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) path(runID string) string {
	return filepath.Join(p.dir, runID+".json")
}

// Save writes snap to disk as indented JSON.
func (p *JSONPersister) Save(ctx context.Context, runID string, snap statecraft.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(p.path(runID), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.path(runID), err)
	}
	return nil
}

// Load reads and decodes the snapshot for runID.
func (p *JSONPersister) Load(ctx context.Context, runID string) (statecraft.Snapshot, error) {
	select {
	case <-ctx.Done():
		return statecraft.Snapshot{}, ctx.Err()
	default:
	}
	data, err := os.ReadFile(p.path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return statecraft.Snapshot{}, fmt.Errorf("run %q: %w", runID, os.ErrNotExist)
		}
		return statecraft.Snapshot{}, fmt.Errorf("read %s: %w", p.path(runID), err)
	}
	var snap statecraft.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return statecraft.Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snap, nil
}

// YAMLPersister is a file-based Persister using YAML serialization via
// gopkg.in/yaml.v3, for snapshot formats meant to be hand-edited (for
// example seeding a run at a particular history state).
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring dir exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) path(runID string) string {
	return filepath.Join(p.dir, runID+".yaml")
}

// Save writes snap to disk as YAML.
func (p *YAMLPersister) Save(ctx context.Context, runID string, snap statecraft.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(p.path(runID), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.path(runID), err)
	}
	return nil
}

// Load reads and decodes the snapshot for runID.
func (p *YAMLPersister) Load(ctx context.Context, runID string) (statecraft.Snapshot, error) {
	select {
	case <-ctx.Done():
		return statecraft.Snapshot{}, ctx.Err()
	default:
	}
	data, err := os.ReadFile(p.path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return statecraft.Snapshot{}, fmt.Errorf("run %q: %w", runID, os.ErrNotExist)
		}
		return statecraft.Snapshot{}, fmt.Errorf("read %s: %w", p.path(runID), err)
	}
	var snap statecraft.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return statecraft.Snapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return snap, nil
}
