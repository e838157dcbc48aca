package network

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// weightsFileName and metaFileName name the two files a saved model is
// split across: gob-encoded layer weights, and a JSON sidecar carrying
// everything needed to decide whether those weights still apply.
const (
	weightsFileName = "policy.weights.gob"
	metaFileName    = "policy.meta.json"
)

// heads fixes the on-disk layout of the five sub-networks' layers.
func (p *PolicyNetwork) heads() []*subnet {
	return []*subnet{p.n1, p.n2, p.n3, p.n4, p.n5}
}

// Save writes weights and metadata to dir, replacing any existing
// files atomically via a temp-file-then-rename so a crash mid-write
// never leaves a half-written model behind.
func (p *PolicyNetwork) Save(dir string, meta queenobs.ModelMetadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: %v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, s := range p.heads() {
		for _, layer := range s.layers {
			if err := enc.Encode(layer); err != nil {
				return fmt.Errorf("save: encode %s: %v", s.name, err)
			}
		}
	}

	meta.ArchitectureVersion = queenobs.CurrentArchitectureVersion
	meta.Framework = queenobs.FrameworkTag
	meta.LastSavedAt = time.Now()
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save: marshal metadata: %v", err)
	}

	if err := atomicWrite(filepath.Join(dir, weightsFileName), buf.Bytes()); err != nil {
		return fmt.Errorf("save: weights: %v", err)
	}
	if err := atomicWrite(filepath.Join(dir, metaFileName), metaBytes); err != nil {
		return fmt.Errorf("save: metadata: %v", err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadResult reports what Load did, so a caller can log a fresh-init
// versus a resumed-training outcome.
type LoadResult struct {
	Loaded   bool
	Meta     queenobs.ModelMetadata
	Backedup string // non-empty if an incompatible model was moved aside
}

// Load restores a previously saved model from dir into p. A missing
// model directory is not an error: p keeps its freshly initialized
// weights and LoadResult.Loaded is false. A model saved under an
// incompatible architecture or framework version is backed up under a
// timestamp-suffixed name and treated the same as missing, so training
// can proceed from scratch rather than fail outright.
func (p *PolicyNetwork) Load(dir string) (LoadResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	metaPath := filepath.Join(dir, metaFileName)
	weightsPath := filepath.Join(dir, weightsFileName)

	metaBytes, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return LoadResult{}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("load: metadata: %v", err)
	}

	var meta queenobs.ModelMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return LoadResult{}, fmt.Errorf("load: unmarshal metadata: %v", err)
	}

	if meta.ArchitectureVersion != queenobs.CurrentArchitectureVersion || meta.Framework != queenobs.FrameworkTag {
		backup, err := backupIncompatible(dir)
		if err != nil {
			return LoadResult{}, fmt.Errorf("load: backup incompatible model: %v", err)
		}
		return LoadResult{Backedup: backup}, nil
	}

	data, err := os.ReadFile(weightsPath)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load: weights: %v", err)
	}

	dec := gob.NewDecoder(bytes.NewReader(data))
	for _, s := range p.heads() {
		for _, layer := range s.layers {
			if err := dec.Decode(layer); err != nil {
				return LoadResult{}, fmt.Errorf("load: decode %s: %v", s.name, err)
			}
		}
	}

	return LoadResult{Loaded: true, Meta: meta}, nil
}

// backupIncompatible renames an incompatible model's files aside with
// a timestamp suffix and returns the backup directory.
func backupIncompatible(dir string) (string, error) {
	backupDir := fmt.Sprintf("%s.incompatible.%d", dir, time.Now().Unix())
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	for _, name := range []string{weightsFileName, metaFileName} {
		src := filepath.Join(dir, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(src, filepath.Join(backupDir, name)); err != nil {
			return "", err
		}
	}
	return backupDir, nil
}
