package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Pending is a fully written temporary file waiting to replace its target.
type Pending struct {
	path string
	tmp  string
	done bool
}

// Stage writes data to a temporary file next to path without touching path
// itself, so readers never observe a truncated target. Parent directories
// are created as needed. The caller must Commit or Abort the result.
func Stage(path string, data []byte, perm os.FileMode) (*Pending, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return nil, fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	return &Pending{path: path, tmp: tmpName}, nil
}

// Commit renames the temporary file over the target.
func (p *Pending) Commit() error {
	if p.done {
		return errors.New("file: pending write already finished")
	}
	p.done = true
	if err := os.Rename(p.tmp, p.path); err != nil {
		_ = os.Remove(p.tmp)
		return fmt.Errorf("rename %s: %w", p.path, err)
	}
	return nil
}

// Abort removes the temporary file. It is a no-op after Commit.
func (p *Pending) Abort() {
	if p.done {
		return
	}
	p.done = true
	_ = os.Remove(p.tmp)
}
