package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type sinkKind int

const (
	sinkNone sinkKind = iota
	sinkStderr
	sinkStdout
	sinkFile
)

// RotatingFile is an io.Writer with CUPS-style single-backup rotation:
// when a write would push the file past maxSize bytes, the file is
// renamed to "<path>.O" and a fresh one is started. The special targets
// "stderr", "stdout", "-" and "none" bypass rotation entirely.
type RotatingFile struct {
	mu      sync.Mutex
	kind    sinkKind
	path    string
	maxSize int64
}

func NewRotatingFile(path string, maxSize int64) *RotatingFile {
	path = strings.TrimSpace(path)
	return &RotatingFile{kind: classifySink(path), path: path, maxSize: maxSize}
}

func classifySink(path string) sinkKind {
	switch strings.ToLower(path) {
	case "", "none", "off", "syslog":
		return sinkNone
	case "stderr", "-":
		return sinkStderr
	case "stdout":
		return sinkStdout
	}
	return sinkFile
}

// Enabled reports whether writes go anywhere.
func (r *RotatingFile) Enabled() bool {
	return r != nil && r.kind != sinkNone
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	if r == nil {
		return len(p), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.kind {
	case sinkNone:
		return len(p), nil
	case sinkStderr:
		return os.Stderr.Write(p)
	case sinkStdout:
		return os.Stdout.Write(p)
	}
	return r.appendFile(p)
}

// appendFile rotates when needed, then appends. The file is opened per
// write so an external removal or rename never strands a handle.
func (r *RotatingFile) appendFile(p []byte) (int, error) {
	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := r.rotate(int64(len(p))); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}

func (r *RotatingFile) rotate(incoming int64) error {
	if r.maxSize <= 0 {
		return nil
	}
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size()+incoming <= r.maxSize {
		return nil
	}
	backup := r.path + ".O"
	_ = os.Remove(backup)
	if err := os.Rename(r.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ io.Writer = (*RotatingFile)(nil)
