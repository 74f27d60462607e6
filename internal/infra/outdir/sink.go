// Package outdir is the filesystem output sink. Files are written into a
// hidden staging directory next to the destination and only appear in the
// destination on Commit.
package outdir

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const partialPrefix = ".readprep-partial-"

var errClosed = errors.New("sink already committed or discarded")

type Sink struct {
	dir     string
	partial string
	log     *slog.Logger

	mu      sync.Mutex
	written map[string]struct{}
	closed  bool
}

type Option func(*Sink)

func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a sink for the destination directory dir. Nothing is created
// until the first Write.
func New(dir string, opts ...Option) *Sink {
	dir = filepath.Clean(dir)
	s := &Sink{
		dir:     dir,
		partial: filepath.Join(filepath.Dir(dir), partialPrefix+filepath.Base(dir)+"-"+uuid.NewString()),
		log:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		written: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ ports.OutputSink    = (*Sink)(nil)
	_ ports.SinkCommitter = (*Sink)(nil)
	_ ports.SinkRemover   = (*Sink)(nil)
)

// Dir is the destination directory.
func (s *Sink) Dir() string { return s.dir }

// Write stores content under name. Names are flat and may be written once.
func (s *Sink) Write(name string, content io.Reader) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return &domain.OpError{Op: "outdir.write", Kind: domain.KindInvalidConfig, Path: name,
			Err: fmt.Errorf("invalid output name %q", name)}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &domain.OpError{Op: "outdir.write", Kind: domain.KindEnvironment, Path: name, Err: errClosed}
	}
	if _, dup := s.written[name]; dup {
		s.mu.Unlock()
		return &domain.OpError{Op: "outdir.write", Kind: domain.KindInvalidConfig, Path: name,
			Err: fmt.Errorf("output %q written twice", name)}
	}
	// Reserve the name so concurrent writers cannot collide.
	s.written[name] = struct{}{}
	s.mu.Unlock()

	if err := s.writeFile(name, content); err != nil {
		s.mu.Lock()
		delete(s.written, name)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Sink) writeFile(name string, content io.Reader) error {
	if err := os.MkdirAll(s.partial, 0o755); err != nil {
		return &domain.OpError{Op: "outdir.mkdir", Kind: domain.KindEnvironment, Path: s.partial, Err: err}
	}

	path := filepath.Join(s.partial, name)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.OpError{Op: "outdir.write", Kind: domain.KindEnvironment, Path: tmp, Err: err}
	}
	_, err = io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return &domain.OpError{Op: "outdir.write", Kind: domain.KindEnvironment, Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &domain.OpError{Op: "outdir.rename", Kind: domain.KindEnvironment, Path: path, Err: err}
	}
	return nil
}

// Remove drops a file written earlier. Removing a name that was never
// written is a no-op.
func (s *Sink) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &domain.OpError{Op: "outdir.remove", Kind: domain.KindEnvironment, Path: name, Err: errClosed}
	}
	if _, ok := s.written[name]; !ok {
		return nil
	}

	path := filepath.Join(s.partial, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.OpError{Op: "outdir.remove", Kind: domain.KindEnvironment, Path: path, Err: err}
	}
	delete(s.written, name)
	return nil
}

// Names lists what has been written so far, sorted.
func (s *Sink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.written))
	for n := range s.written {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Commit moves every written file into the destination directory, creating
// it if needed. Existing files with the same names are replaced.
func (s *Sink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &domain.OpError{Op: "outdir.commit", Kind: domain.KindEnvironment, Path: s.dir, Err: errClosed}
	}
	s.closed = true

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &domain.OpError{Op: "outdir.mkdir", Kind: domain.KindEnvironment, Path: s.dir, Err: err}
	}

	names := make([]string, 0, len(s.written))
	for n := range s.written {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		src := filepath.Join(s.partial, n)
		dst := filepath.Join(s.dir, n)
		if err := os.Rename(src, dst); err != nil {
			return &domain.OpError{Op: "outdir.commit", Kind: domain.KindEnvironment, Path: dst, Err: err}
		}
	}
	if err := os.RemoveAll(s.partial); err != nil {
		return &domain.OpError{Op: "outdir.cleanup", Kind: domain.KindEnvironment, Path: s.partial, Err: err}
	}

	s.log.Info("outdir.committed", "dir", s.dir, "files", len(names))
	return nil
}

// Discard drops everything written. The destination is never touched.
func (s *Sink) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := os.RemoveAll(s.partial); err != nil {
		return &domain.OpError{Op: "outdir.discard", Kind: domain.KindEnvironment, Path: s.partial, Err: err}
	}
	s.log.Info("outdir.discarded", "dir", s.dir, "files", len(s.written))
	return nil
}
