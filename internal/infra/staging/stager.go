package staging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"code.cloudfoundry.org/bytefmt"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/gzipio"
	"github.com/aalvaropc/readprep/internal/ports"
)

// DefaultPrefix names scratch directories so leftovers are recognizable.
const DefaultPrefix = "a-place-to-put-unzipped-fastqs-"

type Stager struct {
	tempDir   string
	prefix    string
	minFree   uint64
	log       *slog.Logger
	freeSpace func(dir string) (uint64, error)
}

type Option func(*Stager)

// WithTempDir sets the parent of scratch workspaces. Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Stager) { s.tempDir = dir }
}

// WithMinFreeSpace refuses to stage when the temp area has fewer free bytes.
func WithMinFreeSpace(n uint64) Option {
	return func(s *Stager) { s.minFree = n }
}

func WithPrefix(prefix string) Option {
	return func(s *Stager) { s.prefix = prefix }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Stager) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFreeSpaceFunc is useful for tests.
func WithFreeSpaceFunc(fn func(dir string) (uint64, error)) Option {
	return func(s *Stager) { s.freeSpace = fn }
}

func New(opts ...Option) *Stager {
	s := &Stager{
		prefix:    DefaultPrefix,
		log:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		freeSpace: freeBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.Stager = (*Stager)(nil)

// Stage creates a fresh scratch directory for sample and, when decompress is
// set, inflates each read file into it as <basename>.fastq. Without
// decompression the workspace points at the original inputs.
//
// On error nothing is left behind.
func (s *Stager) Stage(ctx context.Context, sample domain.Sample, decompress bool) (domain.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return domain.Workspace{}, err
	}

	parent := s.tempDir
	if parent == "" {
		parent = os.TempDir()
	}

	if s.minFree > 0 {
		free, err := s.freeSpace(parent)
		if err != nil {
			return domain.Workspace{}, &domain.OpError{
				Op:   "staging.statfs",
				Kind: domain.KindEnvironment,
				Path: parent,
				Err:  err,
			}
		}
		if free < s.minFree {
			return domain.Workspace{}, &domain.OpError{
				Op:   "staging.statfs",
				Kind: domain.KindEnvironment,
				Path: parent,
				Err: fmt.Errorf("only %s free, need at least %s",
					bytefmt.ByteSize(free), bytefmt.ByteSize(s.minFree)),
			}
		}
	}

	dir, err := os.MkdirTemp(parent, s.prefix)
	if err != nil {
		return domain.Workspace{}, &domain.OpError{
			Op:   "staging.mkdir",
			Kind: domain.KindEnvironment,
			Path: parent,
			Err:  err,
		}
	}

	ws := domain.Workspace{Dir: dir}
	if !decompress {
		ws.Forward = sample.Forward
		ws.Reverse = sample.Reverse
		s.log.Debug("sample.staged", "sample", sample.ID, "workspace", dir, "decompressed", false)
		return ws, nil
	}

	for i, in := range sample.Inputs() {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(dir)
			return domain.Workspace{}, err
		}

		dst := filepath.Join(dir, domain.StagedName(in))
		n, err := gzipio.DecompressFile(in, dst)
		if err != nil {
			_ = os.RemoveAll(dir)
			return domain.Workspace{}, err
		}
		ws.StagedBytes += n

		if i == 0 {
			ws.Forward = dst
		} else {
			ws.Reverse = dst
		}
	}

	s.log.Debug("sample.staged",
		"sample", sample.ID,
		"workspace", dir,
		"decompressed", true,
		"size", bytefmt.ByteSize(uint64(ws.StagedBytes)),
	)
	return ws, nil
}

// Release removes the workspace and everything in it.
func (s *Stager) Release(ws domain.Workspace) error {
	if ws.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		return &domain.OpError{
			Op:   "staging.release",
			Kind: domain.KindEnvironment,
			Path: ws.Dir,
			Err:  err,
		}
	}
	s.log.Debug("sample.released", "workspace", ws.Dir)
	return nil
}
