package runstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const (
	defaultRunsDir = "runs"
	indexFile      = "index.jsonl"
)

type JSONStore struct {
	rootDir     string
	runsDirName string
	writeIndex  bool
	now         func() time.Time
	newID       func() string
}

type Option func(*JSONStore)

// WithIndex enables the JSONL index: runs/index.jsonl. ListRuns needs it.
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

// WithIDFunc is useful for tests.
func WithIDFunc(fn func() string) Option {
	return func(s *JSONStore) { s.newID = fn }
}

func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	runsDir := cfg.Paths.RunsDir
	if strings.TrimSpace(runsDir) == "" {
		runsDir = defaultRunsDir
	}

	s := &JSONStore{
		rootDir:     root,
		runsDirName: runsDir,
		writeIndex:  true,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ArtifactStore = (*JSONStore)(nil)

func (s *JSONStore) dir() string { return filepath.Join(s.rootDir, s.runsDirName) }

func (s *JSONStore) SaveRun(run domain.RunArtifact) (string, error) {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.mkdir",
			Kind: domain.KindEnvironment,
			Path: dir,
			Err:  err,
		}
	}

	toSave := run
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = s.now()
	}
	toSave.StartedAt = toSave.StartedAt.UTC()
	if toSave.ID == "" {
		toSave.ID = s.newID()
	}

	slug := slugify(strings.TrimSuffix(filepath.Base(run.ManifestPath), filepath.Ext(run.ManifestPath)))
	if slug == "" {
		slug = "run"
	}

	short := toSave.ID
	if len(short) > 8 {
		short = short[:8]
	}
	filename := fmt.Sprintf("%s_%s_%s_%s.json",
		toSave.StartedAt.Format("20060102T150405Z"), toSave.Pipeline, slug, short)
	path := filepath.Join(dir, filename)

	b, err := json.MarshalIndent(NewRunDTO(toSave), "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "runstore.marshal",
			Kind: domain.KindEnvironment,
			Path: path,
			Err:  err,
		}
	}

	// Atomic-ish write: tmp then rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.write",
			Kind: domain.KindEnvironment,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "runstore.rename",
			Kind: domain.KindEnvironment,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = s.appendIndex(dir, filename, toSave)
	}

	return toSave.ID, nil
}

type indexEntry struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Pipeline  string    `json:"pipeline"`
	Status    string    `json:"status"`
	Samples   int       `json:"samples"`
	StartedAt time.Time `json:"started_at"`
}

func (s *JSONStore) appendIndex(dir, filename string, run domain.RunArtifact) error {
	line, err := json.Marshal(indexEntry{
		ID:        run.ID,
		File:      filename,
		Pipeline:  string(run.Pipeline),
		Status:    string(run.Status),
		Samples:   len(run.Samples),
		StartedAt: run.StartedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// ListRuns returns indexed runs, newest first. Unparseable index lines are
// skipped.
func (s *JSONStore) ListRuns() ([]domain.RunRef, error) {
	path := filepath.Join(s.dir(), indexFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.OpError{Op: "runstore.list", Kind: domain.KindEnvironment, Path: path, Err: err}
	}

	var refs []domain.RunRef
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		var e indexEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.ID == "" {
			continue
		}
		refs = append(refs, domain.RunRef{
			ID:        e.ID,
			File:      e.File,
			Pipeline:  domain.Pipeline(e.Pipeline),
			Status:    domain.RunStatus(e.Status),
			Samples:   e.Samples,
			StartedAt: e.StartedAt,
		})
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].StartedAt.After(refs[j].StartedAt) })
	return refs, nil
}

// LoadRunJSON finds a run by its full ID or an unambiguous ID prefix.
func (s *JSONStore) LoadRunJSON(id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &domain.OpError{Op: "runstore.load", Kind: domain.KindInvalidConfig, Err: errors.New("run id is empty")}
	}

	refs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	var match []domain.RunRef
	for _, r := range refs {
		if r.ID == id {
			match = []domain.RunRef{r}
			break
		}
		if strings.HasPrefix(r.ID, id) {
			match = append(match, r)
		}
	}

	switch len(match) {
	case 0:
		return nil, &domain.OpError{Op: "runstore.load", Kind: domain.KindNotFound, Path: id, Err: domain.ErrNotFound}
	case 1:
	default:
		return nil, &domain.OpError{Op: "runstore.load", Kind: domain.KindInvalidConfig, Path: id,
			Err: fmt.Errorf("ambiguous run id prefix matches %d runs", len(match))}
	}

	path := filepath.Join(s.dir(), match[0].File)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{Op: "runstore.load", Kind: domain.KindNotFound, Path: path, Err: err}
	}
	return b, nil
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
