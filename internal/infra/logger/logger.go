// Package logger owns readprep's process-wide slog logger and the files
// under .readprep/logs: the JSON event log and per-run tool output captures.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"
)

// Dir is where log files live, relative to the project root.
var Dir = filepath.Join(".readprep", "logs")

const (
	fileName       = "readprep.log"
	toolsDir       = "tools"
	defaultMaxSize = "10M"
)

type Config struct {
	Root  string
	Debug bool
	// Mirror receives a copy of every line (os.Stderr for --verbose).
	Mirror io.Writer
	// MaxSize rotates readprep.log to readprep.log.1 at startup once it
	// grows past this size. Human units, e.g. "10M". Empty means 10M.
	MaxSize string
}

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

// Setup opens the event log under root and installs it as L(). The returned
// cleanup closes the file and resets L() to a discard logger.
func Setup(cfg Config) (func() error, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	dir := filepath.Join(filepath.Clean(root), Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		reset()
		return nil, err
	}

	path := filepath.Join(dir, fileName)
	if err := rotate(path, cfg.MaxSize); err != nil {
		reset()
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		reset()
		return nil, err
	}

	var w io.Writer = f
	if cfg.Mirror != nil {
		w = io.MultiWriter(f, cfg.Mirror)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: utcTime}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	l := slog.New(slog.NewJSONHandler(w, opts)).With("pid", os.Getpid())

	mu.Lock()
	global, logFile, logPath = l, f, path
	mu.Unlock()

	l.Info("logger.initialized", "path", path, "debug", cfg.Debug)

	return func() error {
		mu.Lock()
		defer mu.Unlock()
		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		global, logFile, logPath = discard(), nil, ""
		return cerr
	}, nil
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

// rotate keeps one previous generation of the event log.
func rotate(path, maxSize string) error {
	if strings.TrimSpace(maxSize) == "" {
		maxSize = defaultMaxSize
	}
	limit, err := bytefmt.ToBytes(maxSize)
	if err != nil {
		return fmt.Errorf("log max size %q: %w", maxSize, err)
	}

	fi, err := os.Stat(path)
	if err != nil || uint64(fi.Size()) < limit {
		return nil
	}
	return os.Rename(path, path+".1")
}

// ToolOutput creates the file that receives external tool stdout/stderr for
// one batch, .readprep/logs/tools/<pipeline>-<UTC stamp>.log. Used when the
// terminal is taken by the progress view.
func ToolOutput(root, pipeline string, now time.Time) (*os.File, error) {
	dir := filepath.Join(root, Dir, toolsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s.log", pipeline, now.UTC().Format("20060102T150405.000Z"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Path is the open event log, or "" before Setup.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	global, logFile, logPath = discard(), nil, ""
}
