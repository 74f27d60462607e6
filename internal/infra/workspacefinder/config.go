package workspacefinder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/aalvaropc/readprep/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads readprep.yaml from the project root and applies defaults.
func LoadConfig(root string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	path := ConfigPath(root)
	if path == "" {
		path = filepath.Join(root, ConfigFile)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlConfig
	if err := yaml.Unmarshal(b, &y); err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := y.applyTo(&cfg); err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err),
		}
	}
	return cfg, nil
}

func (y yamlConfig) applyTo(cfg *domain.Config) error {
	r := y.Readprep

	setStr(&cfg.Defaults.Params, r.Defaults.Params)
	setStr(&cfg.Paths.ManifestsDir, r.Paths.ManifestsDir)
	setStr(&cfg.Paths.ParamsDir, r.Paths.ParamsDir)
	setStr(&cfg.Paths.RunsDir, r.Paths.RunsDir)

	setStr(&cfg.Tools.Prinseq, r.Tools.Prinseq)
	setStr(&cfg.Tools.Bowtie2, r.Tools.Bowtie2)
	setStr(&cfg.Tools.Bowtie2Build, r.Tools.Bowtie2Build)
	setStr(&cfg.Tools.Samtools, r.Tools.Samtools)

	e := r.Execution
	if e.Workers != nil {
		if *e.Workers < 1 {
			return fmt.Errorf("execution.workers must be >= 1 (got %d)", *e.Workers)
		}
		cfg.Execution.Workers = *e.Workers
	}
	if e.Timeout != nil && strings.TrimSpace(*e.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(*e.Timeout))
		if err != nil || d < 0 {
			return fmt.Errorf("execution.timeout: invalid duration %q", *e.Timeout)
		}
		cfg.Execution.Timeout = d
	}
	if e.OnError != nil {
		p, err := ParseFailurePolicy(*e.OnError)
		if err != nil {
			return err
		}
		cfg.Execution.OnError = p
	}
	if e.MissingOutput != nil {
		p, err := ParseMissingOutputPolicy(*e.MissingOutput)
		if err != nil {
			return err
		}
		cfg.Execution.MissingOutput = p
	}
	setStr(&cfg.Execution.TempDir, e.TempDir)
	if e.MinFreeSpace != nil && strings.TrimSpace(*e.MinFreeSpace) != "" {
		n, err := bytefmt.ToBytes(strings.TrimSpace(*e.MinFreeSpace))
		if err != nil {
			return fmt.Errorf("execution.min_free_space: %v", err)
		}
		cfg.Execution.MinFreeSpace = n
	}
	if e.Stats != nil {
		cfg.Execution.Stats = *e.Stats
	}

	if r.Trim.ExpandDerep != nil {
		cfg.Trim.ExpandDerep = *r.Trim.ExpandDerep
	}
	return nil
}

// ParseFailurePolicy accepts "abort" or "continue".
func ParseFailurePolicy(s string) (domain.FailurePolicy, error) {
	switch p := domain.FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case domain.OnErrorAbort, domain.OnErrorContinue:
		return p, nil
	}
	return "", fmt.Errorf("execution.on_error must be abort|continue (got %q)", s)
}

// ParseMissingOutputPolicy accepts "error" or "empty".
func ParseMissingOutputPolicy(s string) (domain.MissingOutputPolicy, error) {
	switch p := domain.MissingOutputPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case domain.MissingOutputFail, domain.MissingOutputEmpty:
		return p, nil
	}
	return "", fmt.Errorf("execution.missing_output must be error|empty (got %q)", s)
}

func setStr(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

type yamlConfig struct {
	Readprep struct {
		Defaults struct {
			Params *string `yaml:"params"`
		} `yaml:"defaults"`

		Paths struct {
			ManifestsDir *string `yaml:"manifests_dir"`
			ParamsDir    *string `yaml:"params_dir"`
			RunsDir      *string `yaml:"runs_dir"`
		} `yaml:"paths"`

		Tools struct {
			Prinseq      *string `yaml:"prinseq"`
			Bowtie2      *string `yaml:"bowtie2"`
			Bowtie2Build *string `yaml:"bowtie2_build"`
			Samtools     *string `yaml:"samtools"`
		} `yaml:"tools"`

		Execution struct {
			Workers       *int    `yaml:"workers"`
			Timeout       *string `yaml:"timeout"`
			OnError       *string `yaml:"on_error"`
			MissingOutput *string `yaml:"missing_output"`
			TempDir       *string `yaml:"temp_dir"`
			MinFreeSpace  *string `yaml:"min_free_space"`
			Stats         *bool   `yaml:"stats"`
		} `yaml:"execution"`

		Trim struct {
			ExpandDerep *bool `yaml:"expand_derep"`
		} `yaml:"trim"`
	} `yaml:"readprep"`
}
