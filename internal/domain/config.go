package domain

import "time"

// Config represents the readprep configuration loaded from readprep.yaml.
type Config struct {
	Defaults  DefaultsConfig
	Paths     PathsConfig
	Tools     ToolsConfig
	Execution ExecutionConfig
	Trim      TrimConfig
}

type DefaultsConfig struct {
	Params string
}

type PathsConfig struct {
	ManifestsDir string
	ParamsDir    string
	RunsDir      string
}

// ToolsConfig holds the executables to invoke. Bare names are resolved
// through PATH.
type ToolsConfig struct {
	Prinseq      string
	Bowtie2      string
	Bowtie2Build string
	Samtools     string
}

// FailurePolicy decides what a sample failure does to the rest of the batch.
type FailurePolicy string

const (
	// OnErrorAbort stops the batch at the first failure and discards partial
	// output.
	OnErrorAbort FailurePolicy = "abort"
	// OnErrorContinue records the failure and keeps going.
	OnErrorContinue FailurePolicy = "continue"
)

// MissingOutputPolicy decides what an absent tool output means.
type MissingOutputPolicy string

const (
	MissingOutputFail  MissingOutputPolicy = "error"
	// MissingOutputEmpty treats the absence as "no surviving reads" and
	// writes an empty compressed file.
	MissingOutputEmpty MissingOutputPolicy = "empty"
)

type ExecutionConfig struct {
	Workers       int
	Timeout       time.Duration // Per command; zero disables.
	OnError       FailurePolicy
	MissingOutput MissingOutputPolicy
	TempDir       string // Empty means the system temp area.
	MinFreeSpace  uint64 // Bytes; zero disables the check.
	Stats         bool
}

type TrimConfig struct {
	ExpandDerep bool
}

// DefaultConfig provides sane defaults if readprep.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Defaults: DefaultsConfig{
			Params: "default",
		},
		Paths: PathsConfig{
			ManifestsDir: "manifests",
			ParamsDir:    "params",
			RunsDir:      "runs",
		},
		Tools: ToolsConfig{
			Prinseq:      "prinseq-lite.pl",
			Bowtie2:      "bowtie2",
			Bowtie2Build: "bowtie2-build",
			Samtools:     "samtools",
		},
		Execution: ExecutionConfig{
			Workers:       1,
			OnError:       OnErrorAbort,
			MissingOutput: MissingOutputFail,
			Stats:         true,
		},
	}
}

// WorkspaceSpec describes a readprep project to scaffold.
type WorkspaceSpec struct {
	Root string
}
