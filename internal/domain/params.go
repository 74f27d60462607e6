package domain

import (
	"fmt"
	"sort"
	"strings"
)

// QualStat is the statistic PRINSEQ computes over the trimming window.
type QualStat string

const (
	QualMin  QualStat = "min"
	QualMean QualStat = "mean"
	QualMax  QualStat = "max"
	QualSum  QualStat = "sum"
)

// LCMethod selects the low-complexity filter.
type LCMethod string

const (
	LCDust    LCMethod = "dust"
	LCEntropy LCMethod = "entropy"
)

// DerepCode is one duplicate type understood by PRINSEQ's -derep option:
// 1 exact, 2 5' prefix, 3 3' suffix, 4 reverse-complement exact,
// 5 reverse-complement 5'/3'.
type DerepCode string

// DerepMode is an ordered selection of duplicate types.
type DerepMode []DerepCode

// TrimParams are the PRINSEQ-lite quality trimming/filtering options.
type TrimParams struct {
	TrimQualRight  int
	TrimQualType   QualStat
	TrimQualWindow int
	MinQualMean    int
	MinLen         int
	LCMethod       LCMethod
	LCThreshold    int
	Derep          DerepMode
}

// DefaultTrimParams mirrors the defaults of the QIIME 2 prinseq methods.
func DefaultTrimParams() TrimParams {
	return TrimParams{
		TrimQualRight:  30,
		TrimQualType:   QualMin,
		TrimQualWindow: 5,
		MinQualMean:    20,
		MinLen:         70,
		LCMethod:       LCDust,
		LCThreshold:    3,
		Derep:          DerepMode{"1", "4"},
	}
}

// Validate enforces the documented ranges and choice sets.
func (p TrimParams) Validate() error {
	var problems []string
	positive := func(name string, v int) {
		if v < 1 {
			problems = append(problems, fmt.Sprintf("%s must be >= 1 (got %d)", name, v))
		}
	}

	positive("trim_qual_right", p.TrimQualRight)
	positive("trim_qual_window", p.TrimQualWindow)
	positive("min_qual_mean", p.MinQualMean)
	positive("min_len", p.MinLen)

	switch p.TrimQualType {
	case QualMin, QualMean, QualMax, QualSum:
	default:
		problems = append(problems, fmt.Sprintf("trim_qual_type must be one of min|mean|max|sum (got %q)", p.TrimQualType))
	}
	switch p.LCMethod {
	case LCDust, LCEntropy:
	default:
		problems = append(problems, fmt.Sprintf("lc_method must be one of dust|entropy (got %q)", p.LCMethod))
	}
	if p.LCThreshold < 0 || p.LCThreshold > 100 {
		problems = append(problems, fmt.Sprintf("lc_threshold must be within 0..100 (got %d)", p.LCThreshold))
	}
	if err := p.Derep.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	return joinProblems("trim", problems)
}

// ParseDerep accepts either a list of codes or concatenated digits
// ("14" or "1,4") and returns the codes in the given order.
func ParseDerep(values ...string) (DerepMode, error) {
	var out DerepMode
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			for _, r := range part {
				out = append(out, DerepCode(string(r)))
			}
		}
	}
	return out, out.Validate()
}

// Validate reports codes outside 1..5.
func (d DerepMode) Validate() error {
	for _, c := range d {
		switch c {
		case "1", "2", "3", "4", "5":
		default:
			return fmt.Errorf("derep codes must be within 1..5 (got %q)", string(c))
		}
	}
	return nil
}

// Token flattens the mode into the single digit string PRINSEQ accepts.
// Without expansion the codes are concatenated as given, e.g. [1 4] -> "14".
// With expansion the implied codes are added (2 and 3 imply 1, 5 implies 4)
// and the result is deduplicated and sorted, so [2] and [1 2] both give "12".
func (d DerepMode) Token(expand bool) string {
	if !expand {
		var b strings.Builder
		for _, c := range d {
			b.WriteString(string(c))
		}
		return b.String()
	}

	set := map[DerepCode]bool{}
	for _, c := range d {
		set[c] = true
		switch c {
		case "2", "3":
			set["1"] = true
		case "5":
			set["4"] = true
		}
	}
	codes := make([]string, 0, len(set))
	for c := range set {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	return strings.Join(codes, "")
}

// AlignMode is bowtie2's alignment mode.
type AlignMode string

const (
	AlignLocal  AlignMode = "local"
	AlignGlobal AlignMode = "global"
)

// Sensitivity is a bowtie2 preset.
type Sensitivity string

const (
	SensVeryFast      Sensitivity = "very-fast"
	SensFast          Sensitivity = "fast"
	SensSensitive     Sensitivity = "sensitive"
	SensVerySensitive Sensitivity = "very-sensitive"
)

// FilterParams drive the bowtie2/samtools alignment filter.
type FilterParams struct {
	Threads           int
	Mode              AlignMode
	Sensitivity       Sensitivity
	RefGapOpenPenalty int
	RefGapExtPenalty  int
	// ExcludeSeqs drops reads that align to the reference when true and
	// keeps only aligned reads when false.
	ExcludeSeqs bool
}

func DefaultFilterParams() FilterParams {
	return FilterParams{
		Threads:           1,
		Mode:              AlignLocal,
		Sensitivity:       SensSensitive,
		RefGapOpenPenalty: 5,
		RefGapExtPenalty:  3,
		ExcludeSeqs:       true,
	}
}

func (p FilterParams) Validate() error {
	var problems []string
	if p.Threads < 1 {
		problems = append(problems, fmt.Sprintf("n_threads must be >= 1 (got %d)", p.Threads))
	}
	switch p.Mode {
	case AlignLocal, AlignGlobal:
	default:
		problems = append(problems, fmt.Sprintf("mode must be one of local|global (got %q)", p.Mode))
	}
	switch p.Sensitivity {
	case SensVeryFast, SensFast, SensSensitive, SensVerySensitive:
	default:
		problems = append(problems, fmt.Sprintf("sensitivity must be one of very-fast|fast|sensitive|very-sensitive (got %q)", p.Sensitivity))
	}
	if p.RefGapOpenPenalty < 1 {
		problems = append(problems, fmt.Sprintf("ref_gap_open_penalty must be >= 1 (got %d)", p.RefGapOpenPenalty))
	}
	if p.RefGapExtPenalty < 1 {
		problems = append(problems, fmt.Sprintf("ref_gap_ext_penalty must be >= 1 (got %d)", p.RefGapExtPenalty))
	}
	return joinProblems("filter", problems)
}

// IndexParams drive bowtie2-build.
type IndexParams struct {
	Threads int
}

func DefaultIndexParams() IndexParams {
	return IndexParams{Threads: 1}
}

func (p IndexParams) Validate() error {
	if p.Threads < 1 {
		return joinProblems("index", []string{fmt.Sprintf("n_threads must be >= 1 (got %d)", p.Threads)})
	}
	return nil
}

// Profile is a named parameter set loaded from params/<name>.yaml.
type Profile struct {
	Name   string
	Path   string
	Trim   TrimParams
	Filter FilterParams
	Index  IndexParams
}

// DefaultProfile returns the built-in parameter set.
func DefaultProfile() Profile {
	return Profile{
		Name:   "default",
		Trim:   DefaultTrimParams(),
		Filter: DefaultFilterParams(),
		Index:  DefaultIndexParams(),
	}
}

// ProfileRef is a lightweight reference to a profile file on disk.
type ProfileRef struct {
	Name string
	Path string
}

func joinProblems(section string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &OpError{
		Op:   "params.validate",
		Kind: KindInvalidConfig,
		Err:  fmt.Errorf("%s: %s: %w", section, strings.Join(problems, "; "), ErrInvalidConfig),
	}
}
