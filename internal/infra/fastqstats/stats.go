// Package fastqstats summarizes FASTQ files. Input may be plain or
// compressed; the reader detects the format.
package fastqstats

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

var relaxOnce sync.Once

// fastx keeps reader state in package globals: NewReader sets it and Read
// consults it. Readers must not overlap.
var fastxMu sync.Mutex

// Tool outputs are trusted to be well-formed; skip alphabet checks.
func relax() {
	relaxOnce.Do(func() { seq.ValidateSeq = false })
}

// Stats is the summary of one FASTQ file.
type Stats struct {
	File     string  `json:"file"`
	Reads    int64   `json:"reads"`
	Bases    int64   `json:"bases"`
	MinLen   int     `json:"min_len"`
	MaxLen   int     `json:"max_len"`
	AvgLen   float64 `json:"avg_len"`
	AvgQual  float64 `json:"avg_qual"`
	GCPct    float64 `json:"gc_pct"`
	qualSum  int64
	gcCount  int64
	hasQuals bool
}

type Counter struct{}

func NewCounter() *Counter { return &Counter{} }

var _ ports.ReadCounter = (*Counter)(nil)

// CountReads returns the number of records in path.
func (c *Counter) CountReads(path string) (int64, error) {
	var n int64
	err := each(path, func(*fastx.Record) { n++ })
	return n, err
}

// Summarize reads the whole file and computes its Stats.
func Summarize(path string) (Stats, error) {
	st := Stats{File: filepath.Base(path)}
	err := each(path, func(r *fastx.Record) {
		l := len(r.Seq.Seq)
		if st.Reads == 0 || l < st.MinLen {
			st.MinLen = l
		}
		if l > st.MaxLen {
			st.MaxLen = l
		}
		st.Reads++
		st.Bases += int64(l)

		for _, b := range r.Seq.Seq {
			switch b {
			case 'G', 'C', 'g', 'c', 'S', 's':
				st.gcCount++
			}
		}
		for _, q := range r.Seq.Qual {
			st.qualSum += int64(q) - 33
			st.hasQuals = true
		}
	})
	if err != nil {
		return Stats{}, err
	}

	if st.Reads > 0 {
		st.AvgLen = float64(st.Bases) / float64(st.Reads)
	}
	if st.Bases > 0 {
		st.GCPct = 100 * float64(st.gcCount) / float64(st.Bases)
		if st.hasQuals {
			st.AvgQual = float64(st.qualSum) / float64(st.Bases)
		}
	}
	return st, nil
}

func each(path string, fn func(*fastx.Record)) error {
	relax()

	fi, err := os.Stat(path)
	if err != nil {
		kind := domain.KindEnvironment
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return &domain.OpError{Op: "fastqstats.open", Kind: kind, Path: path, Err: err}
	}
	if fi.Size() == 0 {
		return nil
	}

	fastxMu.Lock()
	defer fastxMu.Unlock()

	reader, err := fastx.NewReader(seq.DNAredundant, path, fastx.DefaultIDRegexp)
	if err != nil {
		return &domain.OpError{Op: "fastqstats.open", Kind: domain.KindDecode, Path: path, Err: err}
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &domain.OpError{Op: "fastqstats.read", Kind: domain.KindDecode, Path: path, Err: err}
		}
		fn(record)
	}
}
