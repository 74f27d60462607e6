// Package gzipio moves FASTQ data in and out of gzip using parallel pgzip
// readers and writers.
package gzipio

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/klauspost/pgzip"

	"github.com/aalvaropc/readprep/internal/domain"
)

const bufSize = 1 << 20

// DecompressFile inflates the gzip file src into a new file dst and returns
// the number of uncompressed bytes written.
//
// Corrupt or non-gzip input is reported as KindDecode; failures to create or
// write dst as KindEnvironment.
func DecompressFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		kind := domain.KindEnvironment
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return 0, &domain.OpError{Op: "gzipio.open", Kind: kind, Path: src, Err: err}
	}
	defer in.Close()

	zr, err := pgzip.NewReader(bufio.NewReaderSize(in, bufSize))
	if err != nil {
		return 0, &domain.OpError{Op: "gzipio.decompress", Kind: domain.KindDecode, Path: src, Err: err}
	}
	defer zr.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, &domain.OpError{Op: "gzipio.create", Kind: domain.KindEnvironment, Path: dst, Err: err}
	}

	w := &trackedWriter{w: bufio.NewWriterSize(out, bufSize)}
	n, err := io.Copy(w, zr)
	if err == nil {
		err = w.flush()
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		w.err = cerr
		err = cerr
	}
	if err != nil {
		if w.err != nil {
			return n, &domain.OpError{Op: "gzipio.write", Kind: domain.KindEnvironment, Path: dst, Err: err}
		}
		return n, &domain.OpError{Op: "gzipio.decompress", Kind: domain.KindDecode, Path: src, Err: err}
	}
	return n, nil
}

// Compress writes the gzip encoding of r to w. The gzip header carries no
// name or modification time, so equal input always yields equal output.
func Compress(w io.Writer, r io.Reader) (int64, error) {
	zw := pgzip.NewWriter(w)
	n, err := io.Copy(zw, r)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// CompressFile is Compress reading from the file at src.
func CompressFile(w io.Writer, src string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Compress(w, bufio.NewReaderSize(f, bufSize))
}

// NewReader opens a gzip stream over r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	return pgzip.NewReader(r)
}

type trackedWriter struct {
	w   *bufio.Writer
	err error
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

func (t *trackedWriter) flush() error {
	if err := t.w.Flush(); err != nil {
		t.err = err
		return err
	}
	return nil
}
