package ports

import "io"

// OutputSink receives the final, compressed result files.
type OutputSink interface {
	Write(name string, content io.Reader) error
}

// SinkRemover is implemented by sinks that can take back a file written
// earlier in the batch.
type SinkRemover interface {
	Remove(name string) error
}

// SinkCommitter is implemented by sinks that buffer writes until the batch
// outcome is known.
type SinkCommitter interface {
	Commit() error
	Discard() error
}
