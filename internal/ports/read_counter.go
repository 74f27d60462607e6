package ports

// ReadCounter counts FASTQ records in a (possibly compressed) file.
type ReadCounter interface {
	CountReads(path string) (int64, error)
}
