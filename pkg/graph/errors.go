package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocuments is returned when a create or update call resolves to an
	// empty document set.
	ErrNoDocuments = errors.New("no documents match the provided filters or ids")

	// ErrGraphProcessing is returned when an update is refused because
	// another build currently holds the graph.
	ErrGraphProcessing = errors.New("graph is currently processing")
)

// ExtractionError marks a per-chunk extraction failure as recoverable: the
// build loop logs it, skips the chunk, and keeps the results of every other
// chunk. Any other error aborts the whole build.
type ExtractionError struct {
	DocumentID  string
	ChunkNumber int
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for document %s chunk %d: %v", e.DocumentID, e.ChunkNumber, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err belongs to the skip-and-continue failure
// class of the chunk processing loop.
func IsRecoverable(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
