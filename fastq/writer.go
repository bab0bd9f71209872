package fastq

import (
	"io"

	"github.com/marcelm/dnaio"
)

// Writer writes records in FASTQ format. With twoHeaders set, the record
// name is repeated on the separator line, typically propagated from
// Parser.TwoHeaders to preserve the input style.
type Writer[T dnaio.Text] struct {
	w          io.Writer
	twoHeaders bool
	buf        []byte
}

// NewWriter constructs a Writer that writes records to w.
func NewWriter[T dnaio.Text](w io.Writer, twoHeaders bool) *Writer[T] {
	return &Writer[T]{w: w, twoHeaders: twoHeaders}
}

// Write writes one record. It fails with a QualitiesRequired FormatError if
// the record has no qualities, or with the underlying writer's error.
func (w *Writer[T]) Write(r *dnaio.Record[T]) error {
	buf, err := r.AppendFastq(w.buf[:0], w.twoHeaders)
	if err != nil {
		return err
	}
	w.buf = buf
	_, err = w.w.Write(buf)
	return err
}
