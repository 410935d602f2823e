package export

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes comma-separated, LF-terminated records with every field
// quoted, so embedded commas, quotes and newlines always survive a round
// trip. Quotes inside a field are doubled.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer buffering into w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one record.
func (w *Writer) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := w.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := w.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := w.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := w.w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
