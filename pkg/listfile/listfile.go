// Package listfile reads list files: one CSV record per line, each describing
// one source object and the file it holds.
package listfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/model"
)

// maxLineLength bounds a single list file line.
const maxLineLength = 1 << 20

// Reader produces one summary per non-blank line. The raw line is attached
// to the summary as its list file row; the first field is the identifier.
//
// Lines that cannot be tokenized still produce a summary, identified by the
// whole line, so the failure is reported against that object downstream.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{scanner: scanner}
}

// Open opens the list file at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}

	r := NewReader(file)
	r.closer = file
	return r, nil
}

// Next returns the next summary, or io.EOF at the end of the file.
func (r *Reader) Next() (*model.ObjectSummary, error) {
	for r.scanner.Scan() {
		r.line++

		row := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(row) == "" {
			continue
		}

		return summaryFor(row, r.line), nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("list file line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close closes the file opened by Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// summaryFor builds the summary for one row. NFS rows whose mode starts with
// 'd' describe directories.
func summaryFor(row string, line int) *model.ObjectSummary {
	record, err := extractor.ParseRecord(row)
	if err != nil {
		logger.Warn("list file line %d: %v", line, err)
		summary := model.NewObjectSummary(row, false, 0)
		summary.SetListFileRow(row)
		return summary
	}

	directory := false
	if t, ok := record.Field(extractor.FieldType); ok && t == extractor.TypeNFS {
		mode, _ := record.Field(extractor.FieldMode)
		directory = strings.HasPrefix(mode, "d")
	}

	summary := model.NewObjectSummary(record[extractor.FieldSourceID], directory, 0)
	summary.SetListFileRow(row)
	return summary
}

// ReadAll returns every summary of r.
func ReadAll(r *Reader) ([]*model.ObjectSummary, error) {
	var summaries []*model.ObjectSummary
	for {
		summary, err := r.Next()
		if errors.Is(err, io.EOF) {
			return summaries, nil
		}
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
}
