package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldCount is the number of whitespace separated fields of a record line.
const FieldCount = 10

// Field positions inside a record line.
const (
	FieldDate    = 0
	FieldTime    = 1
	FieldPayload = 9
)

// Line is one candidate record of a trace file.
type Line struct {
	File   string
	Number int
	Fields []string
}

// Date returns the date column.
func (l Line) Date() string { return l.Fields[FieldDate] }

// Time returns the time-of-day column.
func (l Line) Time() string { return l.Fields[FieldTime] }

// Payload returns the JSON column.
func (l Line) Payload() string { return l.Fields[FieldPayload] }

// Location formats file:line for logs and errors.
func (l Line) Location() string {
	return fmt.Sprintf("%s:%d", l.File, l.Number)
}

// Reader yields record lines of a single trace file lazily.
// Lines are separated by '\n' only and have no length limit.
// Lines that do not have exactly FieldCount fields are dropped and counted.
type Reader struct {
	name    string
	br      *bufio.Reader
	line    Line
	number  int
	dropped int
	done    bool
	err     error
}

// NewReader wraps r. name is used for Line.File only.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{name: name, br: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next record line. It returns false at end of input or on error.
func (r *Reader) Next() bool {
	for !r.done {
		text, err := r.br.ReadString('\n')
		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				r.err = err
				return false
			}
			if text == "" {
				return false
			}
		}
		r.number++
		fields := SplitFields(strings.TrimSuffix(text, "\n"))
		if len(fields) != FieldCount {
			r.dropped++
			continue
		}
		r.line = Line{File: r.name, Number: r.number, Fields: fields}
		return true
	}
	return false
}

// Line returns the current record line.
func (r *Reader) Line() Line {
	return r.line
}

// Err reports the first read error, if any.
func (r *Reader) Err() error {
	if r.err != nil {
		return fmt.Errorf("trace: read %s after line %d: %w", r.name, r.number, r.err)
	}
	return nil
}

// Lines returns the number of physical lines consumed so far.
func (r *Reader) Lines() int {
	return r.number
}

// Dropped returns how many lines were discarded for having the wrong shape.
func (r *Reader) Dropped() int {
	return r.dropped
}

// SplitFields splits a line at every whitespace character. Adjacent separators
// yield empty fields, so "a  b" has three fields and a trailing '\r' adds one.
func SplitFields(line string) []string {
	fields := make([]string, 0, FieldCount)
	start := 0
	for i, c := range line {
		if unicode.IsSpace(c) {
			fields = append(fields, line[start:i])
			start = i + utf8.RuneLen(c)
		}
	}
	return append(fields, line[start:])
}
