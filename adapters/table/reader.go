package table

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

const maxLineBytes = 64 << 20

// Source is a restartable results table. Every traversal reopens the
// underlying file, so two calls to Records yield the same sequence.
type Source struct {
	name string
	open func() (io.ReadCloser, error)
}

// Open returns a Source reading the file at path
func Open(path string) *Source {
	return &Source{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewSource wraps an opener; name is used only in error messages.
func NewSource(name string, open func() (io.ReadCloser, error)) *Source {
	return &Source{name: name, open: open}
}

// FromString is a Source over literal table text
func FromString(name, text string) *Source {
	return NewSource(name, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(text)), nil
	})
}

// Name returns the path or label of the source
func (s *Source) Name() string { return s.name }

// Records lazily yields every data row. The first error ends the sequence.
func (s *Source) Records() iter.Seq2[results.Record, error] {
	return func(yield func(results.Record, error) bool) {
		stopped := false
		err := s.scan(nil, func(r results.Record) bool {
			if !yield(r, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(results.Record{}, err)
		}
	}
}

// ParseAll materialises the source into populations keyed by name, keeping
// per-name row order.
func ParseAll(src *Source) (*results.Table, error) {
	var table *results.Table
	err := src.scan(
		func(schema *results.Schema) { table = results.NewTable(schema) },
		func(r results.Record) bool {
			table.Add(r)
			return true
		},
	)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// LoadFile is ParseAll over a file path
func LoadFile(path string) (*results.Table, error) {
	return ParseAll(Open(path))
}

func (s *Source) scan(onHeader func(*results.Schema), onRecord func(results.Record) bool) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("open results table %s: %w", s.name, err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var schema *results.Schema
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)

		if schema == nil {
			schema, err = results.NewSchema(tokens)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", s.name, lineNo, err)
			}
			if onHeader != nil {
				onHeader(schema)
			}
			continue
		}

		values := make([]results.Value, len(tokens))
		for i, tok := range tokens {
			values[i] = results.Coerce(tok)
		}
		record, err := results.NewRecord(schema, values, lineNo)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if !onRecord(record) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read results table %s: %w", s.name, err)
	}
	if schema == nil {
		return fmt.Errorf("%s: %w", s.name, core.ErrEmptyTable)
	}
	return nil
}
