package results

import (
	"fmt"
	"strconv"
	"strings"

	"tamperstat/domain/core"
)

// Kind is the coerced type of one table cell
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "text"
	}
}

// Value is one coerced cell
type Value struct {
	Kind Kind
	Bool bool
	Int  int64
	Text string
}

// Coerce applies the table's only typing rule: the literals true/false become
// booleans, base-10 integers (optionally signed, with single underscores
// between digits) become integers, and every other token is kept verbatim.
// Integers outside int64 stay text.
func Coerce(token string) Value {
	switch token {
	case "true":
		return Value{Kind: KindBool, Bool: true}
	case "false":
		return Value{Kind: KindBool, Bool: false}
	}
	if n, ok := parseInt(token); ok {
		return Value{Kind: KindInt, Int: n}
	}
	return Value{Kind: KindText, Text: token}
}

func parseInt(token string) (int64, bool) {
	digits := token
	if strings.Contains(token, "_") {
		var b strings.Builder
		for i := 0; i < len(token); i++ {
			c := token[i]
			if c != '_' {
				b.WriteByte(c)
				continue
			}
			if i == 0 || i == len(token)-1 || !isDigit(token[i-1]) || !isDigit(token[i+1]) {
				return 0, false
			}
		}
		digits = b.String()
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	return n, err == nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// String renders the value back into its table token
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Text
	}
}

// Well-known columns written by the trial producers
const (
	FieldName         = "name"
	FieldTampered     = "tampered"
	FieldAcceptable   = "acceptable"
	FieldUnique       = "unique"
	FieldInterleaved  = "interleaved"
	FieldDetected     = "acc"
	FieldCount        = "count"
	FieldMaxLength    = "max_length"
	FieldMutsInSites  = "muts_in_sites"
	FieldTotalSites   = "total_sites"
	FieldTotalSingles = "total_singles"
	FieldAdded        = "added"
	FieldRemoved      = "removed"
	FieldNumMuts      = "num_muts"
	FieldGenomeLen    = "genome_len"
	FieldPositions    = "positions"
)

// DeclaredKinds is the kind each well-known column must coerce to. Columns
// outside this map, name included, take whatever Coerce produces.
var DeclaredKinds = map[string]Kind{
	FieldTampered:     KindBool,
	FieldAcceptable:   KindBool,
	FieldUnique:       KindBool,
	FieldInterleaved:  KindBool,
	FieldDetected:     KindBool,
	FieldCount:        KindInt,
	FieldMaxLength:    KindInt,
	FieldMutsInSites:  KindInt,
	FieldTotalSites:   KindInt,
	FieldTotalSingles: KindInt,
	FieldAdded:        KindInt,
	FieldRemoved:      KindInt,
	FieldNumMuts:      KindInt,
	FieldGenomeLen:    KindInt,
	FieldPositions:    KindText,
}

// Schema is the ordered field list declared by a table header
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema validates a header. Field names must be unique and include name.
func NewSchema(fields []string) (*Schema, error) {
	s := &Schema{
		fields: append([]string(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.index[f]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateField, f)
		}
		s.index[f] = i
	}
	if _, ok := s.index[FieldName]; !ok {
		return nil, core.NewMissingFieldError(FieldName, "table loader")
	}
	return s, nil
}

// Fields returns a copy of the header
func (s *Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Len is the arity every row must have
func (s *Schema) Len() int {
	return len(s.fields)
}

// Has reports whether the header declares field
func (s *Schema) Has(field string) bool {
	_, ok := s.index[field]
	return ok
}

// Require fails with ErrMissingField for the first undeclared field.
func (s *Schema) Require(usedBy string, fields ...string) error {
	for _, f := range fields {
		if !s.Has(f) {
			return core.NewMissingFieldError(f, usedBy)
		}
	}
	return nil
}

// Record is one result row bound to its schema
type Record struct {
	schema *Schema
	values []Value
	line   int
}

// NewRecord binds coerced values to a schema, enforcing arity and declared
// kinds. line is the 1-based input line used in error messages.
func NewRecord(schema *Schema, values []Value, line int) (Record, error) {
	if len(values) != schema.Len() {
		return Record{}, core.NewParseError(core.ErrArity, line,
			fmt.Sprintf("expected %d fields, got %d", schema.Len(), len(values)))
	}
	for i, v := range values {
		field := schema.fields[i]
		want, known := DeclaredKinds[field]
		if known && v.Kind != want {
			return Record{}, core.NewParseError(core.ErrFieldType, line,
				fmt.Sprintf("%s=%q is %s, want %s", field, v.String(), v.Kind, want))
		}
	}
	return Record{schema: schema, values: values, line: line}, nil
}

// Line is the input line the record came from
func (r Record) Line() int { return r.line }

// Schema returns the header the record was parsed against
func (r Record) Schema() *Schema { return r.schema }

// Name is the run/population identifier
func (r Record) Name() string {
	return r.values[r.schema.index[FieldName]].String()
}

// Value returns the raw coerced cell
func (r Record) Value(field string) (Value, error) {
	i, ok := r.schema.index[field]
	if !ok {
		return Value{}, core.NewMissingFieldError(field, "record access")
	}
	return r.values[i], nil
}

// Bool returns a boolean field
func (r Record) Bool(field string) (bool, error) {
	v, err := r.Value(field)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, fmt.Errorf("%w: %s is %s", core.ErrFieldType, field, v.Kind)
	}
	return v.Bool, nil
}

// Int returns an integer field
func (r Record) Int(field string) (int64, error) {
	v, err := r.Value(field)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindInt {
		return 0, fmt.Errorf("%w: %s is %s", core.ErrFieldType, field, v.Kind)
	}
	return v.Int, nil
}

// Population is every record sharing one name, in input order
type Population struct {
	Name    string
	Records []Record
}

// Len returns the number of records
func (p *Population) Len() int { return len(p.Records) }

// Table is the fully materialised, grouped result file
type Table struct {
	Schema *Schema
	order  []string
	groups map[string]*Population
}

// NewTable creates an empty table for schema
func NewTable(schema *Schema) *Table {
	return &Table{Schema: schema, groups: make(map[string]*Population)}
}

// Add appends r to the population named by its name field.
func (t *Table) Add(r Record) {
	name := r.Name()
	pop, ok := t.groups[name]
	if !ok {
		pop = &Population{Name: name}
		t.groups[name] = pop
		t.order = append(t.order, name)
	}
	pop.Records = append(pop.Records, r)
}

// Names lists populations in order of first appearance
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Population looks up a population by name
func (t *Table) Population(name string) (*Population, bool) {
	p, ok := t.groups[name]
	return p, ok
}

// Populations returns every population in order of first appearance
func (t *Table) Populations() []*Population {
	out := make([]*Population, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.groups[name])
	}
	return out
}

// Len returns the number of populations
func (t *Table) Len() int { return len(t.order) }
