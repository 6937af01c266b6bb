// Package atlas defines import maps: which table a tabular file is written to,
// which statement is used, and how every destination column gets its value.
//
// An Atlas is a named collection of maps. Maps are decoded once from YAML and
// all string-keyed names (actions, null policies, file types) are resolved to
// closed enums at that point, so the import engine never re-parses them.
package atlas

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MimeTypeColumn is the destination column that receives the detected MIME
// type of file blobs when the map does not bind it explicitly.
const MimeTypeColumn = "file_mime_type"

var (
	ErrMapNotFound    = errors.New("map not found")
	ErrNoFields       = errors.New("map has no fields")
	ErrNoKeyField     = errors.New("key field(s) required for action Update/Append")
	ErrDuplicateField = errors.New("duplicate field name")
	ErrInvalidColumn  = errors.New("invalid column")
)

// Field maps one destination column to its value source.
type Field struct {
	Name      string      `yaml:"name" json:"name"`
	Action    FieldAction `yaml:"action" json:"action"`
	Column    int         `yaml:"column,omitempty" json:"column,omitempty"` // 1-based
	IsKey     bool        `yaml:"key,omitempty" json:"key,omitempty"`
	IfNull    NullPolicy  `yaml:"if_null,omitempty" json:"if_null"`
	AltColumn int         `yaml:"alt_column,omitempty" json:"alt_column,omitempty"` // 1-based
	IfNullAlt NullPolicy  `yaml:"if_null_alt,omitempty" json:"if_null_alt"`
	AltValue  string      `yaml:"alt_value,omitempty" json:"alt_value,omitempty"`
	FileType  FileType    `yaml:"file_type,omitempty" json:"file_type"`
}

// Map describes how one tabular file is written to one table.
type Map struct {
	Name                  string  `yaml:"name" json:"name"`
	Description           string  `yaml:"description,omitempty" json:"description,omitempty"`
	Table                 string  `yaml:"table" json:"table"`
	Action                Action  `yaml:"action" json:"action"`
	Delimiter             string  `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	PreSQL                string  `yaml:"pre_sql,omitempty" json:"pre_sql,omitempty"`
	PreSQLContinueOnError bool    `yaml:"pre_sql_continue_on_error,omitempty" json:"pre_sql_continue_on_error"`
	PostSQL               string  `yaml:"post_sql,omitempty" json:"post_sql,omitempty"`
	Fields                []Field `yaml:"fields" json:"fields"`
}

// HasKey reports whether at least one field is part of the record key.
func (m Map) HasKey() bool {
	for _, f := range m.Fields {
		if f.IsKey {
			return true
		}
	}
	return false
}

// Field returns the field with the given destination name.
func (m Map) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Simplify returns a copy of m without fields that can never contribute a
// value (action Default).
func (m Map) Simplify() Map {
	out := m
	out.Fields = make([]Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Action == FieldDefault {
			continue
		}
		out.Fields = append(out.Fields, f)
	}
	return out
}

// Validate checks the map's static preconditions and returns every problem
// found, joined.
func (m Map) Validate() error {
	var errs []error

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("map name is required"))
	}
	if strings.TrimSpace(m.Table) == "" {
		errs = append(errs, errors.New("table is required"))
	}
	if !m.Action.Valid() {
		errs = append(errs, fmt.Errorf("action %s is not supported", m.Action))
	}
	if len(m.Fields) == 0 {
		errs = append(errs, ErrNoFields)
	}

	seen := make(map[string]bool, len(m.Fields))
	for i, f := range m.Fields {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, fmt.Errorf("field %d: name is required", i+1))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateField, f.Name))
		}
		seen[f.Name] = true

		if f.Action.ReadsColumn() && f.Column < 1 {
			errs = append(errs, fmt.Errorf("%w: field %s column %d must be >= 1", ErrInvalidColumn, f.Name, f.Column))
		}
		if f.Action == FieldUseColumn && f.IfNull == NullUseAlternateColumn && f.AltColumn < 1 {
			errs = append(errs, fmt.Errorf("%w: field %s alternate column %d must be >= 1", ErrInvalidColumn, f.Name, f.AltColumn))
		}
	}

	if (m.Action == ActionUpdate || m.Action == ActionAppend) && !m.HasKey() {
		errs = append(errs, ErrNoKeyField)
	}

	return errors.Join(errs...)
}

// Atlas is a named collection of maps.
type Atlas struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Maps        []Map  `yaml:"maps" json:"maps"`
}

// Map returns the map with the given name.
func (a *Atlas) Map(name string) (Map, error) {
	for _, m := range a.Maps {
		if m.Name == name {
			return m, nil
		}
	}
	return Map{}, fmt.Errorf("%w: %s", ErrMapNotFound, name)
}

// Names returns all map names, sorted.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.Maps))
	for _, m := range a.Maps {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Validate validates every map and checks map names are unique.
func (a *Atlas) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(a.Maps))
	for _, m := range a.Maps {
		if seen[m.Name] {
			errs = append(errs, fmt.Errorf("map %q: duplicate map name", m.Name))
		}
		seen[m.Name] = true
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("map %q: %w", m.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Decode reads a YAML atlas document.
func Decode(r io.Reader) (*Atlas, error) {
	var a Atlas
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		if errors.Is(err, io.EOF) {
			return &a, nil
		}
		return nil, fmt.Errorf("decode atlas: %w", err)
	}
	return &a, nil
}

// LoadFile reads a YAML atlas from path.
func LoadFile(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open atlas: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
