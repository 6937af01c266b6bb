package atlas

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is the statement a map produces for every record.
type Action int

const (
	ActionInsert Action = iota + 1
	ActionUpdate
	ActionAppend
)

var actionNames = map[Action]string{
	ActionInsert: "Insert",
	ActionUpdate: "Update",
	ActionAppend: "Append",
}

// FieldAction describes how a field's value is produced for each record.
type FieldAction int

const (
	// FieldDefault contributes nothing; the column keeps its database default.
	FieldDefault FieldAction = iota
	FieldUseColumn
	FieldUseEmptyString
	FieldUseAlternateValue
	FieldUseNull
	FieldSetColumnFromDataFile
)

var fieldActionNames = map[FieldAction]string{
	FieldDefault:               "Default",
	FieldUseColumn:             "UseColumn",
	FieldUseEmptyString:        "UseEmptyString",
	FieldUseAlternateValue:     "UseAlternateValue",
	FieldUseNull:               "UseNull",
	FieldSetColumnFromDataFile: "SetColumnFromDataFile",
}

// NullPolicy decides what a UseColumn field resolves to when its cell is null.
type NullPolicy int

const (
	// NullNothing binds SQL NULL.
	NullNothing NullPolicy = iota
	NullUseDefault
	NullUseEmptyString
	NullUseAlternateValue
	NullUseAlternateColumn
)

var nullPolicyNames = map[NullPolicy]string{
	NullNothing:            "Nothing",
	NullUseDefault:         "UseDefault",
	NullUseEmptyString:     "UseEmptyString",
	NullUseAlternateValue:  "UseAlternateValue",
	NullUseAlternateColumn: "UseAlternateColumn",
}

// FileType selects how a SetColumnFromDataFile field loads its file.
type FileType int

const (
	FileNone FileType = iota
	FileImage
	FileImageEncoded
	FileData
)

var fileTypeNames = map[FileType]string{
	FileNone:         "None",
	FileImage:        "Image",
	FileImageEncoded: "ImageEncoded",
	FileData:         "File",
}

// Legacy spellings accepted on input (atlas files exported by older tools).
var aliases = map[string]string{
	"imageenc": "imageencoded",
	"datafile": "file",
}

func (a Action) String() string { return nameOf(actionNames, a) }

func (a FieldAction) String() string { return nameOf(fieldActionNames, a) }

func (p NullPolicy) String() string { return nameOf(nullPolicyNames, p) }

func (f FileType) String() string { return nameOf(fileTypeNames, f) }

// Valid reports whether a is one of the supported map actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ReadsColumn reports whether the action reads the field's source column.
func (a FieldAction) ReadsColumn() bool {
	return a == FieldUseColumn || a == FieldSetColumnFromDataFile
}

// ParseAction resolves a map action name.
func ParseAction(s string) (Action, error) { return parseName("action", actionNames, s) }

// ParseFieldAction resolves a field action name.
func ParseFieldAction(s string) (FieldAction, error) {
	return parseName("field action", fieldActionNames, s)
}

// ParseNullPolicy resolves a null policy name.
func ParseNullPolicy(s string) (NullPolicy, error) {
	return parseName("null policy", nullPolicyNames, s)
}

// ParseFileType resolves a file type name.
func ParseFileType(s string) (FileType, error) { return parseName("file type", fileTypeNames, s) }

func nameOf[T ~int](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", v)
}

// normalizeName folds case and strips the prefixes and separators older
// atlas exports carry ("Action_UseColumn", "TYPE_IMAGEENC").
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "action_")
	s = strings.TrimPrefix(s, "type_")
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	if alias, ok := aliases[s]; ok {
		return alias
	}
	return s
}

func parseName[T ~int](kind string, names map[T]string, s string) (T, error) {
	want := normalizeName(s)
	for v, n := range names {
		if normalizeName(n) == want {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func decodeScalar[T any](node *yaml.Node, parse func(string) (T, error), dst *T) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a name, got %s", node.Line, node.Tag)
	}
	v, err := parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*dst = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Action) UnmarshalYAML(node *yaml.Node) error { return decodeScalar(node, ParseAction, a) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *FieldAction) UnmarshalYAML(node *yaml.Node) error {
	return decodeScalar(node, ParseFieldAction, a)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *NullPolicy) UnmarshalYAML(node *yaml.Node) error {
	return decodeScalar(node, ParseNullPolicy, p)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FileType) UnmarshalYAML(node *yaml.Node) error { return decodeScalar(node, ParseFileType, f) }

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a FieldAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (p NullPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (f FileType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
