package core

import (
	"github.com/JonMunkholm/csvimp/internal/atlas"
)

// DataSource is the part of a tabular source the engine reads.
type DataSource interface {
	Rows() int
	// Value returns the cell at (row, col), both 0-based; ok is false for null.
	Value(row, col int) (value string, ok bool)
}

// ResolutionKind says whether a field takes part in a record's statement.
type ResolutionKind int

const (
	// Skip leaves the column out of the statement entirely.
	Skip ResolutionKind = iota
	// Null binds SQL NULL.
	Null
	// Bound binds Resolution.Value.
	Bound
)

// Resolution is the runtime value of one field for one record.
type Resolution struct {
	Kind     ResolutionKind
	Value    any    // string or []byte when Kind is Bound
	MimeType string // set for successfully loaded file blobs
	Err      error  // blob load failure that degraded the field to Null
}

// Arg returns the value to bind: nil for Null.
func (r Resolution) Arg() any {
	if r.Kind != Bound {
		return nil
	}
	return r.Value
}

func bound(v any) Resolution { return Resolution{Kind: Bound, Value: v} }

var (
	skipped    = Resolution{Kind: Skip}
	nullMarker = Resolution{Kind: Null}
)

// Resolve computes the value of field f for record row. It never fails:
// every path ends in Skip, Null or a bound value. blobs is only consulted
// for SetColumnFromDataFile fields.
func Resolve(f atlas.Field, src DataSource, row int, blobs BlobLoader) Resolution {
	switch f.Action {
	case atlas.FieldUseColumn:
		if v, ok := cell(src, row, f.Column); ok {
			return bound(v)
		}
		return onNull(f, f.IfNull, src, row, true)

	case atlas.FieldSetColumnFromDataFile:
		path, ok := cell(src, row, f.Column)
		if !ok {
			return nullMarker
		}
		return loadBlob(f.FileType, path, blobs)

	case atlas.FieldUseEmptyString:
		return bound("")

	case atlas.FieldUseAlternateValue:
		return bound(f.AltValue)

	case atlas.FieldUseNull:
		return nullMarker

	default:
		return skipped
	}
}

// onNull applies a null policy. The alternate column may only be consulted
// from the primary policy; at the second level it degrades to Null.
func onNull(f atlas.Field, policy atlas.NullPolicy, src DataSource, row int, primary bool) Resolution {
	switch policy {
	case atlas.NullUseDefault:
		return skipped
	case atlas.NullUseEmptyString:
		return bound("")
	case atlas.NullUseAlternateValue:
		return bound(f.AltValue)
	case atlas.NullUseAlternateColumn:
		if !primary {
			return nullMarker
		}
		if v, ok := cell(src, row, f.AltColumn); ok {
			return bound(v)
		}
		return onNull(f, f.IfNullAlt, src, row, false)
	default:
		return nullMarker
	}
}

func loadBlob(kind atlas.FileType, path string, blobs BlobLoader) Resolution {
	if blobs == nil {
		blobs = FileLoader{}
	}

	switch kind {
	case atlas.FileImage, atlas.FileImageEncoded:
		v, err := blobs.LoadImage(path, kind == atlas.FileImageEncoded)
		if err != nil {
			return Resolution{Kind: Null, Err: err}
		}
		return bound(v)

	case atlas.FileData:
		data, mimeType, err := blobs.LoadFile(path)
		if err != nil {
			return Resolution{Kind: Null, Err: err}
		}
		return Resolution{Kind: Bound, Value: data, MimeType: mimeType}

	default:
		return bound(path)
	}
}

// cell reads a 1-based column; columns outside the source are null.
func cell(src DataSource, row, column int) (string, bool) {
	if column < 1 {
		return "", false
	}
	return src.Value(row, column-1)
}
