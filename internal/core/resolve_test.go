package core

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/dataset"
)

type stubBlobs struct {
	image    any
	data     []byte
	mimeType string
	err      error
	encoded  bool
}

func (s *stubBlobs) LoadImage(_ string, encode bool) (any, error) {
	s.encoded = encode
	return s.image, s.err
}

func (s *stubBlobs) LoadFile(string) ([]byte, string, error) {
	return s.data, s.mimeType, s.err
}

func TestResolve(t *testing.T) {
	// columns: 1 id, 2 name (row 0 null), 3 fallback (null)
	src := dataset.NewTable([][]string{
		{"7", "", ""},
	}, false)

	tests := []struct {
		name      string
		field     atlas.Field
		wantKind  ResolutionKind
		wantValue any
	}{
		{
			name:      "column value",
			field:     atlas.Field{Action: atlas.FieldUseColumn, Column: 1},
			wantKind:  Bound,
			wantValue: "7",
		},
		{
			name:     "default contributes nothing",
			field:    atlas.Field{Action: atlas.FieldDefault, Column: 1},
			wantKind: Skip,
		},
		{
			name:      "empty string",
			field:     atlas.Field{Action: atlas.FieldUseEmptyString},
			wantKind:  Bound,
			wantValue: "",
		},
		{
			name:      "alternate value",
			field:     atlas.Field{Action: atlas.FieldUseAlternateValue, AltValue: "n/a"},
			wantKind:  Bound,
			wantValue: "n/a",
		},
		{
			name:     "use null",
			field:    atlas.Field{Action: atlas.FieldUseNull, Column: 1},
			wantKind: Null,
		},
		{
			name:     "null with no policy",
			field:    atlas.Field{Action: atlas.FieldUseColumn, Column: 2},
			wantKind: Null,
		},
		{
			name:     "null uses default",
			field:    atlas.Field{Action: atlas.FieldUseColumn, Column: 2, IfNull: atlas.NullUseDefault},
			wantKind: Skip,
		},
		{
			name:      "null uses empty string",
			field:     atlas.Field{Action: atlas.FieldUseColumn, Column: 2, IfNull: atlas.NullUseEmptyString},
			wantKind:  Bound,
			wantValue: "",
		},
		{
			name:      "null uses alternate value",
			field:     atlas.Field{Action: atlas.FieldUseColumn, Column: 2, IfNull: atlas.NullUseAlternateValue, AltValue: "x"},
			wantKind:  Bound,
			wantValue: "x",
		},
		{
			name:      "null uses alternate column",
			field:     atlas.Field{Action: atlas.FieldUseColumn, Column: 2, IfNull: atlas.NullUseAlternateColumn, AltColumn: 1},
			wantKind:  Bound,
			wantValue: "7",
		},
		{
			name: "alternate column null then default",
			field: atlas.Field{Action: atlas.FieldUseColumn, Column: 2,
				IfNull: atlas.NullUseAlternateColumn, AltColumn: 3, IfNullAlt: atlas.NullUseDefault},
			wantKind: Skip,
		},
		{
			name: "alternate column null then alternate value",
			field: atlas.Field{Action: atlas.FieldUseColumn, Column: 2,
				IfNull: atlas.NullUseAlternateColumn, AltColumn: 3, IfNullAlt: atlas.NullUseAlternateValue, AltValue: "fb"},
			wantKind:  Bound,
			wantValue: "fb",
		},
		{
			name: "alternate column null then empty string",
			field: atlas.Field{Action: atlas.FieldUseColumn, Column: 2,
				IfNull: atlas.NullUseAlternateColumn, AltColumn: 3, IfNullAlt: atlas.NullUseEmptyString},
			wantKind:  Bound,
			wantValue: "",
		},
		{
			name: "alternate column does not chain twice",
			field: atlas.Field{Action: atlas.FieldUseColumn, Column: 2,
				IfNull: atlas.NullUseAlternateColumn, AltColumn: 3, IfNullAlt: atlas.NullUseAlternateColumn},
			wantKind: Null,
		},
		{
			name:     "column out of range is null",
			field:    atlas.Field{Action: atlas.FieldUseColumn, Column: 9},
			wantKind: Null,
		},
		{
			name:     "column zero is null",
			field:    atlas.Field{Action: atlas.FieldUseColumn, Column: 0},
			wantKind: Null,
		},
		{
			name:      "data file without file type binds the path",
			field:     atlas.Field{Action: atlas.FieldSetColumnFromDataFile, Column: 1},
			wantKind:  Bound,
			wantValue: "7",
		},
		{
			name:     "data file with null path",
			field:    atlas.Field{Action: atlas.FieldSetColumnFromDataFile, Column: 2, FileType: atlas.FileImage},
			wantKind: Null,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.field, src, 0, &stubBlobs{})
			if got.Kind != tt.wantKind {
				t.Fatalf("Resolve() kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Resolve() value = %#v, want %#v", got.Value, tt.wantValue)
			}
		})
	}
}

func TestResolve_Blobs(t *testing.T) {
	src := dataset.NewTable([][]string{{"/tmp/a.png"}}, false)

	t.Run("encoded image", func(t *testing.T) {
		blobs := &stubBlobs{image: "aGk="}
		got := Resolve(atlas.Field{Action: atlas.FieldSetColumnFromDataFile, Column: 1, FileType: atlas.FileImageEncoded}, src, 0, blobs)
		if got.Kind != Bound || got.Value != "aGk=" {
			t.Errorf("Resolve() = %+v, want bound base64", got)
		}
		if !blobs.encoded {
			t.Error("LoadImage should be asked to encode")
		}
	})

	t.Run("file carries mime type", func(t *testing.T) {
		blobs := &stubBlobs{data: []byte("hi"), mimeType: "text/plain"}
		got := Resolve(atlas.Field{Action: atlas.FieldSetColumnFromDataFile, Column: 1, FileType: atlas.FileData}, src, 0, blobs)
		if got.Kind != Bound || got.MimeType != "text/plain" {
			t.Errorf("Resolve() = %+v, want bound with mime type", got)
		}
	})

	t.Run("load failure degrades to null", func(t *testing.T) {
		loadErr := errors.New("no such file")
		got := Resolve(atlas.Field{Action: atlas.FieldSetColumnFromDataFile, Column: 1, FileType: atlas.FileImage}, src, 0, &stubBlobs{err: loadErr})
		if got.Kind != Null {
			t.Errorf("Resolve() kind = %v, want Null", got.Kind)
		}
		if !errors.Is(got.Err, loadErr) {
			t.Errorf("Resolve() err = %v, want %v", got.Err, loadErr)
		}
		if got.Arg() != nil {
			t.Errorf("Arg() = %v, want nil", got.Arg())
		}
	})
}

func TestResolve_Deterministic(t *testing.T) {
	src := dataset.NewTable([][]string{{"", "b"}}, false)
	f := atlas.Field{Action: atlas.FieldUseColumn, Column: 1, IfNull: atlas.NullUseAlternateColumn, AltColumn: 2}

	first := Resolve(f, src, 0, nil)
	for i := 0; i < 5; i++ {
		if got := Resolve(f, src, 0, nil); got != first {
			t.Fatalf("Resolve() run %d = %+v, want %+v", i, got, first)
		}
	}
}
