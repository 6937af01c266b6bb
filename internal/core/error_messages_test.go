package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/dataset"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"pre sql wraps driver error", fmt.Errorf("%w: duplicate key value", ErrPreSQL), "IMP001"},
		{"post sql", fmt.Errorf("%w: syntax error", ErrPostSQL), "IMP002"},
		{"commit", fmt.Errorf("%w: conn closed", ErrCommit), "IMP003"},
		{"limiter", ErrTooManyImports, "IMP004"},
		{"map not found", fmt.Errorf("%w: items", atlas.ErrMapNotFound), "MAP001"},
		{"missing key", atlas.ErrNoKeyField, "MAP002"},
		{"no map", ErrNoMap, "MAP003"},
		{"file too large", fmt.Errorf("%w: exceeds 10 bytes", dataset.ErrFileTooLarge), "FILE001"},
		{"invalid csv", errors.New("invalid csv: record on line 2: wrong number of fields"), "FILE002"},
		{"no data", ErrNoData, "FILE005"},
		{"duplicate key", errors.New("pq: duplicate key value violates unique constraint"), "DB001"},
		{"case insensitive", errors.New("DUPLICATE KEY value"), "DB001"},
		{"foreign key", errors.New("violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(errors.New("duplicate key value violates"))
	want := "A record with this key already exists (Code: DB001). Use an Append map to skip existing records"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil error should not be user facing")
	}
	if !IsUserFacing(ErrNoData) {
		t.Error("ErrNoData should be user facing")
	}
	if IsUserFacing(errors.New("random internal error xyz")) {
		t.Error("unknown error should not be user facing")
	}
}
