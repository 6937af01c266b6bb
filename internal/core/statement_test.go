package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvimp/internal/atlas"
)

func rec(assignments ...assignment) record {
	return record{assignments: assignments}
}

func TestBuildStatement_Insert(t *testing.T) {
	m := &atlas.Map{Table: "public.item", Action: atlas.ActionInsert}

	stmt, err := buildStatement(Postgres, m, rec(
		assignment{column: "id", key: true, value: "1"},
		assignment{column: "name", value: nil},
	))
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "public"."item" ("id", "name") VALUES ($1, $2)`, stmt.SQL)
	assert.Equal(t, []any{"1", nil}, stmt.Args())
	assert.Equal(t, map[string]any{":id": "1", ":name": nil}, stmt.Named())
}

func TestBuildStatement_Append(t *testing.T) {
	m := &atlas.Map{Table: "item", Action: atlas.ActionAppend}
	r := rec(
		assignment{column: "id", key: true, value: "1"},
		assignment{column: "sku", key: true, value: "A"},
		assignment{column: "name", value: "Widget"},
	)

	t.Run("postgres", func(t *testing.T) {
		stmt, err := buildStatement(Postgres, m, r)
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "item" ("id", "sku", "name") SELECT $1, $2, $3 `+
				`WHERE NOT EXISTS (SELECT 1 FROM "item" WHERE "id" = $4 AND "sku" = $5)`,
			stmt.SQL)
		assert.Equal(t, []any{"1", "A", "Widget", "1", "A"}, stmt.Args())
	})

	t.Run("mysql", func(t *testing.T) {
		stmt, err := buildStatement(MySQL, m, r)
		require.NoError(t, err)
		assert.Equal(t,
			"INSERT INTO `item` (`id`, `sku`, `name`) SELECT ?, ?, ? FROM DUAL "+
				"WHERE NOT EXISTS (SELECT 1 FROM `item` WHERE `id` = ? AND `sku` = ?)",
			stmt.SQL)
		assert.Len(t, stmt.Params, 5)
	})
}

func TestBuildStatement_Update(t *testing.T) {
	m := &atlas.Map{Table: "item", Action: atlas.ActionUpdate}

	stmt, err := buildStatement(SQLite, m, rec(
		assignment{column: "name", value: "Widget"},
		assignment{column: "id", key: true, value: "1"},
		assignment{column: "price", value: "9.50"},
	))
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "item" SET "name" = ?, "price" = ? WHERE "id" = ?`, stmt.SQL)
	assert.Equal(t, []any{"Widget", "9.50", "1"}, stmt.Args())
}

func TestBuildStatement_Ignored(t *testing.T) {
	for action, verb := range map[atlas.Action]string{
		atlas.ActionInsert: "insert",
		atlas.ActionAppend: "append",
		atlas.ActionUpdate: "update",
	} {
		_, err := buildStatement(Postgres, &atlas.Map{Table: "t", Action: action}, record{})
		var ignored ignoredError
		require.ErrorAs(t, err, &ignored, action.String())
		assert.Equal(t, "There are no columns to "+verb, ignored.Error())
	}

	// Update with only key columns has nothing to set.
	_, err := buildStatement(Postgres, &atlas.Map{Table: "t", Action: atlas.ActionUpdate},
		rec(assignment{column: "id", key: true, value: "1"}))
	assert.ErrorAs(t, err, new(ignoredError))
}

func TestBuildStatement_NoKey(t *testing.T) {
	r := rec(assignment{column: "name", value: "Widget"})

	for _, action := range []atlas.Action{atlas.ActionAppend, atlas.ActionUpdate} {
		_, err := buildStatement(Postgres, &atlas.Map{Table: "t", Action: action}, r)
		assert.ErrorIs(t, err, ErrNoKey, action.String())
	}

	_, err := buildStatement(Postgres, &atlas.Map{Table: "t", Action: atlas.ActionInsert}, r)
	assert.NoError(t, err, "insert does not need a key")
}

func TestBuildStatement_MimeType(t *testing.T) {
	t.Run("synthesised", func(t *testing.T) {
		r := rec(
			assignment{column: "id", key: true, value: "1"},
			assignment{column: "doc", value: []byte("%PDF")},
		)
		r.mimeType = "application/pdf"

		stmt, err := buildStatement(Postgres, &atlas.Map{Table: "docs", Action: atlas.ActionInsert}, r)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "docs" ("id", "doc", "file_mime_type") VALUES ($1, $2, $3)`, stmt.SQL)
		assert.Equal(t, "application/pdf", stmt.Named()[":file_mime_type"])

		stmt, err = buildStatement(Postgres, &atlas.Map{Table: "docs", Action: atlas.ActionUpdate}, r)
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "docs" SET "doc" = $1, "file_mime_type" = $2 WHERE "id" = $3`, stmt.SQL)
	})

	t.Run("explicit column wins", func(t *testing.T) {
		r := rec(
			assignment{column: "doc", value: []byte("x")},
			assignment{column: atlas.MimeTypeColumn, value: "text/csv"},
		)
		r.mimeType = "text/plain"

		stmt, err := buildStatement(Postgres, &atlas.Map{Table: "docs", Action: atlas.ActionInsert}, r)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "docs" ("doc", "file_mime_type") VALUES ($1, $2)`, stmt.SQL)
		assert.Equal(t, "text/csv", stmt.Named()[":file_mime_type"])
	})
}

func TestDialect(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
	}{
		{"pgx", Postgres},
		{"postgres", Postgres},
		{"mysql", MySQL},
		{"SQLite", SQLite},
	}
	for _, tt := range tests {
		got, err := DialectFor(tt.driver)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.driver)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)

	assert.Equal(t, `"we""ird"`, Postgres.QuoteIdent(`we"ird`))
	assert.Equal(t, "`s`.`t`", MySQL.QuoteIdent("s.t"))
	assert.Equal(t, "$12", Postgres.Placeholder(12))
	assert.Equal(t, "?", SQLite.Placeholder(12))
}
