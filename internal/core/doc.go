// Package core is the map-driven import engine.
//
// An import takes one parsed data source and one map. For every record the
// engine resolves each field's value through the field's null policies,
// builds one parameterised statement for the map's action and executes it:
//
//   - Insert: INSERT INTO t (...) VALUES (...)
//   - Append: INSERT INTO t (...) SELECT ... WHERE NOT EXISTS (SELECT 1 FROM t WHERE <keys>)
//   - Update: UPDATE t SET <non-key fields> WHERE <keys>
//
// With Options.UseTransaction the whole run shares one transaction and each
// record runs in its own savepoint, so a failing record is undone without
// disturbing the rest. The run ends in one of three outcomes:
//
//   - Committed: every stage finished; record errors are counted in the Report.
//   - RolledBack: post SQL or commit failed, or the context was cancelled.
//   - Aborted: a configuration problem or pre SQL failure stopped the run
//     before any record was processed.
//
// The package is independent of any transport. Executors live in
// internal/database; the CLI and HTTP server only wire them together.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError]:
//
//   - IMP001-IMP006: run stages (pre/post SQL, commit, limiter, cancellation)
//   - MAP001-MAP004: maps and atlas files
//   - FILE001-FILE005: data files
//   - DB001-DB007: database errors
package core
