// Package store wraps the embedded SQLite database that backs the
// messaging core: schema creation and stepwise migration, a bounded cache
// of precompiled statements, a reentrant-counted transaction layer and a
// small typed key/value configuration table.
//
// A Store owns exactly one serialized connection. High-level accessors
// (Config, SetConfig and friends) take the store mutex themselves. The
// low-level primitives (Stmt, Exec, Begin, Commit, Rollback, ResetAll)
// require the caller to hold the mutex via Lock/Unlock around the whole
// multi-statement sequence; the engine's internal serialization only
// makes single statements atomic, never call sequences.
package store
