package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

//go:embed version_schema.sql
var versionSchema string

// VersionOutcome is the result of checking a file's version against the
// last seen version (spec.md §4.1 check_version).
type VersionOutcome int

const (
	VersionValid VersionOutcome = iota
	VersionInvalidated
	VersionNewFile
)

// versionTrack maps file_key -> last_seen_version, persisted to a SQLite
// mirror (SPEC_FULL.md §4.1) so a restarted process does not treat every
// file as unversioned. In-memory state is authoritative during a process
// lifetime; SQLite is a write-behind copy loaded once at startup.
type versionTrack struct {
	mu    sync.Mutex // guards the in-memory map only; see Cache's own lock for the rest
	seen  map[types.FileKey]string
	db    *sql.DB
}

func newVersionTrack(dsn string) (*versionTrack, error) {
	vt := &versionTrack{seen: make(map[types.FileKey]string)}
	if dsn == "" {
		return vt, nil
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.New(errs.KindUnknown, "version.open", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errs.New(errs.KindUnknown, "version.wal", err)
	}
	if _, err := db.Exec(versionSchema); err != nil {
		db.Close()
		return nil, errs.New(errs.KindUnknown, "version.schema", err)
	}
	vt.db = db
	vt.load()
	return vt, nil
}

func (vt *versionTrack) load() {
	if vt.db == nil {
		return
	}
	rows, err := vt.db.Query("SELECT file_key, version FROM file_versions")
	if err != nil {
		obslog.Component("cache.version", "load failed: %v", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var fk, v string
		if err := rows.Scan(&fk, &v); err == nil {
			vt.seen[types.FileKey(fk)] = v
		}
	}
}

func (vt *versionTrack) persist(fileKey types.FileKey, version string) {
	if vt.db == nil {
		return
	}
	_, err := vt.db.ExecContext(context.Background(),
		`INSERT INTO file_versions(file_key, version, updated_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(file_key) DO UPDATE SET version=excluded.version, updated_at=excluded.updated_at`,
		string(fileKey), version)
	if err != nil {
		obslog.Component("cache.version", "persist failed for %s: %v", fileKey, err)
	}
}

// check compares currentVersion against the last seen version for fileKey.
// Callers must invalidate the cache themselves on VersionInvalidated (the
// Cache type wires this together in check_version).
func (vt *versionTrack) check(fileKey types.FileKey, currentVersion string) VersionOutcome {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	prior, known := vt.seen[fileKey]
	vt.seen[fileKey] = currentVersion
	vt.persist(fileKey, currentVersion)

	if !known {
		return VersionNewFile
	}
	if prior < currentVersion {
		return VersionInvalidated
	}
	return VersionValid
}

// sqlDB exposes the shared sqlite handle so the prefetch learner can persist
// its patterns in the same database file.
func (vt *versionTrack) sqlDB() *sql.DB { return vt.db }

func (vt *versionTrack) close() {
	if vt.db != nil {
		vt.db.Close()
	}
}
