package store

import (
	"context"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
	"github.com/bpiddubnyi/deltachat-core/internal/metrics"
)

// migrateState is threaded through the migration steps of one Open.
type migrateState struct {
	// before is the persisted version found at open time; a few steps
	// branch on the exact historical version being upgraded from.
	before int64

	// recalcFingerprints defers derived-key recomputation until all DDL
	// steps are done, because it needs the final schema shape.
	recalcFingerprints bool
}

// migrationStep upgrades the schema to exactly one target version. Steps
// run in ascending order; a step applies iff current < Version, and the
// new version is persisted immediately afterwards so an interrupted run
// resumes from the last completed step.
type migrationStep struct {
	Version int64
	Apply   func(ctx context.Context, s *Store, st *migrateState)
}

// migrations is append-only: released steps must never change behavior.
// Step failures are logged and migration proceeds best-effort; nearly all
// steps are additive, and aborting would strand the store between
// versions.
var migrations = []migrationStep{
	{1, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `CREATE TABLE leftgrps (id INTEGER PRIMARY KEY, grpid TEXT DEFAULT '');`)
		_ = s.Exec(ctx, `CREATE INDEX leftgrps_index1 ON leftgrps (grpid);`)
	}},
	{2, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `ALTER TABLE contacts ADD COLUMN authname TEXT DEFAULT '';`)
	}},
	{7, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `CREATE TABLE keypairs (`+
			` id INTEGER PRIMARY KEY,`+
			` addr TEXT DEFAULT '' COLLATE NOCASE,`+
			` is_default INTEGER DEFAULT 0,`+
			` private_key,`+
			` public_key,`+
			` created INTEGER DEFAULT 0);`)
	}},
	{10, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `CREATE TABLE acpeerstates (`+
			` id INTEGER PRIMARY KEY,`+
			` addr TEXT DEFAULT '' COLLATE NOCASE,`+
			` last_seen INTEGER DEFAULT 0,`+
			` last_seen_autocrypt INTEGER DEFAULT 0,`+
			` public_key,`+
			` prefer_encrypted INTEGER DEFAULT 0);`)
		_ = s.Exec(ctx, `CREATE INDEX acpeerstates_index1 ON acpeerstates (addr);`)
	}},
	{12, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `CREATE TABLE msgs_mdns (msg_id INTEGER, contact_id INTEGER);`)
		_ = s.Exec(ctx, `CREATE INDEX msgs_mdns_index1 ON msgs_mdns (msg_id);`)
	}},
	{17, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `ALTER TABLE chats ADD COLUMN archived INTEGER DEFAULT 0;`)
		_ = s.Exec(ctx, `CREATE INDEX chats_index2 ON chats (archived);`)
		_ = s.Exec(ctx, `ALTER TABLE msgs ADD COLUMN starred INTEGER DEFAULT 0;`)
		_ = s.Exec(ctx, `CREATE INDEX msgs_index5 ON msgs (starred);`)
	}},
	{18, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN gossip_timestamp INTEGER DEFAULT 0;`)
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN gossip_key;`)
	}},
	{27, func(ctx context.Context, s *Store, st *migrateState) {
		// Chat ids 1 and 2 were the old deaddrops; current deaddrops are
		// flagged per-chat, so the stale rows get purged intentionally.
		_ = s.Exec(ctx, `DELETE FROM msgs WHERE chat_id=1 OR chat_id=2;`)
		_ = s.Exec(ctx, `CREATE INDEX chats_contacts_index2 ON chats_contacts (contact_id);`)
		_ = s.Exec(ctx, `ALTER TABLE msgs ADD COLUMN timestamp_sent INTEGER DEFAULT 0;`)
		_ = s.Exec(ctx, `ALTER TABLE msgs ADD COLUMN timestamp_rcvd INTEGER DEFAULT 0;`)
	}},
	{34, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `ALTER TABLE msgs ADD COLUMN hidden INTEGER DEFAULT 0;`)
		_ = s.Exec(ctx, `ALTER TABLE msgs_mdns ADD COLUMN timestamp_sent INTEGER DEFAULT 0;`)
		// Fingerprints are stored uppercase, so no COLLATE NOCASE here.
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN public_key_fingerprint TEXT DEFAULT '';`)
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN gossip_key_fingerprint TEXT DEFAULT '';`)
		_ = s.Exec(ctx, `CREATE INDEX acpeerstates_index3 ON acpeerstates (public_key_fingerprint);`)
		_ = s.Exec(ctx, `CREATE INDEX acpeerstates_index4 ON acpeerstates (gossip_key_fingerprint);`)
		st.recalcFingerprints = true
	}},
	{39, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `CREATE TABLE tokens (`+
			` id INTEGER PRIMARY KEY,`+
			` namespc INTEGER DEFAULT 0,`+
			` foreign_id INTEGER DEFAULT 0,`+
			` token TEXT DEFAULT '',`+
			` timestamp INTEGER DEFAULT 0);`)
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN verified_key;`)
		_ = s.Exec(ctx, `ALTER TABLE acpeerstates ADD COLUMN verified_key_fingerprint TEXT DEFAULT '';`)
		_ = s.Exec(ctx, `CREATE INDEX acpeerstates_index5 ON acpeerstates (verified_key_fingerprint);`)

		if st.before == 34 {
			// Only version 34 carried verified-flags instead of
			// verified keys; fold them over.
			_ = s.Exec(ctx, `UPDATE acpeerstates SET verified_key=gossip_key, verified_key_fingerprint=gossip_key_fingerprint WHERE gossip_key_verified=2;`)
			_ = s.Exec(ctx, `UPDATE acpeerstates SET verified_key=public_key, verified_key_fingerprint=public_key_fingerprint WHERE public_key_verified=2;`)
		}
	}},
	{40, func(ctx context.Context, s *Store, st *migrateState) {
		_ = s.Exec(ctx, `ALTER TABLE jobs ADD COLUMN thread INTEGER DEFAULT 0;`)
	}},
}

// LatestSchemaVersion is the target version a freshly created or fully
// migrated store ends up at.
func LatestSchemaVersion() int64 {
	return migrations[len(migrations)-1].Version
}

// migrateLocked detects freshness, creates the baseline if needed and
// applies all pending migration steps in ascending version order. Runs
// only in ReadWrite mode; the caller must hold the store lock.
func (s *Store) migrateLocked(ctx context.Context) error {
	st := &migrateState{}

	if !s.tableExists(ctx, "config") {
		if err := s.createBaselineLocked(ctx); err != nil {
			return err
		}
	} else {
		st.before = s.configIntLocked(ctx, versionKey, 0)
	}

	version := st.before
	for _, step := range migrations {
		if version >= step.Version {
			continue
		}
		step.Apply(ctx, s, st)
		if err := s.setConfigIntLocked(ctx, versionKey, step.Version); err != nil {
			// Without the persisted version the step would re-run on the
			// next open; additive steps tolerate that, so keep going.
			s.log.Error().Err(err).Int64(log.FieldVersion, step.Version).Msg("cannot persist schema version")
		}
		version = step.Version
		metrics.IncMigrationStep(step.Version)
		s.log.Info().Int64(log.FieldVersion, step.Version).Msg("schema migrated")
	}

	// High-level pass: needs the final schema shape, so it runs strictly
	// after the DDL ladder.
	if st.recalcFingerprints {
		s.recalcFingerprintsLocked(ctx)
	}

	return nil
}

// recalcFingerprintsLocked rewrites derived trust fingerprints for every
// known peer. A failing address is skipped, never fatal.
func (s *Store) recalcFingerprintsLocked(ctx context.Context) {
	if s.peers == nil {
		s.log.Warn().Msg("no peerstate migrator configured, skipping fingerprint recalculation")
		return
	}

	addrs, err := s.peerAddrsLocked(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("cannot enumerate peerstates")
		return
	}

	for _, addr := range addrs {
		if err := s.peers.RecalcFingerprint(ctx, s, addr); err != nil {
			s.log.Warn().Err(err).Str(log.FieldAddr, addr).Msg("fingerprint recalculation skipped")
		}
	}
}

// peerAddrsLocked collects all peer addresses up front so the per-address
// rewrites do not interleave with an open cursor on the same connection.
func (s *Store) peerAddrsLocked(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT addr FROM acpeerstates;")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}
