package store

import (
	"context"
	"fmt"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
)

// Reserved low-numbered row identifiers. These rows are pre-seeded on
// fresh-store creation and must never collide with user-created rows,
// which always get strictly higher ids from AUTOINCREMENT rowids.
const (
	ContactIDSelf        = 1
	ContactIDDevice      = 2
	ContactIDLastSpecial = 9

	ChatIDDeaddrop       = 1
	ChatIDTrash          = 3
	ChatIDMsgsInCreation = 4
	ChatIDStarred        = 5
	ChatIDArchivedLink   = 6
	ChatIDLastSpecial    = 9

	MsgIDMarker1     = 1
	MsgIDDaymarker   = 9
	MsgIDLastSpecial = 9
)

const (
	ChatTypeSingle = 100
	ChatTypeGroup  = 120

	// OriginInternal marks the pre-seeded placeholder contacts.
	OriginInternal = 0x40000
)

// baselineTables is the set that must exist after fresh-store creation;
// a missing one makes Open fail with ErrSchemaCreate.
var baselineTables = []string{"config", "contacts", "chats", "chats_contacts", "msgs", "jobs"}

// baselineDDL is the version-0 schema. Later shapes are reached through
// migration steps only, so these statements must never change once
// released.
var baselineDDL = []string{
	`CREATE TABLE config (id INTEGER PRIMARY KEY, keyname TEXT, value TEXT);`,
	`CREATE INDEX config_index1 ON config (keyname);`,

	`CREATE TABLE contacts (id INTEGER PRIMARY KEY,` +
		` name TEXT DEFAULT '',` +
		` addr TEXT DEFAULT '' COLLATE NOCASE,` +
		` origin INTEGER DEFAULT 0,` +
		` blocked INTEGER DEFAULT 0,` +
		` last_seen INTEGER DEFAULT 0,` +
		` param TEXT DEFAULT '');`,
	`CREATE INDEX contacts_index1 ON contacts (name COLLATE NOCASE);`,
	`CREATE INDEX contacts_index2 ON contacts (addr COLLATE NOCASE);`,
	`INSERT INTO contacts (id,name,origin) VALUES` +
		` (1,'self',262144), (2,'device',262144), (3,'rsvd',262144),` +
		` (4,'rsvd',262144), (5,'rsvd',262144), (6,'rsvd',262144),` +
		` (7,'rsvd',262144), (8,'rsvd',262144), (9,'rsvd',262144);`,

	`CREATE TABLE chats (id INTEGER PRIMARY KEY,` +
		` type INTEGER DEFAULT 0,` +
		` name TEXT DEFAULT '',` +
		` draft_timestamp INTEGER DEFAULT 0,` +
		` draft_txt TEXT DEFAULT '',` +
		` blocked INTEGER DEFAULT 0,` +
		` grpid TEXT DEFAULT '',` +
		` param TEXT DEFAULT '');`,
	`CREATE INDEX chats_index1 ON chats (grpid);`,
	`CREATE TABLE chats_contacts (chat_id INTEGER, contact_id INTEGER);`,
	`CREATE INDEX chats_contacts_index1 ON chats_contacts (chat_id);`,
	`INSERT INTO chats (id,type,name) VALUES` +
		` (1,120,'deaddrop'), (2,120,'rsvd'), (3,120,'trash'),` +
		` (4,120,'msgs_in_creation'), (5,120,'starred'), (6,120,'archivedlink'),` +
		` (7,100,'rsvd'), (8,100,'rsvd'), (9,100,'rsvd');`,

	`CREATE TABLE msgs (id INTEGER PRIMARY KEY,` +
		` rfc724_mid TEXT DEFAULT '',` +
		` server_folder TEXT DEFAULT '',` +
		` server_uid INTEGER DEFAULT 0,` +
		` chat_id INTEGER DEFAULT 0,` +
		` from_id INTEGER DEFAULT 0,` +
		` to_id INTEGER DEFAULT 0,` +
		` timestamp INTEGER DEFAULT 0,` +
		` type INTEGER DEFAULT 0,` +
		` state INTEGER DEFAULT 0,` +
		` msgrmsg INTEGER DEFAULT 1,` +
		` bytes INTEGER DEFAULT 0,` +
		` txt TEXT DEFAULT '',` +
		` txt_raw TEXT DEFAULT '',` +
		` param TEXT DEFAULT '');`,
	`CREATE INDEX msgs_index1 ON msgs (rfc724_mid);`,
	`CREATE INDEX msgs_index2 ON msgs (chat_id);`,
	`CREATE INDEX msgs_index3 ON msgs (timestamp);`,
	`CREATE INDEX msgs_index4 ON msgs (state);`,
	`INSERT INTO msgs (id,msgrmsg,txt) VALUES` +
		` (1,0,'marker1'), (2,0,'rsvd'), (3,0,'rsvd'), (4,0,'rsvd'),` +
		` (5,0,'rsvd'), (6,0,'rsvd'), (7,0,'rsvd'), (8,0,'rsvd'), (9,0,'daymarker');`,

	`CREATE TABLE jobs (id INTEGER PRIMARY KEY,` +
		` added_timestamp INTEGER,` +
		` desired_timestamp INTEGER DEFAULT 0,` +
		` action INTEGER,` +
		` foreign_id INTEGER,` +
		` param TEXT DEFAULT '');`,
	`CREATE INDEX jobs_index1 ON jobs (desired_timestamp);`,
}

// createBaselineLocked creates the version-0 schema with its reserved
// placeholder rows and verifies the required tables came into existence.
// The caller must hold the store lock.
func (s *Store) createBaselineLocked(ctx context.Context) error {
	s.log.Info().Str(log.FieldPath, s.path).Msg("first time init: creating tables")

	for _, ddl := range baselineDDL {
		_ = s.Exec(ctx, ddl) // individual failures already logged
	}

	for _, table := range baselineTables {
		if !s.tableExists(ctx, table) {
			s.log.Error().Str(log.FieldPath, s.path).Msgf("cannot create table %q in new database", table)
			return fmt.Errorf("%w: table %q missing", ErrSchemaCreate, table)
		}
	}

	return s.setConfigIntLocked(ctx, versionKey, 0)
}
