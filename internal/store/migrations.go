package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	customer_number         TEXT PRIMARY KEY,
	name                    TEXT NOT NULL,
	first_name              TEXT NOT NULL DEFAULT '',
	last_name               TEXT NOT NULL DEFAULT '',
	phone                   TEXT NOT NULL DEFAULT '',
	email                   TEXT NOT NULL DEFAULT '',
	move_date               DATETIME,
	from_address            TEXT NOT NULL DEFAULT '',
	to_address              TEXT NOT NULL DEFAULT '',
	apartment               TEXT NOT NULL DEFAULT '{}',
	services                TEXT NOT NULL DEFAULT '[]',
	distance_km             REAL NOT NULL DEFAULT 0,
	notes                   TEXT NOT NULL DEFAULT '',
	source                  TEXT NOT NULL DEFAULT '',
	lead_source             TEXT NOT NULL DEFAULT '',
	imported_at             DATETIME NOT NULL,
	import_source           TEXT NOT NULL DEFAULT '',
	email_message_id        TEXT NOT NULL DEFAULT '',
	original_failure_reason TEXT NOT NULL DEFAULT '',
	retried_at              DATETIME,
	lenient_mode            INTEGER NOT NULL DEFAULT 0 CHECK(lenient_mode IN (0, 1)),
	created_at              DATETIME NOT NULL,
	updated_at              DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quotes (
	id                 TEXT PRIMARY KEY,
	customer_id        TEXT NOT NULL REFERENCES customers(customer_number),
	base_price         INTEGER NOT NULL DEFAULT 0,
	floor_surcharge    INTEGER NOT NULL DEFAULT 0,
	distance_surcharge INTEGER NOT NULL DEFAULT 0,
	packing_price      INTEGER NOT NULL DEFAULT 0,
	furniture_price    INTEGER NOT NULL DEFAULT 0,
	subtotal           INTEGER NOT NULL DEFAULT 0,
	vat                INTEGER NOT NULL DEFAULT 0,
	total              INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'draft',
	move_date          DATETIME,
	from_address       TEXT NOT NULL DEFAULT '',
	to_address         TEXT NOT NULL DEFAULT '',
	services           TEXT NOT NULL DEFAULT '[]',
	comment            TEXT NOT NULL DEFAULT '',
	created_by         TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS failed_imports (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL DEFAULT '{}',
	reason          TEXT NOT NULL,
	parsed_data     TEXT NOT NULL DEFAULT 'null',
	resolved        INTEGER NOT NULL DEFAULT 0 CHECK(resolved IN (0, 1)),
	resolved_at     DATETIME,
	new_customer_id TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
	scope TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT '',
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email);
CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
CREATE INDEX IF NOT EXISTS idx_quotes_customer_id ON quotes(customer_id);
CREATE INDEX IF NOT EXISTS idx_failed_imports_resolved ON failed_imports(resolved);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS import_watermarks (
	folder      TEXT PRIMARY KEY,
	last_import DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	folder      TEXT NOT NULL DEFAULT '',
	stats       TEXT NOT NULL DEFAULT '{}',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_customers_email_message_id
	ON customers(email_message_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
