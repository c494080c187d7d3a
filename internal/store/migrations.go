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

CREATE TABLE IF NOT EXISTS summaries (
	id                 TEXT PRIMARY KEY,
	account            TEXT NOT NULL,
	source_kind        TEXT NOT NULL,
	source_artifact_id TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	summary_text       TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	UNIQUE(source_kind, source_artifact_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	summary_id        TEXT NOT NULL REFERENCES summaries(id) ON DELETE CASCADE,
	id                TEXT NOT NULL,
	ord               INTEGER NOT NULL,
	text              TEXT NOT NULL,
	assignee          TEXT NOT NULL DEFAULT '',
	due_date          DATETIME,
	completed         INTEGER NOT NULL DEFAULT 0,
	remote_task_id    TEXT NOT NULL DEFAULT '',
	remote_list_id    TEXT NOT NULL DEFAULT '',
	remote_event_id   TEXT NOT NULL DEFAULT '',
	local_modified_at DATETIME NOT NULL,
	last_synced_at    DATETIME,
	PRIMARY KEY (summary_id, id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	account    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	summary_id TEXT NOT NULL DEFAULT '',
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS source_state (
	account            TEXT NOT NULL,
	source_kind        TEXT NOT NULL,
	watermark          TEXT NOT NULL DEFAULT '',
	channel_id         TEXT NOT NULL DEFAULT '',
	resource_id        TEXT NOT NULL DEFAULT '',
	channel_expires_at DATETIME,
	updated_at         DATETIME NOT NULL,
	PRIMARY KEY (account, source_kind)
);

CREATE INDEX IF NOT EXISTS idx_summaries_account_created
	ON summaries(account, created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_remote_task_id ON tasks(remote_task_id);
CREATE INDEX IF NOT EXISTS idx_notifications_account_created
	ON notifications(account, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
