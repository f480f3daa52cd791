package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS engineers (
	login TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	surname TEXT NOT NULL DEFAULT '',
	patronymic TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	org_unit TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	skills TEXT[] NOT NULL DEFAULT '{}',
	tags TEXT[] NOT NULL DEFAULT '{}',
	jira_id TEXT NOT NULL DEFAULT '',
	rem_id TEXT NOT NULL DEFAULT '',
	sharepoint_id TEXT NOT NULL DEFAULT '',
	utilized BOOLEAN NOT NULL DEFAULT TRUE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id BIGSERIAL PRIMARY KEY,
	series_id TEXT NOT NULL DEFAULT '',
	resource_login TEXT NOT NULL REFERENCES engineers(login) ON DELETE CASCADE,
	booking_type TEXT NOT NULL,
	percent INTEGER NOT NULL DEFAULT 0,
	hours INTEGER NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	repeat_policy TEXT NOT NULL DEFAULT 'no',
	start_date BIGINT NOT NULL,
	end_date BIGINT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	sla TEXT NOT NULL DEFAULT '',
	project_id TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_login_range ON bookings(resource_login, start_date, end_date);
CREATE INDEX IF NOT EXISTS idx_bookings_project ON bookings(project_id);

CREATE TABLE IF NOT EXISTS users (
	login TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	user_group TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	last_logged_in BIGINT,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS work_reports (
	resource_login TEXT NOT NULL REFERENCES engineers(login) ON DELETE CASCADE,
	company TEXT NOT NULL,
	project_ids TEXT NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	util_hours INTEGER NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE (resource_login, company, project_ids, month, year)
);
`
