package store

// schema is portable between SQLite and PostgreSQL. Timestamps are fixed
// width UTC text; lists and maps are JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'discovery',
		tools TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		role TEXT,
		email TEXT,
		phone TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		order_index INTEGER NOT NULL,
		due_date TEXT,
		completed_at TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_company ON milestones(company_id, order_index)`,
	`CREATE TABLE IF NOT EXISTS requirements (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		item TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'needed',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		category TEXT,
		description TEXT,
		storage_path TEXT,
		url TEXT,
		content_type TEXT,
		file_type TEXT,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dev_tasks (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		description TEXT,
		assigned_to TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'todo',
		steps TEXT NOT NULL DEFAULT '[]',
		due_date TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deployment_components (
		id TEXT PRIMARY KEY,
		deployment_id TEXT NOT NULL REFERENCES deployments(id) ON DELETE CASCADE,
		component_type TEXT NOT NULL,
		status TEXT NOT NULL,
		url TEXT,
		last_checked TEXT,
		error_message TEXT,
		config TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL,
		UNIQUE (deployment_id, component_type)
	)`,
}
