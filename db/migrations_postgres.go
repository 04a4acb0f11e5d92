package db

var postgresMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_users_table",
		Up: `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS users;
		`,
	},
	{
		Version: 2,
		Name:    "create_links_table",
		Up: `
			CREATE TABLE IF NOT EXISTS links (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				url TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				image_url TEXT,
				summary TEXT NOT NULL DEFAULT '',
				archive_path TEXT,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_links_user_id ON links(user_id);
			CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_links_created_at;
			DROP INDEX IF EXISTS idx_links_user_id;
			DROP TABLE IF EXISTS links;
		`,
	},
	{
		Version: 3,
		Name:    "create_folders_table",
		Up: `
			CREATE TABLE IF NOT EXISTS folders (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				color TEXT,
				icon TEXT,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_folders_user_id;
			DROP TABLE IF EXISTS folders;
		`,
	},
	{
		Version: 4,
		Name:    "create_tags_table",
		Up: `
			CREATE TABLE IF NOT EXISTS tags (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS tags;
		`,
	},
	{
		Version: 5,
		Name:    "create_link_tags_table",
		Up: `
			CREATE TABLE IF NOT EXISTS link_tags (
				link_id TEXT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
				tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (link_id, tag_id)
			);
			CREATE INDEX IF NOT EXISTS idx_link_tags_tag_id ON link_tags(tag_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_link_tags_tag_id;
			DROP TABLE IF EXISTS link_tags;
		`,
	},
	{
		Version: 6,
		Name:    "create_folder_tags_table",
		Up: `
			CREATE TABLE IF NOT EXISTS folder_tags (
				folder_id TEXT NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
				tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (folder_id, tag_id)
			);
			CREATE INDEX IF NOT EXISTS idx_folder_tags_tag_id ON folder_tags(tag_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_folder_tags_tag_id;
			DROP TABLE IF EXISTS folder_tags;
		`,
	},
}
