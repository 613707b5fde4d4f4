package migrations

// SQLiteMigrations returns all SQLite migrations in order
func SQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Server states table",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS server_states (
					id TEXT PRIMARY KEY,
					disabled BOOLEAN NOT NULL DEFAULT FALSE,
					updated_at DATETIME NOT NULL
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS server_states;`,
		},
	}
}
