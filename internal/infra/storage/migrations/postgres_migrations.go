package migrations

// PostgresMigrations returns all PostgreSQL migrations in order
func PostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Server states table",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS server_states (
					id TEXT PRIMARY KEY,
					disabled BOOLEAN NOT NULL DEFAULT FALSE,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS server_states;`,
		},
	}
}
