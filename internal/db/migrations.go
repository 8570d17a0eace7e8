package db

import "strings"

type migration struct {
	name string
	// sql is written for SQLite; postgres overrides it when the DDL differs.
	sql      []string
	postgres []string
}

func (m migration) statements(driver string) []string {
	if driver == DriverPostgres && m.postgres != nil {
		return m.postgres
	}
	return m.sql
}

// serial swaps SQLite's autoincrement key for a Postgres identity column.
func serial(stmts ...string) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		s = strings.ReplaceAll(s, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
		s = strings.ReplaceAll(s, "DATETIME", "TIMESTAMPTZ")
		s = strings.ReplaceAll(s, "BOOLEAN NOT NULL DEFAULT 0", "BOOLEAN NOT NULL DEFAULT FALSE")
		out[i] = s
	}
	return out
}

var (
	credentialsDDL = []string{`
		CREATE TABLE IF NOT EXISTS auth_credentials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			user_type TEXT NOT NULL CHECK (user_type IN ('student', 'club')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	studentsDDL = []string{`
		CREATE TABLE IF NOT EXISTS students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			auth_id INTEGER NOT NULL UNIQUE REFERENCES auth_credentials(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			interests TEXT NOT NULL DEFAULT '[]',
			profile_picture TEXT NOT NULL DEFAULT ''
		)`,
	}
	clubsDDL = []string{`
		CREATE TABLE IF NOT EXISTS clubs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			auth_id INTEGER NOT NULL UNIQUE REFERENCES auth_credentials(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			interests TEXT NOT NULL DEFAULT '[]',
			profile_picture TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clubs_name ON clubs(name)`,
	}
	savedClubsDDL = []string{`
		CREATE TABLE IF NOT EXISTS saved_clubs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
			saved_at DATETIME NOT NULL,
			UNIQUE (student_id, club_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_clubs_club ON saved_clubs(club_id)`,
	}
	messagesDDL = []string{`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			sender_id INTEGER NOT NULL,
			sender_type TEXT NOT NULL,
			recipient_id INTEGER NOT NULL,
			recipient_type TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_type, recipient_id, read)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_type, sender_id)`,
	}
	socialMediaDDL = []string{`
		CREATE TABLE IF NOT EXISTS social_media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_club ON social_media(club_id)`,
	}
)

var migrations = []migration{
	{name: "create auth credentials table", sql: credentialsDDL, postgres: serial(credentialsDDL...)},
	{name: "create students table", sql: studentsDDL, postgres: serial(studentsDDL...)},
	{name: "create clubs table", sql: clubsDDL, postgres: serial(clubsDDL...)},
	{name: "create saved clubs table", sql: savedClubsDDL, postgres: serial(savedClubsDDL...)},
	{name: "create messages table", sql: messagesDDL, postgres: serial(messagesDDL...)},
	{name: "create social media table", sql: socialMediaDDL, postgres: serial(socialMediaDDL...)},
}
