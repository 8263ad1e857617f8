package db

// Database file names, shared by the writable copies and the bundled seeds.
const (
	SongsFile      = "songs.db"
	BibleFile      = "bible.db"
	MultimediaFile = "multimedia.db"
)

// SongsMigrations create the song tables. Seeds built by the installer
// already carry them; the steps are then recorded without changes.
var SongsMigrations = []Migration{
	{
		Version:     1,
		Description: "create songs and slides",
		Apply: Exec(`
		CREATE TABLE IF NOT EXISTS songs (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			title    TEXT NOT NULL,
			tone     TEXT DEFAULT '',
			category TEXT DEFAULT ''
		);

		-- One row per stanza; position is 1-based and dense per song
		CREATE TABLE IF NOT EXISTS slides (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			song_id  INTEGER NOT NULL,
			position INTEGER NOT NULL,
			body     TEXT NOT NULL
		);`),
	},
	{
		Version:     2,
		Description: "index slides by song and songs by title",
		Apply: Exec(
			`CREATE INDEX IF NOT EXISTS idx_slides_song_position ON slides(song_id, position)`,
			`CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title)`,
		),
	},
}

// MultimediaMigrations follow the order in which the multimedia catalog grew.
var MultimediaMigrations = []Migration{
	{
		Version:     1,
		Description: "create images, videos and pdfs",
		Apply: Exec(`
		CREATE TABLE IF NOT EXISTS images (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			path TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS videos (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			path TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pdfs (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			path TEXT NOT NULL
		);`),
	},
	{
		Version:     2,
		Description: "add images.aspect",
		Apply:       AddColumn("images", "aspect", "TEXT NOT NULL DEFAULT 'contain'"),
	},
	{
		Version:     3,
		Description: "add videos.loop_enabled",
		Apply:       AddColumn("videos", "loop_enabled", "INTEGER NOT NULL DEFAULT 0"),
	},
	{
		Version:     4,
		Description: "add videos.duration_ms",
		Apply:       AddColumn("videos", "duration_ms", "INTEGER NOT NULL DEFAULT 0"),
	},
	{
		Version:     5,
		Description: "add videos.loudness_db",
		Apply:       AddColumn("videos", "loudness_db", "REAL NOT NULL DEFAULT 0"),
	},
	{
		Version:     6,
		Description: "create media_probe cache",
		Apply: Exec(`
		-- Probe results for media files (avoids re-decoding)
		CREATE TABLE IF NOT EXISTS media_probe (
			path        TEXT PRIMARY KEY,      -- absolute file path
			mod_time    INTEGER NOT NULL,      -- file modification time (Unix seconds)
			duration_ms INTEGER NOT NULL DEFAULT 0,
			loudness_db REAL NOT NULL DEFAULT 0,
			width       INTEGER NOT NULL DEFAULT 0,
			height      INTEGER NOT NULL DEFAULT 0,
			audio_codec TEXT NOT NULL DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);`),
	},
	{
		Version:     7,
		Description: "create settings",
		Apply: Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`),
	},
}

// Specs lists every store in the order they are provisioned.
func Specs() []StoreSpec {
	return []StoreSpec{
		{Store: Songs, File: SongsFile, Migrations: SongsMigrations},
		{Store: Bible, File: BibleFile},
		{Store: Multimedia, File: MultimediaFile, Migrations: MultimediaMigrations},
	}
}
