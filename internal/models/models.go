package models

// Song is a song header from the song store.
type Song struct {
	ID       int64  `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Tone     string `json:"tone" db:"tone"`         // musical key, may be empty
	Category string `json:"category" db:"category"` // "Custom" for songs typed in by the operator
}

// Slide is one projectable stanza of a song.
type Slide struct {
	ID       int64  `json:"id" db:"id"`
	Position int    `json:"position" db:"position"` // 1-based, dense per song
	Body     string `json:"body" db:"body"`
}

// SongBundle is the transfer form of a song in export/import files.
// The lyrics key stays "letras" so files written by earlier releases load.
type SongBundle struct {
	Title    string   `json:"title"`
	Tone     string   `json:"tone"`
	Category string   `json:"category"`
	Lyrics   []string `json:"letras"`
}

// Book is a bible book with its chapter count for one version.
type Book struct {
	Name     string `json:"name" db:"name"`
	Chapters int    `json:"chapters" db:"chapters"`
}

// Verse is a single bible verse.
type Verse struct {
	Book    string `json:"book" db:"book"`
	Chapter int    `json:"chapter" db:"chapter"`
	Verse   int    `json:"verse" db:"verse"`
	Text    string `json:"text" db:"text"`
}

// Image is a background image reference.
type Image struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Path   string `json:"path" db:"path"`
	Aspect string `json:"aspect" db:"aspect"` // "contain", "cover" or "fill"
}

// Video is a video reference with its playback settings.
type Video struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	Path       string  `json:"path" db:"path"`
	Loop       bool    `json:"loop" db:"loop_enabled"`
	DurationMs int64   `json:"durationMs" db:"duration_ms"` // 0 when the file could not be probed
	LoudnessDB float64 `json:"loudnessDb" db:"loudness_db"` // RMS dBFS, 0 when unknown
	Gain       float64 `json:"gain" db:"-"`                 // playback volume that levels loudness
}

// PDF is a document reference.
type PDF struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Path string `json:"path" db:"path"`
}

// Setting is a key-value pair stored in the multimedia store.
type Setting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}
