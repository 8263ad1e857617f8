package bible

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

const fixture = `
CREATE TABLE bible_versions (id INTEGER PRIMARY KEY, name TEXT UNIQUE);
CREATE TABLE bible_verses (
	version_id  INTEGER,
	book_name   TEXT,
	book_number INTEGER,
	chapter     INTEGER,
	verse       INTEGER,
	body        TEXT
);
INSERT INTO bible_versions (id, name) VALUES (1, 'KJV'), (2, 'RVR1960');
INSERT INTO bible_verses VALUES
	(1, 'Exodus',  2, 1, 1, 'Now these are the names'),
	(1, 'Exodus',  2, 40, 38, 'For the cloud of the LORD'),
	(1, 'Genesis', 1, 1, 2, 'And the earth was without form'),
	(1, 'Genesis', 1, 1, 1, 'In the beginning God created the heaven and the earth.'),
	(1, 'Genesis', 1, 50, 26, 'So Joseph died'),
	(2, 'Génesis', 1, 1, 1, 'En el principio creó Dios los cielos y la tierra.');
`

func newTestStore(t *testing.T) *Store {
	return newPolicyStore(t, db.DecodeSkip, fixture)
}

func newPolicyStore(t *testing.T, policy db.DecodePolicy, schema string) *Store {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), db.BibleFile))
	require.NoError(t, err)
	_, err = conn.Exec(schema)
	require.NoError(t, err)

	reg := db.NewRegistry(policy)
	reg.Register(db.Bible, conn)
	t.Cleanup(func() { reg.Close() })
	return NewStore(reg)
}

func TestVersions(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"KJV", "RVR1960"}, got)
}

func TestVersions_DecodePolicy(t *testing.T) {
	broken := fixture + `INSERT INTO bible_versions (id, name) VALUES (3, NULL);`

	got, err := newPolicyStore(t, db.DecodeSkip, broken).Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"KJV", "RVR1960"}, got)

	_, err = newPolicyStore(t, db.DecodeStrict, broken).Versions(context.Background())
	assert.Error(t, err)
}

func TestBooks_OrderedByBookNumber(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Books(context.Background(), "KJV")
	require.NoError(t, err)
	assert.Equal(t, []models.Book{
		{Name: "Genesis", Chapters: 50},
		{Name: "Exodus", Chapters: 40},
	}, got)
}

func TestBooks_UnknownVersionIsEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Books(context.Background(), "NIV")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestChapterVerses(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ChapterVerses(context.Background(), "KJV", "Genesis", 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Verse)
	assert.Equal(t, 2, got[1].Verse)
	assert.Equal(t, "Genesis", got[0].Book)
}

func TestVerse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Verse(ctx, "KJV", "Genesis", 1, 1)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "In the beginning God created the heaven and the earth.", v.Text)

	v, err = s.Verse(ctx, "KJV", "Genesis", 1, 999)
	require.NoError(t, err)
	assert.Nil(t, v)
}
