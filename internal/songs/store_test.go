package songs

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

const amazingGrace = "Amazing grace how sweet the sound\nThat saved a wretch like me\n\nI once was lost but now am found\nWas blind but now I see"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), db.SongsFile))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), conn, db.SongsMigrations))

	reg := db.NewRegistry(db.DecodeSkip)
	reg.Register(db.Songs, conn)
	t.Cleanup(func() { reg.Close() })
	return NewStore(reg)
}

func TestSplitLyrics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two stanzas", amazingGrace, []string{
			"Amazing grace how sweet the sound\nThat saved a wretch like me",
			"I once was lost but now am found\nWas blind but now I see",
		}},
		{"trailing blank stanza", "Verse one line.\n\nVerse two line.\n\n", []string{"Verse one line.", "Verse two line."}},
		{"crlf", "a\r\n\r\nb", []string{"a", "b"}},
		{"extra blank lines", "\n\n a \n\n\n\n b\n\n", []string{"a", "b"}},
		{"empty", "   ", []string{}},
		{"single line breaks stay", "line one\nline two", []string{"line one\nline two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLyrics(tt.in))
		})
	}
}

func TestCreate_SlidesAreDense(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "Amazing Grace", amazingGrace)
	require.NoError(t, err)

	slides, err := s.Slides(ctx, id)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	for i, sl := range slides {
		assert.Equal(t, i+1, sl.Position)
	}
	assert.True(t, strings.HasPrefix(slides[1].Body, "I once was lost"))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, CustomCategory, list[0].Category)
	assert.Equal(t, "", list[0].Tone)
}

func TestCreate_RejectsBlankTitle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(context.Background(), "  ", "words")
	assert.ErrorIs(t, err, ErrInvalidTitle)
}

func TestList_SortedByTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"b song", "C song", "A song"} {
		_, err := s.Create(ctx, title, "x")
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	var titles []string
	for _, song := range list {
		titles = append(titles, song.Title)
	}
	assert.Equal(t, []string{"A song", "b song", "C song"}, titles)
}

func TestUpdate_ReplacesAllSlides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "Old", "one\n\ntwo\n\nthree")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, "New", "only"))

	slides, err := s.Slides(ctx, id)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "only", slides[0].Body)
	assert.Equal(t, 1, slides[0].Position)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New", list[0].Title)
}

func TestUpdate_UnknownSongLeavesNothingBehind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, 99, "Ghost", "a\n\nb")
	assert.ErrorIs(t, err, db.ErrNotFound)

	slides, err := s.Slides(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, slides)
}

func TestDelete_RemovesSlides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "Gone", "a\n\nb")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	slides, err := s.Slides(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, slides)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.Delete(ctx, id), db.ErrNotFound)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "Amazing Grace", amazingGrace)
	require.NoError(t, err)
	_, err = s.Create(ctx, "How Great Thou Art", "O Lord my God")
	require.NoError(t, err)
	_, err = s.Create(ctx, "100% Yours", "all of me")
	require.NoError(t, err)

	got, err := s.Search(ctx, "blind")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Amazing Grace", got[0].Title)

	got, err = s.Search(ctx, "great")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "How Great Thou Art", got[0].Title)

	got, err = s.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Yours", got[0].Title)

	got, err = s.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestImport_ReplacesByTitleAndInsertsNew(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.Create(ctx, "Holy Holy Holy", "old one\n\nold two\n\nold three")
	require.NoError(t, err)

	res, err := s.Import(ctx, []models.SongBundle{
		{Title: "Holy Holy Holy", Tone: "D", Category: "Hymn", Lyrics: []string{"new one", "new two"}},
		{Title: "Be Thou My Vision", Tone: "Eb", Category: "Hymn", Lyrics: []string{"verse"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 1, Replaced: 1}, res)
	assert.Equal(t, 2, res.Total())

	slides, err := s.Slides(ctx, existing)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "new one", slides[0].Body)
	assert.Equal(t, 2, slides[1].Position)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Be Thou My Vision", list[0].Title)
	assert.Equal(t, "Eb", list[0].Tone)
	assert.Equal(t, "Hymn", list[0].Category)
	assert.Equal(t, existing, list[1].ID)
}

func TestImport_DropsBlankStanzas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.Create(ctx, "Replaced", "old")
	require.NoError(t, err)

	_, err = s.Import(ctx, []models.SongBundle{
		{Title: "X", Lyrics: []string{"", "  ", "real", " \r\n", "  second\r\nline  "}},
		{Title: "Replaced", Lyrics: []string{"\n", "kept"}},
	})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "X", list[1].Title)

	slides, err := s.Slides(ctx, list[1].ID)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, 1, slides[0].Position)
	assert.Equal(t, "real", slides[0].Body)
	assert.Equal(t, 2, slides[1].Position)
	assert.Equal(t, "second\nline", slides[1].Body)

	slides, err = s.Slides(ctx, existing)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, 1, slides[0].Position)
	assert.Equal(t, "kept", slides[0].Body)
}

func TestImport_BlankTitleRejectsWholeBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Import(ctx, []models.SongBundle{
		{Title: "Fine", Lyrics: []string{"a"}},
		{Title: " ", Lyrics: []string{"b"}},
	})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	_, err := src.Create(ctx, "Amazing Grace", amazingGrace)
	require.NoError(t, err)
	_, err = src.Create(ctx, "Empty", "")
	require.NoError(t, err)

	bundles, err := src.Export(ctx)
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Len(t, bundles[0].Lyrics, 2)
	assert.NotNil(t, bundles[1].Lyrics)

	var buf bytes.Buffer
	require.NoError(t, WriteBundles(&buf, bundles))
	assert.Contains(t, buf.String(), `"letras"`)

	read, err := ReadBundles(&buf)
	require.NoError(t, err)

	dst := newTestStore(t)
	res, err := dst.Import(ctx, read)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	again, err := dst.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundles, again)
}

func TestReadBundles_Invalid(t *testing.T) {
	_, err := ReadBundles(strings.NewReader(`{"title": "not an array"}`))
	assert.Error(t, err)

	_, err = ReadBundles(strings.NewReader(`[{"title": "", "letras": ["x"]}]`))
	assert.ErrorIs(t, err, ErrInvalidTitle)

	got, err := ReadBundles(strings.NewReader(`[{"title": "No Lyrics"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{}, got[0].Lyrics)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.json")
	in := []models.SongBundle{{Title: "A", Tone: "C", Category: "Custom", Lyrics: []string{"x", "y"}}}

	require.NoError(t, WriteFile(path, in))
	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
