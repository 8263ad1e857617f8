package probe

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	gomp4 "github.com/abema/go-mp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
)

func TestLoudness(t *testing.T) {
	full := make([]float32, 4800)
	half := make([]float32, 4800)
	for i := range full {
		sign := float32(1)
		if i%2 == 1 {
			sign = -1
		}
		full[i] = sign
		half[i] = sign * 0.5
	}

	assert.Equal(t, 0.0, Loudness(full))
	assert.Equal(t, -6.0, Loudness(half))
	assert.Equal(t, SilenceDB, Loudness(make([]float32, 100)))
	assert.Equal(t, SilenceDB, Loudness(nil))
}

func TestGain(t *testing.T) {
	assert.Equal(t, 1.0, Gain(0, -20), "unknown loudness plays at full volume")
	assert.Equal(t, 1.0, Gain(-30, -20), "quiet clips are never boosted")
	assert.Equal(t, 0.501, Gain(-14, -20)) // 6 dB too loud
	assert.Equal(t, 0.1, Gain(0.0001, -20))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("/v/intro.MP4"))
	assert.True(t, Supported("clip.mov"))
	assert.False(t, Supported("clip.webm"))
	assert.False(t, Supported("clip"))
}

func TestFile_Unsupported(t *testing.T) {
	_, err := File("/nowhere/clip.mkv")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReader_NotAnMP4(t *testing.T) {
	_, err := Reader(bytes.NewReader([]byte("definitely not a movie")))
	assert.Error(t, err)
}

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReader_OpusTrack(t *testing.T) {
	res, err := Reader(openFixture(t, "silence_opus.mp4"))
	require.NoError(t, err)

	assert.Equal(t, int64(200), res.DurationMs)
	assert.Equal(t, "opus", res.AudioCodec)
	assert.Equal(t, SilenceDB, res.LoudnessDB)
	assert.Zero(t, res.Width)
}

func TestReader_AACTrack(t *testing.T) {
	f := openFixture(t, "silence_aac.mp4")

	res, err := Reader(f)
	require.NoError(t, err)
	assert.Equal(t, int64(232), res.DurationMs)
	assert.Equal(t, codecAAC, detectAudioCodec(f))

	asc, err := audioSpecificConfig(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x08}, asc) // AAC-LC, 44.1 kHz, mono

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	info, err := gomp4.Probe(f)
	require.NoError(t, err)
	track, err := findAudioTrack(info, codecAAC)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), track.Timescale)

	locs := sampleLocations(track, 0)
	require.Len(t, locs, 10)
	assert.Equal(t, sampleLoc{offset: 592, size: 4}, locs[0])
	assert.Equal(t, sampleLoc{offset: 592 + 9*4, size: 4}, locs[9])

	// Frames carry no spectral data, so whatever decodes is silence.
	pcm, err := decodeAAC(f, track, int(track.Timescale))
	require.NoError(t, err)
	assert.Equal(t, SilenceDB, Loudness(pcm))
}

func TestSampleLocations_AcrossChunks(t *testing.T) {
	track := &gomp4.Track{
		Chunks: []*gomp4.Chunk{
			{DataOffset: 100, SamplesPerChunk: 2},
			{DataOffset: 500, SamplesPerChunk: 2},
		},
		Samples: []*gomp4.Sample{{Size: 10}, {Size: 20}, {Size: 30}, {Size: 40}},
	}

	assert.Equal(t, []sampleLoc{{100, 10}, {110, 20}, {500, 30}, {530, 40}}, sampleLocations(track, 0))
	assert.Equal(t, []sampleLoc{{100, 10}, {110, 20}, {500, 30}}, sampleLocations(track, 3))
	assert.Equal(t, uint32(40), largest(sampleLocations(track, 0)))
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), db.MultimediaFile))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), conn, db.MultimediaMigrations))

	reg := db.NewRegistry(db.DecodeSkip)
	reg.Register(db.Multimedia, conn)
	t.Cleanup(func() { reg.Close() })
	return NewCache(reg)
}

func TestCache_ProbesOncePerModTime(t *testing.T) {
	c := newTestCache(t)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	calls := 0
	c.probe = func(string) (Result, error) {
		calls++
		return Result{DurationMs: 12000, LoudnessDB: -18.5, AudioCodec: "aac", Width: 1920, Height: 1080}, nil
	}

	ctx := context.Background()
	first, err := c.Probe(ctx, path)
	require.NoError(t, err)
	second, err := c.Probe(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, second.HasAudio())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	_, err = c.Probe(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_MissingFile(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Probe(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCache_Cleanup(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.mp4")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))

	require.NoError(t, c.Set(kept, 1, Result{DurationMs: 1}))
	require.NoError(t, c.Set(filepath.Join(dir, "gone.mp4"), 1, Result{DurationMs: 2}))

	c.Cleanup()

	_, ok := c.Get(kept, 1)
	assert.True(t, ok)
	_, ok = c.Get(filepath.Join(dir, "gone.mp4"), 1)
	assert.False(t, ok)
}
