// Package probe reads playback metadata from video files: duration,
// resolution and the loudness of the audio track, so the projector can
// normalise the volume of clips recorded at very different levels.
//
// Pipeline:
//  1. Parse MP4 container (abema/go-mp4)
//  2. Detect audio codec (AAC or Opus) by inspecting stsd box entries
//  3. Decode up to 30 s of audio to mono float32 PCM
//     - AAC:  skrashevich/go-aac
//     - Opus: lostromb/concentus (pure Go, SILK + CELT)
//  4. RMS over the decoded window → dBFS
//
// Only MP4-family containers are parsed. Other formats (webm, mkv, avi) are
// reported with ErrUnsupported and stored with zero values.
package probe

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	gomp4 "github.com/abema/go-mp4"
)

// maxSeconds limits how much audio we analyse (keeps it fast).
const maxSeconds = 30

// SilenceDB is reported for a track whose decoded window is digital silence.
const SilenceDB = -96.0

// ErrUnsupported is returned for containers the prober cannot parse.
var ErrUnsupported = errors.New("unsupported container")

// Result is what a probe learned about one file. Zero values mean unknown.
type Result struct {
	DurationMs int64   `json:"durationMs" db:"duration_ms"`
	LoudnessDB float64 `json:"loudnessDb" db:"loudness_db"`
	Width      int     `json:"width" db:"width"`
	Height     int     `json:"height" db:"height"`
	AudioCodec string  `json:"audioCodec" db:"audio_codec"` // "aac", "opus" or ""
}

// HasAudio reports whether a loudness value was measured.
func (r Result) HasAudio() bool { return r.AudioCodec != "" }

// mp4Exts are the extensions handed to the MP4 parser.
var mp4Exts = map[string]bool{".mp4": true, ".m4v": true, ".mov": true}

// Supported reports whether path has a container the prober understands.
func Supported(path string) bool {
	return mp4Exts[strings.ToLower(filepath.Ext(path))]
}

// File probes the video at path.
func File(path string) (Result, error) {
	if !Supported(path) {
		return Result{}, fmt.Errorf("probe: %s: %w", filepath.Base(path), ErrUnsupported)
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("probe: open %s: %w", path, err)
	}
	defer f.Close()

	res, err := Reader(f)
	if err != nil {
		return res, fmt.Errorf("probe: %s: %w", path, err)
	}

	// Release the PCM buffer and return freed pages to the OS; a 30 s
	// window is several megabytes and probes are rare.
	debug.FreeOSMemory()

	return res, nil
}

// Reader probes an MP4 stream. Container metadata is returned even when
// the audio track cannot be decoded.
func Reader(rs io.ReadSeeker) (Result, error) {
	info, err := gomp4.Probe(rs)
	if err != nil {
		return Result{}, fmt.Errorf("mp4 probe: %w", err)
	}

	var res Result
	if info.Timescale > 0 {
		res.DurationMs = int64(info.Duration * 1000 / uint64(info.Timescale))
	}
	for _, t := range info.Tracks {
		if t.AVC != nil {
			res.Width, res.Height = int(t.AVC.Width), int(t.AVC.Height)
			break
		}
	}

	codec := detectAudioCodec(rs)
	if codec == codecUnknown {
		return res, nil
	}
	track, err := findAudioTrack(info, codec)
	if err != nil {
		return res, nil
	}
	if res.DurationMs == 0 && track.Timescale > 0 {
		res.DurationMs = int64(track.Duration * 1000 / uint64(track.Timescale))
	}

	pcm, err := decode(rs, track, codec)
	if err != nil {
		return res, fmt.Errorf("decode %s: %w", codec, err)
	}
	if len(pcm) == 0 {
		return res, nil
	}

	res.AudioCodec = codec.String()
	res.LoudnessDB = Loudness(pcm)
	return res, nil
}

// Loudness returns the RMS level of mono PCM in dBFS, rounded to one
// decimal place. Silence and empty input report SilenceDB.
func Loudness(pcm []float32) float64 {
	if len(pcm) == 0 {
		return SilenceDB
	}
	var sum float64
	for _, s := range pcm {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(pcm)))
	if rms == 0 {
		return SilenceDB
	}
	db := 20 * math.Log10(rms)
	if db < SilenceDB {
		db = SilenceDB
	}
	return math.Round(db*10) / 10
}

// Gain returns the linear volume that brings a clip measured at loudnessDB
// to targetDB, capped at 1 (the projector can only attenuate). Unknown
// loudness (0) plays at full volume.
func Gain(loudnessDB, targetDB float64) float64 {
	if loudnessDB == 0 || loudnessDB <= targetDB {
		return 1
	}
	g := math.Pow(10, (targetDB-loudnessDB)/20)
	return math.Round(g*1000) / 1000
}
