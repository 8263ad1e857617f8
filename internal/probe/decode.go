package probe

import (
	"fmt"
	"io"
	"log/slog"

	gomp4 "github.com/abema/go-mp4"
	concentus "github.com/lostromb/concentus/go/opus"
	aacdecoder "github.com/skrashevich/go-aac/pkg/decoder"
)

// audioCodec identifies the audio coding format inside the MP4.
type audioCodec int

const (
	codecUnknown audioCodec = iota
	codecAAC
	codecOpus
)

func (c audioCodec) String() string {
	switch c {
	case codecAAC:
		return "aac"
	case codecOpus:
		return "opus"
	}
	return ""
}

// detectAudioCodec walks the MP4 box tree looking for an mp4a or Opus
// sample entry. go-mp4's Probe leaves Opus as CodecUnknown.
func detectAudioCodec(rs io.ReadSeeker) audioCodec {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return codecUnknown
	}

	codec := codecUnknown
	_, _ = gomp4.ReadBoxStructure(rs, func(h *gomp4.ReadHandle) (interface{}, error) {
		if codec != codecUnknown {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMp4a():
			codec = codecAAC
		case gomp4.BoxTypeOpus():
			codec = codecOpus
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(),
			gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd():
			// Never expand mdat.
			_, _ = h.Expand()
		}
		return nil, nil
	})
	return codec
}

// findAudioTrack picks the audio track from the probe results.
func findAudioTrack(info *gomp4.ProbeInfo, codec audioCodec) (*gomp4.Track, error) {
	if codec == codecAAC {
		for _, t := range info.Tracks {
			if t.Codec == gomp4.CodecMP4A {
				return t, nil
			}
		}
	}

	for _, t := range info.Tracks {
		if t.Codec == gomp4.CodecAVC1 {
			continue
		}
		if len(t.Samples) == 0 || len(t.Chunks) == 0 {
			continue
		}
		// Audio timescales are sample rates; video uses 600/24000/etc.
		if isAudioTimescale(t.Timescale) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no audio track among %d tracks", len(info.Tracks))
}

func isAudioTimescale(ts uint32) bool {
	switch ts {
	case 8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000:
		return true
	}
	return false
}

func decode(rs io.ReadSeeker, track *gomp4.Track, codec audioCodec) ([]float32, error) {
	switch codec {
	case codecAAC:
		return decodeAAC(rs, track, int(track.Timescale))
	case codecOpus:
		return decodeOpus(rs, track, int(track.Timescale))
	}
	return nil, fmt.Errorf("unsupported audio codec")
}

// ── AAC ─────────────────────────────────────────────────

func decodeAAC(rs io.ReadSeeker, track *gomp4.Track, sampleRate int) ([]float32, error) {
	asc, err := audioSpecificConfig(rs)
	if err != nil {
		return nil, fmt.Errorf("get AudioSpecificConfig: %w", err)
	}

	dec := aacdecoder.New()
	if err := dec.SetASC(asc); err != nil {
		return nil, fmt.Errorf("set ASC: %w", err)
	}
	if dec.Config.SampleRate > 0 {
		sampleRate = dec.Config.SampleRate
	}

	maxSamples := sampleRate * maxSeconds
	channels := dec.Config.ChanConfig
	if channels < 1 {
		channels = 1
	}

	// ~1024 PCM samples per AAC frame.
	samples := sampleLocations(track, (maxSamples/1024+1)*2)
	mono := make([]float32, 0, maxSamples)
	rawBuf := make([]byte, largest(samples))

	skipped := 0
	for _, loc := range samples {
		if len(mono) >= maxSamples {
			break
		}
		raw, ok := readSample(rs, loc, rawBuf)
		if !ok {
			continue
		}
		pcm, err := dec.DecodeFrame(raw)
		if err != nil {
			skipped++
			continue
		}
		frameLen := len(pcm) / channels
		for i := 0; i < frameLen; i++ {
			var sum float32
			for ch := 0; ch < channels; ch++ {
				sum += pcm[i*channels+ch]
			}
			mono = append(mono, sum/float32(channels))
		}
	}
	if skipped > 0 {
		slog.Debug("probe: skipped undecoded AAC frames", "count", skipped, "total", len(samples))
	}
	return mono, nil
}

// audioSpecificConfig finds the esds descriptor holding the bytes the AAC
// decoder needs.
func audioSpecificConfig(rs io.ReadSeeker) ([]byte, error) {
	stsd := []gomp4.BoxType{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd()}
	paths := []gomp4.BoxPath{
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeMp4a(), gomp4.BoxTypeEsds()),
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeMp4a(), gomp4.BoxTypeWave(), gomp4.BoxTypeEsds()),
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeEnca(), gomp4.BoxTypeEsds()),
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	bips, err := gomp4.ExtractBoxesWithPayload(rs, nil, paths)
	if err != nil {
		return nil, fmt.Errorf("extract esds: %w", err)
	}

	for _, bip := range bips {
		esds, ok := bip.Payload.(*gomp4.Esds)
		if !ok {
			continue
		}
		for _, desc := range esds.Descriptors {
			if desc.Tag == gomp4.DecSpecificInfoTag && len(desc.Data) >= 2 {
				return desc.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("AudioSpecificConfig not found in esds")
}

// ── Opus ────────────────────────────────────────────────

// opusRates are the output rates Concentus accepts.
var opusRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

func decodeOpus(rs io.ReadSeeker, track *gomp4.Track, sampleRate int) ([]float32, error) {
	if !opusRates[sampleRate] {
		sampleRate = 48000
	}

	const channels = 2
	dec, err := concentus.NewOpusDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}

	maxSamples := sampleRate * maxSeconds
	// ~960 PCM samples per 20 ms Opus frame.
	samples := sampleLocations(track, (maxSamples/960+1)*2)
	mono := make([]float32, 0, maxSamples)
	rawBuf := make([]byte, largest(samples))

	// Max Opus frame: 120 ms at 48 kHz, per channel.
	const maxFrame = 5760
	pcm16 := make([]int16, maxFrame*channels)

	skipped := 0
	for _, loc := range samples {
		if len(mono) >= maxSamples {
			break
		}
		// Packets of 3 bytes or less are padding the decoder rejects.
		if loc.size <= 3 {
			continue
		}
		raw, ok := readSample(rs, loc, rawBuf)
		if !ok {
			continue
		}
		n, err := dec.Decode(raw, 0, len(raw), pcm16, 0, maxFrame, false)
		if err != nil {
			skipped++
			continue
		}
		for i := 0; i < n; i++ {
			var sum float32
			for ch := 0; ch < channels; ch++ {
				sum += float32(pcm16[i*channels+ch]) / 32768.0
			}
			mono = append(mono, sum/channels)
		}
	}
	if skipped > 0 {
		slog.Debug("probe: skipped undecoded Opus frames", "count", skipped, "total", len(samples))
	}
	return mono, nil
}

// ── Shared helpers ──────────────────────────────────────

// sampleLoc is one sample's position in the file.
type sampleLoc struct {
	offset uint64
	size   uint32
}

// sampleLocations flattens the chunk table into (offset, size) pairs, at
// most limit of them (0 = all).
func sampleLocations(track *gomp4.Track, limit int) []sampleLoc {
	capacity := len(track.Samples)
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	result := make([]sampleLoc, 0, capacity)
	idx := 0

	for _, chunk := range track.Chunks {
		off := chunk.DataOffset
		for j := uint32(0); j < chunk.SamplesPerChunk; j++ {
			if idx >= len(track.Samples) || (limit > 0 && len(result) >= limit) {
				return result
			}
			sz := track.Samples[idx].Size
			result = append(result, sampleLoc{offset: off, size: sz})
			off += uint64(sz)
			idx++
		}
	}
	return result
}

func largest(locs []sampleLoc) uint32 {
	var m uint32
	for _, l := range locs {
		if l.size > m {
			m = l.size
		}
	}
	return m
}

func readSample(rs io.ReadSeeker, loc sampleLoc, buf []byte) ([]byte, bool) {
	if _, err := rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
		return nil, false
	}
	raw := buf[:loc.size]
	if _, err := io.ReadFull(rs, raw); err != nil {
		return nil, false
	}
	return raw, true
}
