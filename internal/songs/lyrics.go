package songs

import "strings"

// SplitLyrics breaks raw lyric text into stanzas on blank lines. CRLF line
// endings are normalised, each stanza is trimmed and empty ones are dropped.
func SplitLyrics(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CleanStanzas trims each stanza and drops empty ones, so imported slides
// follow the same rules as SplitLyrics.
func CleanStanzas(stanzas []string) []string {
	out := make([]string, 0, len(stanzas))
	for _, st := range stanzas {
		st = strings.TrimSpace(strings.ReplaceAll(st, "\r\n", "\n"))
		if st != "" {
			out = append(out, st)
		}
	}
	return out
}
