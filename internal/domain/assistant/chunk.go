package assistant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

// Chunk splits text into pieces of at most size runes. Consecutive chunks
// share up to overlap runes. Splits prefer paragraph breaks, then sentence
// ends, then word boundaries, and only cut inside a word when a single word
// exceeds size. Whitespace runs are collapsed and empty chunks never appear.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []rune
	)
	flush := func() {
		s := strings.TrimSpace(string(current))
		if s != "" {
			chunks = append(chunks, s)
		}
		current = tail(current, overlap)
	}

	for _, para := range paragraphs {
		for _, piece := range pieces(para, size) {
			p := []rune(piece)
			sep := 0
			if len(current) > 0 {
				sep = 1
			}
			if len(current)+sep+len(p) > size && len(current) > 0 {
				flush()
				// carried overlap plus the piece may still be too large
				if len(current)+1+len(p) > size {
					current = current[:0]
				}
			}
			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, p...)
		}
	}
	if s := strings.TrimSpace(string(current)); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// tail returns the last n runes of r, starting at a word boundary when possible.
func tail(r []rune, n int) []rune {
	if n <= 0 || len(r) == 0 {
		return r[:0:0]
	}
	if len(r) <= n {
		return append([]rune(nil), r...)
	}
	start := len(r) - n
	for i := start; i < len(r); i++ {
		if unicode.IsSpace(r[i]) {
			start = i + 1
			break
		}
	}
	return append([]rune(nil), r[start:]...)
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pieces breaks a paragraph into units no longer than size.
func pieces(para string, size int) []string {
	if utf8.RuneCountInString(para) <= size {
		return []string{para}
	}
	var out []string
	for _, sentence := range splitSentences(para) {
		if utf8.RuneCountInString(sentence) <= size {
			out = append(out, sentence)
			continue
		}
		out = append(out, splitWords(sentence, size)...)
	}
	return out
}

func splitSentences(para string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(para)
	for i, r := range runes {
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || runes[i+1] == ' ') {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func splitWords(sentence string, size int) []string {
	var (
		out     []string
		current []rune
	)
	for _, w := range strings.Fields(sentence) {
		word := []rune(w)
		for len(word) > size {
			if len(current) > 0 {
				out = append(out, string(current))
				current = nil
			}
			out = append(out, string(word[:size]))
			word = word[size:]
		}
		sep := 0
		if len(current) > 0 {
			sep = 1
		}
		if len(current)+sep+len(word) > size {
			out = append(out, string(current))
			current = nil
			sep = 0
		}
		if sep == 1 {
			current = append(current, ' ')
		}
		current = append(current, word...)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}
