package ingest

import (
	"strings"
	"unicode/utf8"
)

// Separator is a split point. Header markers stay with the text they introduce,
// everything else stays with the text it terminates.
type Separator struct {
	Value       string
	KeepAtStart bool
}

// DefaultSeparators are tried in order, from structural to character level.
var DefaultSeparators = []Separator{
	{Value: "\n## ", KeepAtStart: true},
	{Value: "\n### ", KeepAtStart: true},
	{Value: "\n\n"},
	{Value: ". "},
	{Value: "? "},
	{Value: "! "},
	{Value: "\n"},
	{Value: " "},
}

// TextSpan is one chunk of a text. Start is the byte offset of Content in the source and
// the first Overlap bytes of Content repeat the tail of the previous span.
type TextSpan struct {
	Content string
	Start   int
	Overlap int
}

type TextSplitter struct {
	chunkSize  int
	overlap    int
	separators []Separator
}

type span struct {
	start, end int
}

func NewTextSplitter(chunkSize, overlap int) *TextSplitter {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &TextSplitter{chunkSize: chunkSize, overlap: overlap, separators: DefaultSeparators}
}

// Split cuts text into spans whose body (content minus overlap) is at most chunkSize runes.
// Dropping each span's overlap and concatenating the rest gives back text unchanged.
func (s *TextSplitter) Split(text string) []TextSpan {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := s.pieces(text, span{0, len(text)}, s.separators)
	return s.merge(text, pieces)
}

func (s *TextSplitter) pieces(text string, sp span, seps []Separator) []span {
	if runeLen(text[sp.start:sp.end]) <= s.chunkSize {
		return []span{sp}
	}

	for i, sep := range seps {
		parts := splitKeeping(text, sp, sep)
		if len(parts) < 2 {
			continue
		}
		var out []span
		for _, p := range parts {
			out = append(out, s.pieces(text, p, seps[i+1:])...)
		}
		return out
	}
	return s.hardCut(text, sp)
}

func splitKeeping(text string, sp span, sep Separator) []span {
	seg := text[sp.start:sp.end]
	var parts []span
	from, searchFrom := 0, 0
	for {
		idx := strings.Index(seg[searchFrom:], sep.Value)
		if idx < 0 {
			break
		}
		idx += searchFrom
		cut := idx + len(sep.Value)
		if sep.KeepAtStart {
			cut = idx
		}
		if cut > from {
			parts = append(parts, span{sp.start + from, sp.start + cut})
			from = cut
		}
		searchFrom = idx + len(sep.Value)
	}
	if from < len(seg) {
		parts = append(parts, span{sp.start + from, sp.end})
	}
	return parts
}

func (s *TextSplitter) hardCut(text string, sp span) []span {
	var out []span
	start, n := sp.start, 0
	for i := range text[sp.start:sp.end] {
		if n == s.chunkSize {
			out = append(out, span{start, sp.start + i})
			start, n = sp.start+i, 0
		}
		n++
	}
	return append(out, span{start, sp.end})
}

// merge packs consecutive pieces into chunks. The packing target is the chunk size spread
// evenly over the number of chunks the text needs, so the last chunk is not a runt.
func (s *TextSplitter) merge(text string, pieces []span) []TextSpan {
	target := s.chunkSize
	if total := runeLen(text); total > s.chunkSize {
		n := (total + s.chunkSize - 1) / s.chunkSize
		target = (total + n - 1) / n
	}

	var out []TextSpan
	chunkStart, bodyStart, end, bodyLen := 0, 0, 0, 0
	for _, p := range pieces {
		pLen := runeLen(text[p.start:p.end])
		if bodyLen > 0 && bodyLen+pLen > target {
			out = append(out, TextSpan{Content: text[chunkStart:end], Start: chunkStart, Overlap: bodyStart - chunkStart})
			chunkStart = s.overlapStart(text, chunkStart, end)
			bodyStart, bodyLen = end, 0
		}
		end = p.end
		bodyLen += pLen
	}
	if bodyLen > 0 {
		out = append(out, TextSpan{Content: text[chunkStart:end], Start: chunkStart, Overlap: bodyStart - chunkStart})
	}
	return out
}

// overlapStart walks back up to overlap runes from end, then forward to the next word.
func (s *TextSplitter) overlapStart(text string, lower, end int) int {
	if s.overlap == 0 {
		return end
	}
	start := end
	for n := 0; n < s.overlap && start > lower; n++ {
		_, size := utf8.DecodeLastRuneInString(text[lower:start])
		start -= size
	}
	if start > lower && !isSpace(text[start-1]) {
		if i := strings.IndexAny(text[start:end], " \t\n"); i >= 0 {
			start += i + 1
		}
	}
	if strings.TrimSpace(text[start:end]) == "" {
		return end
	}
	return start
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
