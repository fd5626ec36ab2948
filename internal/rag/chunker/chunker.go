// Package chunker splits extracted text into overlapping, page-tagged
// segments sized for embedding.
package chunker

import (
	"regexp"
	"strings"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

// Segment is one retrievable unit produced from a document's text.
type Segment struct {
	Content    string
	PageNumber int
	Metadata   docmodel.Metadata
}

type pageRange struct {
	start, end int
	page       int
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Split accumulates paragraphs into chunks of roughly chunkSize
// characters. The size is a soft target: a single paragraph larger than
// chunkSize is kept whole rather than cut mid-paragraph. Consecutive
// chunks share a trailing window of chunkOverlap characters, re-anchored
// at a sentence boundary when one exists so the next chunk does not open
// mid-sentence.
func Split(text string, metadata docmodel.Metadata, chunkSize, chunkOverlap int) []Segment {
	if text == "" {
		return nil
	}

	ranges := pageRanges(metadata)
	paragraphs := strings.Split(text, "\n\n")

	var segments []Segment
	var buf string
	bufPage := 1
	currentPage := 1
	charPos := 0

	for _, para := range paragraphs {
		if page := pageAt(ranges, charPos); page > 0 {
			currentPage = page
		}

		// +2 accounts for the blank-line join below
		if buf != "" && len(buf)+len(para)+2 > chunkSize {
			segments = append(segments, closeSegment(buf, bufPage))
			buf = overlapTail(buf, chunkOverlap)
		}

		if buf != "" {
			buf += "\n\n" + para
		} else {
			buf = para
		}
		bufPage = currentPage

		charPos += len(para) + 2
	}

	if buf != "" {
		segments = append(segments, closeSegment(buf, bufPage))
	}
	return segments
}

func closeSegment(content string, page int) Segment {
	return Segment{
		Content:    content,
		PageNumber: page,
		Metadata:   docmodel.Metadata{"page_number": page},
	}
}

// overlapTail seeds the next chunk's buffer from the tail of the one
// just closed. When the trailing window holds at least two sentences the
// buffer restarts at the second-to-last one; otherwise the raw window is
// used. A chunk shorter than the overlap yields an empty seed.
func overlapTail(chunk string, overlap int) string {
	start := len(chunk) - overlap
	if start <= 0 {
		return ""
	}
	window := chunk[start:]

	sentences := splitSentences(window)
	if len(sentences) > 1 {
		if pos := strings.Index(window, sentences[len(sentences)-2]); pos != -1 {
			return window[pos:]
		}
	}
	return window
}

// splitSentences breaks on a terminator followed by whitespace, keeping
// the terminator with its sentence.
func splitSentences(s string) []string {
	locs := sentenceBoundary.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}

	var sentences []string
	start := 0
	for _, loc := range locs {
		sentences = append(sentences, s[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(s) {
		sentences = append(sentences, s[start:])
	}
	return sentences
}

// pageRanges walks the per-page texts and maps character-offset ranges
// to page numbers. The +2 per page mirrors the blank-line separator the
// extractor put between pages.
func pageRanges(metadata docmodel.Metadata) []pageRange {
	if metadata == nil {
		return nil
	}
	pages, ok := metadata["pages"].([]docmodel.PageText)
	if !ok {
		return nil
	}

	ranges := make([]pageRange, 0, len(pages))
	offset := 0
	for _, p := range pages {
		ranges = append(ranges, pageRange{start: offset, end: offset + len(p.Text), page: p.PageNumber})
		offset += len(p.Text) + 2
	}
	return ranges
}

func pageAt(ranges []pageRange, pos int) int {
	for _, r := range ranges {
		if pos >= r.start && pos < r.end {
			return r.page
		}
	}
	return 0
}
