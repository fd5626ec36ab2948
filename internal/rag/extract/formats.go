package extract

import (
	"errors"
	"strings"
	"time"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractPDF(path string) (string, docmodel.Metadata) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("Failed to open pdf", "path", path, "error", err)
		return "", docmodel.Metadata{"error": err.Error()}
	}

	numPages := f.NumPage()
	pages := make([]docmodel.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			pages = append(pages, docmodel.PageText{PageNumber: i})
			continue
		}

		content, err := guardedPageText(page)
		if err != nil {
			// keep going, one bad page should not sink the document
			logger.Error("Error parsing page content", "page", i, "error", err)
			content = ""
		}
		pages = append(pages, docmodel.PageText{PageNumber: i, Text: content})
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}

	meta := docmodel.Metadata{
		"page_count": numPages,
		"pages":      pages,
	}
	title, author := documentInfo(f)
	if title != "" {
		meta["title"] = title
	}
	if author != "" {
		meta["author"] = author
	}

	return strings.Join(texts, "\n\n"), meta
}

// documentInfo reads title and author from the Info dictionary when the
// trailer carries one. The parser panics on malformed trailers, so a
// broken Info dict just yields no metadata.
func documentInfo(f *pdf.Reader) (title, author string) {
	defer func() {
		_ = recover()
	}()
	info := f.Trailer().Key("Info")
	title = infoText(info, "Title")
	author = infoText(info, "Author")
	return title, author
}

func infoText(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// guardedPageText runs the pdf text walk on a separate goroutine; the
// parser can spin on malformed content streams.
func guardedPageText(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timed out")
	}
}

// extractWordLike handles docx, doc, odt and rtf through a single
// decoder. No page boundaries survive the conversion, so the whole
// document lands on page 1.
func extractWordLike(path string) (string, docmodel.Metadata) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting word-like document", "path", path, "error", err)
		return "", docmodel.Metadata{"error": err.Error()}
	}

	return text, docmodel.Metadata{
		"paragraph_count": len(strings.Split(text, "\n")),
	}
}
