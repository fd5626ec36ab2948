// Package extract turns stored files into plain text plus structural
// metadata. Extraction never fails hard: any problem comes back as empty
// text with an "error" metadata key, and the lifecycle decides what to do
// with it.
package extract

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/pkg/logx"
)

var logger = logx.New("extractor")

// Extract dispatches on the declared extension. Unknown extensions fall
// back to plain-text decoding.
func Extract(path string, declaredExt string) (string, docmodel.Metadata) {
	ext := strings.ToLower(declaredExt)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(path))
	}

	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".doc", ".odt", ".rtf":
		return extractWordLike(path)
	case ".txt", ".md", ".csv", ".json":
		return extractPlainText(path)
	default:
		logger.Warn("Unsupported file type, treating as text", "extension", ext)
		return extractPlainText(path)
	}
}

func extractPlainText(path string) (string, docmodel.Metadata) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Error reading text file", "path", path, "error", err)
		return "", docmodel.Metadata{"error": err.Error()}
	}

	text := string(data)
	return text, docmodel.Metadata{
		"line_count":      strings.Count(text, "\n") + 1,
		"character_count": len(text),
		"word_count":      len(strings.Fields(text)),
	}
}
