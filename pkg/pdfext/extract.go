package pdfext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minExtractedChars guards against scanned or image-only PDFs, which parse
// fine but yield almost no text.
const minExtractedChars = 50

// ExtractionError reports a document that parsed but produced no usable
// text, distinct from an outright parse failure.
type ExtractionError struct {
	Pages int
	Chars int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("only %d characters extracted from %d pages, document is likely scanned and needs OCR", e.Chars, e.Pages)
}

// ExtractText pulls plain text from PDF bytes, page by page. Rows are read
// in layout order where possible so headings and question numbering survive.
func ExtractText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	content = trimTrailingGarbage(content)

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var out strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// Row extraction fails on some generators; plain text still works.
			text, plainErr := page.GetPlainText(nil)
			if plainErr != nil {
				continue
			}
			out.WriteString(text)
			out.WriteString("\n")
			continue
		}

		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if trimmed := strings.TrimSpace(line.String()); trimmed != "" {
				out.WriteString(trimmed)
				out.WriteString("\n")
			}
		}
		out.WriteString("\n")
	}

	extracted := strings.TrimSpace(out.String())
	if len(extracted) < minExtractedChars {
		return "", &ExtractionError{Pages: numPages, Chars: len(extracted)}
	}
	return extracted, nil
}

// trimTrailingGarbage truncates at the last %%EOF marker. PDFs fetched from
// the web often carry HTML or tracker bytes appended after the document end,
// which the parser chokes on.
func trimTrailingGarbage(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}

	lastEOF := bytes.LastIndex(content, []byte("%%EOF"))
	if lastEOF < 0 {
		return content
	}

	end := lastEOF + len("%%EOF")
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	if len(content)-end > 10 {
		return content[:end]
	}
	return content
}
