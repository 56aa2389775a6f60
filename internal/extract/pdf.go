package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadDocument loads a document from disk. PDFs go through text
// extraction; anything else is read as plain text.
func ReadDocument(path string) (Document, error) {
	doc := Document{Name: filepath.Base(path)}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := pdfText(path)
		if err != nil {
			return Document{}, fmt.Errorf("extracting text from %s: %w", path, err)
		}
		doc.Text = text
		return doc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc.Text = string(data)
	return doc, nil
}

// pdfText extracts the plain text of every page. Pages that fail to
// decode are skipped rather than failing the document.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
