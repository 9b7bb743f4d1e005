package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor concatenates the plain text of every page.
type PDFExtractor struct {
	// MaxPages limits how many pages are read. Zero means all.
	MaxPages int
}

func (p *PDFExtractor) Extract(ctx context.Context, res Resource) (text string, err error) {
	content := res.Body
	if len(content) < 4 || !bytes.HasPrefix(content, []byte("%PDF")) {
		return "", errors.New("not a PDF document")
	}
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	var b strings.Builder
	pages := doc.NumPage()
	for i := 1; i <= pages; i++ {
		if p.MaxPages > 0 && i > p.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return text, nil
}
