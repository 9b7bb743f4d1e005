package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCXExtractor reads the main document part of an Office Open XML file.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(_ context.Context, res Resource) (string, error) {
	content := res.Body
	if len(content) < 4 || content[0] != 'P' || content[1] != 'K' {
		return "", errors.New("not a DOCX document: missing zip signature")
	}
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer r.Close()

	text, err := wordprocessingText(r.Editable().GetContent())
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("docx contains no extractable text")
	}
	return text, nil
}

// wordprocessingText collects <w:t> runs, emitting a newline per paragraph
// and a space per tab or break.
func wordprocessingText(documentXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab", "br":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
