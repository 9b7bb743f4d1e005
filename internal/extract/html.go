package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

// HTMLExtractor returns only the main article content of a page. It runs
// readability first and falls back to FromHTML when that finds nothing.
type HTMLExtractor struct {
	// DisableArticle skips readability and uses FromHTML directly.
	DisableArticle bool
}

func (h *HTMLExtractor) Extract(_ context.Context, res Resource) (string, error) {
	body, err := decodeToUTF8(res.Body, res.ContentType)
	if err != nil {
		return "", err
	}
	if !h.DisableArticle {
		if text := articleText(body, res.URL); text != "" {
			return text, nil
		}
		log.Debug().Str("url", res.URL).Msg("article extraction empty; using fallback")
	}
	doc := FromHTML(body)
	if strings.TrimSpace(doc.Text) == "" {
		return "", errors.New("no text content")
	}
	return doc.Text, nil
}

func articleText(body []byte, rawURL string) string {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		pageURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// decodeToUTF8 converts body to UTF-8 using the declared charset, a <meta>
// declaration or byte sniffing, in that order. Bodies that are already valid
// UTF-8 and declare nothing are returned as is.
func decodeToUTF8(body []byte, contentType string) ([]byte, error) {
	if _, params, err := mime.ParseMediaType(contentType); err != nil || params["charset"] == "" {
		if utf8.Valid(body) {
			return body, nil
		}
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}
