package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Resource is one fetched document handed to an extractor.
type Resource struct {
	URL         string
	ContentType string
	Body        []byte
}

// Extractor converts a fetched resource into plain text. Implementations
// must be deterministic and free of side effects.
type Extractor interface {
	Extract(ctx context.Context, res Resource) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, res Resource) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, res Resource) (string, error) {
	return f(ctx, res)
}

// ExtractionError reports that a resource could not be turned into text.
// Crawlers treat it as a per-URL failure.
type ExtractionError struct {
	URL       string
	MediaType string
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("extract %s (%s): %v", e.URL, e.MediaType, e.Err)
	}
	return fmt.Sprintf("extract (%s): %v", e.MediaType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

const (
	mediaHTML  = "text/html"
	mediaXHTML = "application/xhtml+xml"
	mediaText  = "text/plain"
	mediaPDF   = "application/pdf"
	mediaDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Registry selects an extractor by media type. Declared types that are
// missing, generic or unregistered are resolved by sniffing the body.
type Registry struct {
	byType map[string]Extractor
	// Fallback handles any text/* type without a dedicated extractor.
	Fallback Extractor
}

// NewRegistry returns a registry with the HTML, plain text, PDF and DOCX
// extractors installed.
func NewRegistry() *Registry {
	html := &HTMLExtractor{}
	text := &TextExtractor{}
	r := &Registry{byType: map[string]Extractor{}, Fallback: text}
	r.Register(html, mediaHTML, mediaXHTML)
	r.Register(text, mediaText)
	r.Register(&PDFExtractor{}, mediaPDF)
	r.Register(&DOCXExtractor{}, mediaDOCX)
	return r
}

// Register installs ex for the given media types, replacing earlier entries.
func (r *Registry) Register(ex Extractor, mediaTypes ...string) {
	if r.byType == nil {
		r.byType = map[string]Extractor{}
	}
	for _, mt := range mediaTypes {
		r.byType[strings.ToLower(mt)] = ex
	}
}

// Extract picks an extractor for res and runs it.
func (r *Registry) Extract(ctx context.Context, res Resource) (string, error) {
	mt := MediaType(res.ContentType)
	ex, resolved := r.lookup(mt, res.Body)
	if ex == nil {
		return "", &ExtractionError{URL: res.URL, MediaType: resolved, Err: fmt.Errorf("unsupported format")}
	}
	text, err := ex.Extract(ctx, res)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			return "", err
		}
		return "", &ExtractionError{URL: res.URL, MediaType: resolved, Err: err}
	}
	return text, nil
}

func (r *Registry) lookup(declared string, body []byte) (Extractor, string) {
	if !isGeneric(declared) {
		if ex, ok := r.byType[declared]; ok {
			return ex, declared
		}
	}
	sniffed := MediaType(mimetype.Detect(body).String())
	if ex, ok := r.byType[sniffed]; ok {
		return ex, sniffed
	}
	for _, mt := range []string{declared, sniffed} {
		if strings.HasPrefix(mt, "text/") && r.Fallback != nil {
			return r.Fallback, mt
		}
	}
	if declared == "" {
		return nil, sniffed
	}
	return nil, declared
}

// MediaType returns the lower-cased media type of a Content-Type header
// without parameters.
func MediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.ToLower(mt)
}

func isGeneric(mt string) bool {
	switch mt {
	case "", "application/octet-stream", "binary/octet-stream", "application/unknown":
		return true
	}
	return false
}
