package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersMainOverBody(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>Test Page</title></head>
      <body>
        <nav>Nav should be ignored</nav>
        <main>
          <h1>Main Heading</h1>
          <p>This is the main content paragraph.</p>
        </main>
        <footer>Footer text</footer>
      </body>
    </html>`

	doc := FromHTML([]byte(html))
	if doc.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Main Heading") || !strings.Contains(doc.Text, "This is the main content paragraph.") {
		t.Fatalf("expected main content, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "Nav should be ignored") || strings.Contains(doc.Text, "Footer text") {
		t.Fatalf("did not expect nav/footer text, got %q", doc.Text)
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	html := `<html><head><title>No Main</title></head>
      <body><h2>Body Heading</h2><p>Body paragraph</p></body></html>`

	doc := FromHTML([]byte(html))
	if !strings.Contains(doc.Text, "Body Heading") || !strings.Contains(doc.Text, "Body paragraph") {
		t.Fatalf("expected body content, got %q", doc.Text)
	}
}

func TestFromHTML_SkipsConsentBannerAndScripts(t *testing.T) {
	html := `<html><body>
      <div class="cookie-banner">We use cookies</div>
      <script>var x = "script text";</script>
      <div role="navigation">Menu</div>
      <article><p>Article text</p></article>
    </body></html>`

	doc := FromHTML([]byte(html))
	if doc.Text != "Article text" {
		t.Fatalf("expected only article text, got %q", doc.Text)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("\n\n  a \t b \n\n\n\n c  \n\n")
	if got != "a b\n\nc" {
		t.Fatalf("got %q", got)
	}
}
