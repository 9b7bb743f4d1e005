package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/langprof/internal/app"
	"github.com/hyperifyio/langprof/internal/crawl"
)

func sampleSummary() app.Summary {
	return app.Summary{
		RunID:    "run-1",
		Root:     "profiles",
		Started:  time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Cleaned:  []string{"nb"},
		Results: []app.LanguageResult{
			{Code: "nb", State: app.StateWritten, Reached: app.StateWritten, CorpusBytes: 20480,
				Crawl: &crawl.Result{URLsAttempted: 12, Failed: 1}, NGrams: 3120,
				CorpusSHA256: "abc123", ProfilePath: "profiles/nb/nb"},
			{Code: "da", State: app.StateWritten, Reached: app.StateWritten, CorpusBytes: 15000, CorpusReused: true, NGrams: 2800},
			{Code: "fo", State: app.StateSkipped, Reached: app.StateConfigLoaded,
				Err: fmt.Errorf("%w: neither\nfile usable", app.ErrMissingInput)},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleSummary())
	for _, want := range []string{
		"# Language profile build",
		"Run: run-1",
		"Written: 2 of 3",
		"Cleaned: nb",
		"| nb | written | 20480 bytes | 12 | 1 | 3120 |",
		"| da | written | 15000 bytes (reused) | - | - | 2800 |",
		"| fo | skipped at config-loaded | - | - | - | - |",
		"- nb: corpus sha256 abc123, profile profiles/nb/nb",
		"- fo: no corpus cache and no url list: neither file usable",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestWrite_Markdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "run.md")
	if err := Write(path, sampleSummary()); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "# Language profile build") {
		t.Fatalf("unexpected content: %q", b)
	}
}

func TestWrite_PDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.pdf")
	if err := Write(path, sampleSummary()); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", b[:min(len(b), 16)])
	}
}
