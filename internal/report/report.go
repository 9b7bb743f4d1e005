// Package report renders a summary of one batch run as Markdown or PDF.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/langprof/internal/app"
)

// Markdown renders the summary as a Markdown document.
func Markdown(s app.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Language profile build\n\n")
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Root: %s\n", s.Root)
	fmt.Fprintf(&b, "Started: %s\n", s.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Written: %d of %d\n", s.Written(), len(s.Results))
	if len(s.Cleaned) > 0 {
		fmt.Fprintf(&b, "Cleaned: %s\n", strings.Join(s.Cleaned, ", "))
	}

	b.WriteString("\n## Languages\n\n")
	b.WriteString("| Language | State | Corpus | URLs | Failed | N-grams |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range s.Results {
		corpus := "-"
		if r.CorpusBytes > 0 {
			corpus = fmt.Sprintf("%d bytes", r.CorpusBytes)
			if r.CorpusReused {
				corpus += " (reused)"
			}
		}
		urls, failed := "-", "-"
		if r.Crawl != nil {
			urls = fmt.Sprint(r.Crawl.URLsAttempted)
			failed = fmt.Sprint(r.Crawl.Failed)
		}
		ngrams := "-"
		if r.NGrams > 0 {
			ngrams = fmt.Sprint(r.NGrams)
		}
		state := r.State.String()
		if r.Skipped() {
			state += " at " + r.Reached.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", r.Code, state, corpus, urls, failed, ngrams)
	}

	b.WriteString("\n## Manifest\n\n")
	for _, r := range s.Results {
		if r.CorpusSHA256 == "" {
			continue
		}
		out := r.ProfilePath
		if out == "" {
			out = "(not written)"
		}
		fmt.Fprintf(&b, "- %s: corpus sha256 %s, profile %s\n", r.Code, r.CorpusSHA256, out)
	}

	var failures []app.LanguageResult
	for _, r := range s.Results {
		if r.Err != nil {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Skipped\n\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "- %s: %s\n", r.Code, oneLine(r.Err.Error()))
		}
	}
	return b.String()
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

// Write stores the summary at path, as PDF when the extension is .pdf and
// as Markdown otherwise.
func Write(path string, s app.Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	md := Markdown(s)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return writePDF(md, path)
	}
	return os.WriteFile(path, []byte(md), 0o644)
}
