package app

import "errors"

// Language build failures. Each skips one language and never aborts the
// batch.
var (
	ErrInvalidLanguage = errors.New("invalid language")
	ErrConfigLoad      = errors.New("config load failed")
	ErrMissingInput    = errors.New("no corpus cache and no url list")
	ErrCrawl           = errors.New("crawl failed")
	ErrProfileBuild    = errors.New("profile build failed")
	ErrWrite           = errors.New("profile write failed")
)
