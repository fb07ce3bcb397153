package app

import "time"

// Config carries all runtime settings for a sync run, resolved from flags,
// environment, and the optional config file.
type Config struct {
	VaultDir string

	APIBaseURL   string
	APIToken     string
	APIUserAgent string

	PageSize          int
	MaxPages          int
	MaxAttempts       int
	PerRequestTimeout time.Duration

	StateDir   string
	StateClear bool

	Concurrency int
	DryRun      bool
	EnablePDF   bool
	Verbose     bool
}
