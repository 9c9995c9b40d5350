// Package e2e holds the Story Spoiler end-to-end suite as ordered Go
// subtests. By default it runs against an in-process twin; set
// SPOILER_E2E_LIVE=1 to target the configured deployment instead
// (see internal/config for the file and SPOILER_* overrides).
package e2e
