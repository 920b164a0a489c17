// Package observability provides the append-only JSONL event log the
// enhancement pipeline writes to, plus calculators that derive pipeline
// metrics and health warnings from it.
package observability
