// Package errors provides the classified error primitives used across pomosite.
//
// Every error that leaves a generation run is a ClassifiedError (or wraps one), so the
// CLI can map it to an exit code and the logs carry the offending item id and language.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, reference, render, filesystem, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (generation errors are never retried automatically)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.ReferenceError("invalid page id").
//		WithContext("target_id", id).
//		WithContext("page_id", page.PageID).
//		Build()
package errors
