// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apperror defines the closed error taxonomy of spec §7. Components
// return these types directly; the scheduler switches on Retryable() to
// decide between a cooldown reschedule and a terminal Failed transition, and
// the operator surface maps Kind to a fixed, human-readable message.
package apperror

import "fmt"

// Kind is the top-level error category.
type Kind string

const (
	KindConfiguration Kind = "ConfigurationError"
	KindProvider      Kind = "ProviderError"
	KindIndexer       Kind = "IndexerError"
	KindDownloader    Kind = "DownloaderError"
	KindNotFound      Kind = "NotFound"
	KindStateConflict Kind = "StateConflict"
	KindValidation    Kind = "ValidationError"
)

// IndexerSubKind narrows KindIndexer errors.
type IndexerSubKind string

const (
	IndexerAuthRejected IndexerSubKind = "AuthRejected"
	IndexerRateLimited  IndexerSubKind = "RateLimited"
	IndexerUnavailable  IndexerSubKind = "Unavailable"
	IndexerBadRequest   IndexerSubKind = "BadRequest"
	IndexerParse        IndexerSubKind = "Parse"
)

// DownloaderSubKind narrows KindDownloader errors.
type DownloaderSubKind string

const (
	DownloaderAuthRejected DownloaderSubKind = "AuthRejected"
	DownloaderUnavailable  DownloaderSubKind = "Unavailable"
	DownloaderRejected     DownloaderSubKind = "Rejected"
	DownloaderBadCategory  DownloaderSubKind = "BadCategory"
	DownloaderUnknown      DownloaderSubKind = "Unknown"
)

// Error is the common shape for every typed error in the system.
type Error struct {
	Kind    Kind
	Sub     string // IndexerSubKind/DownloaderSubKind value, empty otherwise
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Sub != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s(%s): %s: %v", e.Kind, e.Sub, e.Message, e.Err)
		}
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Sub, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the scheduler should reschedule with a cooldown
// (true) or move the owning entry to a terminal Failed state (false).
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindProvider:
		return true // transient providers retry; permanent ones are raised separately (see IsPermanentProvider)
	case KindIndexer:
		switch IndexerSubKind(e.Sub) {
		case IndexerBadRequest, IndexerParse:
			return false
		default:
			return true
		}
	case KindDownloader:
		switch DownloaderSubKind(e.Sub) {
		case DownloaderUnavailable, DownloaderUnknown:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// Configuration wraps a configuration/setup error. Never retried.
func Configuration(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// Provider wraps a schedule-provider error. permanent=true means the caller
// should leave existing rows untouched and surface the error rather than retry.
func Provider(msg string, err error, permanent bool) *Error {
	e := &Error{Kind: KindProvider, Message: msg, Err: err}
	if permanent {
		e.Sub = "Permanent"
	}
	return e
}

// IsPermanentProvider reports whether a Provider error was marked permanent.
func IsPermanentProvider(err error) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Kind == KindProvider && e.Sub == "Permanent"
}

// Indexer wraps an indexer-call error with its sub-kind.
func Indexer(sub IndexerSubKind, msg string, err error) *Error {
	return &Error{Kind: KindIndexer, Sub: string(sub), Message: msg, Err: err}
}

// Downloader wraps a downloader-call error with its sub-kind.
func Downloader(sub DownloaderSubKind, msg string, err error) *Error {
	return &Error{Kind: KindDownloader, Sub: string(sub), Message: msg, Err: err}
}

// NotFound wraps a missing-entity error. Surfaced 1:1 to the operator.
func NotFound(entity string, id interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

// StateConflict wraps a forbidden-transition error (e.g. run-now on Paused).
func StateConflict(msg string) *Error {
	return &Error{Kind: KindStateConflict, Message: msg}
}

// Validation wraps a bad-input error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// As walks err's Unwrap chain and stores the first *Error it finds in
// target, so callers of this package don't need errors.As for the common
// case. Only single-error Unwrap chains are followed.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
