// Package repository declares the sentinel errors shared by the persistence
// layer and its callers, so command code can branch with errors.Is.
package repository

import "errors"

var (
	// ErrInventoryTooSmall aborts an ingestion batch whose merged catalog
	// would fall below the configured floor. The stored file is untouched.
	ErrInventoryTooSmall = errors.New("inventory below minimum catalog size")

	// ErrArticleNotFound is returned when a lookup by id or slug misses.
	ErrArticleNotFound = errors.New("article not found")

	// ErrTopicsExhausted means the cooldown history left fewer topics than
	// the requested roundup limit.
	ErrTopicsExhausted = errors.New("not enough topics available")

	// ErrQualityGate marks an article that failed a publication quality
	// check; the specific write is abandoned.
	ErrQualityGate = errors.New("article failed quality gate")
)
