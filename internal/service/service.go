// Package service implements the crew staffing use cases on top of the
// repository, lifecycle and matching packages. Services return apperr types
// for every business failure and wrap infrastructure errors.
package service

import (
	"strings"
	"time"

	"crewops/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageQuery clamps client supplied paging.
func pageQuery(limit, offset int) repository.PageQuery {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.PageQuery{Limit: limit, Offset: offset}
}

func strPtr(s string) *string { return &s }

// optionalNote returns nil for blank notes.
func optionalNote(note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return &note
}

func utcNow() time.Time { return time.Now().UTC() }
