package search

import "errors"

var (
	// ErrEmptyQuery is returned for queries that contain no searchable
	// terms. It is detected before any snapshot I/O happens.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrNothingIndexed is returned when no crawl pass has produced a
	// snapshot with documents yet.
	ErrNothingIndexed = errors.New("nothing has been indexed yet")
)
