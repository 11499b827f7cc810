package models

import "strings"

// ListKind identifies one of the two independently tracked user lists.
type ListKind string

const (
	ListKindWatchlist ListKind = "watchlist"
	ListKindWatched   ListKind = "watched"
)

// ParseListKind normalizes a list kind string, reporting whether it is known.
func ParseListKind(s string) (ListKind, bool) {
	switch ListKind(strings.ToLower(strings.TrimSpace(s))) {
	case ListKindWatchlist:
		return ListKindWatchlist, true
	case ListKindWatched:
		return ListKindWatched, true
	}
	return "", false
}
