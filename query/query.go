// Package query turns delimited configuration strings into ordered term lists.
package query

import (
	"errors"
	"strings"
)

// Delimiter separates search terms in NEWS_QUERIES. Queries may contain
// commas, so the pipe is used.
const Delimiter = "|"

// ListDelimiter separates plain lists such as recipients.
const ListDelimiter = ","

var ErrNoQueries = errors.New("no search queries configured")

// Parse splits raw on sep, trims every piece and drops empty ones.
// Order is preserved and duplicates are kept.
// Returns ErrNoQueries if nothing is left.
func Parse(raw, sep string) ([]string, error) {
	queries := SplitList(raw, sep)
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	return queries, nil
}

// SplitList splits raw on sep, trims every piece and drops empty ones.
func SplitList(raw, sep string) []string {
	if sep == "" {
		sep = ListDelimiter
	}

	var out []string
	for _, piece := range strings.Split(raw, sep) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		out = append(out, piece)
	}
	return out
}
