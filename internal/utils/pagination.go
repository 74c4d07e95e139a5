// Package utils provides tiny helpers with no domain knowledge, shared by
// the HTTP handlers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// plain base-10 integer. The handlers use it for the page and page_size
// query parameters on the generation-history and activity-feed listings,
// where a junk value should mean "first page, default size" rather than an
// error.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)           // "" -> 1
//	size := utils.AtoiDefault(c.Query("page_size"), 20)     // "abc" -> 20
//
// No whitespace trimming is done; " 42" falls back to def.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
