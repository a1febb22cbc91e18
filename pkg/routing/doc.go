// Package routing implements the route table that maps inbound requests to
// upstream sets.
//
// A Table is built once from configuration and is immutable afterwards: Match
// never mutates shared state, so a table can be shared by any number of
// concurrent requests without synchronization. Hot reload is performed by
// building a new Table and swapping an atomic pointer at a higher layer;
// requests that matched against the old table keep using it until they finish.
//
// # Matching Rules
//
// Host patterns are either exact ("api.example.com") or single-level
// wildcards ("*.example.org"). A wildcard matches hosts with exactly one
// label in place of the "*": "*.example.org" matches "a.example.org" but not
// "example.org" itself and not "x.a.example.org". Comparison is
// case-insensitive and ignores any ":port" suffix on the inbound host.
//
// Path prefixes match on segment boundaries: "/api" matches "/api" and
// "/api/users" but never "/apiary". The prefix "/" matches every path.
//
// Routes are evaluated in configured order and the first route whose host
// list and path prefix both match wins.
package routing
