// Package policy decides which providers may serve a request and in
// what order. The engine is a pure function over the immutable provider
// registry and a breaker-state snapshot: capability filter, then
// routing-mode band ordering, then demotion of OPEN circuits to the
// tail of the list.
package policy
