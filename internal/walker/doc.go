// Package walker pages through the feed and collects every post at or above a
// sequence boundary.
//
// The walker never talks to a browser directly. It drives a Surface, a small
// set of named queries (post actions, embed control, embedded frame, post
// body, timestamp, permalink anchor, dismiss control) whose selectors live in
// configuration. The go-rod implementation is in the browser subpackage; tests
// use in-memory fakes.
//
// # Algorithm
//
// Each pass queries all post action affordances. Affordances already handled
// in an earlier pass are skipped, so each post is opened at most once. A pass
// that finds no new affordances ends the walk (the feed stopped growing). A
// post whose sequence is below the boundary ends the walk as soon as it is
// seen. Any missing element or unparseable field fails the whole walk with
// ErrShapeMismatch and no partial results.
package walker
