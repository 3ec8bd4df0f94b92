// Package segment picks the time window of a source video that becomes a
// Short.
//
// Selection is an ordered chain of strategies: the replay heatmap peak,
// then keyword-scored chapters, then a duration-based default that always
// produces a result. Each strategy is a value that can be tested on its own;
// Chain.Select runs them in order and returns the first match.
//
// The package is pure and holds no shared state, so it is safe for
// concurrent use.
package segment
