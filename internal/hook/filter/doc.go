// Package filter implements the value-transformation side of the extension
// point system. Handlers registered against a filter name run sequentially
// in priority order, each receiving the previous stage's output. A handler
// may decline to transform by returning hook.Skip, and a failing handler
// leaves the chain's current value unchanged.
package filter
