// Package action implements the broadcast side of the extension point
// system. Handlers registered against an action name run strictly
// sequentially in priority order; a handler's failure is contained and never
// stops the chain or reaches the invoker.
package action
