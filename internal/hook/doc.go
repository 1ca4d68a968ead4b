// Package hook defines the shared types for the extension point system:
// callbacks, registrations, registration options, and execution helpers.
//
// A hook is a named extension point. Components register callbacks against a
// hook name and the action or filter registry drives them in priority order.
// Lower priority values run earlier; ties are broken by registration order.
//
// The package is a leaf: the action and filter registries, the statistics
// tracker, and the kernel facade all build on it.
package hook
