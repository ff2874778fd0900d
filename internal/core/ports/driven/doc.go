// Package driven defines the outbound ports of the assistant core:
// the remote document store, model providers and persistence stores
// the services depend on. Adapters under internal/adapters/driven
// implement these interfaces.
package driven
