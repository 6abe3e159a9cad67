// Package memory provides in-process implementations of every store
// interface. They back single-node deployments without a database and the
// service tests. All stores are safe for concurrent use and hand out copies,
// never references to their internal state.
package memory
