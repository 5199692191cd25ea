// Package pipestate provides the shared coordination store for a pipeline
// run. Each stage publishes its lifecycle phase and completion record under
// keys namespaced by component name; downstream stages read those entries to
// decide when they have drained all work.
//
// The store follows a per-key single-writer discipline: every entry is
// written by exactly one stage (the owner) and read by zero or more others.
// That discipline, plus atomic point reads and writes from the Store
// implementation, makes access data-race-free without any locking at the
// accessor layer.
package pipestate
