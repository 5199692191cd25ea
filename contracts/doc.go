// Package contracts defines the shared vocabulary of the flowline
// pipeline: lifecycle phases, log entries, and the sentinel errors that
// cross package boundaries. It contains no behavior beyond validation
// helpers so that every other package can depend on it without cycles.
package contracts
