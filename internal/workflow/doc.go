// Package workflow owns the per-episode phase state machine: phase status
// transitions, approval-driven advancement, and progress reporting.
//
// The transition rules are pure functions over the Workflow value; Machine
// layers persistence and per-episode serialization on top so concurrent
// callers cannot lose updates to the phase map.
package workflow
