// Package store persists production records as JSON documents in SQLite.
//
// Records are grouped into named collections (episodes, agent_tasks,
// script_versions, projects) and queried by identifier or by equality on a
// top-level JSON field. Single-document read-modify-write is atomic; no
// multi-document transactions are offered or needed by the callers.
package store
