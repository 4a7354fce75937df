// Package services holds the shared error taxonomy and request-scoped
// context helpers used by the workflow, pipeline, and CLI layers.
package services
