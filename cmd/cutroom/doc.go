// Command cutroom is the production-pipeline CLI: it manages documentary
// projects and episodes, drives the per-episode phase workflow, runs the
// agent pipeline that drafts scripts, and renders the production dashboard.
package main
