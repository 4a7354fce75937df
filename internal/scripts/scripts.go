// Package scripts manages episode script versions: monotonically numbered
// drafts that move through the revision ladder from initial draft to final.
package scripts

import (
	"errors"
	"strings"
	"time"
)

// VersionType labels where a draft sits on the revision ladder.
type VersionType string

const (
	VersionInitial  VersionType = "v1_initial"
	VersionRevised  VersionType = "v2_revised"
	VersionPolished VersionType = "v3_polished"
	VersionFinal    VersionType = "v4_final"
)

var (
	// ErrVersionLocked marks an attempt to edit a locked version.
	ErrVersionLocked = errors.New("script version is locked")
	// ErrUnknownVersionType marks a version type outside the ladder.
	ErrUnknownVersionType = errors.New("unknown version type")
)

var versionTypes = []VersionType{
	VersionInitial,
	VersionRevised,
	VersionPolished,
	VersionFinal,
}

// VersionTypes returns the revision ladder in order.
func VersionTypes() []VersionType {
	cp := make([]VersionType, len(versionTypes))
	copy(cp, versionTypes)
	return cp
}

// ParseVersionType converts a string into a known version type.
func ParseVersionType(value string) (VersionType, error) {
	normalized := VersionType(strings.ToLower(strings.TrimSpace(value)))
	for _, vt := range versionTypes {
		if vt == normalized {
			return vt, nil
		}
	}
	return "", ErrUnknownVersionType
}

// Version is one numbered script draft for an episode.
type Version struct {
	ID            string      `json:"id"`
	EpisodeID     string      `json:"episodeId"`
	VersionNumber int         `json:"versionNumber"`
	VersionType   VersionType `json:"versionType"`
	Content       string      `json:"content"`
	Author        string      `json:"author,omitempty"`
	ChangeNotes   string      `json:"changeNotes,omitempty"`
	// FactCheck holds the reviewer's annotation; empty when the fact-check
	// step failed or was skipped.
	FactCheck string `json:"factCheck,omitempty"`
	// AgentOutputs retains the raw per-agent material behind a generated
	// draft for audit.
	AgentOutputs map[string]string `json:"agentOutputs,omitempty"`
	WordCount    int               `json:"wordCount"`
	Locked       bool              `json:"locked"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func countWords(content string) int {
	return len(strings.Fields(content))
}
