// Package agents tracks the AI production crew: the fixed set of agent
// roles and the per-episode task records that capture each delegated call.
package agents

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one of the fixed agent roles.
type Kind string

const (
	KindResearchSpecialist Kind = "research_specialist"
	KindArchiveSpecialist  Kind = "archive_specialist"
	KindInterviewProducer  Kind = "interview_producer"
	KindScriptWriter       Kind = "script_writer"
	KindFactChecker        Kind = "fact_checker"
)

// ErrUnknownKind marks an agent kind outside the fixed roster.
var ErrUnknownKind = errors.New("unknown agent kind")

var kinds = []Kind{
	KindResearchSpecialist,
	KindArchiveSpecialist,
	KindInterviewProducer,
	KindScriptWriter,
	KindFactChecker,
}

var kindProfiles = map[Kind]struct {
	displayName      string
	responsibilities string
	systemPrompt     string
}{
	KindResearchSpecialist: {
		displayName:      "Research Specialist",
		responsibilities: "Historical research, source verification, timeline construction, and background briefs",
		systemPrompt: "You are a documentary research specialist. Produce rigorous, well-sourced " +
			"historical research: key events with dates, primary sources, notable figures, and " +
			"open questions worth pursuing. Cite where each claim could be verified. Stay factual " +
			"and flag anything uncertain.",
	},
	KindArchiveSpecialist: {
		displayName:      "Archive Specialist",
		responsibilities: "Archival footage and photo sourcing, licensing notes, and shot availability",
		systemPrompt: "You are a documentary archive specialist. Identify archival footage, " +
			"photographs, audio recordings, and documents relevant to the topic. For each item " +
			"describe what it shows, the likely holding institution, and licensing considerations. " +
			"Prefer material that can actually be cleared for broadcast.",
	},
	KindInterviewProducer: {
		displayName:      "Interview Producer",
		responsibilities: "Interview subject selection, question drafting, and soundbite planning",
		systemPrompt: "You are a documentary interview producer. Propose interview subjects with " +
			"a short rationale for each, and draft open-ended questions designed to elicit vivid, " +
			"personal, broadcast-ready answers. Avoid yes/no questions.",
	},
	KindScriptWriter: {
		displayName:      "Script Writer",
		responsibilities: "Narration drafting, structure, and weaving research into broadcast script",
		systemPrompt: "You are a documentary script writer. Turn research, archive notes, and " +
			"interview material into compelling narration with a clear three-act structure. Write " +
			"for the ear: short sentences, concrete images, and natural pacing. Mark where archival " +
			"footage or interview soundbites should carry the story.",
	},
	KindFactChecker: {
		displayName:      "Fact Checker",
		responsibilities: "Claim verification, date and name accuracy, and correction notes",
		systemPrompt: "You are a documentary fact checker. Review the supplied material claim by " +
			"claim. For each factual assertion state whether it is supported, unsupported, or " +
			"wrong, and supply the correction with a source. Be precise about dates, names, " +
			"figures, and attributions.",
	},
}

// Kinds returns the fixed roster in display order.
func Kinds() []Kind {
	cp := make([]Kind, len(kinds))
	copy(cp, kinds)
	return cp
}

// ParseKind converts a string into a known agent kind.
func ParseKind(value string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := kindProfiles[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
	}
	return normalized, nil
}

// DisplayName returns the human-facing role name.
func (k Kind) DisplayName() string {
	return kindProfiles[k].displayName
}

// Responsibilities returns a one-line description of what the role covers.
func (k Kind) Responsibilities() string {
	return kindProfiles[k].responsibilities
}

// SystemPrompt returns the role's system prompt for generation calls.
func (k Kind) SystemPrompt() string {
	return kindProfiles[k].systemPrompt
}

// Valid reports whether the kind is part of the roster.
func (k Kind) Valid() bool {
	_, ok := kindProfiles[k]
	return ok
}
