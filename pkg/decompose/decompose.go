// Package decompose splits a free-text idea into ordered atomic steps and
// classifies each one with keyword heuristics. It never fails: blank or
// unusable input is replaced by a built-in fallback idea.
package decompose

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ideonhq/ideon/pkg/models"
)

// DefaultIdea replaces empty or near-empty input so decomposition always
// yields at least one step.
const DefaultIdea = "Collect background information about the idea. Analyze the main points. Share a short summary with the team."

// Ideas shorter than this many runes (after trimming) are treated as empty.
const minIdeaLength = 3

const maxTitleWords = 6

// Step is one atomic unit of work extracted from the idea text. Detail keeps
// the original segment; the remaining fields are heuristic annotations.
type Step struct {
	Title       string
	Detail      string
	Category    models.NodeCategory
	Tags        []string
	SearchQuery string
}

var (
	segmentSplitter = regexp.MustCompile(`[.!?;\r\n]+`)
	nonTitleRunes   = regexp.MustCompile(`[^\w\s]+`)
	wordCharacter   = regexp.MustCompile(`\w`)
)

// EffectiveIdea trims the input and substitutes DefaultIdea when nothing
// usable remains. The result always splits into at least one segment.
func EffectiveIdea(idea string) string {
	trimmed := strings.TrimSpace(idea)
	if len([]rune(trimmed)) < minIdeaLength || !wordCharacter.MatchString(trimmed) {
		return DefaultIdea
	}

	return trimmed
}

// Decompose turns an idea into an ordered list of steps. Segment order is
// preserved and becomes the default dependency chain.
func Decompose(idea string) []Step {
	segments := SplitSegments(EffectiveIdea(idea))

	steps := make([]Step, 0, len(segments))
	for _, segment := range segments {
		steps = append(steps, Step{
			Title:       TitleFor(segment),
			Detail:      segment,
			Category:    Classify(segment),
			Tags:        TagsFor(segment),
			SearchQuery: SearchQueryFor(segment),
		})
	}

	return steps
}

// SplitSegments splits text on sentence terminators and newlines, trims each
// segment, and drops empty results, preserving original order.
func SplitSegments(text string) []string {
	parts := segmentSplitter.Split(text, -1)

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		segments = append(segments, part)
	}

	return segments
}

// TitleFor derives a short label: strip non-word, non-space runes, keep the
// first six words, capitalize the first letter. Segments with nothing left
// become "Untitled step".
func TitleFor(segment string) string {
	cleaned := nonTitleRunes.ReplaceAllString(segment, "")

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "Untitled step"
	}

	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}

	title := strings.Join(words, " ")
	runes := []rune(title)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
