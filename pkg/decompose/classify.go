package decompose

import (
	"regexp"
	"strings"

	"github.com/ideonhq/ideon/pkg/models"
)

// categoryKeywords holds one table per category. Classification matches the
// segment case-insensitively against each table in canonical priority order
// (models.Categories); the tables overlap, so the order is load-bearing.
var categoryKeywords = map[models.NodeCategory][]string{
	models.CategoryCollect: {
		"collect", "gather", "research", "find", "search", "fetch",
		"read", "list", "look up", "scrape", "survey", "monitor",
	},
	models.CategoryAnalyze: {
		"analyze", "analyse", "review", "compare", "evaluate", "assess",
		"summarize", "summarise", "classify", "measure", "estimate", "rank",
	},
	models.CategoryExecute: {
		"build", "create", "write", "implement", "run", "execute",
		"generate", "draft", "develop", "deploy", "update", "make",
	},
	models.CategoryNotify: {
		"notify", "email", "send", "share", "announce", "alert",
		"remind", "post", "publish", "message",
	},
	models.CategoryDecision: {
		"decide", "choose", "select", "approve", "confirm",
		"determine", "whether", "pick",
	},
}

// tagOrder fixes the emission order so tag slices are deterministic.
var tagOrder = []string{"api", "debug", "email", "notion", "timeline", "voice"}

var tagKeywords = map[string][]string{
	"api":      {"api", "endpoint", "integration", "webhook", "http"},
	"debug":    {"debug", "error", "bug", "fix", "trace"},
	"email":    {"email", "gmail", "inbox", "mail"},
	"notion":   {"notion", "wiki", "knowledge base", "doc"},
	"timeline": {"timeline", "schedule", "deadline", "calendar", "milestone"},
	"voice":    {"voice", "audio", "speech", "transcri", "dictate"},
}

var (
	conditionalLanguage  = regexp.MustCompile(`(?i)\b(if|when|unless|whether|in case)\b`)
	continuationLanguage = regexp.MustCompile(`(?i)\b(then|after|afterwards?|once|subsequently|followed by)\b`)
	searchLanguage       = regexp.MustCompile(`(?i)\b(research|search|find|look up|latest|news|trends?)\b`)
)

// Classify assigns the first category whose keyword table matches the
// segment; no match defaults to collect. Classification never errors.
func Classify(segment string) models.NodeCategory {
	lowered := strings.ToLower(segment)

	for _, category := range models.Categories() {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lowered, keyword) {
				return category
			}
		}
	}

	return models.DefaultCategory
}

// TagsFor scores the segment against the domain-hint table. Zero, one, or
// many tags may result; tags are lower-case and emitted in a fixed order.
func TagsFor(segment string) []string {
	lowered := strings.ToLower(segment)

	var tags []string

	for _, tag := range tagOrder {
		for _, keyword := range tagKeywords[tag] {
			if strings.Contains(lowered, keyword) {
				tags = append(tags, tag)

				break
			}
		}
	}

	return tags
}

// SearchQueryFor returns the segment itself as a search hint when it asks for
// information lookup, and the empty string otherwise.
func SearchQueryFor(segment string) string {
	if searchLanguage.MatchString(segment) {
		return strings.TrimSpace(segment)
	}

	return ""
}

// HasConditionalLanguage reports whether the segment contains branching
// language such as "if" or "when". Used to label dependency edges.
func HasConditionalLanguage(segment string) bool {
	return conditionalLanguage.MatchString(segment)
}

// HasContinuationLanguage reports whether the segment contains sequencing
// language such as "then" or "after".
func HasContinuationLanguage(segment string) bool {
	return continuationLanguage.MatchString(segment)
}
