package search

import (
	"regexp"
	"strings"
)

var wordToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// IsRelevant decides whether a result set is on-topic enough to be trusted
// over the model's own knowledge. A result counts as relevant when any key
// term from the query or the active topic appears in its title or snippet;
// the set passes only when strictly more than half of the results count.
func IsRelevant(results []Result, query, activeTopic string) bool {
	if len(results) == 0 {
		return false
	}
	combined := strings.ToLower(query)
	if activeTopic != "" {
		combined += " " + strings.ToLower(activeTopic)
	}
	terms := map[string]bool{}
	for _, w := range wordToken.FindAllString(combined, -1) {
		terms[w] = true
	}

	relevant := 0
	for _, r := range results {
		title := strings.ToLower(r.Title)
		snippet := strings.ToLower(r.Snippet)
		for term := range terms {
			if strings.Contains(title, term) || strings.Contains(snippet, term) {
				relevant++
				break
			}
		}
	}
	return float64(relevant)/float64(len(results)) > 0.5
}
