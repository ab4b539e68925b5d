// Package topic derives a short conversation-topic label from free text.
package topic

import (
	"regexp"
	"strings"
)

// General is the sentinel label used when no topic can be derived.
const General = "general"

var wordToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Apology / no-information markers: responses like these carry no usable topic.
var apologyMarkers = []string{"извини", "нет информации", "sorry", "no information"}

type category struct {
	label    string
	keywords []string
}

// Keyword table; a category is picked only when at least two of its keywords
// occur, which keeps single-keyword false positives out. Keywords cover both
// conversation languages.
var categories = []category{
	{"universe", []string{
		"вселенная", "космос", "галактика", "тёмная материя", "тёмная энергия", "большой взрыв",
		"universe", "cosmos", "galaxy", "dark matter", "dark energy", "big bang",
	}},
	{"music", []string{
		"группа", "солист", "песня", "альбом", "концерт",
		"band", "singer", "song", "album", "concert",
	}},
	{"code", []string{
		"код", "программа", "python", "javascript",
		"code", "program",
	}},
	{"growth", []string{
		"личностный рост", "мотивация", "саморазвитие", "цели",
		"personal growth", "motivation", "self-development", "goals",
	}},
	{"emotions", []string{
		"эмоции", "стресс", "депрессия", "счастье", "психология",
		"emotions", "stress", "depression", "happiness", "psychology",
	}},
	{"tech", []string{
		"технологии", "гаджеты", "ai", "искусственный интеллект",
		"technology", "gadgets", "artificial intelligence",
	}},
}

// Extract returns a topic label for text. Deterministic, no I/O.
func Extract(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range apologyMarkers {
		if strings.Contains(lower, marker) {
			return General
		}
	}
	for _, cat := range categories {
		hits := 0
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits >= 2 {
			return cat.label
		}
	}
	words := wordToken.FindAllString(lower, 3)
	if len(words) >= 2 {
		return words[0] + " " + words[1]
	}
	return General
}
