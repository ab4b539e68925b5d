// Package markup repairs model output so it is always valid Telegram HTML.
// Only <b>, <i> and <a> survive; everything else is escaped or stripped.
package markup

import (
	"regexp"
	"strings"
)

var (
	boldStars   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicStars = regexp.MustCompile(`\*(.*?)\*`)
	heading     = regexp.MustCompile(`###\s*(.*?)\n`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	allowedTag  = regexp.MustCompile(`^</?(b|i|a)(?:\s+[^>]*)?>$`)
)

func supported(tag string) bool {
	return tag == "b" || tag == "i" || tag == "a"
}

// Sanitize converts informal emphasis markers into Telegram HTML, then walks
// the text as a tag stream with a stack of open tags. Closing tags are only
// honored when they match the top of the stack; tags still open at the end of
// input are force-closed, so the output is well formed even for truncated
// model output. Idempotent.
func Sanitize(text string) string {
	text = boldStars.ReplaceAllString(text, "<b>$1</b>")
	text = italicStars.ReplaceAllString(text, "<i>$1</i>")
	text = heading.ReplaceAllString(text, "<b>$1</b>\n")

	var (
		b     strings.Builder
		stack []string
	)
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		if text[i] != '<' || i+1 >= len(text) {
			b.WriteByte(text[i])
			i++
			continue
		}
		if text[i+1] == '/' {
			tag, n, ok := parseClosingTag(text[i:])
			if !ok {
				b.WriteByte(text[i])
				i++
				continue
			}
			if supported(tag) && len(stack) > 0 && stack[len(stack)-1] == tag {
				stack = stack[:len(stack)-1]
				b.WriteString(text[i : i+n])
			}
			// Mismatched or unsupported closers are dropped.
			i += n
			continue
		}
		tag, n, ok := parseOpeningTag(text[i:])
		if !ok {
			b.WriteByte(text[i])
			i++
			continue
		}
		raw := text[i : i+n]
		if supported(tag) {
			stack = append(stack, tag)
			b.WriteString(raw)
		} else {
			raw = strings.ReplaceAll(raw, "<", "&lt;")
			raw = strings.ReplaceAll(raw, ">", "&gt;")
			b.WriteString(raw)
		}
		i += n
	}

	for len(stack) > 0 {
		tag := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.WriteString("</" + tag + ">")
	}

	// Defense in depth: strip anything tag-shaped that slipped through and is
	// not one of the three supported tags.
	return anyTag.ReplaceAllStringFunc(b.String(), func(m string) string {
		if allowedTag.MatchString(m) {
			return m
		}
		return ""
	})
}

// parseClosingTag matches </name> at the start of s.
func parseClosingTag(s string) (string, int, bool) {
	if len(s) < 4 || s[0] != '<' || s[1] != '/' {
		return "", 0, false
	}
	j := 2
	for j < len(s) && isAlpha(s[j]) {
		j++
	}
	if j == 2 || j >= len(s) || s[j] != '>' {
		return "", 0, false
	}
	return s[2:j], j + 1, true
}

// parseOpeningTag matches <name> or <name attrs...> at the start of s.
// Attributes must be separated from the name by whitespace.
func parseOpeningTag(s string) (string, int, bool) {
	if len(s) < 3 || s[0] != '<' {
		return "", 0, false
	}
	j := 1
	for j < len(s) && isAlpha(s[j]) {
		j++
	}
	if j == 1 || j >= len(s) {
		return "", 0, false
	}
	name := s[1:j]
	if s[j] == '>' {
		return name, j + 1, true
	}
	if !isSpace(s[j]) {
		return "", 0, false
	}
	for j < len(s) && s[j] != '>' {
		j++
	}
	if j >= len(s) {
		return "", 0, false
	}
	return name, j + 1, true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
