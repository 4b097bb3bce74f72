// Package format renders user-supplied strings safely into Telegram markup.
package format

import (
	"regexp"
	"strings"
)

var (
	mdV1Specials = regexp.MustCompile("([_*`\\[])")
	mdV2Specials = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!\\\\])")
)

// Markdown escapes text for Telegram's legacy Markdown parse mode.
func Markdown(text string) string {
	return mdV1Specials.ReplaceAllString(text, `\$1`)
}

// MarkdownV2 escapes text for the MarkdownV2 parse mode.
func MarkdownV2(text string) string {
	return mdV2Specials.ReplaceAllString(text, `\$1`)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
