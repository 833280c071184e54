// Package markdown removes formatting markup from provider replies so they
// read cleanly in a plain terminal transcript.
package markdown

import "regexp"

// Patterns run in declaration order; later ones assume earlier ones ran.
var (
	codeFenceRe  = regexp.MustCompile("(?s)```.*?```")
	headingRe    = regexp.MustCompile(`(?m)^((?:[ \t]*>[ \t]?)*)[ \t]*#{1,6}[ \t]+`)
	boldStarRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__(.*?)__`)
	italStarRe   = regexp.MustCompile(`\*(.*?)\*`)
	italUnderRe  = regexp.MustCompile(`_(.*?)_`)
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	blockquoteRe = regexp.MustCompile(`(?m)^(?:[ \t]*>[ \t]?)+`)
)

// Strip is a best-effort cleanup, not a parser. Nested or malformed markup
// may leave residue.
func Strip(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "")
	// quote markers survive here and go with blockquoteRe below
	text = headingRe.ReplaceAllString(text, "$1")
	text = boldStarRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	text = italStarRe.ReplaceAllString(text, "$1")
	text = italUnderRe.ReplaceAllString(text, "$1")
	// images before links, otherwise the link pattern leaves a stray "!"
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = blockquoteRe.ReplaceAllString(text, "")
	return text
}
