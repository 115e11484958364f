// Package sanitize provides HTML sanitization policies for user-generated
// content. All HTML stored in the database passes through one of these
// policies first, so templates can render it without re-escaping.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var (
	// richText is applied to product descriptions and blog post bodies
	// written in the back-office editor. Allows common formatting tags
	// and images, strips scripts and event attributes.
	richText = bluemonday.UGCPolicy()

	// comment is applied to visitor comments: formatting only, no links
	// or images.
	comment = newCommentPolicy()
)

func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "blockquote", "code")
	return p
}

// RichText sanitizes staff-authored HTML (descriptions, post bodies).
func RichText(raw string) string {
	return richText.Sanitize(raw)
}

// Comment sanitizes visitor-submitted comment content.
func Comment(raw string) string {
	return comment.Sanitize(raw)
}
