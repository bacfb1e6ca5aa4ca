// Package htmlsanitize cleans rich text produced by the submission editor.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// EditorEmpty is what the rich-text editor posts when the field was
// focused but left empty.
const EditorEmpty = "<p><br></p>"

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize strips scripts, event handlers, unsafe URLs and any markup
// outside the user-generated-content allow list.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// IsBlank reports whether s has no visible text once all markup is
// removed. The editor's empty sentinel, bare <br>s and &nbsp; are blank.
func IsBlank(s string) bool {
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == EditorEmpty {
		return true
	}
	text := html.UnescapeString(strict.Sanitize(s))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(text) == ""
}
