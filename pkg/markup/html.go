// Package markup converts the constrained HTML subset used by the control
// protocol into WhatsApp text markup. Anything outside the subset passes
// through verbatim.
package markup

import (
	"html"
	"regexp"
	"strings"
)

var tagReplacer = strings.NewReplacer(
	"<b>", "*", "</b>", "*",
	"<strong>", "*", "</strong>", "*",
	"<i>", "_", "</i>", "_",
	"<em>", "_", "</em>", "_",
	"<s>", "~", "</s>", "~",
	"<del>", "~", "</del>", "~",
	"<strike>", "~", "</strike>", "~",
	"<code>", "`", "</code>", "`",
	"<pre>", "```", "</pre>", "```",
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
)

var linkPattern = regexp.MustCompile(`(?is)<a\s+[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)

// ToWhatsApp rewrites bold/italic/strike/code/links/line breaks into
// WhatsApp's plain-text markup and unescapes HTML entities.
func ToWhatsApp(s string) string {
	if s == "" {
		return s
	}
	out := linkPattern.ReplaceAllString(s, "$2 ($1)")
	out = tagReplacer.Replace(out)
	return html.UnescapeString(out)
}
