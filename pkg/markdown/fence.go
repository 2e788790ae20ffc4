package markdown

import "strings"

// EscapeFence makes text safe to embed inside a ``` fenced block that
// CLOWarden itself generates (for example, an aggregated validation error
// list). It neutralizes any triple-backtick or triple-tilde run text
// already contains, so an org config value (a team name, a user login)
// can never prematurely close the surrounding fence.
func EscapeFence(text string) string {
	text = strings.ReplaceAll(text, "```", "`​``")
	text = strings.ReplaceAll(text, "~~~", "~​~~")
	return text
}
