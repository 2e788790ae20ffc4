package feedback

import "github.com/clowarden/clowarden/pkg/markdown"

// formatError renders err for embedding inside a report's fenced error
// block. *multierror.Error already renders itself as an indented tree
// (its Error() method), so the only work here is making sure the text
// can't smuggle in a stray fence and break the surrounding comment.
func formatError(err error) string {
	if err == nil {
		return ""
	}
	return markdown.EscapeFence(err.Error())
}
