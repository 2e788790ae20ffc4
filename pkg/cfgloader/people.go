package cfgloader

import (
	"strings"

	"github.com/clowarden/clowarden/pkg/directory"
)

// githubProfilePrefixes are the URL forms the people file's "github" field
// may use; the trailing path segment is the platform handle.
var githubProfilePrefixes = []string{
	"https://github.com/",
	"http://github.com/",
	"github.com/",
}

// extractHandle maps a people-file "github" value out of a profile URL
// into a bare platform handle, per spec.md §4.4. A value that is already a
// bare handle (no recognized prefix) is returned unchanged.
func extractHandle(github string) string {
	github = strings.TrimSpace(github)
	for _, prefix := range githubProfilePrefixes {
		if strings.HasPrefix(strings.ToLower(github), prefix) {
			return strings.Trim(github[len(prefix):], "/")
		}
	}
	return github
}

// resolveImageURL rewrites a non-absolute image path onto cdnBase, per the
// historical convention spec.md §9 asks to keep configurable rather than
// hard-coded. Absolute URLs and an empty cdnBase pass through unchanged.
func resolveImageURL(image, cdnBase string) string {
	if image == "" || cdnBase == "" {
		return image
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return strings.TrimRight(cdnBase, "/") + "/" + strings.TrimLeft(image, "/")
}

func convertPeople(docs []personDoc, opts options) []directory.User {
	out := make([]directory.User, 0, len(docs))
	for _, p := range docs {
		out = append(out, directory.User{
			FullName:  p.Name,
			UserName:  extractHandle(p.Github),
			Email:     p.Email,
			Bio:       p.Bio,
			Company:   p.Company,
			Location:  p.Location,
			ImageURL:  resolveImageURL(p.Image, opts.imageCDNBase),
			Linkedin:  p.Linkedin,
			Twitter:   p.Twitter,
			Wechat:    p.Wechat,
			Website:   p.Website,
			Youtube:   p.Youtube,
			SlackID:   p.SlackID,
			Projects:  p.Projects,
			Category:  p.Category,
			Languages: p.Languages,
		})
	}
	return out
}
