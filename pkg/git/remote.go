package git

import (
	"fmt"
	"regexp"

	"github.com/fumiya-kume/cra/pkg/errors"
)

var remotePatterns = []*regexp.Regexp{
	// https://host/owner/repo(.git)
	regexp.MustCompile(`^https?://(?:[^@/]+@)?[^/]+/([^/]+)/([^/]+?)(?:\.git)?/?$`),
	// git@host:owner/repo(.git)
	regexp.MustCompile(`^[\w.-]+@[^:]+:([^/]+)/([^/]+?)(?:\.git)?/?$`),
	// ssh://git@host(:port)/owner/repo(.git)
	regexp.MustCompile(`^ssh://(?:[^@/]+@)?[^/]+/([^/]+)/([^/]+?)(?:\.git)?/?$`),
}

// ParseRemoteURL extracts owner and repository from an HTTPS or SSH remote
func ParseRemoteURL(url string) (owner, repo string, err error) {
	for _, pattern := range remotePatterns {
		if m := pattern.FindStringSubmatch(url); len(m) == 3 {
			return m[1], m[2], nil
		}
	}
	return "", "", errors.NewError(errors.ErrorTypeGit).
		WithMessage(fmt.Sprintf("cannot parse owner/repo from remote %q", url)).
		WithSeverity(errors.SeverityLow).
		Build()
}
