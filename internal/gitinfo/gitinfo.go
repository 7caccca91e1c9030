// Package gitinfo resolves the repository branch and local username used to
// namespace build output for the backend.
package gitinfo

import (
	"os/user"

	git "github.com/go-git/go-git/v5"
)

// Branch returns the short name of the checked-out branch for the repository
// containing dir, or "" when dir is not inside a repository.
func Branch(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Name().Short()
}

// Username returns the current OS user name, or "" if it cannot be resolved.
func Username() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// BuildPrefix assembles the backend path prefix [project, user, branch],
// dropping empty segments.
func BuildPrefix(project, dir string) []string {
	prefix := make([]string, 0, 3)
	for _, part := range []string{project, Username(), Branch(dir)} {
		if part != "" {
			prefix = append(prefix, part)
		}
	}
	return prefix
}
