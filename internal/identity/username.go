package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var usernameStripRe = regexp.MustCompile(`[^a-z0-9]`)

const usernameFallback = "user"

// DeriveUsernameBase lowercases the full name and strips everything outside
// [a-z0-9]. "Jane Doe" becomes "janedoe".
func DeriveUsernameBase(fullName string) string {
	base := usernameStripRe.ReplaceAllString(strings.ToLower(fullName), "")
	if base == "" {
		return usernameFallback
	}
	return base
}

// resolveUsername finds a free username by appending an integer suffix from 1
// upward when the base is taken. The check-then-create window is a known race
// for concurrent identical names; the unique index on username keeps the
// second writer from committing a duplicate.
func resolveUsername(ctx context.Context, repo Repository, fullName string) (string, error) {
	base := DeriveUsernameBase(fullName)

	candidate := base
	for suffix := 1; ; suffix++ {
		exists, err := repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}
