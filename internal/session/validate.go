package session

import (
	"fmt"
	"regexp"
)

// Session names become directory names and appear after --session, so they
// are limited to lowercase path-safe characters and may not start with '-'.
var nameRegexp = regexp.MustCompile(`^[a-z0-9_][a-z0-9_-]{0,63}$`)

// ValidateName reports whether name can be used as a session.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid session name %q: use 1-64 of a-z, 0-9, '_' or '-', not starting with '-'", name)
	}
	return nil
}
