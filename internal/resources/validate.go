package resources

import "regexp"

// namePattern is the required shape for a record name (spec.md section 4.6,
// invariant 1).
var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidName reports whether name matches the required pattern and is
// non-empty.
func ValidName(name string) bool {
	return name != "" && namePattern.MatchString(name)
}
