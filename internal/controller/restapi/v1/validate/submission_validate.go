package validate

import "unicode"

// MaxIDLen bounds session and submission ids taken from the path.
const MaxIDLen = 64

// ID reports whether s can be a session or submission id.
func ID(s string) bool {
	if s == "" || len(s) > MaxIDLen {
		return false
	}
	for _, r := range s {
		if r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
