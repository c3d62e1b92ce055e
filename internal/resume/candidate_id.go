package resume

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// candidateIDLayout is YYYYMMDDHHMMSS.
const candidateIDLayout = "20060102150405"

// emptySlug replaces names with no ASCII letters or digits.
const emptySlug = "candidate"

// Slug lowercases name, folds accents (NFKD, combining marks dropped) and keeps only [a-z0-9].
func Slug(name string) string {
	var b strings.Builder

	for _, r := range norm.NFKD.String(strings.ToLower(name)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return emptySlug
	}

	return b.String()
}

// CandidateID returns "<slug>_<YYYYMMDDHHMMSS>" for name at t.
func CandidateID(name string, t time.Time) string {
	return Slug(name) + "_" + t.Format(candidateIDLayout)
}
