package prompt

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// MaxSlugLength caps derived slugs, leaving room for a collision suffix.
const MaxSlugLength = 80

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValidSlug reports whether s is lowercase alphanumeric words joined by single hyphens.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength+8 && slugRegex.MatchString(s)
}

// Slugify derives a URL-safe slug from a title. Non-ASCII letters are dropped.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		isWord := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isWord {
			if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
				pendingDash = b.Len() > 0
			}
			continue
		}
		if b.Len() >= MaxSlugLength {
			break
		}
		if pendingDash {
			if b.Len()+1 >= MaxSlugLength {
				break
			}
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "prompt"
	}
	return s
}

// SlugCandidate returns the n-th candidate for base: base itself for n <= 1, then base-2, base-3, ...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
