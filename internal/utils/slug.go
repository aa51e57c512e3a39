package utils

import (
    "strings"
    "unicode"

    "golang.org/x/text/unicode/norm"
)

// Slugify derives a URL slug from a title: accents are stripped, letters
// lowercased, and every run of other characters collapses into a single
// hyphen.  The result is deterministic but not unique.
func Slugify(title string) string {
    var b strings.Builder
    pendingDash := false
    for _, r := range norm.NFKD.String(title) {
        switch {
        case unicode.Is(unicode.Mn, r):
            continue
        case unicode.IsLetter(r) || unicode.IsDigit(r):
            if pendingDash && b.Len() > 0 {
                b.WriteByte('-')
            }
            pendingDash = false
            b.WriteRune(unicode.ToLower(r))
        default:
            pendingDash = true
        }
    }
    return b.String()
}

// NormalizeUsername lowercases a display name and strips whitespace, the
// base form used for generated usernames.
func NormalizeUsername(name string) string {
    return strings.Map(func(r rune) rune {
        if unicode.IsSpace(r) {
            return -1
        }
        return unicode.ToLower(r)
    }, name)
}
