package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// maxFileNameRunes bounds sanitized names well below common 255-byte limits,
// leaving room for a row suffix and extension.
const maxFileNameRunes = 96

// SanitizeFileName makes annotation text usable as a file name on every
// common filesystem. Text is NFC-normalized so the same word typed with
// combining marks or precomposed characters maps to one name; slashes,
// backslashes, colons, and asterisks become dashes; other unsafe characters
// and control characters are removed; whitespace runs become a single
// underscore. Leading dots are stripped so results are never hidden files.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)

	var b strings.Builder
	pendingSpace := false
	count := 0
	for _, r := range name {
		if count >= maxFileNameRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if pendingSpace {
			b.WriteByte('_')
			count++
			pendingSpace = false
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimLeft(strings.TrimRight(b.String(), "._-"), ".")
}

// FoldForMatch returns a case-folded, NFC-normalized form of value for
// case-insensitive substring matching across scripts.
func FoldForMatch(value string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(value)))
}

// ContainsFold reports whether needle occurs in haystack ignoring case and
// Unicode normalization differences. An empty needle matches everything.
func ContainsFold(haystack, needle string) bool {
	needle = FoldForMatch(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(FoldForMatch(haystack), needle)
}
