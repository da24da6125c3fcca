package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var connectors = map[string]struct{}{
	"da": {}, "de": {}, "do": {}, "das": {}, "dos": {}, "e": {},
}

// NormalizeFullName collapses whitespace and capitalises each word, keeping
// Portuguese connectors ("da", "dos", ...) in lower case.
func NormalizeFullName(fullname string) string {
	parts := strings.Fields(fullname)
	for i, p := range parts {
		lower := strings.ToLower(p)
		if _, ok := connectors[lower]; ok && i > 0 {
			parts[i] = lower
			continue
		}
		r := []rune(lower)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func FirstName(fullname string) string {
	parts := strings.Fields(fullname)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// FoldKey turns a spreadsheet header like "Data de Nascimento" into
// "data_de_nascimento": no accents, lower case, underscores between words.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
