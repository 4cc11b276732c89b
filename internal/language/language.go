package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	alt3  string   // ISO 639-2/B code x/text does not canonicalize
	words []string // English names accepted in place of a code
}

var languages = []entry{
	{"en", "", []string{"english"}},
	{"es", "", []string{"spanish", "castilian"}},
	{"fr", "fre", []string{"french"}},
	{"de", "ger", []string{"german"}},
	{"pt", "", []string{"portuguese"}},
	{"zh", "chi", []string{"chinese", "mandarin"}},
	{"nl", "dut", []string{"dutch"}},
	{"id", "", []string{"indonesian"}},
	{"ms", "may", []string{"malay"}},
	{"sw", "", []string{"swahili"}},
	{"tpi", "", []string{"tok pisin"}},
	{"bi", "", []string{"bislama"}},
	{"mi", "mao", []string{"maori", "māori"}},
	{"ru", "", []string{"russian"}},
	{"ar", "", []string{"arabic"}},
	{"hi", "", []string{"hindi"}},
	{"ja", "", []string{"japanese"}},
}

var (
	byAlt3 map[string]*entry
	byWord map[string]*entry
)

func init() {
	byAlt3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		if e.alt3 != "" {
			byAlt3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

// Label returns the display form of a metadata language value: "fra", "fr"
// and "French" all become "French", while an uncoded name such as
// "Kala Lagaw Ya" is returned with its spacing tidied.
func Label(value string) string {
	value = collapse(value)
	if value == "" {
		return ""
	}
	if tag, ok := parseCode(value); ok {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return value
}

// Code returns the BCP 47 tag for a code or a known English name, or "" when
// value is neither.
func Code(value string) string {
	value = collapse(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	if e, ok := byWord[lower]; ok {
		return e.code2
	}
	if tag, ok := parseCode(value); ok {
		return tag.String()
	}
	return ""
}

// parseCode accepts 2-3 letter ISO 639 codes and hyphenated BCP 47 tags.
// Longer bare words are names, not codes.
func parseCode(value string) (xlanguage.Tag, bool) {
	lower := strings.ToLower(strings.ReplaceAll(value, "_", "-"))
	if e, ok := byAlt3[lower]; ok {
		lower = e.code2
	}
	primary, _, _ := strings.Cut(lower, "-")
	if len(primary) < 2 || len(primary) > 3 || !isLetters(primary) {
		return xlanguage.Und, false
	}
	tag, err := xlanguage.Parse(lower)
	if err != nil || tag == xlanguage.Und {
		return xlanguage.Und, false
	}
	return tag, true
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func collapse(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
