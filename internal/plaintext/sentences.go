package plaintext

import (
	"strings"
	"unicode"
)

// abbreviations end in a period without ending a sentence when followed by
// a name.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "no": true, "vs": true,
	"rs": true, "co": true, "inc": true, "ltd": true, "corp": true,
	"govt": true, "dept": true, "approx": true, "est": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true, "e.g": true, "i.e": true, "etc": true,
	"u.s": true, "u.k": true,
}

// Sentences splits prose into sentences. Decimal numbers, ellipses and
// common abbreviations do not end a sentence.
func Sentences(s string) []string {
	runes := []rune(strings.TrimSpace(s))
	var (
		out   []string
		start int
	)
	for i := range runes {
		if !boundary(runes, i) {
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start : i+1])); sentence != "" {
			out = append(out, sentence)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(string(runes[min(start, len(runes)):])); rest != "" {
		out = append(out, rest)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == '”' || r == '’'
}

// boundary reports whether a sentence ends at runes[i]. A closing quote or
// parenthesis after the final mark belongs to the sentence it closes.
func boundary(runes []rune, i int) bool {
	r := runes[i]
	switch {
	case isTerminal(r):
	case isCloser(r) && i > 0 && isTerminal(runes[i-1]):
	default:
		return false
	}
	if i == len(runes)-1 {
		return true
	}

	next := runes[i+1]
	if isTerminal(next) || isCloser(next) || !unicode.IsSpace(next) {
		return false
	}
	if r == '.' && abbreviation(runes, i) {
		return false
	}
	return true
}

func abbreviation(runes []rune, i int) bool {
	start := i - 1
	for start >= 0 && !unicode.IsSpace(runes[start]) {
		start--
	}
	word := strings.ToLower(strings.TrimLeft(string(runes[start+1:i]), "(\"'"))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// Single initials such as "J. R. R. Tolkien".
	r := []rune(word)
	return len(r) == 1 && unicode.IsLetter(r[0])
}

// Chunks groups sentences into pieces of at most limit bytes. A sentence
// longer than limit is broken at word boundaries.
func Chunks(s string, limit int) []string {
	if limit <= 0 {
		limit = 400
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	add := func(piece string) {
		if cur.Len() > 0 && cur.Len()+1+len(piece) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(piece)
	}

	for _, sentence := range Sentences(s) {
		if len(sentence) <= limit {
			add(sentence)
			continue
		}
		flush()
		for _, word := range strings.Fields(sentence) {
			for len(word) > limit {
				flush()
				out = append(out, word[:limit])
				word = word[limit:]
			}
			add(word)
		}
		flush()
	}
	flush()
	return out
}
