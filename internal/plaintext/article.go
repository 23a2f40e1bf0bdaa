package plaintext

import (
	"strings"

	"github.com/buzzarbrief/brief/internal/news"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CapitalizeWords upper-cases the first letter of every word and lowers the
// rest, e.g. "BANKING & finance" becomes "Banking & Finance".
func CapitalizeWords(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// ArticleSpeech returns the text read aloud for an article: its title
// followed by the summary, or the content when there is no summary.
func ArticleSpeech(a news.Article) string {
	title := clean(a.Title)
	body := FromMarkdown(a.Lead())

	switch {
	case title == "":
		return body
	case body == "":
		return title
	}
	if last := title[len(title)-1]; last != '.' && last != '!' && last != '?' {
		title += "."
	}
	return title + " " + body
}
