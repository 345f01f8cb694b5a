package oracle

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// KeywordOracle answers without any network call. A text is Blocked when one
// of its tokens is in the bad word list.
type KeywordOracle struct {
	badWords []string
}

func NewKeywordOracle(badWords []string) *KeywordOracle {
	words := make([]string, 0, len(badWords))
	for _, w := range badWords {
		words = append(words, tokenize(w)...)
	}
	return &KeywordOracle{badWords: words}
}

func (o *KeywordOracle) Classify(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, tok := range tokenize(text) {
		if slices.Contains(o.badWords, tok) {
			oracleCallCount.WithLabelValues("classify", "blocked").Inc()
			return "Blocked", nil
		}
	}
	oracleCallCount.WithLabelValues("classify", "ok").Inc()
	return "Active", nil
}

func (o *KeywordOracle) Generate(ctx context.Context, postContent, commentContent string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	oracleCallCount.WithLabelValues("generate", "ok").Inc()
	return fmt.Sprintf("Thanks for your comment on %q. You wrote %q, glad to hear your thoughts!",
		headline(postContent, 8), headline(commentContent, 12)), nil
}

func headline(text string, words int) string {
	f := strings.Fields(text)
	if len(f) > words {
		return strings.Join(f[:words], " ") + "..."
	}
	return strings.Join(f, " ")
}

// tokenize lower-cases text, strips punctuation and folds diacritics.
func tokenize(text string) []string {
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	normalized, _, err := transform.String(normFunc, bare)
	if err != nil {
		log.Warn().Err(err).Msg("unicode normalization error")
		normalized = bare
	}
	return strings.Fields(normalized)
}
