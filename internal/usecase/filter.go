package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/filtra-ar/filtrabot/internal/domain/constants"
	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// searchColumns are the catalog columns every text token is matched
// against (OR within the token's group, AND across tokens).
var searchColumns = []string{
	"brand",
	"model",
	"series_suffix",
	"engine_code",
	"engine_series",
	"body_type",
	"fuel_type",
	"valves",
}

// shortTokenMax tokens at or below this length get word-boundary
// anchors, so "mio" cannot match inside "kamion".
const shortTokenMax = 3

// accentClasses maps each vowel/ñ class to one bracket alternation, so a
// search without accents still hits accented catalog text and vice versa.
var accentClasses = map[rune]string{
	'a': "[aá]", 'á': "[aá]",
	'e': "[eé]", 'é': "[eé]",
	'i': "[ií]", 'í': "[ií]",
	'o': "[oó]", 'ó': "[oó]",
	'u': "[uúü]", 'ú': "[uúü]", 'ü': "[uúü]",
	'n': "[nñ]", 'ñ': "[nñ]",
}

// expandAccents builds the regex body for one token: accent classes for
// vowels/ñ, everything else quoted literally.
func expandAccents(token string) string {
	var b strings.Builder
	for _, r := range token {
		if class, ok := accentClasses[r]; ok {
			b.WriteString(class)
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// BuildFilter compiles a parsed query into the catalog predicate set:
// year and engine filters AND-ed with one OR-group per text token.
func BuildFilter(q entity.ParsedQuery) entity.VehicleFilter {
	filter := entity.VehicleFilter{
		Year:   q.YearFilter,
		Engine: q.EngineFilter,
		Limit:  constants.SearchPageSize,
	}
	for _, token := range q.TextTokens {
		pattern := expandAccents(token)
		wholeWord := utf8.RuneCountInString(token) <= shortTokenMax
		group := make([]entity.ColumnMatch, 0, len(searchColumns))
		for _, column := range searchColumns {
			group = append(group, entity.ColumnMatch{
				Column:    column,
				Pattern:   pattern,
				WholeWord: wholeWord,
			})
		}
		filter.TokenGroups = append(filter.TokenGroups, group)
	}
	return filter
}
