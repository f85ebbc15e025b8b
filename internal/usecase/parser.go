package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/filtra-ar/filtrabot/internal/domain/constants"
	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// SynonymPair is one literal substring rewrite applied during
// normalization. Replacement is intentionally substring-based and may
// over-match inside longer words; that approximation matches observed
// user input well enough and keeps the rewrite order-stable.
type SynonymPair struct {
	From string
	To   string
}

// ParserOptions override the built-in token tables. Empty fields keep the
// defaults.
type ParserOptions struct {
	Synonyms       []SynonymPair
	StopWords      []string
	ModelWhitelist []string
}

// QueryParser turns free-form search text into a ParsedQuery.
type QueryParser struct {
	synonyms       []SynonymPair
	stopWords      map[string]struct{}
	modelWhitelist map[string]struct{}
}

var defaultSynonyms = []SynonymPair{
	{"vw", "volkswagen"},
	{"wolkswagen", "volkswagen"},
	{"chevy", "chevrolet"},
	{"pegeot", "peugeot"},
	{"peugot", "peugeot"},
	{"renol", "renault"},
}

var defaultStopWords = []string{
	"el", "la", "los", "las", "un", "una", "unos", "unas",
	"de", "del", "al", "para", "por", "con", "y", "o", "que",
	"busco", "necesito", "quiero", "tengo", "es",
	"auto", "autos", "coche", "coches", "vehiculo", "vehículo",
	"camioneta", "filtro", "filtros", "repuesto", "repuestos",
	"modelo", "año", "motor",
}

// Numeric and alphanumeric model names that must never be read as a year
// or a displacement (Renault 12, Peugeot 208/2008, Ford F-150...).
var defaultModelWhitelist = []string{
	"4", "6", "9", "11", "12", "18", "19", "21",
	"106", "125", "128", "147", "205", "206", "207", "208",
	"306", "307", "308", "404", "405", "408",
	"504", "505", "508", "600",
	"2008", "3008", "5008",
	"c3", "c4", "c10", "s10", "f100", "f150",
}

// NewQueryParser builds a parser with the default tables, overridden by
// any non-empty option field.
func NewQueryParser(opts ParserOptions) *QueryParser {
	p := &QueryParser{
		synonyms:       defaultSynonyms,
		stopWords:      toSet(defaultStopWords),
		modelWhitelist: toSet(defaultModelWhitelist),
	}
	if len(opts.Synonyms) > 0 {
		p.synonyms = opts.Synonyms
	}
	if len(opts.StopWords) > 0 {
		p.stopWords = toSet(opts.StopWords)
	}
	if len(opts.ModelWhitelist) > 0 {
		p.modelWhitelist = toSet(opts.ModelWhitelist)
	}
	return p
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

// decimalCommaRe rewrites "1,6" into "1.6" before commas are stripped,
// so displacement values survive punctuation removal.
var decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)

var punctuationStripper = strings.NewReplacer("(", "", ")", "", "'", "", ",", "")

// Normalize applies the canonical pipeline, order matters:
// lower-case, decimal-comma rewrite, punctuation strip, synonym
// substitution, whitespace split. No returned token is empty.
func (p *QueryParser) Normalize(text string) []string {
	s := strings.ToLower(text)
	s = decimalCommaRe.ReplaceAllString(s, "$1.$2")
	s = punctuationStripper.Replace(s)
	for _, syn := range p.synonyms {
		s = strings.ReplaceAll(s, syn.From, syn.To)
	}
	return strings.Fields(s)
}

// classifierRule is one step of the fixed-priority token classification.
// apply returns true when the token is consumed; evaluation stops there.
type classifierRule struct {
	name  string
	apply func(p *QueryParser, token string, q *entity.ParsedQuery) bool
}

// classifierOrder is the classification priority. The order is load
// bearing: the whitelist must win over the year and engine rules, and
// free-text is the catch-all.
var classifierOrder = []classifierRule{
	{"stop-word", ruleStopWord},
	{"model-whitelist", ruleModelWhitelist},
	{"year", ruleYear},
	{"engine-displacement", ruleEngineDisplacement},
	{"free-text", ruleFreeText},
}

func ruleStopWord(p *QueryParser, token string, _ *entity.ParsedQuery) bool {
	_, ok := p.stopWords[token]
	return ok
}

func ruleModelWhitelist(p *QueryParser, token string, q *entity.ParsedQuery) bool {
	if _, ok := p.modelWhitelist[token]; !ok {
		return false
	}
	q.TextTokens = append(q.TextTokens, token)
	return true
}

// ruleYear consumes every year-looking token but only the first one sets
// the filter; later ones are dropped silently (observed behavior, kept
// as a rule rather than fixed).
func ruleYear(_ *QueryParser, token string, q *entity.ParsedQuery) bool {
	if len(token) != 4 || !isAllDigits(token) {
		return false
	}
	year, err := strconv.Atoi(token)
	if err != nil || year < constants.YearMin || year > constants.YearMax {
		return false
	}
	if q.YearFilter == nil {
		q.YearFilter = &year
	}
	return true
}

// ruleEngineDisplacement recognizes "1.6", "2", "1.6l" and normalizes to
// one fractional digit. First match wins, later matches are dropped.
func ruleEngineDisplacement(_ *QueryParser, token string, q *entity.ParsedQuery) bool {
	norm, ok := normalizeDisplacement(token)
	if !ok {
		return false
	}
	if q.EngineFilter == "" {
		q.EngineFilter = norm
	}
	return true
}

func ruleFreeText(_ *QueryParser, token string, q *entity.ParsedQuery) bool {
	q.TextTokens = append(q.TextTokens, token)
	return true
}

// Parse classifies each normalized token through classifierOrder into
// exactly one destination: discarded, a filter, or TextTokens.
func (p *QueryParser) Parse(text string) entity.ParsedQuery {
	var q entity.ParsedQuery
	for _, token := range p.Normalize(text) {
		for _, rule := range classifierOrder {
			if rule.apply(p, token, &q) {
				break
			}
		}
	}
	return q
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeDisplacement accepts tokens up to 5 chars, optionally with a
// trailing liter marker, containing a digit and at most one decimal
// separator, whose value falls in the plausible displacement range.
// Bare integers gain a trailing ".0".
func normalizeDisplacement(token string) (string, bool) {
	if token == "" || len(token) > 5 {
		return "", false
	}
	t := strings.TrimSuffix(token, "l")
	if t == "" || !strings.ContainsAny(t, "0123456789") {
		return "", false
	}
	if strings.Count(t, ".") > 1 {
		return "", false
	}
	value, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return "", false
	}
	if value < constants.EngineDispMin || value > constants.EngineDispMax {
		return "", false
	}
	return strconv.FormatFloat(value, 'f', 1, 64), true
}
