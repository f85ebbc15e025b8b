package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineAndText(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("Gol Trend 1.6")
	require.Nil(t, q.YearFilter)
	assert.Equal(t, "1.6", q.EngineFilter)
	assert.Equal(t, []string{"gol", "trend"}, q.TextTokens)
}

func TestParseYearAndText(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("Hilux 2015")
	require.NotNil(t, q.YearFilter)
	assert.Equal(t, 2015, *q.YearFilter)
	assert.Empty(t, q.EngineFilter)
	assert.Equal(t, []string{"hilux"}, q.TextTokens)
}

func TestParseDecimalComma(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("clio 1,2")
	assert.Equal(t, "1.2", q.EngineFilter)
	assert.Equal(t, []string{"clio"}, q.TextTokens)
}

func TestParseSynonyms(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("VW gol")
	assert.Equal(t, []string{"volkswagen", "gol"}, q.TextTokens)

	q = p.Parse("pegeot 206")
	assert.Equal(t, []string{"peugeot", "206"}, q.TextTokens)
}

func TestParseStopWords(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("busco filtro de aceite para el gol")
	assert.Equal(t, []string{"aceite", "gol"}, q.TextTokens)
}

// Whitelisted numeric model names stay text even when they look like a
// year or a displacement.
func TestParseModelWhitelist(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("peugeot 2008")
	require.Nil(t, q.YearFilter)
	assert.Equal(t, []string{"peugeot", "2008"}, q.TextTokens)

	q = p.Parse("renault 12")
	assert.Empty(t, q.EngineFilter)
	assert.Equal(t, []string{"renault", "12"}, q.TextTokens)
}

func TestParseYearBounds(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	for _, raw := range []string{"1949", "2031", "12345"} {
		q := p.Parse("corsa " + raw)
		assert.Nil(t, q.YearFilter, "raw=%s", raw)
	}

	for _, tc := range []struct {
		raw  string
		want int
	}{{"1950", 1950}, {"2030", 2030}} {
		q := p.Parse("corsa " + tc.raw)
		require.NotNil(t, q.YearFilter, "raw=%s", tc.raw)
		assert.Equal(t, tc.want, *q.YearFilter)
	}
}

// First year wins; later year-looking tokens disappear.
func TestParseDuplicateYears(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("hilux 2015 2018")
	require.NotNil(t, q.YearFilter)
	assert.Equal(t, 2015, *q.YearFilter)
	assert.Equal(t, []string{"hilux"}, q.TextTokens)
}

func TestParseDisplacementForms(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	for _, tc := range []struct {
		raw  string
		want string
	}{
		{"1.6", "1.6"},
		{"2", "2.0"},
		{"1.6l", "1.6"},
		{"16.0", "16.0"},
	} {
		q := p.Parse("gol " + tc.raw)
		assert.Equal(t, tc.want, q.EngineFilter, "raw=%s", tc.raw)
	}

	// Out of range or malformed: plain text.
	for _, raw := range []string{"0.4", "16.1", "1.6.2"} {
		q := p.Parse("gol " + raw)
		assert.Empty(t, q.EngineFilter, "raw=%s", raw)
	}
}

func TestParsePunctuation(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	q := p.Parse("gol (trend) d'arc,")
	assert.Equal(t, []string{"gol", "trend", "darc"}, q.TextTokens)
}

// Normalization applied twice equals normalization applied once.
func TestNormalizeIdempotent(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	inputs := []string{
		"VW Gol Trend 1,6",
		"PEUGEOT 2008 (2019)",
		"busco filtro para chevy corsa",
	}
	for _, input := range inputs {
		once := p.Normalize(input)
		twice := p.Normalize(joinTokens(once))
		assert.Equal(t, once, twice, "input=%q", input)
	}
}

func joinTokens(tokens []string) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out
}

func TestParseEmpty(t *testing.T) {
	p := NewQueryParser(ParserOptions{})

	assert.True(t, p.Parse("").IsEmpty())
	assert.True(t, p.Parse("busco un filtro para el auto").IsEmpty())
	assert.False(t, p.Parse("gol").IsEmpty())
	assert.False(t, p.Parse("2015").IsEmpty())
}

func TestParserOverrides(t *testing.T) {
	p := NewQueryParser(ParserOptions{
		Synonyms:  []SynonymPair{{From: "fiti", To: "fitito"}},
		StopWords: []string{"dale"},
	})

	q := p.Parse("dale fiti 600")
	assert.Equal(t, []string{"fitito", "600"}, q.TextTokens)
}
