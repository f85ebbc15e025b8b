package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

func TestExpandAccents(t *testing.T) {
	assert.Equal(t, "m[ií][oó]", expandAccents("mio"))
	assert.Equal(t, "m[ií][oó]", expandAccents("mío"))
	assert.Equal(t, "[nñ][aá][nñ]d[uúü]", expandAccents("ñandu"))
	// Non-class runes are quoted, not interpolated.
	assert.Equal(t, `f\.6`, expandAccents("f.6"))
}

func TestBuildFilterGroups(t *testing.T) {
	year := 2015
	q := entity.ParsedQuery{
		YearFilter:   &year,
		EngineFilter: "2.8",
		TextTokens:   []string{"hilux", "srv"},
	}

	filter := BuildFilter(q)
	require.NotNil(t, filter.Year)
	assert.Equal(t, 2015, *filter.Year)
	assert.Equal(t, "2.8", filter.Engine)
	assert.Equal(t, 15, filter.Limit)

	require.Len(t, filter.TokenGroups, 2)
	for _, group := range filter.TokenGroups {
		assert.Len(t, group, len(searchColumns))
	}

	// "hilux" is long enough for substring match, "srv" gets anchors.
	assert.False(t, filter.TokenGroups[0][0].WholeWord)
	assert.True(t, filter.TokenGroups[1][0].WholeWord)
}

func TestBuildFilterShortTokenRuneCount(t *testing.T) {
	// Rune length decides, not byte length: "mío" is 3 runes, 4 bytes.
	filter := BuildFilter(entity.ParsedQuery{TextTokens: []string{"mío"}})
	require.Len(t, filter.TokenGroups, 1)
	assert.True(t, filter.TokenGroups[0][0].WholeWord)
}
