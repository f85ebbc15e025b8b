package usecase

import (
	"github.com/filtra-ar/filtrabot/internal/domain/constants"
	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// OutcomeKind is the exhaustive, mutually exclusive classification of a
// result set's cardinality.
type OutcomeKind int

const (
	// OutcomeNone zero matches
	OutcomeNone OutcomeKind = iota
	// OutcomeList 1-10 matches, shown as a selectable list
	OutcomeList
	// OutcomeMenu >10 matches, one brand, 2-10 distinct models: show a
	// model disambiguation menu
	OutcomeMenu
	// OutcomeNarrow >10 matches otherwise: ask the user to add year or
	// engine size
	OutcomeNarrow
)

// SearchOutcome is the result classifier's verdict. Vehicles is populated
// for OutcomeList; Brand and Models for OutcomeMenu. Order follows the
// catalog; ties are never broken beyond that.
type SearchOutcome struct {
	Kind     OutcomeKind
	Vehicles []entity.Vehicle
	Brand    string
	Models   []string
}

// ClassifyResults picks exactly one branch for any non-negative match
// count.
func ClassifyResults(vehicles []entity.Vehicle) SearchOutcome {
	switch {
	case len(vehicles) == 0:
		return SearchOutcome{Kind: OutcomeNone}
	case len(vehicles) <= constants.ListReplyLimit:
		return SearchOutcome{Kind: OutcomeList, Vehicles: vehicles}
	}

	brand, models, singleBrand := distinctModels(vehicles)
	if singleBrand && len(models) >= 2 && len(models) <= constants.MenuModelMax {
		return SearchOutcome{Kind: OutcomeMenu, Brand: brand, Models: models}
	}
	return SearchOutcome{Kind: OutcomeNarrow}
}

// distinctModels collects models in first-seen order and reports whether
// all rows share one brand.
func distinctModels(vehicles []entity.Vehicle) (string, []string, bool) {
	brand := vehicles[0].Brand
	seen := make(map[string]struct{})
	var models []string
	for _, v := range vehicles {
		if v.Brand != brand {
			return "", nil, false
		}
		if _, ok := seen[v.Model]; ok {
			continue
		}
		seen[v.Model] = struct{}{}
		models = append(models, v.Model)
	}
	return brand, models, true
}
