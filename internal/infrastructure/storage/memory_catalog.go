package storage

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// MemoryCatalog evaluates the same compiled predicates as the Postgres
// catalog, with Go regexp standing in for ~* (boundary syntax differs:
// \b here, \y in Postgres). Used by tests and DSN-less dev runs.
type MemoryCatalog struct {
	mu       sync.RWMutex
	vehicles []entity.Vehicle
	parts    map[string]entity.Part
	links    []entity.VehiclePart
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{parts: make(map[string]entity.Part)}
}

func (c *MemoryCatalog) Search(_ context.Context, filter entity.VehicleFilter) ([]entity.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}

	var out []entity.Vehicle
	for _, v := range c.vehicles {
		ok, err := matchVehicle(v, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchVehicle(v entity.Vehicle, filter entity.VehicleFilter) (bool, error) {
	if filter.Year != nil {
		y := *filter.Year
		inRange := v.YearFrom <= y && (v.YearTo == nil || *v.YearTo >= y)
		inModel := strings.Contains(v.Model, strconv.Itoa(y))
		if !inRange && !inModel {
			return false, nil
		}
	}
	if filter.Engine != "" && v.EngineDisp != filter.Engine {
		return false, nil
	}
	for _, group := range filter.TokenGroups {
		matched := false
		for _, cm := range group {
			re, err := compileMatch(cm)
			if err != nil {
				return false, err
			}
			if re.MatchString(columnValue(v, cm.Column)) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func compileMatch(cm entity.ColumnMatch) (*regexp.Regexp, error) {
	pattern := cm.Pattern
	if cm.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	return regexp.Compile("(?i)" + pattern)
}

func columnValue(v entity.Vehicle, column string) string {
	switch column {
	case "brand":
		return v.Brand
	case "model":
		return v.Model
	case "series_suffix":
		return v.SeriesSuffix
	case "engine_code":
		return v.EngineCode
	case "engine_series":
		return v.EngineSeries
	case "body_type":
		return v.BodyType
	case "fuel_type":
		return v.FuelType
	case "valves":
		return v.Valves
	}
	return ""
}

func (c *MemoryCatalog) GetVehicle(_ context.Context, id string) (*entity.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.vehicles {
		if v.ID == id {
			copied := v
			return &copied, nil
		}
	}
	return nil, nil
}

func (c *MemoryCatalog) PartsFor(_ context.Context, vehicleID string) ([]entity.VehiclePart, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []entity.VehiclePart
	for _, link := range c.links {
		if link.VehicleID == vehicleID {
			out = append(out, link)
		}
	}
	return out, nil
}

// Writer side, mirroring the Postgres catalog for the importer and tests.

func (c *MemoryCatalog) UpsertVehicle(_ context.Context, v entity.Vehicle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.vehicles {
		if c.vehicles[i].ID == v.ID {
			c.vehicles[i] = v
			return nil
		}
	}
	c.vehicles = append(c.vehicles, v)
	return nil
}

func (c *MemoryCatalog) UpsertPart(_ context.Context, p entity.Part) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts[p.ID] = p
	return nil
}

func (c *MemoryCatalog) LinkPart(_ context.Context, link entity.VehiclePart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.parts[link.Part.ID]; ok {
		link.Part = p
	}
	for i := range c.links {
		if c.links[i].VehicleID == link.VehicleID && c.links[i].Part.ID == link.Part.ID {
			c.links[i] = link
			return nil
		}
	}
	c.links = append(c.links, link)
	return nil
}
