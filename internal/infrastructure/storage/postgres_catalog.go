package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// catalogColumns maps logical searchable column names to SQL columns.
// Predicates referencing anything else are dropped rather than
// interpolated (injection guard).
var catalogColumns = map[string]string{
	"brand":         "brand",
	"model":         "model",
	"series_suffix": "series_suffix",
	"engine_code":   "engine_code",
	"engine_series": "engine_series",
	"body_type":     "body_type",
	"fuel_type":     "fuel_type",
	"valves":        "valves",
}

const vehicleSelect = `
SELECT vehicle_id, brand, model, series_suffix, body_type, fuel_type,
       year_from, year_to, engine_disp, power_hp, valves, engine_code, engine_series
FROM vehicles`

// PostgresCatalog is the production catalog: compiled predicates become
// case-insensitive POSIX regex matches (~*) with \y word boundaries for
// short tokens.
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog bootstraps the catalog schema and returns the store.
func NewPostgresCatalog(db *sql.DB) (*PostgresCatalog, error) {
	schema := `
CREATE TABLE IF NOT EXISTS vehicles (
	vehicle_id TEXT PRIMARY KEY,
	brand TEXT NOT NULL,
	model TEXT NOT NULL,
	series_suffix TEXT DEFAULT '',
	body_type TEXT DEFAULT '',
	fuel_type TEXT DEFAULT '',
	year_from INT DEFAULT 0,
	year_to INT,
	engine_disp TEXT DEFAULT '',
	power_hp INT DEFAULT 0,
	valves TEXT DEFAULT '',
	engine_code TEXT DEFAULT '',
	engine_series TEXT DEFAULT ''
);
CREATE TABLE IF NOT EXISTS parts (
	part_id TEXT PRIMARY KEY,
	brand TEXT NOT NULL,
	code TEXT NOT NULL,
	part_type TEXT NOT NULL,
	notes TEXT DEFAULT ''
);
CREATE TABLE IF NOT EXISTS vehicle_parts (
	vehicle_id TEXT NOT NULL REFERENCES vehicles(vehicle_id),
	part_id TEXT NOT NULL REFERENCES parts(part_id),
	role TEXT DEFAULT '',
	source_catalog TEXT DEFAULT '',
	notes TEXT DEFAULT '',
	PRIMARY KEY (vehicle_id, part_id)
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &PostgresCatalog{db: db}, nil
}

func (c *PostgresCatalog) Search(ctx context.Context, filter entity.VehicleFilter) ([]entity.Vehicle, error) {
	var where []string
	var args []interface{}

	if filter.Year != nil {
		args = append(args, *filter.Year)
		yearArg := len(args)
		args = append(args, "%"+strconv.Itoa(*filter.Year)+"%")
		// The second disjunct exists because some model names contain
		// what looks like a year (Peugeot 2008).
		where = append(where, fmt.Sprintf(
			"((year_from <= $%d AND (year_to >= $%d OR year_to IS NULL)) OR model ILIKE $%d)",
			yearArg, yearArg, yearArg+1))
	}
	if filter.Engine != "" {
		args = append(args, filter.Engine)
		where = append(where, fmt.Sprintf("engine_disp = $%d", len(args)))
	}
	for _, group := range filter.TokenGroups {
		var ors []string
		for _, match := range group {
			column, ok := catalogColumns[match.Column]
			if !ok {
				continue
			}
			pattern := match.Pattern
			if match.WholeWord {
				pattern = `\y` + pattern + `\y`
			}
			args = append(args, pattern)
			ors = append(ors, fmt.Sprintf("%s ~* $%d", column, len(args)))
		}
		if len(ors) > 0 {
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		}
	}

	query := vehicleSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY vehicle_id LIMIT $%d", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []entity.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (c *PostgresCatalog) GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error) {
	row := c.db.QueryRowContext(ctx, vehicleSelect+" WHERE vehicle_id=$1", id)
	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *PostgresCatalog) PartsFor(ctx context.Context, vehicleID string) ([]entity.VehiclePart, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT vp.vehicle_id, vp.role, vp.source_catalog, vp.notes,
	       p.part_id, p.brand, p.code, p.part_type, p.notes
	FROM vehicle_parts vp
	JOIN parts p ON p.part_id = vp.part_id
	WHERE vp.vehicle_id = $1
	ORDER BY p.part_type, p.brand`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []entity.VehiclePart
	for rows.Next() {
		var vp entity.VehiclePart
		if err := rows.Scan(&vp.VehicleID, &vp.Role, &vp.SourceCatalog, &vp.Notes,
			&vp.Part.ID, &vp.Part.Brand, &vp.Part.Code, &vp.Part.Type, &vp.Part.Notes); err != nil {
			return nil, err
		}
		links = append(links, vp)
	}
	return links, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (entity.Vehicle, error) {
	var v entity.Vehicle
	var yearTo sql.NullInt64
	err := row.Scan(&v.ID, &v.Brand, &v.Model, &v.SeriesSuffix, &v.BodyType, &v.FuelType,
		&v.YearFrom, &yearTo, &v.EngineDisp, &v.PowerHP, &v.Valves, &v.EngineCode, &v.EngineSeries)
	if err != nil {
		return entity.Vehicle{}, err
	}
	if yearTo.Valid {
		y := int(yearTo.Int64)
		v.YearTo = &y
	}
	return v, nil
}

// Writer side, used by the catalog importer only.

func (c *PostgresCatalog) UpsertVehicle(ctx context.Context, v entity.Vehicle) error {
	var yearTo interface{}
	if v.YearTo != nil {
		yearTo = *v.YearTo
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO vehicles (vehicle_id, brand, model, series_suffix, body_type, fuel_type,
		year_from, year_to, engine_disp, power_hp, valves, engine_code, engine_series)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (vehicle_id) DO UPDATE SET
		brand=EXCLUDED.brand, model=EXCLUDED.model, series_suffix=EXCLUDED.series_suffix,
		body_type=EXCLUDED.body_type, fuel_type=EXCLUDED.fuel_type,
		year_from=EXCLUDED.year_from, year_to=EXCLUDED.year_to,
		engine_disp=EXCLUDED.engine_disp, power_hp=EXCLUDED.power_hp,
		valves=EXCLUDED.valves, engine_code=EXCLUDED.engine_code, engine_series=EXCLUDED.engine_series
	`, v.ID, v.Brand, v.Model, v.SeriesSuffix, v.BodyType, v.FuelType,
		v.YearFrom, yearTo, v.EngineDisp, v.PowerHP, v.Valves, v.EngineCode, v.EngineSeries)
	return err
}

func (c *PostgresCatalog) UpsertPart(ctx context.Context, p entity.Part) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO parts (part_id, brand, code, part_type, notes) VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (part_id) DO UPDATE SET
		brand=EXCLUDED.brand, code=EXCLUDED.code, part_type=EXCLUDED.part_type, notes=EXCLUDED.notes
	`, p.ID, p.Brand, p.Code, p.Type, p.Notes)
	return err
}

func (c *PostgresCatalog) LinkPart(ctx context.Context, link entity.VehiclePart) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO vehicle_parts (vehicle_id, part_id, role, source_catalog, notes)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (vehicle_id, part_id) DO UPDATE SET
		role=EXCLUDED.role, source_catalog=EXCLUDED.source_catalog, notes=EXCLUDED.notes
	`, link.VehicleID, link.Part.ID, link.Role, link.SourceCatalog, link.Notes)
	return err
}
