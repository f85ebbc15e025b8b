package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

// CatalogWriter is the write side of a catalog store.
type CatalogWriter interface {
	UpsertVehicle(ctx context.Context, v entity.Vehicle) error
	UpsertPart(ctx context.Context, p entity.Part) error
	LinkPart(ctx context.Context, link entity.VehiclePart) error
}

// Expected sheet names in the workbook.
const (
	sheetVehicles     = "Vehicles"
	sheetParts        = "Parts"
	sheetVehicleParts = "VehicleParts"
)

// Report summarizes one import run.
type Report struct {
	Vehicles int
	Parts    int
	Links    int
	Skipped  int
}

// ImportWorkbook loads the three catalog sheets from an XLSX file into
// the store. Rows missing required cells are skipped and counted, not
// fatal; missing ids are minted.
func ImportWorkbook(ctx context.Context, path string, store CatalogWriter) (Report, error) {
	var report Report

	f, err := excelize.OpenFile(path)
	if err != nil {
		return report, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if err := importVehicles(ctx, f, store, &report); err != nil {
		return report, err
	}
	if err := importParts(ctx, f, store, &report); err != nil {
		return report, err
	}
	if err := importLinks(ctx, f, store, &report); err != nil {
		return report, err
	}
	return report, nil
}

func importVehicles(ctx context.Context, f *excelize.File, store CatalogWriter, report *Report) error {
	rows, err := f.GetRows(sheetVehicles)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheetVehicles, err)
	}
	for i, row := range rows {
		if i == 0 { // header
			continue
		}
		brand := cell(row, 1)
		model := cell(row, 2)
		if brand == "" || model == "" {
			report.Skipped++
			logger.ErrorLogger.Printf("%s row %d: brand/model missing, skipped", sheetVehicles, i+1)
			continue
		}
		id := cell(row, 0)
		if id == "" {
			id = uuid.NewString()
		}
		v := entity.Vehicle{
			ID:           id,
			Brand:        brand,
			Model:        model,
			SeriesSuffix: cell(row, 3),
			BodyType:     cell(row, 4),
			FuelType:     cell(row, 5),
			YearFrom:     cellInt(row, 6),
			EngineDisp:   cell(row, 8),
			PowerHP:      cellInt(row, 9),
			Valves:       cell(row, 10),
			EngineCode:   cell(row, 11),
			EngineSeries: cell(row, 12),
		}
		if to := cellInt(row, 7); to > 0 {
			v.YearTo = &to
		}
		if err := store.UpsertVehicle(ctx, v); err != nil {
			return fmt.Errorf("%s row %d: %w", sheetVehicles, i+1, err)
		}
		report.Vehicles++
	}
	return nil
}

func importParts(ctx context.Context, f *excelize.File, store CatalogWriter, report *Report) error {
	rows, err := f.GetRows(sheetParts)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheetParts, err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		code := cell(row, 2)
		partType := strings.ToLower(cell(row, 3))
		if code == "" || partType == "" {
			report.Skipped++
			logger.ErrorLogger.Printf("%s row %d: code/type missing, skipped", sheetParts, i+1)
			continue
		}
		id := cell(row, 0)
		if id == "" {
			id = uuid.NewString()
		}
		p := entity.Part{
			ID:    id,
			Brand: cell(row, 1),
			Code:  code,
			Type:  partType,
			Notes: cell(row, 4),
		}
		if err := store.UpsertPart(ctx, p); err != nil {
			return fmt.Errorf("%s row %d: %w", sheetParts, i+1, err)
		}
		report.Parts++
	}
	return nil
}

func importLinks(ctx context.Context, f *excelize.File, store CatalogWriter, report *Report) error {
	rows, err := f.GetRows(sheetVehicleParts)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheetVehicleParts, err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		vehicleID := cell(row, 0)
		partID := cell(row, 1)
		if vehicleID == "" || partID == "" {
			report.Skipped++
			logger.ErrorLogger.Printf("%s row %d: ids missing, skipped", sheetVehicleParts, i+1)
			continue
		}
		link := entity.VehiclePart{
			VehicleID:     vehicleID,
			Part:          entity.Part{ID: partID},
			Role:          cell(row, 2),
			SourceCatalog: cell(row, 3),
			Notes:         cell(row, 4),
		}
		if err := store.LinkPart(ctx, link); err != nil {
			return fmt.Errorf("%s row %d: %w", sheetVehicleParts, i+1, err)
		}
		report.Links++
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellInt(row []string, idx int) int {
	n, err := strconv.Atoi(cell(row, idx))
	if err != nil {
		return 0
	}
	return n
}
