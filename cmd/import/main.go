package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/filtra-ar/filtrabot/internal/infrastructure/importer"
	"github.com/filtra-ar/filtrabot/internal/infrastructure/storage"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

// Catalog loader: reads an XLSX workbook (Vehicles, Parts, VehicleParts
// sheets) into Postgres. Run whenever a new catalog drop arrives.
func main() {
	logger.Init()

	path := flag.String("file", "catalog.xlsx", "path to the catalog workbook")
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = storage.BuildPostgresDSNFromEnv()
	}
	if dsn == "" {
		log.Fatal("❌ POSTGRES_DSN (o POSTGRES_HOST/USER/DB) es obligatorio para importar")
	}

	db, err := storage.OpenPostgres(dsn)
	if err != nil {
		log.Fatalf("❌ Postgres no disponible: %v", err)
	}
	defer db.Close()

	catalog, err := storage.NewPostgresCatalog(db)
	if err != nil {
		log.Fatalf("❌ Esquema de catálogo: %v", err)
	}

	report, err := importer.ImportWorkbook(context.Background(), *path, catalog)
	if err != nil {
		log.Fatalf("❌ Importación falló: %v", err)
	}
	logger.InfoLogger.Printf("✅ Importado: %d vehículos, %d filtros, %d vínculos (%d filas salteadas)",
		report.Vehicles, report.Parts, report.Links, report.Skipped)
}
