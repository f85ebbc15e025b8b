package repository

import (
	"context"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// CatalogRepository is the read-only view of the vehicle catalog.
type CatalogRepository interface {
	// Search returns vehicles matching the compiled filter, capped at
	// filter.Limit, in catalog order.
	Search(ctx context.Context, filter entity.VehicleFilter) ([]entity.Vehicle, error)

	// GetVehicle returns nil, nil when the id is unknown.
	GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error)

	// PartsFor returns the part associations for one vehicle.
	PartsFor(ctx context.Context, vehicleID string) ([]entity.VehiclePart, error)
}
