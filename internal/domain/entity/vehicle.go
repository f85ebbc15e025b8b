package entity

// Vehicle is a catalog row. Read-only input to the matcher; the catalog
// collaborator owns it.
type Vehicle struct {
	ID           string
	Brand        string
	Model        string
	SeriesSuffix string
	BodyType     string
	FuelType     string
	YearFrom     int
	// YearTo nil means still in production
	YearTo       *int
	EngineDisp   string // normalized liters, e.g. "1.6"
	PowerHP      int
	Valves       string // e.g. "16v"
	EngineCode   string
	EngineSeries string
}

// Part is a replacement part record (filter element).
type Part struct {
	ID    string
	Brand string
	Code  string
	Type  string // oil, air, fuel, cabin, ...
	Notes string
}

// VehiclePart links a part to a vehicle with the association's own data.
type VehiclePart struct {
	VehicleID     string
	Part          Part
	Role          string
	SourceCatalog string
	Notes         string
}
