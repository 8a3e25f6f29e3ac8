package entities

// CatalogItem is static appliance reference data.
type CatalogItem struct {
	ID               string  `yaml:"id" json:"id"`
	Name             string  `yaml:"name" json:"name"`
	Category         string  `yaml:"category" json:"category"`
	PowerConsumption float64 `yaml:"power_consumption" json:"power_consumption"` // kW
	Icon             string  `yaml:"icon" json:"icon"`
	RecommendedHours float64 `yaml:"recommended_hours" json:"recommended_hours"`
}
