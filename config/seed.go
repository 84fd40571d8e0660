package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"makelaardij/server/internal/models"
)

// LoadSeed returns the listings used to fill an empty property store. When path is
// empty the built-in sample listings are returned.
func LoadSeed(path string) ([]models.Property, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %v", err)
	}

	var props []models.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %v", err)
	}
	return props, nil
}

// SaveSeed writes listings in the format LoadSeed reads
func SaveSeed(path string, props []models.Property) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(props, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal seed: %v", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write seed file: %v", err)
	}
	return nil
}

// DefaultSeed returns the brokerage's sample listings in Den Haag
func DefaultSeed() []models.Property {
	return []models.Property{
		{
			ID:            "jacob-schorerlaan-201",
			Title:         "Jacob Schorerlaan 201",
			Location:      "Den Haag, Groente- en Fruitmarkt",
			Price:         "€465.000 k.k.",
			OriginalPrice: "€475.000",
			Size:          "107m²",
			Bedrooms:      4,
			Bathrooms:     1,
			Area:          107,
			EnergyLabel:   "A",
			Features:      []string{"Tuin", "Serre", "Moderne Keuken", "Parkeren"},
			MainImage:     "/images/properties/living-room-1.jpg",
			Images: []string{
				"/images/properties/living-room-1.jpg",
				"/images/properties/kitchen-1.jpg",
				"/images/properties/bedroom-1.jpg",
			},
			Rating:       5,
			Status:       "new",
			Description:  "Prachtig gerenoveerd appartement met moderne afwerking, ruime woonkamer en volledig uitgeruste keuken. Gelegen in een levendige buurt met alle voorzieningen binnen handbereik.",
			Neighborhood: "Groente- en Fruitmarkt",
			YearBuilt:    1920,
			Heating:      "Centrale verwarming",
			Parking:      "Parkeerplaats",
			Garden:       "Achtertuin",
		},
		{
			ID:          "groenewegje-76",
			Title:       "Groenewegje 76",
			Location:    "Den Haag, Centrum",
			Price:       "€695.000 k.k.",
			Size:        "120m²",
			Bedrooms:    3,
			Bathrooms:   2,
			Area:        120,
			EnergyLabel: "B",
			Features:    []string{"Grachtzicht", "Historisch", "Centrale Ligging"},
			MainImage:   "/images/properties/living-room-2.jpg",
			Images: []string{
				"/images/properties/living-room-2.jpg",
				"/images/properties/bedroom-1.jpg",
				"/images/properties/kitchen-1.jpg",
			},
			Rating:       5,
			Status:       "under_offer",
			Description:  "Karakteristiek appartement in het historische centrum van Den Haag met uitzicht op de gracht. Hoge plafonds, originele details en moderne voorzieningen maken dit een unieke woonkans.",
			Neighborhood: "Centrum",
			YearBuilt:    1890,
			Heating:      "Centrale verwarming",
			Parking:      "Geen",
			Garden:       "Geen",
		},
		{
			ID:          "westeinde-11-d",
			Title:       "Westeinde 11-D",
			Location:    "Den Haag, Centrum",
			Price:       "€525.000 k.k.",
			Size:        "95m²",
			Bedrooms:    2,
			Bathrooms:   1,
			Area:        95,
			EnergyLabel: "C",
			Features:    []string{"Stadscentrum", "Gerenoveerd", "Balkon"},
			MainImage:   "/images/properties/living-room-3.jpg",
			Images: []string{
				"/images/properties/living-room-3.jpg",
				"/images/properties/bedroom-2.jpg",
				"/images/properties/kitchen-1.jpg",
			},
			Rating:       4,
			Status:       "available",
			Description:  "Modern appartement in het bruisende centrum van Den Haag. Volledig gerenoveerd met hoogwaardige materialen en voorzien van een ruim balkon met uitzicht over de stad.",
			Neighborhood: "Centrum",
			YearBuilt:    1960,
			Heating:      "Centrale verwarming",
			Parking:      "Geen",
			Garden:       "Balkon",
		},
		{
			ID:          "rijslag-27",
			Title:       "Rijslag 27",
			Location:    "Den Haag, Benoordenhout",
			Price:       "€1.250.000 k.k.",
			Size:        "180m²",
			Bedrooms:    5,
			Bathrooms:   3,
			Area:        180,
			EnergyLabel: "A",
			Features:    []string{"Zwembad", "Grote Tuin", "Moderne Villa"},
			MainImage:   "/images/properties/living-room-1.jpg",
			Images: []string{
				"/images/properties/living-room-1.jpg",
				"/images/properties/bedroom-2.jpg",
				"/images/properties/kitchen-1.jpg",
			},
			Rating:       5,
			Status:       "under_offer",
			Description:  "Luxe villa in de prestigieuze wijk Benoordenhout. Deze ruime woning biedt alle comfort met een privé zwembad, grote tuin en hoogwaardige afwerking in alle ruimtes.",
			Neighborhood: "Benoordenhout",
			YearBuilt:    2010,
			PlotSize:     500,
			Heating:      "Vloerverwarming",
			Parking:      "Garage",
			Garden:       "Grote tuin met zwembad",
		},
	}
}
