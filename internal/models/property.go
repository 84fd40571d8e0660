package models

import "time"

// Property is a single listing. Price is the display string; its numeric value is
// derived on demand by the pricing package.
type Property struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	Title         string    `json:"title" gorm:"size:255;not null"`
	Location      string    `json:"location" gorm:"size:255;not null;index"`
	Price         string    `json:"price" gorm:"size:64;not null"`
	OriginalPrice string    `json:"originalPrice,omitempty" gorm:"size:64"`
	Size          string    `json:"size" gorm:"size:32"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	Area          float64   `json:"area"`
	EnergyLabel   string    `json:"energyLabel" gorm:"size:8"`
	Features      []string  `json:"features" gorm:"serializer:json"`
	MainImage     string    `json:"mainImage,omitempty" gorm:"size:255"`
	Images        []string  `json:"images" gorm:"serializer:json"`
	Rating        int       `json:"rating"`
	Status        string    `json:"status" gorm:"size:32;index"`
	Description   string    `json:"description" gorm:"type:text"`
	Neighborhood  string    `json:"neighborhood" gorm:"size:255"`
	YearBuilt     int       `json:"yearBuilt"`
	PlotSize      float64   `json:"plotSize"`
	Heating       string    `json:"heating" gorm:"size:128"`
	Parking       string    `json:"parking" gorm:"size:128"`
	Garden        string    `json:"garden" gorm:"size:128"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCoordinates reports whether the property has been geocoded
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Property) Clone() Property {
	c := p
	if p.Features != nil {
		c.Features = make([]string, len(p.Features))
		copy(c.Features, p.Features)
	}
	if p.Images != nil {
		c.Images = make([]string, len(p.Images))
		copy(c.Images, p.Images)
	}
	if p.Latitude != nil {
		lat := *p.Latitude
		c.Latitude = &lat
	}
	if p.Longitude != nil {
		lng := *p.Longitude
		c.Longitude = &lng
	}
	return c
}

// PropertyPatch lists the fields an update may change. Nil fields are left alone.
type PropertyPatch struct {
	Title         *string   `json:"title"`
	Location      *string   `json:"location"`
	Price         *string   `json:"price"`
	OriginalPrice *string   `json:"originalPrice"`
	Size          *string   `json:"size"`
	Bedrooms      *int      `json:"bedrooms"`
	Bathrooms     *int      `json:"bathrooms"`
	Area          *float64  `json:"area"`
	EnergyLabel   *string   `json:"energyLabel"`
	Features      *[]string `json:"features"`
	MainImage     *string   `json:"mainImage"`
	Images        *[]string `json:"images"`
	Rating        *int      `json:"rating"`
	Status        *string   `json:"status"`
	Description   *string   `json:"description"`
	Neighborhood  *string   `json:"neighborhood"`
	YearBuilt     *int      `json:"yearBuilt"`
	PlotSize      *float64  `json:"plotSize"`
	Heating       *string   `json:"heating"`
	Parking       *string   `json:"parking"`
	Garden        *string   `json:"garden"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
}

// IsEmpty reports whether the patch changes nothing
func (pp PropertyPatch) IsEmpty() bool {
	return pp == PropertyPatch{}
}

// Apply copies the set fields of the patch onto p. Timestamps are the caller's job.
func (pp PropertyPatch) Apply(p *Property) {
	setString(&p.Title, pp.Title)
	setString(&p.Location, pp.Location)
	setString(&p.Price, pp.Price)
	setString(&p.OriginalPrice, pp.OriginalPrice)
	setString(&p.Size, pp.Size)
	setString(&p.EnergyLabel, pp.EnergyLabel)
	setString(&p.MainImage, pp.MainImage)
	setString(&p.Status, pp.Status)
	setString(&p.Description, pp.Description)
	setString(&p.Neighborhood, pp.Neighborhood)
	setString(&p.Heating, pp.Heating)
	setString(&p.Parking, pp.Parking)
	setString(&p.Garden, pp.Garden)

	if pp.Bedrooms != nil {
		p.Bedrooms = *pp.Bedrooms
	}
	if pp.Bathrooms != nil {
		p.Bathrooms = *pp.Bathrooms
	}
	if pp.Rating != nil {
		p.Rating = *pp.Rating
	}
	if pp.YearBuilt != nil {
		p.YearBuilt = *pp.YearBuilt
	}
	if pp.Area != nil {
		p.Area = *pp.Area
	}
	if pp.PlotSize != nil {
		p.PlotSize = *pp.PlotSize
	}
	if pp.Features != nil {
		p.Features = append([]string{}, (*pp.Features)...)
	}
	if pp.Images != nil {
		p.Images = append([]string{}, (*pp.Images)...)
	}
	if pp.Latitude != nil {
		lat := *pp.Latitude
		p.Latitude = &lat
	}
	if pp.Longitude != nil {
		lng := *pp.Longitude
		p.Longitude = &lng
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
