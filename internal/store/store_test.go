package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makelaardij/server/internal/database"
	"makelaardij/server/internal/models"
)

func newProperty(title, price string) models.Property {
	return models.Property{
		Title:       title,
		Location:    "Den Haag, Centrum",
		Price:       price,
		Description: "Ruim appartement.",
		Bedrooms:    2,
		Bathrooms:   1,
		Area:        80,
	}
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// backends returns one fresh store per implementation
func backends(t *testing.T) map[string]PropertyStore {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "properties.json"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	db, err := database.OpenMemory(logger)
	require.NoError(t, err)

	return map[string]PropertyStore{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"gorm":   NewGormStore(db),
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Address", input: "Jacob Schorerlaan 201", expected: "jacob-schorerlaan-201"},
		{name: "Existing hyphen", input: "Westeinde 11-D", expected: "westeinde-11-d"},
		{name: "Multiple spaces collapse", input: "Den   Haag", expected: "den-haag"},
		{name: "Apostrophe stripped", input: "'s-Hertogenbosch", expected: "s-hertogenbosch"},
		{name: "Punctuation stripped", input: "Villa (nieuw!) & tuin", expected: "villa-nieuw-tuin"},
		{name: "Hyphen runs collapse", input: "a -- b", expected: "a-b"},
		{name: "Surrounding whitespace", input: "  Rijslag 27  ", expected: "rijslag-27"},
		{name: "Accents removed", input: "Café Hoek", expected: "caf-hoek"},
		{name: "Only punctuation", input: "!!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestPropertyStore_CreateDefaults(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := s.Create(ctx, newProperty("Jacob Schorerlaan 201", "€465.000 k.k."))
			require.NoError(t, err)

			assert.Equal(t, "jacob-schorerlaan-201", created.ID)
			assert.Equal(t, "available", created.Status)
			assert.Equal(t, "A", created.EnergyLabel)
			assert.Equal(t, 5, created.Rating)
			assert.Equal(t, time.Now().Year(), created.YearBuilt)
			assert.NotNil(t, created.Features)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := s.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.Title, got.Title)
			assert.Equal(t, []string{}, got.Features)
		})
	}
}

func TestPropertyStore_CreateKeepsExplicitValues(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := newProperty("Rijslag 27", "€1.250.000 k.k.")
			p.ID = "villa-rijslag"
			p.Status = "under_offer"
			p.EnergyLabel = "B"
			p.Features = []string{"Zwembad", "Grote Tuin"}

			created, err := s.Create(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, "villa-rijslag", created.ID)
			assert.Equal(t, "under_offer", created.Status)
			assert.Equal(t, "B", created.EnergyLabel)
			assert.Equal(t, []string{"Zwembad", "Grote Tuin"}, created.Features)
		})
	}
}

func TestPropertyStore_Conflict(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Create(ctx, newProperty("Groenewegje 76", "€695.000 k.k."))
			require.NoError(t, err)

			dup := newProperty("Groenewegje 76", "€1 k.k.")
			_, err = s.Create(ctx, dup)
			assert.True(t, errors.Is(err, ErrConflict))

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "€695.000 k.k.", all[0].Price)
		})
	}
}

func TestPropertyStore_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(p *models.Property)
		field string
	}{
		{"Missing title", func(p *models.Property) { p.Title = "" }, "title"},
		{"Missing location", func(p *models.Property) { p.Location = " " }, "location"},
		{"Missing price", func(p *models.Property) { p.Price = "" }, "price"},
		{"Missing description", func(p *models.Property) { p.Description = "" }, "description"},
		{"Unparseable price", func(p *models.Property) { p.Price = "Prijs op aanvraag" }, "price"},
		{"Negative bedrooms", func(p *models.Property) { p.Bedrooms = -1 }, "bedrooms"},
		{"Invalid explicit id", func(p *models.Property) { p.ID = "Not A Slug" }, "id"},
		{"Title without slug", func(p *models.Property) { p.Title = "???" }, "id"},
	}

	s := NewMemoryStore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProperty("Westeinde 11-D", "€525.000 k.k.")
			tt.edit(&p)

			_, err := s.Create(context.Background(), p)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPropertyStore_Update(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := s.Create(ctx, newProperty("Westeinde 11-D", "€525.000 k.k."))
			require.NoError(t, err)

			updated, err := s.Update(ctx, created.ID, models.PropertyPatch{
				Price:    ptrString("€499.000 k.k."),
				Bedrooms: ptrInt(3),
			})
			require.NoError(t, err)
			assert.Equal(t, "€499.000 k.k.", updated.Price)
			assert.Equal(t, 3, updated.Bedrooms)
			assert.Equal(t, created.Title, updated.Title)
			assert.Equal(t, created.ID, updated.ID)
			assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

			_, err = s.Update(ctx, created.ID, models.PropertyPatch{Price: ptrString("gratis")})
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))

			got, err := s.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "€499.000 k.k.", got.Price)

			_, err = s.Update(ctx, "does-not-exist", models.PropertyPatch{Bedrooms: ptrInt(1)})
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestPropertyStore_Delete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := s.Create(ctx, newProperty("Rijslag 27", "€1.250.000 k.k."))
			require.NoError(t, err)

			require.NoError(t, s.Delete(ctx, created.ID))

			_, err = s.Get(ctx, created.ID)
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(s.Delete(ctx, created.ID), ErrNotFound))
		})
	}
}

func TestPropertyStore_ListInsertionOrder(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, title := range []string{"Eerste 1", "Tweede 2", "Derde 3"} {
				_, err := s.Create(ctx, newProperty(title, "€300.000"))
				require.NoError(t, err)
			}

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "eerste-1", all[0].ID)
			assert.Equal(t, "derde-3", all[2].ID)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProperty("Westeinde 11-D", "€525.000 k.k.")
	p.Features = []string{"Balkon"}
	_, err := s.Create(ctx, p)
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	all[0].Features[0] = "Changed"

	got, err := s.Get(ctx, "westeinde-11-d")
	require.NoError(t, err)
	assert.Equal(t, []string{"Balkon"}, got.Features)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "properties.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.Create(ctx, newProperty("Groenewegje 76", "€695.000 k.k."))
	require.NoError(t, err)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "groenewegje-76")
	require.NoError(t, err)
	assert.Equal(t, "€695.000 k.k.", got.Price)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	props := []models.Property{
		newProperty("Eerste 1", "€300.000"),
		newProperty("Tweede 2", "€400.000"),
	}

	n, err := Seed(ctx, s, props)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Seed(ctx, s, props)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
