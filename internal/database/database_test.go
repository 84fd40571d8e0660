package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	db, err := OpenMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *UserRepo, username, email string) *models.User {
	t.Helper()
	u := &models.User{
		Username:                username,
		Email:                   email,
		PasswordHash:            "hash",
		IsActive:                true,
		NotificationPreferences: models.DefaultNotificationPreferences(),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))

	u := createUser(t, repo, "jan", "Jan@Example.nl")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "jan@example.nl", u.Email)

	byEmail, err := repo.GetByEmail(ctx, " JAN@example.nl ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.True(t, byEmail.NotificationPreferences.SavedSearchAlerts)

	byName, err := repo.GetByUsername(ctx, "jan")
	require.NoError(t, err)
	require.NotNil(t, byName)

	missing, err := repo.GetByID(ctx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	createUser(t, repo, "jan", "jan@example.nl")

	err := repo.Create(context.Background(), &models.User{
		Username:     "other",
		Email:        "jan@example.nl",
		PasswordHash: "hash",
	})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestUserRepo_Tokens(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))
	u := createUser(t, repo, "piet", "piet@example.nl")

	require.NoError(t, repo.SetVerificationToken(ctx, u.ID, "verify-me"))
	found, err := repo.GetByVerificationToken(ctx, "verify-me")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.IsVerified)

	require.NoError(t, repo.MarkVerified(ctx, u.ID))
	found, err = repo.GetByVerificationToken(ctx, "verify-me")
	require.NoError(t, err)
	assert.Nil(t, found)

	verified, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	now := time.Now().UTC()
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "reset-me", now.Add(time.Hour)))

	valid, err := repo.GetByValidResetToken(ctx, "reset-me", now)
	require.NoError(t, err)
	require.NotNil(t, valid)

	expired, err := repo.GetByValidResetToken(ctx, "reset-me", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, repo.ResetPassword(ctx, u.ID, "new-hash"))
	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", after.PasswordHash)
	assert.Nil(t, after.ResetToken)
	assert.Equal(t, 1, after.TokenVersion)
}

func TestUserRepo_TokenVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))
	u := createUser(t, repo, "kees", "kees@example.nl")

	v, err := repo.GetTokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, repo.BumpTokenVersion(ctx, u.ID))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "other-hash"))

	v, err = repo.GetTokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Error(t, repo.BumpTokenVersion(ctx, 4242))
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))
	u := createUser(t, repo, "anna", "anna@example.nl")

	first := "Anna"
	prefs := models.NotificationPreferences{Marketing: true}
	updated, err := repo.UpdateProfile(ctx, u.ID, models.ProfilePatch{
		FirstName:               &first,
		NotificationPreferences: &prefs,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Anna", updated.FirstName)
	assert.Equal(t, "anna", updated.Username)

	reloaded, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.NotificationPreferences.Marketing)
	assert.False(t, reloaded.NotificationPreferences.EmailAlerts)

	missing, err := repo.UpdateProfile(ctx, 4242, models.ProfilePatch{FirstName: &first})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSavedPropertyRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSavedPropertyRepo(db)

	require.NoError(t, repo.Create(ctx, &models.SavedProperty{UserID: 1, PropertyID: "rijslag-27"}))
	require.NoError(t, repo.Create(ctx, &models.SavedProperty{UserID: 2, PropertyID: "rijslag-27"}))

	err := repo.Create(ctx, &models.SavedProperty{UserID: 1, PropertyID: "rijslag-27"})
	assert.True(t, errors.Is(err, ErrDuplicate))

	saved, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	removed, err := repo.Delete(ctx, 1, "rijslag-27")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, 1, "rijslag-27")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSavedSearchRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedSearchRepo(newTestDB(t))

	minPrice := int64(400000)
	s := &models.SavedSearch{
		UserID: 7,
		Name:   "Centrum",
		SearchCriteria: models.SearchCriteria{
			Query:   "balkon",
			Filters: models.SearchFilters{Location: "Centrum", MinPrice: &minPrice},
		},
	}
	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, models.AlertDaily, s.AlertFrequency)

	got, err := repo.Get(ctx, 7, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "balkon", got.SearchCriteria.Query)
	require.NotNil(t, got.SearchCriteria.Filters.MinPrice)
	assert.Equal(t, int64(400000), *got.SearchCriteria.Filters.MinPrice)

	other, err := repo.Get(ctx, 8, s.ID)
	require.NoError(t, err)
	assert.Nil(t, other)

	got.Name = "Centrum met balkon"
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Centrum met balkon", list[0].Name)

	removed, err := repo.Delete(ctx, 8, s.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Delete(ctx, 7, s.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestSavedSearchRepo_ListDueAndMarkAlerted(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedSearchRepo(newTestDB(t))

	for _, freq := range []string{models.AlertInstant, models.AlertDaily, models.AlertWeekly, models.AlertNever} {
		require.NoError(t, repo.Create(ctx, &models.SavedSearch{UserID: 1, Name: freq, AlertFrequency: freq}))
	}

	now := time.Now().UTC()
	due, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, models.AlertInstant, due[0].AlertFrequency)

	due, err = repo.ListDue(ctx, now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Len(t, due, 2)

	due, err = repo.ListDue(ctx, now.Add(8*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 3)

	for _, s := range due {
		require.NoError(t, repo.MarkAlerted(ctx, s.ID, now.Add(8*24*time.Hour)))
	}
	due, err = repo.ListDue(ctx, now.Add(8*24*time.Hour+time.Minute))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestAlertDue(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	alerted := created.Add(48 * time.Hour)

	tests := []struct {
		name     string
		search   models.SavedSearch
		now      time.Time
		expected bool
	}{
		{"Instant always due", models.SavedSearch{AlertFrequency: models.AlertInstant, CreatedAt: created}, created, true},
		{"Daily before a day", models.SavedSearch{AlertFrequency: models.AlertDaily, CreatedAt: created}, created.Add(23 * time.Hour), false},
		{"Daily after a day", models.SavedSearch{AlertFrequency: models.AlertDaily, CreatedAt: created}, created.Add(24 * time.Hour), true},
		{"Daily counts from last alert", models.SavedSearch{AlertFrequency: models.AlertDaily, CreatedAt: created, LastAlertedAt: &alerted}, alerted.Add(time.Hour), false},
		{"Weekly after six days", models.SavedSearch{AlertFrequency: models.AlertWeekly, CreatedAt: created}, created.Add(6 * 24 * time.Hour), false},
		{"Weekly after seven days", models.SavedSearch{AlertFrequency: models.AlertWeekly, CreatedAt: created}, created.Add(7 * 24 * time.Hour), true},
		{"Never", models.SavedSearch{AlertFrequency: models.AlertNever, CreatedAt: created}, created.Add(365 * 24 * time.Hour), false},
		{"Unknown frequency", models.SavedSearch{AlertFrequency: "hourly", CreatedAt: created}, created.Add(365 * 24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AlertDue(tt.search, tt.now))
		})
	}
}

func TestViewRepo_InsertAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewViewRepo(newTestDB(t))

	u1, u2 := uint(1), uint(2)
	now := time.Now().UTC()
	views := []*models.PropertyView{
		{PropertyID: "rijslag-27", UserID: &u1, SessionID: "s1", ViewedAt: now},
		{PropertyID: "rijslag-27", UserID: &u1, SessionID: "s1", ViewedAt: now},
		{PropertyID: "rijslag-27", UserID: &u2, SessionID: "s2", ViewedAt: now},
		{PropertyID: "rijslag-27", SessionID: "", ViewedAt: now},
		{PropertyID: "groenewegje-76", SessionID: "s3", ViewedAt: now},
	}
	require.NoError(t, repo.InsertViews(ctx, views))
	require.NoError(t, repo.InsertViews(ctx, nil))

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byID := map[string]models.PropertyViewCounts{}
	for _, c := range counts {
		byID[c.PropertyID] = c
	}
	assert.Equal(t, int64(4), byID["rijslag-27"].ViewCount)
	assert.Equal(t, int64(2), byID["rijslag-27"].UniqueUserViews)
	assert.Equal(t, int64(2), byID["rijslag-27"].UniqueSessionViews)
	assert.Equal(t, int64(1), byID["groenewegje-76"].ViewCount)
	assert.Equal(t, int64(0), byID["groenewegje-76"].UniqueUserViews)
}

func TestContactRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewContactRepo(newTestDB(t))

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"eerste", "tweede", "derde"} {
		c := &models.Contact{Name: name, Email: name + "@example.nl", Message: "hallo", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, c))
	}

	recent, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "derde", recent[0].Name)
	assert.Equal(t, "tweede", recent[1].Name)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(ErrDuplicate))
}

func TestMarketReportRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewMarketReportRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &models.MarketReport{Title: "B rapport", Year: 2023, Location: "Den Haag", ReportType: "Jaarrapport", PdfURL: "/b.pdf", IsLatest: true, PublishedAt: base}
	second := &models.MarketReport{Title: "A rapport", Year: 2024, Quarter: "Q1", Location: "Delft", ReportType: "Kwartaalrapport", PdfURL: "/a.pdf", IsLatest: true, PublishedAt: base.Add(24 * time.Hour)}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.NotEmpty(t, first.ID)

	latest, err := repo.List(ctx, MarketReportFilter{LatestOnly: true})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.ID, latest[0].ID)

	year := 2023
	byYear, err := repo.List(ctx, MarketReportFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, first.ID, byYear[0].ID)

	byTitle, err := repo.List(ctx, MarketReportFilter{SortBy: ReportsTitle})
	require.NoError(t, err)
	assert.Equal(t, "A rapport", byTitle[0].Title)

	updated, err := repo.IncrementDownloads(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.DownloadCount)

	missing, err := repo.IncrementDownloads(ctx, "onbekend")
	require.NoError(t, err)
	assert.Nil(t, missing)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	got.IsLatest = true
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsLatest)

	deleted, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
