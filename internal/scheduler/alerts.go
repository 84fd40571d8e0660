package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/models"
	"makelaardij/server/internal/search"
	"makelaardij/server/internal/store"
)

// SearchSource lists saved searches due for an alert and records sent alerts
type SearchSource interface {
	ListDue(ctx context.Context, now time.Time) ([]models.SavedSearch, error)
	MarkAlerted(ctx context.Context, id uint, at time.Time) error
}

// UserSource looks up the owner of a saved search
type UserSource interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AlertScheduler periodically emails users about new listings matching their saved searches
type AlertScheduler struct {
	searches   SearchSource
	users      UserSource
	properties store.PropertyStore
	sender     mailer.Sender
	baseURL    string
	interval   time.Duration
	logger     *logrus.Logger
	stopChan   chan struct{}
	wg         sync.WaitGroup
	runMutex   sync.Mutex // Ensures runs never overlap
	now        func() time.Time
}

// NewAlertScheduler creates a new alert scheduler
func NewAlertScheduler(searches SearchSource, users UserSource, properties store.PropertyStore, sender mailer.Sender, baseURL string, interval time.Duration, logger *logrus.Logger) *AlertScheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &AlertScheduler{
		searches:   searches,
		users:      users,
		properties: properties,
		sender:     sender,
		baseURL:    baseURL,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

// Start begins the periodic alert runs
func (s *AlertScheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *AlertScheduler) runScheduler() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			s.RunOnce(ctx)
			cancel()
		}
	}
}

// Stop gracefully stops the scheduler
func (s *AlertScheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// RunOnce checks every due saved search and returns the number of alerts sent.
// Failures are logged per search and never stop the run.
func (s *AlertScheduler) RunOnce(ctx context.Context) int {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	now := s.now().UTC()
	due, err := s.searches.ListDue(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due saved searches")
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	props, err := s.properties.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list properties for alerts")
		return 0
	}

	sent := 0
	for _, saved := range due {
		ok, err := s.processSearch(ctx, saved, props, now)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"saved_search_id": saved.ID,
				"user_id":         saved.UserID,
			}).Error("Saved search alert failed")
			continue
		}
		if ok {
			sent++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"due":  len(due),
		"sent": sent,
	}).Info("Saved search alert run completed")
	return sent
}

// processSearch reports whether an alert email was delivered. The search is marked
// alerted unless delivery failed, so a failed send is retried on the next run.
func (s *AlertScheduler) processSearch(ctx context.Context, saved models.SavedSearch, props []models.Property, now time.Time) (bool, error) {
	fresh := NewMatches(saved, props, now)
	if len(fresh) == 0 {
		return false, s.searches.MarkAlerted(ctx, saved.ID, now)
	}

	user, err := s.users.GetByID(ctx, saved.UserID)
	if err != nil {
		return false, err
	}
	if user == nil || !user.IsActive || !user.NotificationPreferences.EmailAlerts || !user.NotificationPreferences.SavedSearchAlerts {
		return false, s.searches.MarkAlerted(ctx, saved.ID, now)
	}

	msg, err := mailer.SearchAlert(*user, saved, fresh, s.baseURL)
	if err != nil {
		return false, err
	}

	delivered := true
	if err := s.sender.Send(ctx, msg); err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			return false, err
		}
		delivered = false
	}

	if err := s.searches.MarkAlerted(ctx, saved.ID, now); err != nil {
		return delivered, err
	}
	return delivered, nil
}

// NewMatches returns the properties matching saved that were listed after its last alert,
// or after it was created when no alert has been sent yet, and no later than until.
// Listings newer than until belong to the next run, which starts from until.
func NewMatches(saved models.SavedSearch, props []models.Property, until time.Time) []models.Property {
	since := saved.CreatedAt
	if saved.LastAlertedAt != nil {
		since = *saved.LastAlertedAt
	}

	criteria := search.FromFilters(saved.SearchCriteria.Query, saved.SearchCriteria.Filters)
	result := search.Apply(props, criteria)

	fresh := make([]models.Property, 0, len(result.Properties))
	for _, p := range result.Properties {
		if p.CreatedAt.After(since) && !p.CreatedAt.After(until) {
			fresh = append(fresh, p)
		}
	}
	return fresh
}
