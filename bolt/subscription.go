package bolt

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/go-errors/errors"

	"github.com/quantonganh/newsletter"
)

type subscriberService struct {
	db *DB
}

// NewSubscriberService returns a SubscriberService backed by db.
func NewSubscriberService(db *DB) newsletter.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// Insert saves a new row. Subscriber ids are unique.
func (ss *subscriberService) Insert(s *newsletter.Subscriber) error {
	var existing newsletter.Subscriber
	err := ss.db.stormDB.One("ID", s.ID, &existing)
	if err == nil {
		return newsletter.Errorf(newsletter.ErrConflict, "Subscriber %s already exists.", s.ID)
	}
	if !errors.Is(err, storm.ErrNotFound) {
		return errors.Errorf("failed to look up %s: %v", s.ID, err)
	}

	if err := ss.db.stormDB.Save(s); err != nil {
		return errors.Errorf("failed to save: %v", err)
	}

	return nil
}

// FindByEmail returns every row of email, oldest first.
func (ss *subscriberService) FindByEmail(email string) ([]newsletter.Subscriber, error) {
	return ss.find("Email", email)
}

// FindByStatus finds subscribers by status
func (ss *subscriberService) FindByStatus(status string) ([]newsletter.Subscriber, error) {
	return ss.find("Status", status)
}

func (ss *subscriberService) find(field, value string) ([]newsletter.Subscriber, error) {
	var subscribers []newsletter.Subscriber
	if err := ss.db.stormDB.Find(field, value, &subscribers); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return []newsletter.Subscriber{}, nil
		}
		return nil, errors.Errorf("failed to find by %s: %v", field, err)
	}

	return subscribers, nil
}

// Unsubscribe marks the active rows of email as unsubscribed.
func (ss *subscriberService) Unsubscribe(email string, at time.Time) error {
	subscribers, err := ss.FindByEmail(email)
	if err != nil {
		return err
	}

	updated := 0
	for i := range subscribers {
		s := &subscribers[i]
		if s.Status != newsletter.StatusActive {
			continue
		}

		unsubscribedAt := at
		s.Status = newsletter.StatusUnsubscribed
		s.UnsubscribedAt = &unsubscribedAt
		if err := ss.db.stormDB.Save(s); err != nil {
			return errors.Errorf("failed to save: %v", err)
		}
		updated++
	}

	if updated == 0 {
		return newsletter.Errorf(newsletter.ErrNotFound, "No active subscription for %s.", email)
	}

	return nil
}
