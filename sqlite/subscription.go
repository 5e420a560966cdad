package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/quantonganh/newsletter"
)

var subscriberColumns = []string{
	"id", "first_name", "last_name", "email", "country_code", "mobile", "tags",
	"article_mode", "total_count", "topic_distribution", "status", "subscribed_at", "unsubscribed_at",
}

type subscriberService struct {
	db *DB
}

// NewSubscriberService returns a SubscriberService backed by db.
func NewSubscriberService(db *DB) newsletter.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// Insert appends a row. Tags and distribution are stored as JSON text.
func (ss *subscriberService) Insert(s *newsletter.Subscriber) error {
	tags, err := json.Marshal(s.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var distribution sql.NullString
	if s.TopicDistribution != nil {
		raw, err := json.Marshal(s.TopicDistribution)
		if err != nil {
			return fmt.Errorf("failed to encode topic distribution: %w", err)
		}
		distribution = sql.NullString{String: string(raw), Valid: true}
	}

	var unsubscribedAt sql.NullString
	if s.UnsubscribedAt != nil {
		unsubscribedAt = sql.NullString{String: newsletter.FormatTimestamp(*s.UnsubscribedAt), Valid: true}
	}

	_, err = sq.Insert("subscribers").
		Columns(subscriberColumns...).
		Values(
			s.ID, s.FirstName, s.LastName, s.Email,
			nullString(s.CountryCode), nullString(s.Mobile), string(tags),
			string(s.ArticleMode), s.TotalCount, distribution, s.Status,
			newsletter.FormatTimestamp(s.SubscribedAt), unsubscribedAt,
		).
		RunWith(ss.db.sqlDB).
		ExecContext(ss.db.ctx)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return newsletter.Errorf(newsletter.ErrConflict, "Subscriber %s already exists.", s.ID)
		}
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// FindByEmail returns every row of email, oldest first.
func (ss *subscriberService) FindByEmail(email string) ([]newsletter.Subscriber, error) {
	return ss.find(sq.Eq{"email": email})
}

// FindByStatus finds subscribers by status
func (ss *subscriberService) FindByStatus(status string) ([]newsletter.Subscriber, error) {
	return ss.find(sq.Eq{"status": status})
}

func (ss *subscriberService) find(where sq.Eq) ([]newsletter.Subscriber, error) {
	rows, err := sq.Select(subscriberColumns...).
		From("subscribers").
		Where(where).
		OrderBy("subscribed_at", "id").
		RunWith(ss.db.sqlDB).
		QueryContext(ss.db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []newsletter.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		subscribers = append(subscribers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return subscribers, nil
}

// Unsubscribe marks the active rows of email as unsubscribed.
func (ss *subscriberService) Unsubscribe(email string, at time.Time) error {
	res, err := sq.Update("subscribers").
		Set("status", newsletter.StatusUnsubscribed).
		Set("unsubscribed_at", newsletter.FormatTimestamp(at)).
		Where(sq.Eq{"email": email, "status": newsletter.StatusActive}).
		RunWith(ss.db.sqlDB).
		ExecContext(ss.db.ctx)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count updated rows: %w", err)
	}
	if n == 0 {
		return newsletter.Errorf(newsletter.ErrNotFound, "No active subscription for %s.", email)
	}
	return nil
}

func scanSubscriber(rows *sql.Rows) (*newsletter.Subscriber, error) {
	var (
		s                            newsletter.Subscriber
		countryCode, mobile          sql.NullString
		tags, mode, subscribedAt     string
		distribution, unsubscribedAt sql.NullString
	)
	if err := rows.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &countryCode, &mobile, &tags,
		&mode, &s.TotalCount, &distribution, &s.Status, &subscribedAt, &unsubscribedAt,
	); err != nil {
		return nil, err
	}

	s.CountryCode = countryCode.String
	s.Mobile = mobile.String
	s.ArticleMode = newsletter.ArticleMode(mode)

	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	if distribution.Valid {
		if err := json.Unmarshal([]byte(distribution.String), &s.TopicDistribution); err != nil {
			return nil, fmt.Errorf("topic distribution: %w", err)
		}
	}

	var err error
	if s.SubscribedAt, err = newsletter.ParseTimestamp(subscribedAt); err != nil {
		return nil, fmt.Errorf("subscribed_at: %w", err)
	}
	if unsubscribedAt.Valid {
		t, err := newsletter.ParseTimestamp(unsubscribedAt.String)
		if err != nil {
			return nil, fmt.Errorf("unsubscribed_at: %w", err)
		}
		s.UnsubscribedAt = &t
	}

	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
