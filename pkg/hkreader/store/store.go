// Package store persists subscribed mailing lists, their threads, and
// emails in a local sqlite database so archives can be re-read without
// touching the network. It also owns the reader-local state the remote
// API knows nothing about: which threads were read and how many
// replies arrived since the last look.
package store

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// MailingList is a subscribed list mirrored from the archive server.
type MailingList struct {
	ID            uint   `gorm:"primaryKey"`
	URL           string `gorm:"uniqueIndex"`
	Name          string `gorm:"index"`
	DisplayName   string
	Description   string
	SubjectPrefix string
	ArchivePolicy string
	ListCreatedAt time.Time
	ThreadsURL    string
	EmailsURL     string
}

// Thread is one archived thread of a subscribed list, plus local read
// state. IsNew is transient: true only on the fetch that first saw the
// thread, never persisted.
type Thread struct {
	ID               uint   `gorm:"primaryKey"`
	URL              string `gorm:"uniqueIndex"`
	MailingListURL   string `gorm:"index"`
	ThreadID         string `gorm:"index"`
	Subject          string
	DateActive       time.Time
	StartingEmailURL string
	EmailsURL        string
	VotesTotal       int
	RepliesCount     int
	NextThreadURL    string
	PrevThreadURL    string

	Read       bool
	NewReplies int
	IsNew      bool `gorm:"-"`
}

// Sender is a deduplicated email author.
type Sender struct {
	ID        uint   `gorm:"primaryKey"`
	Address   string `gorm:"uniqueIndex"`
	MailmanID string
}

// Email is one archived message, content included.
type Email struct {
	ID             uint   `gorm:"primaryKey"`
	URL            string
	MailingListURL string
	MessageID      string
	MessageIDHash  string `gorm:"uniqueIndex"`
	ThreadURL      string `gorm:"index"`
	SenderName     string
	SenderID       uint
	Sender         Sender
	Subject        string
	Date           time.Time
	ParentURL      string
	Content        string
}

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and
// migrates the schema. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", path)
	}
	if err := db.AutoMigrate(&MailingList{}, &Thread{}, &Sender{}, &Email{}); err != nil {
		return nil, errors.Wrap(err, "migrating schema")
	}
	return &Store{db: db}, nil
}

// SubscribeList persists a mailing list. Re-subscribing an already
// stored list refreshes its mutable fields instead of duplicating it.
func (s *Store) SubscribeList(ml *MailingList) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "description", "subject_prefix", "archive_policy",
		}),
	}).Create(ml).Error
	return errors.Wrapf(err, "subscribing %s", ml.Name)
}

// Lists returns all subscribed mailing lists, by name.
func (s *Store) Lists() ([]MailingList, error) {
	var lists []MailingList
	err := s.db.Order("name").Find(&lists).Error
	return lists, errors.Wrap(err, "loading lists")
}

// ListByName returns one subscribed list.
func (s *Store) ListByName(name string) (*MailingList, error) {
	var ml MailingList
	err := s.db.Where("name = ?", name).First(&ml).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Errorf("not subscribed to %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading list %q", name)
	}
	return &ml, nil
}

// RemoveList deletes a list and everything cached under it.
func (s *Store) RemoveList(name string) error {
	ml, err := s.ListByName(name)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mailing_list_url = ?", ml.URL).Delete(&Email{}).Error; err != nil {
			return err
		}
		if err := tx.Where("mailing_list_url = ?", ml.URL).Delete(&Thread{}).Error; err != nil {
			return err
		}
		return tx.Delete(ml).Error
	})
}

// UpsertThread stores a fetched thread. For a thread already cached,
// only the server-owned columns are updated and the growth in
// replies_count is added to NewReplies; the local read flag survives.
// The returned thread carries IsNew for first-seen threads.
func (s *Store) UpsertThread(t *Thread) (*Thread, error) {
	var existing Thread
	err := s.db.Where("url = ?", t.URL).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		t.IsNew = true
		if err := s.db.Create(t).Error; err != nil {
			return nil, errors.Wrapf(err, "storing thread %s", t.ThreadID)
		}
		return t, nil
	case err != nil:
		return nil, errors.Wrapf(err, "loading thread %s", t.ThreadID)
	}

	delta := t.RepliesCount - existing.RepliesCount
	if delta > 0 {
		existing.NewReplies += delta
		existing.Read = false
		log.Debugf("thread %s grew by %d replies", t.ThreadID, delta)
	}
	existing.Subject = t.Subject
	existing.DateActive = t.DateActive
	existing.VotesTotal = t.VotesTotal
	existing.RepliesCount = t.RepliesCount
	existing.NextThreadURL = t.NextThreadURL
	existing.PrevThreadURL = t.PrevThreadURL
	if err := s.db.Save(&existing).Error; err != nil {
		return nil, errors.Wrapf(err, "updating thread %s", t.ThreadID)
	}
	return &existing, nil
}

// Threads returns the cached threads of a list, most recently active
// first. limit <= 0 means all.
func (s *Store) Threads(listURL string, limit int) ([]Thread, error) {
	q := s.db.Where("mailing_list_url = ?", listURL).Order("date_active desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var threads []Thread
	err := q.Find(&threads).Error
	return threads, errors.Wrap(err, "loading threads")
}

// ThreadByID returns one cached thread of a list.
func (s *Store) ThreadByID(listURL, threadID string) (*Thread, error) {
	var t Thread
	err := s.db.Where("mailing_list_url = ? AND thread_id = ?", listURL, threadID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Errorf("thread %q not cached for this list", threadID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading thread %q", threadID)
	}
	return &t, nil
}

// MarkThreadRead flips the thread to read and clears the new-reply
// counter.
func (s *Store) MarkThreadRead(t *Thread) error {
	t.Read = true
	t.NewReplies = 0
	t.IsNew = false
	err := s.db.Model(t).Select("read", "new_replies").Updates(map[string]any{
		"read":        true,
		"new_replies": 0,
	}).Error
	return errors.Wrapf(err, "marking thread %s read", t.ThreadID)
}

// UpsertEmail stores a fetched email, deduplicating the sender by
// address. Emails are keyed on message_id_hash, so re-fetching a
// thread never duplicates messages.
func (s *Store) UpsertEmail(e *Email) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if e.Sender.Address != "" {
			if err := tx.Where(Sender{Address: e.Sender.Address}).
				FirstOrCreate(&e.Sender).Error; err != nil {
				return errors.Wrapf(err, "storing sender %s", e.Sender.Address)
			}
			e.SenderID = e.Sender.ID
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id_hash"}},
			DoNothing: true,
		}).Create(e).Error
		return errors.Wrapf(err, "storing email %s", e.MessageIDHash)
	})
}

// Emails returns a thread's cached emails in date order, senders
// preloaded.
func (s *Store) Emails(threadURL string) ([]Email, error) {
	var emails []Email
	err := s.db.Preload("Sender").
		Where("thread_url = ?", threadURL).
		Order("date").
		Find(&emails).Error
	return emails, errors.Wrap(err, "loading emails")
}

// EmailCount counts a thread's cached emails.
func (s *Store) EmailCount(threadURL string) (int64, error) {
	var n int64
	err := s.db.Model(&Email{}).Where("thread_url = ?", threadURL).Count(&n).Error
	return n, errors.Wrap(err, "counting emails")
}
