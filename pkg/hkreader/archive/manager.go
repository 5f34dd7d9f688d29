// Package archive is the high-level layer the CLI and TUI talk to. It
// joins the Hyperkitty client with the local store: remote fetches are
// persisted on the way through, reads are served from the cache first,
// and the caller never has to think about either side directly.
package archive

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mailarchive/hkreader/pkg/hkreader/hyperkitty"
	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// Manager coordinates one local store and one API client. The client
// is server-agnostic (Hyperkitty hands out absolute URLs), so a single
// manager can hold subscriptions across servers.
type Manager struct {
	client *hyperkitty.Client
	store  *store.Store
}

// NewManager creates a Manager over the given client and store.
func NewManager(client *hyperkitty.Client, st *store.Store) *Manager {
	return &Manager{client: client, store: st}
}

// BrowseLists fetches every list a server archives. Nothing is
// persisted; lists only enter the store on Subscribe.
func (m *Manager) BrowseLists(ctx context.Context, server string) ([]hyperkitty.MailingList, error) {
	return m.client.Lists(ctx, server)
}

// Subscribe fetches the server's lists and persists those whose name
// matches one of names. Unknown names are reported as an error after
// the known ones are stored.
func (m *Manager) Subscribe(ctx context.Context, server string, names []string) ([]store.MailingList, error) {
	remote, err := m.client.Lists(ctx, server)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]hyperkitty.MailingList, len(remote))
	for _, ml := range remote {
		byName[ml.Name] = ml
	}

	var subscribed []store.MailingList
	var missing []string
	for _, name := range names {
		ml, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		rec := listRecord(ml)
		if err := m.store.SubscribeList(&rec); err != nil {
			return subscribed, err
		}
		log.Debugf("subscribed to %s", ml.Name)
		subscribed = append(subscribed, rec)
	}
	if len(missing) > 0 {
		return subscribed, errors.Errorf("no such list(s) on %s: %v", server, missing)
	}
	return subscribed, nil
}

// Unsubscribe removes a list and its cached threads and emails.
func (m *Manager) Unsubscribe(name string) error {
	return m.store.RemoveList(name)
}

// Subscribed returns the locally persisted lists.
func (m *Manager) Subscribed() ([]store.MailingList, error) {
	return m.store.Lists()
}

// ListByName returns one subscribed list.
func (m *Manager) ListByName(name string) (*store.MailingList, error) {
	return m.store.ListByName(name)
}

// Threads serves a list's threads from the cache, most recently
// active first.
func (m *Manager) Threads(ml *store.MailingList, limit int) ([]store.Thread, error) {
	return m.store.Threads(ml.URL, limit)
}

// ThreadByID returns one cached thread of a list.
func (m *Manager) ThreadByID(ml *store.MailingList, threadID string) (*store.Thread, error) {
	return m.store.ThreadByID(ml.URL, threadID)
}

// RefreshThreads fetches the list's threads from the server and folds
// them into the cache. Threads seen for the first time come back with
// IsNew set; threads whose reply count grew carry the delta in
// NewReplies. The full refreshed slice is returned in server order.
func (m *Manager) RefreshThreads(ctx context.Context, ml *store.MailingList) ([]store.Thread, error) {
	m.client.Invalidate(ml.ThreadsURL)
	remote, err := m.client.Threads(ctx, hyperkitty.MailingList{
		URL:     ml.URL,
		Name:    ml.Name,
		Threads: ml.ThreadsURL,
		Emails:  ml.EmailsURL,
	})
	if err != nil {
		return nil, err
	}

	threads := make([]store.Thread, 0, len(remote))
	for _, t := range remote {
		rec := threadRecord(t)
		stored, err := m.store.UpsertThread(&rec)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *stored)
	}
	log.Debugf("refreshed %d threads for %s", len(threads), ml.Name)
	return threads, nil
}

// Emails returns a thread's messages. The cache is authoritative when
// complete; when it holds fewer than replies_count+1 messages (the +1
// is the starting email), the remote thread is fetched and the cache
// topped up first. Partial fetch failures are tolerated: whatever is
// cached afterwards is returned, with the fetch error alongside for
// the caller to report.
func (m *Manager) Emails(ctx context.Context, thread *store.Thread) ([]store.Email, error) {
	stored, err := m.store.EmailCount(thread.URL)
	if err != nil {
		return nil, err
	}
	var fetchErr error
	if int(stored) < thread.RepliesCount+1 {
		fetchErr = m.fetchEmails(ctx, thread)
	}
	emails, err := m.store.Emails(thread.URL)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 && fetchErr != nil {
		return nil, fetchErr
	}
	return emails, fetchErr
}

// MarkRead records that the thread was opened in the reader.
func (m *Manager) MarkRead(thread *store.Thread) error {
	return m.store.MarkThreadRead(thread)
}

// SyncAll refreshes threads for every subscribed list. Returns the
// per-list count of threads that are new or have new replies.
func (m *Manager) SyncAll(ctx context.Context) (map[string]int, error) {
	lists, err := m.store.Lists()
	if err != nil {
		return nil, err
	}
	updated := make(map[string]int, len(lists))
	for i := range lists {
		threads, err := m.RefreshThreads(ctx, &lists[i])
		if err != nil {
			return updated, errors.Wrapf(err, "syncing %s", lists[i].Name)
		}
		n := 0
		for _, t := range threads {
			if t.IsNew || t.NewReplies > 0 {
				n++
			}
		}
		updated[lists[i].Name] = n
	}
	return updated, nil
}

func (m *Manager) fetchEmails(ctx context.Context, thread *store.Thread) error {
	remote, err := m.client.ThreadEmails(ctx, hyperkitty.Thread{
		URL:      thread.URL,
		ThreadID: thread.ThreadID,
		Emails:   thread.EmailsURL,
	})
	for _, e := range remote {
		rec := emailRecord(e)
		if err := m.store.UpsertEmail(&rec); err != nil {
			return err
		}
	}
	return err
}

func listRecord(ml hyperkitty.MailingList) store.MailingList {
	return store.MailingList{
		URL:           ml.URL,
		Name:          ml.Name,
		DisplayName:   ml.DisplayName,
		Description:   ml.Description,
		SubjectPrefix: ml.SubjectPrefix,
		ArchivePolicy: ml.ArchivePolicy,
		ListCreatedAt: ml.CreatedAt,
		ThreadsURL:    ml.Threads,
		EmailsURL:     ml.Emails,
	}
}

func threadRecord(t hyperkitty.Thread) store.Thread {
	return store.Thread{
		URL:              t.URL,
		MailingListURL:   t.MailingList,
		ThreadID:         t.ThreadID,
		Subject:          t.Subject,
		DateActive:       t.DateActive,
		StartingEmailURL: t.StartingEmail,
		EmailsURL:        t.Emails,
		VotesTotal:       t.VotesTotal,
		RepliesCount:     t.RepliesCount,
		NextThreadURL:    t.NextThread,
		PrevThreadURL:    t.PrevThread,
	}
}

func emailRecord(e hyperkitty.Email) store.Email {
	return store.Email{
		URL:            e.URL,
		MailingListURL: e.MailingList,
		MessageID:      e.MessageID,
		MessageIDHash:  e.MessageIDHash,
		ThreadURL:      e.Thread,
		SenderName:     e.SenderName,
		Sender: store.Sender{
			Address:   e.Sender.Address,
			MailmanID: e.Sender.MailmanID,
		},
		Subject:   e.Subject,
		Date:      e.Date,
		ParentURL: e.Parent,
		Content:   e.Content,
	}
}
