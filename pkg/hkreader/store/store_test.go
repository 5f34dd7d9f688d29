package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	return s
}

func sampleList() MailingList {
	return MailingList{
		URL:         "https://lists.example.org/api/lists/dev@example.org/",
		Name:        "dev@example.org",
		DisplayName: "Dev",
		Description: "Development discussion",
		ThreadsURL:  "https://lists.example.org/api/lists/dev@example.org/threads/",
	}
}

func sampleThread(id string, replies int) Thread {
	return Thread{
		URL:            "https://lists.example.org/api/thread/" + id + "/",
		MailingListURL: "https://lists.example.org/api/lists/dev@example.org/",
		ThreadID:       id,
		Subject:        "subject of " + id,
		DateActive:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EmailsURL:      "https://lists.example.org/api/thread/" + id + "/emails/",
		RepliesCount:   replies,
	}
}

func TestSubscribeListIdempotent(t *testing.T) {
	s := testStore(t)

	ml := sampleList()
	require.NoError(t, s.SubscribeList(&ml))

	again := sampleList()
	again.Description = "updated description"
	require.NoError(t, s.SubscribeList(&again))

	lists, err := s.Lists()
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "updated description", lists[0].Description)
}

func TestListByNameUnknown(t *testing.T) {
	s := testStore(t)
	_, err := s.ListByName("nobody@example.org")
	assert.Error(t, err)
}

func TestUpsertThreadNewAndGrowth(t *testing.T) {
	s := testStore(t)

	first, err := s.UpsertThread(ptr(sampleThread("t1", 2)))
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Zero(t, first.NewReplies)

	// Same reply count: nothing new.
	same, err := s.UpsertThread(ptr(sampleThread("t1", 2)))
	require.NoError(t, err)
	assert.False(t, same.IsNew)
	assert.Zero(t, same.NewReplies)

	// Reply count grew by 3: delta lands in NewReplies and the
	// thread becomes unread again.
	require.NoError(t, s.MarkThreadRead(same))
	grown, err := s.UpsertThread(ptr(sampleThread("t1", 5)))
	require.NoError(t, err)
	assert.False(t, grown.IsNew)
	assert.Equal(t, 3, grown.NewReplies)
	assert.False(t, grown.Read)

	threads, err := s.Threads(grown.MailingListURL, 0)
	require.NoError(t, err)
	require.Len(t, threads, 1)
}

func TestMarkThreadReadSurvivesReload(t *testing.T) {
	s := testStore(t)

	stored, err := s.UpsertThread(ptr(sampleThread("t1", 4)))
	require.NoError(t, err)
	stored.NewReplies = 2
	require.NoError(t, s.MarkThreadRead(stored))

	reloaded, err := s.ThreadByID(stored.MailingListURL, "t1")
	require.NoError(t, err)
	assert.True(t, reloaded.Read)
	assert.Zero(t, reloaded.NewReplies)
}

func TestUpsertEmailDedupes(t *testing.T) {
	s := testStore(t)

	email := Email{
		URL:           "https://lists.example.org/api/email/e1/",
		MessageID:     "m1@example.org",
		MessageIDHash: "h1",
		ThreadURL:     "https://lists.example.org/api/thread/t1/",
		SenderName:    "Ann",
		Sender:        Sender{Address: "ann@example.org", MailmanID: "ann"},
		Subject:       "hello",
		Date:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Content:       "first post",
	}
	require.NoError(t, s.UpsertEmail(ptr(email)))
	require.NoError(t, s.UpsertEmail(ptr(email)))

	reply := email
	reply.URL = "https://lists.example.org/api/email/e2/"
	reply.MessageID = "m2@example.org"
	reply.MessageIDHash = "h2"
	reply.Date = reply.Date.Add(time.Hour)
	reply.Content = "a reply"
	require.NoError(t, s.UpsertEmail(ptr(reply)))

	emails, err := s.Emails("https://lists.example.org/api/thread/t1/")
	require.NoError(t, err)
	require.Len(t, emails, 2)

	// Date order, sender preloaded and deduplicated.
	assert.Equal(t, "first post", emails[0].Content)
	assert.Equal(t, "ann@example.org", emails[0].Sender.Address)
	assert.Equal(t, emails[0].SenderID, emails[1].SenderID)

	n, err := s.EmailCount("https://lists.example.org/api/thread/t1/")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRemoveListCascades(t *testing.T) {
	s := testStore(t)

	ml := sampleList()
	require.NoError(t, s.SubscribeList(&ml))
	thread, err := s.UpsertThread(ptr(sampleThread("t1", 1)))
	require.NoError(t, err)
	require.NoError(t, s.UpsertEmail(&Email{
		MessageIDHash:  "h1",
		MailingListURL: ml.URL,
		ThreadURL:      thread.URL,
		Sender:         Sender{Address: "ann@example.org"},
	}))

	require.NoError(t, s.RemoveList(ml.Name))

	lists, err := s.Lists()
	require.NoError(t, err)
	assert.Empty(t, lists)

	threads, err := s.Threads(ml.URL, 0)
	require.NoError(t, err)
	assert.Empty(t, threads)

	n, err := s.EmailCount(thread.URL)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func ptr[T any](v T) *T { return &v }
