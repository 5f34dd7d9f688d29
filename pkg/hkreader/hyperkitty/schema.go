package hyperkitty

import (
	"time"
)

// Page is one page of a paginated Hyperkitty collection. Hyperkitty
// (Django REST framework underneath) returns absolute URLs in Next and
// Previous, or null when there is no adjacent page.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// MailingList mirrors one entry of /api/lists. The Threads and Emails
// fields are collection URLs handed out by the server; all further
// navigation follows them rather than rebuilding paths.
type MailingList struct {
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	Description   string    `json:"description"`
	SubjectPrefix string    `json:"subject_prefix"`
	ArchivePolicy string    `json:"archive_policy"`
	CreatedAt     time.Time `json:"created_at"`
	Threads       string    `json:"threads"`
	Emails        string    `json:"emails"`
}

// Thread mirrors one entry of a list's thread collection.
type Thread struct {
	URL           string    `json:"url"`
	MailingList   string    `json:"mailinglist"`
	ThreadID      string    `json:"thread_id"`
	Subject       string    `json:"subject"`
	DateActive    time.Time `json:"date_active"`
	StartingEmail string    `json:"starting_email"`
	Emails        string    `json:"emails"`
	VotesTotal    int       `json:"votes_total"`
	RepliesCount  int       `json:"replies_count"`
	NextThread    string    `json:"next_thread"`
	PrevThread    string    `json:"prev_thread"`
}

// Sender is the nested sender record of an email.
type Sender struct {
	Address   string `json:"address"`
	MailmanID string `json:"mailman_id"`
	Emails    string `json:"emails"`
}

// Email mirrors one archived message. Thread email collections return
// partial records; Content is only populated when the email's own URL
// is fetched.
type Email struct {
	URL           string    `json:"url"`
	MailingList   string    `json:"mailinglist"`
	MessageID     string    `json:"message_id"`
	MessageIDHash string    `json:"message_id_hash"`
	Thread        string    `json:"thread"`
	Sender        Sender    `json:"sender"`
	SenderName    string    `json:"sender_name"`
	Subject       string    `json:"subject"`
	Date          time.Time `json:"date"`
	Parent        string    `json:"parent"`
	Children      []string  `json:"children"`
	Content       string    `json:"content"`
}
