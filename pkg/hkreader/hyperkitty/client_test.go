package hyperkitty

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// roundTripFunc makes it easy to stub HTTP responses in tests.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// testClient builds a Client whose transport serves canned JSON by URL.
func testClient(t *testing.T, responses map[string]string) *Client {
	t.Helper()
	client := NewClient(WithTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, ok := responses[req.URL.String()]
		if !ok {
			return jsonResponse(http.StatusNotFound, `{"detail": "Not found."}`), nil
		}
		return jsonResponse(http.StatusOK, body), nil
	})))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestListsFollowsPagination(t *testing.T) {
	client := testClient(t, map[string]string{
		"https://lists.example.org/api/lists/?format=json": `{
			"count": 3,
			"next": "https://lists.example.org/api/lists/?format=json&page=2",
			"previous": null,
			"results": [
				{"url": "https://lists.example.org/api/lists/a@example.org/", "name": "a@example.org", "display_name": "A"},
				{"url": "https://lists.example.org/api/lists/b@example.org/", "name": "b@example.org", "display_name": "B"}
			]
		}`,
		"https://lists.example.org/api/lists/?format=json&page=2": `{
			"count": 3,
			"next": null,
			"previous": "https://lists.example.org/api/lists/?format=json",
			"results": [
				{"url": "https://lists.example.org/api/lists/c@example.org/", "name": "c@example.org", "display_name": "C"}
			]
		}`,
	})

	lists, err := client.Lists(context.Background(), "https://lists.example.org")
	if err != nil {
		t.Fatalf("Lists() error = %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("Lists() returned %d lists, want 3", len(lists))
	}
	if got, want := lists[2].Name, "c@example.org"; got != want {
		t.Errorf("last list = %q, want %q", got, want)
	}
}

func TestListsRejectsBadServerURL(t *testing.T) {
	client := testClient(t, nil)
	if _, err := client.Lists(context.Background(), "not a url"); err == nil {
		t.Fatal("Lists() with bad URL succeeded, want error")
	}
}

func TestFetchAllHonorsPageCap(t *testing.T) {
	// A page whose next link points at itself never terminates
	// without the cap.
	const loop = "https://lists.example.org/api/lists/?format=json"
	client := testClient(t, map[string]string{
		loop: `{"count": 1, "next": "` + loop + `", "previous": null, "results": []}`,
	})

	_, err := client.Lists(context.Background(), "https://lists.example.org")
	if err == nil {
		t.Fatal("Lists() on looping pagination succeeded, want page cap error")
	}
	if !strings.Contains(err.Error(), "pages") {
		t.Errorf("error = %v, want mention of page cap", err)
	}
}

func TestStatusError(t *testing.T) {
	client := NewClient(WithTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{"detail": "no"}`), nil
	})))
	defer client.Close()

	_, err := client.Email(context.Background(), "https://lists.example.org/api/email/x/")
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("Email() error = %T (%v), want *StatusError", err, err)
	}
	if statusErr.Code != http.StatusForbidden {
		t.Errorf("StatusError.Code = %d, want 403", statusErr.Code)
	}
}

func TestThreadEmailsFanOut(t *testing.T) {
	responses := map[string]string{
		"https://lists.example.org/api/thread/t1/emails/": `{
			"count": 2, "next": null, "previous": null,
			"results": [
				{"url": "https://lists.example.org/api/email/e1/"},
				{"url": "https://lists.example.org/api/email/e2/"}
			]
		}`,
		"https://lists.example.org/api/email/e1/": `{
			"url": "https://lists.example.org/api/email/e1/",
			"message_id": "m1", "message_id_hash": "h1",
			"subject": "first", "content": "hello",
			"sender": {"address": "ann@example.org", "mailman_id": "ann"}
		}`,
		"https://lists.example.org/api/email/e2/": `{
			"url": "https://lists.example.org/api/email/e2/",
			"message_id": "m2", "message_id_hash": "h2",
			"subject": "second", "content": "world",
			"sender": {"address": "bob@example.org", "mailman_id": "bob"}
		}`,
	}
	client := testClient(t, responses)

	emails, err := client.ThreadEmails(context.Background(), Thread{
		Emails: "https://lists.example.org/api/thread/t1/emails/",
	})
	if err != nil {
		t.Fatalf("ThreadEmails() error = %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("ThreadEmails() returned %d emails, want 2", len(emails))
	}
	// Input order is preserved regardless of fetch completion order.
	if emails[0].MessageID != "m1" || emails[1].MessageID != "m2" {
		t.Errorf("emails out of order: %q, %q", emails[0].MessageID, emails[1].MessageID)
	}
	if emails[0].Content != "hello" {
		t.Errorf("email content = %q, want %q", emails[0].Content, "hello")
	}
}

func TestThreadEmailsPartialFailure(t *testing.T) {
	responses := map[string]string{
		"https://lists.example.org/api/thread/t1/emails/": `{
			"count": 2, "next": null, "previous": null,
			"results": [
				{"url": "https://lists.example.org/api/email/e1/"},
				{"url": "https://lists.example.org/api/email/missing/"}
			]
		}`,
		"https://lists.example.org/api/email/e1/": `{
			"url": "https://lists.example.org/api/email/e1/",
			"message_id": "m1", "message_id_hash": "h1", "content": "hello",
			"sender": {"address": "ann@example.org"}
		}`,
	}
	client := testClient(t, responses)

	emails, err := client.ThreadEmails(context.Background(), Thread{
		Emails: "https://lists.example.org/api/thread/t1/emails/",
	})
	if err == nil {
		t.Fatal("ThreadEmails() with a missing email succeeded, want partial error")
	}
	if len(emails) != 1 {
		t.Fatalf("ThreadEmails() returned %d emails alongside the error, want 1", len(emails))
	}
	if emails[0].MessageID != "m1" {
		t.Errorf("surviving email = %q, want m1", emails[0].MessageID)
	}
}

func TestThreadsCachedUntilInvalidate(t *testing.T) {
	var calls atomic.Int32
	const threadsURL = "https://lists.example.org/api/list/a@example.org/threads/"
	client := NewClient(WithTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusOK, `{
			"count": 1, "next": null, "previous": null,
			"results": [{"thread_id": "t1", "subject": "hi", "emails": "", "url": ""}]
		}`), nil
	})))
	defer client.Close()

	ml := MailingList{Threads: threadsURL}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.Threads(ctx, ml); err != nil {
			t.Fatalf("Threads() error = %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server hit %d times for cached threads, want 1", got)
	}

	client.Invalidate(threadsURL)
	if _, err := client.Threads(ctx, ml); err != nil {
		t.Fatalf("Threads() after Invalidate error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("server hit %d times after invalidate, want 2", got)
	}
}
