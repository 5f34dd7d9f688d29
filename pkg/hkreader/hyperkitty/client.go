// Package hyperkitty is a client for the REST API exposed by
// Hyperkitty, GNU Mailman's web archiver. It speaks the paginated
// collection format the server uses for lists, threads, and emails,
// and caches responses per URL so UI layers can re-ask cheaply.
package hyperkitty

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	resty "resty.dev/v3"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPageCap = 50
	defaultWorkers = 8

	retryCount = 2
)

// UserAgent is reported to the archive server on every request.
var UserAgent = "hkreader/" + Version

// Version is the app version as reported to servers.
var Version = "unspecified"

// StatusError is returned when the server answers with a non-2xx code.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hyperkitty: %s returned HTTP %d", e.URL, e.Code)
}

// Client talks to one or more Hyperkitty servers. Collection URLs are
// absolute in every API response, so the client is not bound to a
// single base URL; callers pass the server root only when enumerating
// its lists. Fetched threads and emails are cached per URL until
// Refresh is called.
type Client struct {
	m    sync.RWMutex
	http *resty.Client

	pageCap int
	workers int

	threadCache map[string][]Thread
	emailCache  map[string]Email
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithTransport replaces the HTTP transport. Used by tests to stub
// server responses.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

// WithPageCap bounds how many pages of a single collection the client
// will follow before giving up. Guards against servers with broken
// next links or absurd page sizes.
func WithPageCap(n int) Option {
	return func(c *Client) { c.pageCap = n }
}

// WithWorkers sets the fan-out width for bulk email fetches.
func WithWorkers(n int) Option {
	return func(c *Client) { c.workers = n }
}

// NewClient creates a Client with retry on transient failures.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        resty.New(),
		pageCap:     defaultPageCap,
		workers:     defaultWorkers,
		threadCache: make(map[string][]Thread),
		emailCache:  make(map[string]Email),
	}
	c.http.SetTimeout(defaultTimeout)
	c.http.SetRetryCount(retryCount)
	c.http.SetHeader("User-Agent", UserAgent)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// Refresh drops all cached pages so the next calls hit the server.
func (c *Client) Refresh() {
	c.m.Lock()
	defer c.m.Unlock()
	c.threadCache = make(map[string][]Thread)
	c.emailCache = make(map[string]Email)
}

// Invalidate drops one cached thread collection so the next Threads
// call for it hits the server.
func (c *Client) Invalidate(collectionURL string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.threadCache, collectionURL)
}

// ListsURL returns the list collection endpoint for a server root.
func ListsURL(server string) string {
	return strings.TrimRight(server, "/") + "/api/lists/?format=json"
}

// Lists fetches every mailing list the server archives, following
// pagination to the end.
func (c *Client) Lists(ctx context.Context, server string) ([]MailingList, error) {
	if _, err := url.ParseRequestURI(server); err != nil {
		return nil, errors.Wrapf(err, "invalid server URL %q", server)
	}
	return fetchAll[MailingList](ctx, c, ListsURL(server))
}

// Threads fetches all thread pages of a mailing list, newest first as
// the server orders them. Results are cached per collection URL.
func (c *Client) Threads(ctx context.Context, ml MailingList) ([]Thread, error) {
	c.m.RLock()
	cached, ok := c.threadCache[ml.Threads]
	c.m.RUnlock()
	if ok {
		return cached, nil
	}

	threads, err := fetchAll[Thread](ctx, c, ml.Threads)
	if err != nil {
		return nil, err
	}
	c.m.Lock()
	c.threadCache[ml.Threads] = threads
	c.m.Unlock()
	return threads, nil
}

// ThreadEmails fetches the full emails of a thread. The thread's email
// collection only carries partial records, so each email's own URL is
// fetched concurrently for the content. Partial failure is tolerated:
// the successes are returned alongside a multierror describing the
// rest, mirroring how a reader wants to show what it could get.
func (c *Client) ThreadEmails(ctx context.Context, thread Thread) ([]Email, error) {
	partial, err := fetchAll[Email](ctx, c, thread.Emails)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(partial))
	for _, e := range partial {
		urls = append(urls, e.URL)
	}
	return c.FetchEmails(ctx, urls)
}

// Email fetches one full email by its API URL.
func (c *Client) Email(ctx context.Context, emailURL string) (Email, error) {
	c.m.RLock()
	cached, ok := c.emailCache[emailURL]
	c.m.RUnlock()
	if ok {
		return cached, nil
	}

	var email Email
	if err := c.getJSON(ctx, emailURL, &email); err != nil {
		return Email{}, err
	}
	c.m.Lock()
	c.emailCache[emailURL] = email
	c.m.Unlock()
	return email, nil
}

// FetchEmails fans out over the given email URLs with a bounded worker
// pool. Successes come back ordered by input position; failures are
// aggregated and returned together with whatever succeeded.
func (c *Client) FetchEmails(ctx context.Context, urls []string) ([]Email, error) {
	type result struct {
		idx   int
		email Email
		err   error
	}

	sem := make(chan struct{}, c.workers)
	results := make(chan result, len(urls))
	for i, u := range urls {
		go func(idx int, u string) {
			sem <- struct{}{}
			defer func() { <-sem }()
			email, err := c.Email(ctx, u)
			results <- result{idx: idx, email: email, err: err}
		}(i, u)
	}

	ordered := make([]*Email, len(urls))
	var merr *multierror.Error
	for range urls {
		r := <-results
		if r.err != nil {
			log.Debugf("email fetch failed: %v", r.err)
			merr = multierror.Append(merr, r.err)
			continue
		}
		email := r.email
		ordered[r.idx] = &email
	}

	emails := make([]Email, 0, len(urls))
	for _, e := range ordered {
		if e != nil {
			emails = append(emails, *e)
		}
	}
	return emails, merr.ErrorOrNil()
}

// getJSON performs one GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		Get(u)
	if err != nil {
		return errors.Wrapf(err, "GET %s", u)
	}
	if !resp.IsSuccess() {
		return &StatusError{URL: u, Code: resp.StatusCode()}
	}
	return nil
}

// fetchAll walks a paginated collection from first until the server
// reports no next page, or the page cap trips.
func fetchAll[T any](ctx context.Context, c *Client, first string) ([]T, error) {
	var all []T
	next := first
	for pages := 0; next != ""; pages++ {
		if pages >= c.pageCap {
			return nil, errors.Errorf("collection %s exceeds %d pages", first, c.pageCap)
		}
		var page Page[T]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		log.Debugf("fetched page %d of %s (%d results)", pages+1, first, len(page.Results))
		next = page.Next
	}
	return all, nil
}
