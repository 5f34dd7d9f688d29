package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// threadOutput is JSON output format for thread lists
type threadOutput struct {
	ThreadID   string `json:"threadId"`
	Subject    string `json:"subject"`
	Replies    int    `json:"replies"`
	NewReplies int    `json:"newReplies,omitempty"`
	Unread     bool   `json:"unread"`
	DateActive string `json:"dateActive"`
	URL        string `json:"url"`
}

// emailOutput is JSON output format for thread emails
type emailOutput struct {
	MessageID string `json:"messageId"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
}

func runThreadsList(ctx context.Context, mgr *archive.Manager, listName string, refresh bool, limit int, out *outputWriter) error {
	ml, err := mgr.ListByName(listName)
	if err != nil {
		return err
	}

	var threads []store.Thread
	if refresh {
		out.writeVerbose("Refreshing threads for %s", listName)
		threads, err = mgr.RefreshThreads(ctx, ml)
	} else {
		threads, err = mgr.Threads(ml, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to load threads: %w", err)
	}
	if limit > 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	if len(threads) == 0 {
		out.writeMessage("No threads cached. Try --refresh.")
		return nil
	}

	if out.json {
		output := make([]threadOutput, len(threads))
		for i, t := range threads {
			output[i] = threadOutput{
				ThreadID:   t.ThreadID,
				Subject:    t.Subject,
				Replies:    t.RepliesCount,
				NewReplies: t.NewReplies,
				Unread:     !t.Read,
				DateActive: t.DateActive.Format("2006-01-02T15:04:05Z07:00"),
				URL:        t.URL,
			}
		}
		return out.writeJSON(output)
	}

	newMark := color.New(color.FgGreen, color.Bold).SprintFunc()
	rows := make([][]string, len(threads))
	for i, t := range threads {
		marker := " "
		if t.IsNew || t.NewReplies > 0 {
			marker = newMark("*")
		}
		replies := strconv.Itoa(t.RepliesCount)
		if t.NewReplies > 0 {
			replies = fmt.Sprintf("%d (+%d)", t.RepliesCount, t.NewReplies)
		}
		rows[i] = []string{
			marker,
			t.ThreadID,
			replies,
			formatDate(t.DateActive),
			truncateString(t.Subject, 70),
		}
	}
	return out.writeTable([]string{"", "THREAD", "REPLIES", "ACTIVE", "SUBJECT"}, rows)
}

func runThreadsRead(ctx context.Context, mgr *archive.Manager, listName, threadID string, refresh bool, out *outputWriter) error {
	ml, err := mgr.ListByName(listName)
	if err != nil {
		return err
	}
	thread, err := threadFor(ctx, mgr, ml, threadID, refresh)
	if err != nil {
		return err
	}

	emails, err := mgr.Emails(ctx, thread)
	if err != nil && len(emails) == 0 {
		return fmt.Errorf("failed to load emails: %w", err)
	}
	if err != nil {
		out.writeVerbose("Partial fetch: %v", err)
	}

	if out.json {
		output := make([]emailOutput, len(emails))
		for i, e := range emails {
			output[i] = emailOutput{
				MessageID: e.MessageID,
				From:      formatSender(e),
				Subject:   e.Subject,
				Date:      e.Date.Format("2006-01-02T15:04:05Z07:00"),
				Body:      renderBody(e.Content),
			}
		}
		if err := out.writeJSON(output); err != nil {
			return err
		}
	} else {
		for _, e := range emails {
			text, err := formatEmail(listName, e)
			if err != nil {
				return err
			}
			out.writeMessage(text)
		}
	}

	return mgr.MarkRead(thread)
}

// threadFor resolves a thread by ID, optionally refreshing the list's
// threads first so an ID seen on the server but not yet cached works.
func threadFor(ctx context.Context, mgr *archive.Manager, ml *store.MailingList, threadID string, refresh bool) (*store.Thread, error) {
	thread, err := mgr.ThreadByID(ml, threadID)
	if err == nil || !refresh {
		if err != nil {
			return nil, fmt.Errorf("%w (try --refresh)", err)
		}
		return thread, nil
	}
	if _, err := mgr.RefreshThreads(ctx, ml); err != nil {
		return nil, fmt.Errorf("failed to refresh threads: %w", err)
	}
	return mgr.ThreadByID(ml, threadID)
}
