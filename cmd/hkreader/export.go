package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/emersion/go-mbox"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
)

// runThreadsExport writes a thread's emails as an mbox file, so a
// thread pulled out of an archive can be opened in a regular mail
// client.
func runThreadsExport(ctx context.Context, mgr *archive.Manager, listName, threadID, output string, out *outputWriter) error {
	ml, err := mgr.ListByName(listName)
	if err != nil {
		return err
	}
	thread, err := threadFor(ctx, mgr, ml, threadID, true)
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
	if len(emails) == 0 {
		return fmt.Errorf("thread %s has no emails to export", threadID)
	}

	var w io.Writer = os.Stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	mw := mbox.NewWriter(w)
	for _, e := range emails {
		msg, err := mw.CreateMessage(e.Sender.Address, e.Date)
		if err != nil {
			return fmt.Errorf("failed to start mbox message: %w", err)
		}
		fmt.Fprintf(msg, "From: %s\r\n", formatSender(e))
		fmt.Fprintf(msg, "Date: %s\r\n", e.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
		fmt.Fprintf(msg, "Subject: %s\r\n", e.Subject)
		fmt.Fprintf(msg, "Message-ID: <%s>\r\n", e.MessageID)
		if parent := e.ParentURL; parent != "" {
			fmt.Fprintf(msg, "X-Hyperkitty-Parent: %s\r\n", parent)
		}
		fmt.Fprintf(msg, "X-Mailing-List: %s\r\n", listName)
		fmt.Fprintf(msg, "\r\n%s\r\n", e.Content)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish mbox: %w", err)
	}

	if output != "" && output != "-" {
		out.writeMessage(fmt.Sprintf("Exported %d emails to %s", len(emails), output))
	}
	return nil
}
