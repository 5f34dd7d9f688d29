package tui

import (
	"context"

	"github.com/mailarchive/hkreader/pkg/hkreader/hyperkitty"
	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// Source is the archive backend the TUI renders. *archive.Manager
// implements it; tests substitute a fake.
type Source interface {
	Subscribed() ([]store.MailingList, error)
	Threads(ml *store.MailingList, limit int) ([]store.Thread, error)
	RefreshThreads(ctx context.Context, ml *store.MailingList) ([]store.Thread, error)
	Emails(ctx context.Context, thread *store.Thread) ([]store.Email, error)
	MarkRead(thread *store.Thread) error
	BrowseLists(ctx context.Context, server string) ([]hyperkitty.MailingList, error)
	Subscribe(ctx context.Context, server string, names []string) ([]store.MailingList, error)
}
