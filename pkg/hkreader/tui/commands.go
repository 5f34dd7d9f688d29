package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailarchive/hkreader/pkg/hkreader/hyperkitty"
	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// Messages delivered by the async commands below. All archive and
// network work happens inside tea.Cmd goroutines; the model only ever
// mutates in Update.

type listsLoadedMsg struct {
	lists []store.MailingList
}

type threadsLoadedMsg struct {
	listURL string
	threads []store.Thread
}

type emailsLoadedMsg struct {
	threadURL string
	emails    []store.Email
	// warn is a non-fatal fetch error: some emails were unreachable
	// but the cached remainder is still worth showing.
	warn error
}

type remoteListsMsg struct {
	server string
	lists  []hyperkitty.MailingList
}

type subscribedMsg struct {
	lists []store.MailingList
}

type errMsg struct {
	err error
}

func loadSubscribed(source Source) tea.Cmd {
	return func() tea.Msg {
		lists, err := source.Subscribed()
		if err != nil {
			return errMsg{err}
		}
		return listsLoadedMsg{lists: lists}
	}
}

func loadThreads(source Source, ml store.MailingList, refresh bool) tea.Cmd {
	return func() tea.Msg {
		var threads []store.Thread
		var err error
		if refresh {
			threads, err = source.RefreshThreads(context.Background(), &ml)
		} else {
			threads, err = source.Threads(&ml, 0)
			// A list opened for the first time has nothing cached
			// yet; fall through to the server.
			if err == nil && len(threads) == 0 {
				threads, err = source.RefreshThreads(context.Background(), &ml)
			}
		}
		if err != nil {
			return errMsg{err}
		}
		return threadsLoadedMsg{listURL: ml.URL, threads: threads}
	}
}

func loadEmails(source Source, thread store.Thread) tea.Cmd {
	return func() tea.Msg {
		emails, err := source.Emails(context.Background(), &thread)
		if err != nil && len(emails) == 0 {
			return errMsg{err}
		}
		return emailsLoadedMsg{threadURL: thread.URL, emails: emails, warn: err}
	}
}

func browseLists(source Source, server string) tea.Cmd {
	return func() tea.Msg {
		lists, err := source.BrowseLists(context.Background(), server)
		if err != nil {
			return errMsg{err}
		}
		return remoteListsMsg{server: server, lists: lists}
	}
}

func subscribeLists(source Source, server string, names []string) tea.Cmd {
	return func() tea.Msg {
		lists, err := source.Subscribe(context.Background(), server, names)
		if err != nil {
			return errMsg{err}
		}
		return subscribedMsg{lists: lists}
	}
}

func markRead(source Source, thread store.Thread) tea.Cmd {
	return func() tea.Msg {
		// Read-state bookkeeping; a failure here is not worth
		// interrupting the reader for.
		_ = source.MarkRead(&thread)
		return nil
	}
}
