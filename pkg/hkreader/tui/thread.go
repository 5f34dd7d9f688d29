package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// threadView renders one thread's emails inside a scrollable viewport.
type threadView struct {
	theme    Theme
	thread   store.Thread
	viewport viewport.Model
	emails   []store.Email
	loading  bool
	sized    bool
}

func newThreadView(theme Theme) threadView {
	return threadView{theme: theme}
}

// open resets the view for a newly selected thread. Emails arrive
// later via emailsLoadedMsg.
func (v *threadView) open(t store.Thread) {
	v.thread = t
	v.emails = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
}

func (v *threadView) setSize(width, height int) {
	if !v.sized {
		v.viewport = viewport.New(width, height)
		v.sized = true
	} else {
		v.viewport.Width = width
		v.viewport.Height = height
	}
	if len(v.emails) > 0 {
		v.viewport.SetContent(v.renderEmails())
	}
}

func (v *threadView) setEmails(emails []store.Email, warn error) {
	v.loading = false
	v.emails = emails
	v.viewport.SetContent(v.renderEmails())
	v.viewport.GotoTop()
}

func (v threadView) update(msg tea.Msg) (threadView, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v threadView) view() string {
	title := v.theme.EmailHeader.Render(v.thread.Subject)
	if v.loading {
		return title + "\n\n  loading emails..."
	}
	return title + "\n" + v.viewport.View()
}

func (v threadView) renderEmails() string {
	var b strings.Builder
	for i, e := range v.emails {
		if i > 0 {
			b.WriteString(v.theme.Dim.Render(strings.Repeat("─", v.viewport.Width)))
			b.WriteByte('\n')
		}
		from := e.SenderName
		if e.Sender.Address != "" {
			from = fmt.Sprintf("%s <%s>", e.SenderName, e.Sender.Address)
		}
		b.WriteString(v.theme.EmailHeader.Render("From: " + from))
		b.WriteByte('\n')
		b.WriteString(v.theme.EmailHeader.Render("Date: " + e.Date.Format("2006-01-02 15:04")))
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(e.Content, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}
