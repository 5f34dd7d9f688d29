package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailarchive/hkreader/pkg/hkreader/hyperkitty"
)

// addListPhase tracks where the subscribe flow is.
type addListPhase int

const (
	// phaseInput: typing the Hyperkitty server URL.
	phaseInput addListPhase = iota
	// phaseLoading: waiting for the server's list collection.
	phaseLoading
	// phasePick: multi-selecting lists to subscribe to.
	phasePick
	// phaseSubscribing: waiting for the subscription to persist.
	phaseSubscribing
)

// addListView is the subscribe screen: a server URL input that turns
// into a multi-select of the lists that server archives.
type addListView struct {
	theme Theme

	phase    addListPhase
	input    textinput.Model
	server   string
	choices  []hyperkitty.MailingList
	cursor   int
	selected map[string]bool

	width  int
	height int
}

func newAddListView(theme Theme) addListView {
	input := textinput.New()
	input.Placeholder = "https://lists.example.org"
	input.Prompt = "Server URL: "
	input.CharLimit = 256
	return addListView{
		theme:    theme,
		input:    input,
		selected: make(map[string]bool),
	}
}

func (v *addListView) reset() {
	v.phase = phaseInput
	v.choices = nil
	v.cursor = 0
	v.selected = make(map[string]bool)
	v.input.SetValue("")
	v.input.Focus()
}

func (v *addListView) setSize(width, height int) {
	v.width = width
	v.height = height
	v.input.Width = width - len(v.input.Prompt) - 2
}

func (v *addListView) setChoices(server string, lists []hyperkitty.MailingList) {
	v.server = server
	v.choices = lists
	v.cursor = 0
	v.phase = phasePick
}

// failed rolls the flow back to the input after a fetch or subscribe
// error so the user can correct the URL and retry.
func (v *addListView) failed() {
	if v.phase == phaseLoading || v.phase == phaseSubscribing {
		v.phase = phaseInput
		v.input.Focus()
	}
}

// typing reports whether plain characters currently go to the URL
// input (so global bindings like q must not fire).
func (v addListView) typing(active bool) bool {
	return active && v.phase == phaseInput
}

func (v addListView) update(msg tea.KeyMsg, source Source, keys KeyMap) (addListView, tea.Cmd) {
	switch v.phase {
	case phaseInput:
		if msg.Type == tea.KeyEnter {
			server := strings.TrimSpace(v.input.Value())
			if server == "" {
				return v, nil
			}
			v.phase = phaseLoading
			v.input.Blur()
			return v, browseLists(source, server)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case phasePick:
		switch {
		case key.Matches(msg, keys.Up):
			v.cursor = clamp(v.cursor-1, 0, len(v.choices)-1)
		case key.Matches(msg, keys.Down):
			v.cursor = clamp(v.cursor+1, 0, len(v.choices)-1)
		case key.Matches(msg, keys.Select):
			if len(v.choices) > 0 {
				name := v.choices[v.cursor].Name
				v.selected[name] = !v.selected[name]
			}
		case key.Matches(msg, keys.Open):
			names := v.selectedNames()
			if len(names) == 0 {
				return v, nil
			}
			v.phase = phaseSubscribing
			return v, subscribeLists(source, v.server, names)
		}
	}
	return v, nil
}

func (v addListView) selectedNames() []string {
	var names []string
	for _, ml := range v.choices {
		if v.selected[ml.Name] {
			names = append(names, ml.Name)
		}
	}
	return names
}

func (v addListView) view() string {
	switch v.phase {
	case phaseLoading:
		return "\n  fetching lists from " + v.server + "..."
	case phaseSubscribing:
		return "\n  subscribing..."
	case phasePick:
		return v.pickView()
	default:
		return "\n  " + v.theme.EmailHeader.Render("Add a Hyperkitty server") +
			"\n\n  " + v.input.View()
	}
}

func (v addListView) pickView() string {
	var b strings.Builder
	b.WriteString("  " + v.theme.EmailHeader.Render(
		fmt.Sprintf("Lists on %s — space to select, enter to subscribe", v.server)))
	b.WriteString("\n\n")

	height := v.height - 4
	if height < 1 {
		height = 1
	}
	start := 0
	if v.cursor >= height {
		start = v.cursor - height + 1
	}

	for i := start; i < len(v.choices) && i-start < height; i++ {
		ml := v.choices[i]
		check := "[ ]"
		if v.selected[ml.Name] {
			check = "[x]"
		}
		label := fmt.Sprintf("%s %s <%s>", check, ml.DisplayName, ml.Name)
		label = truncate(label, v.width-4)
		if i == v.cursor {
			b.WriteString("  " + v.theme.Cursor.Render(label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v addListView) help() []string {
	switch v.phase {
	case phasePick:
		return []string{"j/k move", "space select", "enter subscribe", "esc cancel"}
	default:
		return []string{"enter fetch lists", "esc cancel"}
	}
}
