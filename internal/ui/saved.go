package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/saved"
	"github.com/notepid/club_companion/internal/view"
)

type savedTab struct {
	run   runner
	saved *saved.List

	width  int
	height int
	list   list.Model
}

func newSavedTab(a *app.App, env view.Env, run runner) (*savedTab, error) {
	l, err := saved.New(env, a.API)
	if err != nil {
		return nil, err
	}
	l.Watch(nil)
	return &savedTab{run: run, saved: l, list: newList(nil, 0, 0)}, nil
}

func (t *savedTab) Init() tea.Cmd { return t.Reload() }

func (t *savedTab) Reload() tea.Cmd {
	return t.run(event.TabSaved, "load", t.saved.Load)
}

func (t *savedTab) SetSize(w, h int) {
	t.width, t.height = w, h
	t.list.SetSize(w, max(h-8, 4))
}

func (t *savedTab) Capturing() bool { return false }

func (t *savedTab) Unmount() { t.saved.Unmount() }

func (t *savedTab) refresh() {
	st := t.saved.State()
	items := make([]list.Item, 0, len(st.Clubs))
	for _, c := range st.Clubs {
		marker := "▸ "
		if c.ID == st.Expanded {
			marker = "▾ "
		}
		items = append(items, item{
			id:    c.ID,
			title: marker + c.Name,
			desc:  fmt.Sprintf("%d members · %s", c.MemberCount, strings.Join(c.Interests, ", ")),
		})
	}
	setItems(&t.list, items)
}

func (t *savedTab) Update(msg tea.Msg) tea.Cmd {
	defer t.refresh()

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	it, selected := t.list.SelectedItem().(item)
	switch key.String() {
	case "enter", " ":
		if selected {
			t.saved.Expand(it.id)
		}
		return nil
	case "d", "delete":
		if selected {
			id := it.id
			return t.run(event.TabSaved, "remove", func(ctx context.Context) error {
				return t.saved.Remove(ctx, id)
			})
		}
		return nil
	}
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return cmd
}

func (t *savedTab) View() string {
	t.refresh()
	st := t.saved.State()
	if !st.Loaded {
		if st.Loading {
			return "Loading saved clubs..."
		}
		return "Saved clubs not loaded."
	}
	if len(st.Clubs) == 0 {
		return dimStyle.Render("You haven't saved any clubs yet. Find some in the Search Clubs tab.")
	}

	var b strings.Builder
	t.list.Title = fmt.Sprintf("Saved clubs (%d)", len(st.Clubs))
	b.WriteString(t.list.View() + "\n")
	for _, c := range st.Clubs {
		if c.ID != st.Expanded {
			continue
		}
		var d strings.Builder
		d.WriteString(titleStyle.Render(c.Name) + "\n" + c.Description)
		if c.ContactEmail != "" {
			d.WriteString("\nContact: " + c.ContactEmail)
		}
		b.WriteString(panelStyle.Render(d.String()) + "\n")
	}
	b.WriteString(helpStyle.Render("enter expand · d remove"))
	return b.String()
}
