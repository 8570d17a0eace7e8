package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/members"
	"github.com/notepid/club_companion/internal/view"
)

type membersTab struct {
	run     runner
	members *members.View

	width   int
	height  int
	list    list.Model
	compose textarea.Model
	target  *item
}

func newMembersTab(a *app.App, env view.Env, run runner) (*membersTab, error) {
	v, err := members.New(env, a.API)
	if err != nil {
		return nil, err
	}
	compose := textarea.New()
	compose.Placeholder = "Write a message..."
	compose.ShowLineNumbers = false
	compose.SetHeight(4)
	return &membersTab{run: run, members: v, list: newList(nil, 0, 0), compose: compose}, nil
}

func (t *membersTab) Init() tea.Cmd { return t.Reload() }

func (t *membersTab) Reload() tea.Cmd {
	return t.run(event.TabMembers, "load", t.members.Load)
}

func (t *membersTab) SetSize(w, h int) {
	t.width, t.height = w, h
	t.list.SetSize(w, max(h-4, 4))
	t.compose.SetWidth(min(w-4, 70))
}

func (t *membersTab) Capturing() bool { return t.target != nil }

func (t *membersTab) Unmount() { t.members.Unmount() }

func (t *membersTab) refresh() {
	st := t.members.State()
	items := make([]list.Item, 0, len(st.Members))
	for _, m := range st.Members {
		items = append(items, item{
			id:    m.ID,
			title: m.Name,
			desc:  fmt.Sprintf("saved %s · %s", m.SavedAt.Local().Format("Jan 2, 2006"), strings.Join(m.Interests, ", ")),
		})
	}
	setItems(&t.list, items)
}

func (t *membersTab) Update(msg tea.Msg) tea.Cmd {
	defer t.refresh()

	switch msg := msg.(type) {
	case opMsg:
		if msg.op == "message" && msg.err == nil {
			t.target = nil
			t.compose.Reset()
			t.compose.Blur()
		}
		return nil
	case tea.KeyMsg:
		if t.target != nil {
			switch msg.String() {
			case "esc":
				t.target = nil
				t.compose.Blur()
				return nil
			case "ctrl+s":
				id, text := t.target.id, t.compose.Value()
				return t.run(event.TabMembers, "message", func(ctx context.Context) error {
					return t.members.Message(ctx, id, text)
				})
			}
			var cmd tea.Cmd
			t.compose, cmd = t.compose.Update(msg)
			return cmd
		}
		if msg.String() == "m" {
			if it, ok := t.list.SelectedItem().(item); ok {
				t.target = &it
				t.compose.Reset()
				return t.compose.Focus()
			}
			return nil
		}
	}
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return cmd
}

func (t *membersTab) View() string {
	if t.target != nil {
		return panelStyle.Render(titleStyle.Render("Message "+t.target.title) + "\n\n" +
			t.compose.View() + "\n" + helpStyle.Render("ctrl+s send · esc cancel"))
	}
	st := t.members.State()
	if st.Loading && len(st.Members) == 0 {
		return "Loading members..."
	}
	if len(st.Members) == 0 {
		return dimStyle.Render("No students have saved your club yet.")
	}
	t.list.Title = fmt.Sprintf("Members (%d)", len(st.Members))
	return t.list.View() + "\n" + helpStyle.Render("m message member")
}
