package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/datefmt"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/inbox"
	"github.com/notepid/club_companion/internal/view"
)

type inboxTab struct {
	run   runner
	inbox *inbox.Inbox

	width  int
	height int

	threads  list.Model
	viewport viewport.Model
	compose  textarea.Model
}

func newInboxTab(a *app.App, env view.Env, run runner) (*inboxTab, error) {
	in, err := inbox.New(env, a.API)
	if err != nil {
		return nil, err
	}
	compose := textarea.New()
	compose.Placeholder = "Type a message..."
	compose.ShowLineNumbers = false
	compose.SetHeight(3)
	compose.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	return &inboxTab{
		run:      run,
		inbox:    in,
		threads:  newList(nil, 0, 0),
		viewport: viewport.New(0, 0),
		compose:  compose,
	}, nil
}

func (t *inboxTab) Init() tea.Cmd { return t.Reload() }

func (t *inboxTab) Reload() tea.Cmd {
	return t.run(event.TabMessages, "threads", t.inbox.LoadThreads)
}

// Poll refreshes threads and the open conversation.
func (t *inboxTab) Poll() tea.Cmd {
	return t.run(event.TabMessages, "poll", t.inbox.Poll)
}

// Unread is the total shown on the tab badge.
func (t *inboxTab) Unread() int {
	return t.inbox.State().UnreadTotal()
}

func (t *inboxTab) SetSize(w, h int) {
	t.width, t.height = w, h
	t.threads.SetSize(w, max(h-2, 4))
	t.viewport.Width = w
	t.viewport.Height = max(h-8, 3)
	t.compose.SetWidth(max(w-2, 10))
}

func (t *inboxTab) Capturing() bool {
	return t.inbox.State().Mode == inbox.ConversationOpen
}

func (t *inboxTab) Unmount() { t.inbox.Unmount() }

func (t *inboxTab) refresh() {
	now := time.Now()
	st := t.inbox.State()

	items := make([]list.Item, 0, len(st.Threads))
	for _, th := range st.Threads {
		title := th.CounterpartName
		if th.UnreadCount > 0 {
			title += " " + badgeStyle.Render(fmt.Sprint(th.UnreadCount))
		}
		preview := th.LatestMessage.Content
		if th.LatestMessage.SentByMe {
			preview = "You: " + preview
		}
		desc := datefmt.Format(th.LatestMessage.CreatedAt, now) + " · " + truncate(preview, 60)
		items = append(items, item{id: th.CounterpartID, title: title, desc: desc, kind: string(th.CounterpartType)})
	}
	setItems(&t.threads, items)

	if st.Conversation != nil {
		t.viewport.SetContent(renderConversation(st.Conversation, t.width, now))
	}
	if t.inbox.TakeScrollRequest() {
		t.viewport.GotoBottom()
	}
}

func renderConversation(conv *domain.Conversation, width int, now time.Time) string {
	var b strings.Builder
	for _, m := range conv.Messages {
		stamp := datefmt.Format(m.CreatedAt, now)
		if m.SentByMe {
			line := fmt.Sprintf("%s  %s %s", m.Content, dimStyle.Render(stamp), inbox.ReceiptFor(m).Icon())
			b.WriteString(mineStyle.Width(max(width-2, 10)).Align(lipgloss.Right).Render(line))
		} else {
			line := fmt.Sprintf("%s  %s", m.Content, dimStyle.Render(stamp))
			b.WriteString(theirsStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(conv.Messages) == 0 {
		b.WriteString(dimStyle.Render("No messages yet. Say hello!"))
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (t *inboxTab) Update(msg tea.Msg) tea.Cmd {
	defer t.refresh()

	switch msg := msg.(type) {
	case opMsg:
		if msg.op == "send" && msg.err == nil {
			t.compose.SetValue(t.inbox.State().Compose)
		}
		return nil
	case tea.KeyMsg:
		if t.inbox.State().Mode == inbox.ConversationOpen {
			return t.updateConversation(msg)
		}
		if msg.String() == "enter" {
			it, ok := t.threads.SelectedItem().(item)
			if !ok {
				return nil
			}
			id, role := it.id, domain.Role(it.kind)
			t.compose.Reset()
			return tea.Batch(t.compose.Focus(), t.run(event.TabMessages, "open", func(ctx context.Context) error {
				return t.inbox.OpenConversation(ctx, id, role)
			}))
		}
	}
	var cmd tea.Cmd
	t.threads, cmd = t.threads.Update(msg)
	return cmd
}

func (t *inboxTab) updateConversation(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		t.compose.Blur()
		t.compose.Reset()
		t.inbox.Close()
		return nil
	case "enter":
		t.inbox.SetCompose(t.compose.Value())
		return t.run(event.TabMessages, "send", t.inbox.Send)
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	t.compose, cmd = t.compose.Update(msg)
	return cmd
}

func (t *inboxTab) View() string {
	t.refresh()
	st := t.inbox.State()

	if st.Mode == inbox.ConversationOpen {
		var b strings.Builder
		name := fmt.Sprintf("%s %d", st.With.Role, st.With.ID)
		if st.Conversation != nil && st.Conversation.Counterpart.Name != "" {
			name = st.Conversation.Counterpart.Name
		}
		b.WriteString(titleStyle.Render(name) + "\n")
		if st.Conversation == nil {
			b.WriteString("Loading conversation...\n")
		} else {
			b.WriteString(t.viewport.View() + "\n")
		}
		b.WriteString(t.compose.View() + "\n")
		help := "enter send · alt+enter newline · pgup/pgdown scroll · esc back"
		if st.Sending {
			help = "Sending..."
		}
		b.WriteString(helpStyle.Render(help))
		return b.String()
	}

	if len(st.Threads) == 0 {
		if st.LoadingThreads {
			return "Loading messages..."
		}
		return dimStyle.Render("No messages yet.")
	}
	t.threads.Title = "Conversations"
	return t.threads.View() + "\n" + helpStyle.Render("enter open conversation")
}
