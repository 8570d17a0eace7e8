package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/session"
	"github.com/notepid/club_companion/internal/view"
)

// tabModel is one dashboard tab. Capturing reports that a text field has
// focus, so the dashboard leaves keys alone.
type tabModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(w, h int)
	Capturing() bool
	Reload() tea.Cmd
	Unmount()
}

type (
	clockMsg time.Time
	pollMsg  struct{}
	busMsg   struct{ e event.Event }
	// opMsg reports the end of a view-model call started by a tab.
	opMsg struct {
		tab event.Tab
		op  string
		err error
	}
)

// runner runs f off the UI goroutine and reports back with an opMsg.
type runner func(tab event.Tab, op string, f func(ctx context.Context) error) tea.Cmd

type dashboardModel struct {
	app  *app.App
	env  view.Env
	sess session.Session

	width  int
	height int

	Done bool

	tabs   []event.Tab
	models map[event.Tab]tabModel
	active int

	ctx    context.Context
	cancel context.CancelFunc
	sub    *event.Subscriber

	inbox  *inboxTab
	search *searchTab
}

func newDashboardModel(a *app.App) (*dashboardModel, error) {
	sess, err := a.Session.Require()
	if err != nil {
		return nil, err
	}
	env := a.DashboardEnv()
	ctx, cancel := context.WithCancel(context.Background())
	d := &dashboardModel{
		app:    a,
		env:    env,
		sess:   sess,
		models: make(map[event.Tab]tabModel),
		ctx:    ctx,
		cancel: cancel,
	}
	run := d.runner()

	fail := func(err error) (*dashboardModel, error) {
		d.Unmount()
		return nil, err
	}

	profileTab, err := newProfileTab(a, env, run)
	if err != nil {
		return fail(err)
	}
	d.models[event.TabProfile] = profileTab
	inbox, err := newInboxTab(a, env, run)
	if err != nil {
		return fail(err)
	}
	d.inbox = inbox
	d.models[event.TabMessages] = inbox

	switch sess.Actor.Role {
	case domain.RoleStudent:
		search, err := newSearchTab(a, env, run)
		if err != nil {
			return fail(err)
		}
		d.search = search
		d.models[event.TabSearch] = search
		saved, err := newSavedTab(a, env, run)
		if err != nil {
			return fail(err)
		}
		d.models[event.TabSaved] = saved
		d.tabs = []event.Tab{event.TabProfile, event.TabSearch, event.TabSaved, event.TabMessages}
	default:
		membersTab, err := newMembersTab(a, env, run)
		if err != nil {
			return fail(err)
		}
		d.models[event.TabMembers] = membersTab
		d.tabs = []event.Tab{event.TabProfile, event.TabMembers, event.TabMessages}
	}

	d.sub = env.Bus.Subscribe()
	return d, nil
}

func (d *dashboardModel) runner() runner {
	timeout := d.app.Config.Client.Timeout
	return func(tab event.Tab, op string, f func(ctx context.Context) error) tea.Cmd {
		return func() tea.Msg {
			ctx := d.ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return opMsg{tab: tab, op: op, err: f(ctx)}
		}
	}
}

func (d *dashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{d.tick(), d.poll(), d.waitEvent()}
	for _, t := range d.tabs {
		cmds = append(cmds, d.models[t].Init())
	}
	return tea.Batch(cmds...)
}

func (d *dashboardModel) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (d *dashboardModel) poll() tea.Cmd {
	return tea.Tick(d.env.UI.PollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (d *dashboardModel) waitEvent() tea.Cmd {
	sub, done := d.sub, d.ctx.Done()
	return func() tea.Msg {
		select {
		case e := <-sub.Ch:
			return busMsg{e: e}
		case <-done:
			return nil
		}
	}
}

func (d *dashboardModel) SetSize(w, h int) {
	d.width, d.height = w, h
	for _, m := range d.models {
		m.SetSize(w, h-headerHeight-2)
	}
}

func (d *dashboardModel) activeTab() tabModel {
	return d.models[d.tabs[d.active]]
}

func (d *dashboardModel) show(tab event.Tab) {
	for i, t := range d.tabs {
		if t == tab {
			d.active = i
			return
		}
	}
}

func (d *dashboardModel) Update(msg tea.Msg) tea.Cmd {
	if d.ctx.Err() != nil {
		return nil
	}
	switch msg := msg.(type) {
	case clockMsg:
		return d.tick()
	case pollMsg:
		return tea.Batch(d.poll(), d.inbox.Poll())
	case busMsg:
		var cmd tea.Cmd
		switch e := msg.e.(type) {
		case event.SwitchTab:
			d.show(e.Tab)
		case event.SavedClubsChanged:
			if d.search != nil {
				cmd = d.search.Reload()
			}
		}
		return tea.Batch(cmd, d.waitEvent())
	case opMsg:
		if m, ok := d.models[msg.tab]; ok {
			return m.Update(msg)
		}
		return nil
	case tea.KeyMsg:
		if !d.activeTab().Capturing() {
			switch msg.String() {
			case "ctrl+l":
				d.Done = true
				return nil
			case "tab", "right":
				d.active = (d.active + 1) % len(d.tabs)
				return nil
			case "shift+tab", "left":
				d.active = (d.active + len(d.tabs) - 1) % len(d.tabs)
				return nil
			case "ctrl+r":
				d.env.Banner.Clear()
				return d.activeTab().Reload()
			case "1", "2", "3", "4":
				if i := int(msg.String()[0] - '1'); i < len(d.tabs) {
					d.active = i
				}
				return nil
			}
		}
	}
	return d.activeTab().Update(msg)
}

func (d *dashboardModel) View() string {
	var b strings.Builder

	role := "Student"
	if d.sess.Actor.Role == domain.RoleClub {
		role = "Club"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Club Companion · %s dashboard", role)))
	if d.sess.Email != "" {
		b.WriteString(dimStyle.Render("  " + d.sess.Email))
	}
	b.WriteString("\n")

	tabs := make([]string, 0, len(d.tabs))
	for i, t := range d.tabs {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == event.TabMessages {
			if n := d.inbox.Unread(); n > 0 {
				label += " " + badgeStyle.Render(fmt.Sprint(n))
			}
		}
		if i == d.active {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(strings.Join(tabs, "") + "\n")

	if n, ok := d.env.Banner.Current(); ok {
		b.WriteString(bannerView(n))
	}
	b.WriteString("\n")

	b.WriteString(d.activeTab().View())
	b.WriteString("\n" + helpStyle.Render("tab switch tabs · ctrl+r reload · ctrl+l log out · ctrl+c quit"))
	return b.String()
}

func (d *dashboardModel) Unmount() {
	d.cancel()
	if d.sub != nil {
		d.env.Bus.Unsubscribe(d.sub)
	}
	for _, m := range d.models {
		m.Unmount()
	}
}
