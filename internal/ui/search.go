package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/directory"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/view"
)

type searchMode int

const (
	searchBrowse searchMode = iota
	searchText
	searchInterests
	searchContact
)

type searchTab struct {
	app *app.App
	env view.Env
	run runner
	dir *directory.Directory

	width  int
	height int

	mode      searchMode
	list      list.Model
	text      textinput.Model
	compose   textarea.Model
	form      *huh.Form
	interests []string

	detail    *directory.Detail
	detailErr error
}

func newSearchTab(a *app.App, env view.Env, run runner) (*searchTab, error) {
	dir, err := directory.New(env, a.API)
	if err != nil {
		return nil, err
	}
	text := textinput.New()
	text.Placeholder = "Search by name or description"
	text.Prompt = "/ "

	compose := textarea.New()
	compose.Placeholder = "Write a message to the club..."
	compose.ShowLineNumbers = false
	compose.SetHeight(4)

	return &searchTab{
		app:     a,
		env:     env,
		run:     run,
		dir:     dir,
		list:    newList(nil, 0, 0),
		text:    text,
		compose: compose,
	}, nil
}

func (t *searchTab) Init() tea.Cmd { return t.Reload() }

func (t *searchTab) Reload() tea.Cmd {
	return t.run(event.TabSearch, "load", t.dir.Load)
}

func (t *searchTab) SetSize(w, h int) {
	t.width, t.height = w, h
	t.list.SetSize(w, max(h-8, 4))
	t.text.Width = min(w-4, 60)
	t.compose.SetWidth(min(w-4, 70))
}

func (t *searchTab) Capturing() bool { return t.mode != searchBrowse }

func (t *searchTab) Unmount() { t.dir.Unmount() }

func (t *searchTab) selected() (int64, bool) {
	it, ok := t.list.SelectedItem().(item)
	return it.id, ok
}

func (t *searchTab) refresh() {
	st := t.dir.State()
	items := make([]list.Item, 0, len(st.Visible))
	for _, c := range st.Visible {
		title := c.Name
		if st.Saved[c.ID] {
			title = "★ " + title
		}
		desc := fmt.Sprintf("%d members · %s", c.MemberCount, strings.Join(c.Interests, ", "))
		items = append(items, item{id: c.ID, title: title, desc: desc, kind: "club"})
	}
	setItems(&t.list, items)
}

func (t *searchTab) Update(msg tea.Msg) tea.Cmd {
	defer t.refresh()

	switch msg := msg.(type) {
	case opMsg:
		if msg.op == "contact" && msg.err == nil {
			t.compose.Reset()
			t.compose.Blur()
			t.mode = searchBrowse
		}
		return nil
	case detailMsg:
		t.detail, t.detailErr = msg.detail, msg.err
		return nil
	case tea.KeyMsg:
		return t.updateKey(msg)
	}
	if t.form != nil {
		return t.updateForm(msg)
	}
	return nil
}

type detailMsg struct {
	detail *directory.Detail
	err    error
}

func (t *searchTab) updateKey(msg tea.KeyMsg) tea.Cmd {
	switch t.mode {
	case searchText:
		switch msg.String() {
		case "esc", "enter":
			t.text.Blur()
			t.mode = searchBrowse
			return nil
		}
		var cmd tea.Cmd
		t.text, cmd = t.text.Update(msg)
		f := t.dir.State().Filter
		f.Text = t.text.Value()
		t.dir.SetFilter(f)
		return cmd
	case searchInterests:
		if msg.String() == "esc" {
			t.form = nil
			t.mode = searchBrowse
			return nil
		}
		return t.updateForm(msg)
	case searchContact:
		switch msg.String() {
		case "esc":
			t.compose.Blur()
			t.dir.CloseContact()
			t.mode = searchBrowse
			return nil
		case "ctrl+s":
			clubID := t.dir.State().ContactClub
			text := t.compose.Value()
			return t.run(event.TabSearch, "contact", func(ctx context.Context) error {
				return t.dir.Contact(ctx, clubID, text)
			})
		}
		var cmd tea.Cmd
		t.compose, cmd = t.compose.Update(msg)
		t.dir.SetCompose(t.compose.Value())
		return cmd
	}

	switch msg.String() {
	case "/":
		t.mode = searchText
		return t.text.Focus()
	case "f":
		return t.startInterests()
	case "z":
		f := t.dir.State().Filter
		f.Size = directory.SizeBuckets[(int(f.Size)+1)%len(directory.SizeBuckets)]
		t.dir.SetFilter(f)
		return nil
	case "c":
		t.text.SetValue("")
		t.dir.SetFilter(directory.Filter{})
		return nil
	case "s":
		if id, ok := t.selected(); ok {
			return t.run(event.TabSearch, "toggle-save", func(ctx context.Context) error {
				return t.dir.ToggleSave(ctx, id)
			})
		}
		return nil
	case "m":
		if id, ok := t.selected(); ok {
			t.dir.OpenContact(id)
			t.compose.Reset()
			t.mode = searchContact
			return t.compose.Focus()
		}
		return nil
	case "enter":
		if id, ok := t.selected(); ok {
			t.detail, t.detailErr = nil, nil
			dir := t.dir
			return func() tea.Msg {
				d, err := dir.Detail(context.Background(), id)
				return detailMsg{detail: d, err: err}
			}
		}
		return nil
	case "esc":
		t.detail, t.detailErr = nil, nil
		return nil
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return cmd
}

func (t *searchTab) startInterests() tea.Cmd {
	t.mode = searchInterests
	t.interests = slices.Clone(t.dir.State().Filter.Interests)
	options := make([]huh.Option[string], 0, len(domain.Interests))
	for _, tag := range domain.Interests {
		options = append(options, huh.NewOption(tag, tag).Selected(slices.Contains(t.interests, tag)))
	}
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Filter by interests").Options(options...).Value(&t.interests),
		),
	).WithWidth(min(t.width, 60))
	return t.form.Init()
}

func (t *searchTab) updateForm(msg tea.Msg) tea.Cmd {
	updated, cmd := t.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		t.form, t.mode = nil, searchBrowse
		return nil
	}
	t.form = f
	if t.form.State == huh.StateCompleted {
		filter := t.dir.State().Filter
		filter.Interests = t.interests
		t.dir.SetFilter(filter)
		t.form, t.mode = nil, searchBrowse
		return nil
	}
	return cmd
}

func (t *searchTab) View() string {
	st := t.dir.State()
	var b strings.Builder

	switch t.mode {
	case searchInterests:
		return t.form.View() + helpStyle.Render("\n\n(esc to cancel)")
	case searchContact:
		name := fmt.Sprint(st.ContactClub)
		for _, c := range st.Clubs {
			if c.ID == st.ContactClub {
				name = c.Name
			}
		}
		b.WriteString(titleStyle.Render("Message "+name) + "\n\n")
		b.WriteString(t.compose.View())
		b.WriteString("\n" + helpStyle.Render("ctrl+s send · esc cancel"))
		return panelStyle.Render(b.String())
	}

	if st.Degraded {
		b.WriteString(errStyle.Render("Offline: showing sample clubs") + "\n")
	}
	filter := []string{"size: " + st.Filter.Size.String()}
	if len(st.Filter.Interests) > 0 {
		filter = append(filter, "interests: "+strings.Join(st.Filter.Interests, ", "))
	}
	b.WriteString(t.text.View() + "  " + dimStyle.Render(strings.Join(filter, " · ")) + "\n")

	switch {
	case st.Loading && len(st.Clubs) == 0:
		b.WriteString("Loading clubs...\n")
	case len(st.Visible) == 0:
		b.WriteString(dimStyle.Render("No clubs match your filters.") + "\n")
	default:
		t.list.Title = fmt.Sprintf("Clubs (%d of %d)", len(st.Visible), len(st.Clubs))
		b.WriteString(t.list.View() + "\n")
	}

	if t.detail != nil || t.detailErr != nil {
		b.WriteString(t.detailView())
	}
	b.WriteString(helpStyle.Render("/ search · f interests · z size · c clear · s save/unsave · m message · enter details"))
	return b.String()
}

func (t *searchTab) detailView() string {
	if t.detailErr != nil {
		return errStyle.Render("Could not load club: "+errText(t.detailErr)) + "\n"
	}
	c := t.detail.Club
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Name) + "\n")
	b.WriteString(c.Description + "\n")
	fmt.Fprintf(&b, "Members: %d\n", c.MemberCount)
	if c.ContactEmail != "" {
		fmt.Fprintf(&b, "Contact: %s\n", c.ContactEmail)
	}
	for _, l := range t.detail.Links {
		fmt.Fprintf(&b, "%s: %s\n", l.Platform, l.URL)
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
