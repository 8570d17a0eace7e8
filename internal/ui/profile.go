package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/profile"
	"github.com/notepid/club_companion/internal/view"
)

type profileForm int

const (
	profileFormNone profileForm = iota
	profileFormEdit
	profileFormPassword
	profileFormLink
)

type profileTab struct {
	app    *app.App
	env    view.Env
	run    runner
	editor *profile.Editor
	links  *profile.Links

	width  int
	height int

	form     *huh.Form
	formKind profileForm

	name        string
	description string
	interests   []string
	avatarPath  string
	saveNow     bool

	currentPw string
	newPw     string
	confirmPw string

	platform string
	linkURL  string
}

func newProfileTab(a *app.App, env view.Env, run runner) (*profileTab, error) {
	editor, err := profile.NewEditor(env, a.API)
	if err != nil {
		return nil, err
	}
	t := &profileTab{app: a, env: env, run: run, editor: editor}
	sess, _ := env.Actor()
	if sess.Actor.Role == domain.RoleClub {
		if t.links, err = profile.NewLinks(env, a.API); err != nil {
			editor.Unmount()
			return nil, err
		}
	}
	return t, nil
}

func (t *profileTab) Init() tea.Cmd {
	return t.Reload()
}

func (t *profileTab) Reload() tea.Cmd {
	cmds := []tea.Cmd{t.run(event.TabProfile, "load", t.editor.Load)}
	if t.links != nil {
		cmds = append(cmds, t.run(event.TabProfile, "links", t.links.Load))
	}
	return tea.Batch(cmds...)
}

func (t *profileTab) SetSize(w, h int) {
	t.width, t.height = w, h
	if t.form != nil {
		t.form.WithWidth(min(w, 80))
	}
}

func (t *profileTab) Capturing() bool { return t.form != nil }

func (t *profileTab) Unmount() {
	t.editor.Unmount()
	if t.links != nil {
		t.links.Unmount()
	}
}

func (t *profileTab) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case opMsg:
		return nil
	case tea.KeyMsg:
		if t.form != nil {
			if msg.String() == "esc" {
				t.form = nil
				return nil
			}
			return t.updateForm(msg)
		}
		switch msg.String() {
		case "e":
			return t.startEdit()
		case "p":
			return t.startPassword()
		case "s":
			return t.save()
		case "x":
			t.editor.Reset()
		case "a":
			if t.links != nil {
				return t.startLink()
			}
		case "d":
			if t.links != nil {
				if links := t.links.List(); len(links) > 0 {
					id := links[len(links)-1].ID
					return t.run(event.TabProfile, "link-delete", func(ctx context.Context) error {
						return t.links.Delete(ctx, id)
					})
				}
			}
		}
		return nil
	}
	if t.form != nil {
		return t.updateForm(msg)
	}
	return nil
}

func (t *profileTab) save() tea.Cmd {
	return t.run(event.TabProfile, "save", t.editor.Save)
}

func (t *profileTab) startEdit() tea.Cmd {
	st := t.editor.State()
	if !st.Loaded {
		return nil
	}
	t.formKind = profileFormEdit
	t.name = st.Draft.Name
	t.description = st.Draft.Description
	t.interests = slices.Clone(st.Draft.Interests)
	t.avatarPath = ""
	t.saveNow = true

	options := make([]huh.Option[string], 0, len(domain.Interests))
	for _, tag := range domain.Interests {
		options = append(options, huh.NewOption(tag, tag).Selected(st.Draft.HasInterest(tag)))
	}
	fields := []huh.Field{
		huh.NewInput().Title("Name").Value(&t.name).Validate(nonEmpty("name")),
		huh.NewNote().Title("Email").Description(st.Draft.Email+" (cannot be changed)"),
	}
	if st.Role == domain.RoleClub {
		fields = append(fields, huh.NewText().Title("Description").CharLimit(profile.MaxDescription).Value(&t.description))
	}
	fields = append(fields,
		huh.NewMultiSelect[string]().Title("Interests").Options(options...).Value(&t.interests),
		huh.NewInput().Title("Profile picture").Description("Path to an image file, empty to keep the current one").Value(&t.avatarPath),
	)
	t.form = huh.NewForm(
		huh.NewGroup(fields...),
		huh.NewGroup(huh.NewConfirm().Title("Save changes now?").Value(&t.saveNow)),
	).WithWidth(min(t.width, 80))
	return t.form.Init()
}

func (t *profileTab) startPassword() tea.Cmd {
	t.formKind = profileFormPassword
	t.currentPw, t.newPw, t.confirmPw = "", "", ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&t.currentPw),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&t.newPw),
			huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&t.confirmPw),
		).Title("Change password"),
	).WithWidth(min(t.width, 80))
	return t.form.Init()
}

func (t *profileTab) startLink() tea.Cmd {
	t.formKind = profileFormLink
	t.platform, t.linkURL = domain.SocialPlatforms[0], ""
	options := make([]huh.Option[string], 0, len(domain.SocialPlatforms))
	for _, p := range domain.SocialPlatforms {
		options = append(options, huh.NewOption(p, p))
	}
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Platform").Options(options...).Value(&t.platform),
			huh.NewInput().Title("URL").Value(&t.linkURL).Validate(nonEmpty("url")),
		).Title("Add social media link"),
	).WithWidth(min(t.width, 80))
	return t.form.Init()
}

func (t *profileTab) updateForm(msg tea.Msg) tea.Cmd {
	updated, cmd := t.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		t.form = nil
		return nil
	}
	t.form = f
	if t.form.State != huh.StateCompleted {
		return cmd
	}
	t.form = nil

	switch t.formKind {
	case profileFormEdit:
		return t.applyEdit()
	case profileFormPassword:
		_ = t.editor.ChangePassword(t.currentPw, t.newPw, t.confirmPw)
	case profileFormLink:
		platform, url := t.platform, t.linkURL
		return t.run(event.TabProfile, "link-add", func(ctx context.Context) error {
			return t.links.Add(ctx, platform, url)
		})
	}
	return nil
}

func (t *profileTab) applyEdit() tea.Cmd {
	st := t.editor.State()
	t.editor.SetName(strings.TrimSpace(t.name))
	if st.Role == domain.RoleClub {
		if err := t.editor.SetDescription(t.description); err != nil {
			t.env.Banner.Show(notice.Error, errText(err), t.env.UI.BannerTTL)
			return nil
		}
	}
	for _, tag := range domain.Interests {
		if st.Draft.HasInterest(tag) != slices.Contains(t.interests, tag) {
			t.editor.ToggleInterest(tag)
		}
	}
	if path := strings.TrimSpace(t.avatarPath); path != "" {
		if err := t.editor.SetAvatarFromFile(path); err != nil {
			t.env.Banner.Show(notice.Error, "Profile picture: "+errText(err), t.env.UI.BannerTTL)
			return nil
		}
	}
	if t.saveNow {
		return t.save()
	}
	return nil
}

func (t *profileTab) View() string {
	if t.form != nil {
		return t.form.View() + helpStyle.Render("\n\n(esc to cancel)")
	}

	st := t.editor.State()
	if !st.Loaded {
		if st.Loading {
			return "Loading profile..."
		}
		return "Profile not loaded."
	}

	var b strings.Builder
	d := st.Draft
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Name:"), d.Name)
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Email:"), d.Email)
	if st.Role == domain.RoleClub {
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Description:"), d.Description)
	}
	interests := "none"
	if len(d.Interests) > 0 {
		interests = strings.Join(d.Interests, ", ")
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Interests:"), interests)
	switch {
	case d.AvatarChanged:
		fmt.Fprintf(&b, "%s new image selected\n", titleStyle.Render("Picture:"))
	case d.Avatar != "":
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Picture:"), t.app.AvatarURL(d.Avatar))
	}

	if t.links != nil {
		b.WriteString("\n" + titleStyle.Render("Social media") + "\n")
		links := t.links.List()
		if len(links) == 0 {
			b.WriteString(dimStyle.Render("  no links yet") + "\n")
		}
		for _, l := range links {
			fmt.Fprintf(&b, "  %-10s %s\n", l.Platform, l.URL)
		}
	}

	switch {
	case st.Saving:
		b.WriteString("\n" + infoStyle.Render("Saving..."))
	case st.Dirty:
		b.WriteString("\n" + infoStyle.Render("Unsaved changes"))
	}

	help := "e edit · s save · x discard · p change password"
	if t.links != nil {
		help += " · a add link · d delete last link"
	}
	b.WriteString("\n" + helpStyle.Render(help))
	return b.String()
}
