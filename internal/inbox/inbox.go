// Package inbox is the messaging tab shared by both dashboards: a thread
// list plus at most one open conversation.
package inbox

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/lifecycle"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/view"
)

// Mode is the inbox state.
type Mode int

const (
	ThreadListOnly Mode = iota
	ConversationOpen
)

func (m Mode) String() string {
	if m == ConversationOpen {
		return "conversation"
	}
	return "threads"
}

// Receipt is the delivery marker shown next to a message.
type Receipt int

const (
	ReceiptNone Receipt = iota
	ReceiptDelivered
	ReceiptRead
)

// Icon returns the marker text.
func (r Receipt) Icon() string {
	switch r {
	case ReceiptDelivered:
		return "✓"
	case ReceiptRead:
		return "✓✓"
	default:
		return ""
	}
}

// ReceiptFor returns the marker of msg. Only own messages carry one.
func ReceiptFor(msg domain.Message) Receipt {
	switch {
	case !msg.SentByMe:
		return ReceiptNone
	case msg.Read:
		return ReceiptRead
	default:
		return ReceiptDelivered
	}
}

// Backend is the part of the API the inbox uses.
type Backend interface {
	Threads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error)
	Conversation(ctx context.Context, actor, other domain.Actor) (*domain.Conversation, error)
	Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error)
}

// State is a snapshot for rendering.
type State struct {
	Mode           Mode
	Threads        []domain.Thread
	LoadingThreads bool
	// With is the counterpart of the open conversation.
	With         domain.Actor
	Conversation *domain.Conversation
	Opening      bool
	Sending      bool
	Compose      string
}

// UnreadTotal sums the unread counts of all threads.
func (s State) UnreadTotal() int {
	n := 0
	for _, t := range s.Threads {
		n += t.UnreadCount
	}
	return n
}

// readSnapshot is what OpenConversation changed locally, kept for rollback.
type readSnapshot struct {
	found  bool
	unread int
	read   bool
}

// Inbox is the messaging view-model.
type Inbox struct {
	mu      sync.Mutex
	backend Backend
	env     view.Env
	actor   domain.Actor
	log     zerolog.Logger
	// threadsGuard and convGuard are independent so a thread refresh never
	// supersedes an open.
	threadsGuard *lifecycle.Guard
	convGuard    *lifecycle.Guard

	mode           Mode
	threads        []domain.Thread
	loadingThreads bool
	with           domain.Actor
	conversation   *domain.Conversation
	opening        bool
	sending        bool
	compose        string
	scroll         bool
}

// New returns the inbox of the logged-in actor.
func New(env view.Env, backend Backend) (*Inbox, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sess, err := env.Actor()
	if err != nil {
		return nil, err
	}
	return &Inbox{
		backend:      backend,
		env:          env,
		actor:        sess.Actor,
		log:          env.Log.With().Str("component", "inbox").Logger(),
		threadsGuard: lifecycle.NewGuard(context.Background()),
		convGuard:    lifecycle.NewGuard(context.Background()),
	}, nil
}

// LoadThreads fetches the thread list. The server order is kept.
func (in *Inbox) LoadThreads(ctx context.Context) error {
	ctx, token := in.threadsGuard.Begin(ctx)
	in.mu.Lock()
	in.loadingThreads = true
	in.mu.Unlock()

	threads, err := in.backend.Threads(ctx, in.actor)

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.threadsGuard.Current(token) {
		return nil
	}
	in.loadingThreads = false
	if err != nil {
		in.log.Warn().Err(err).Msg("load threads")
		in.env.Banner.ShowRetry("Failed to load messages: " + api.Message(err))
		return err
	}
	in.threads = threads
	if in.mode == ConversationOpen {
		// The open conversation is read even if the list was computed
		// before the server marked it.
		in.markReadLocked(in.with)
	}
	return nil
}

func (in *Inbox) threadIndexLocked(with domain.Actor) int {
	return slices.IndexFunc(in.threads, func(t domain.Thread) bool {
		return t.CounterpartID == with.ID && t.CounterpartType == with.Role
	})
}

func (in *Inbox) markReadLocked(with domain.Actor) readSnapshot {
	i := in.threadIndexLocked(with)
	if i < 0 {
		return readSnapshot{}
	}
	t := &in.threads[i]
	snap := readSnapshot{found: true, unread: t.UnreadCount, read: t.LatestMessage.Read}
	t.UnreadCount = 0
	t.LatestMessage.Read = true
	return snap
}

func (in *Inbox) restoreLocked(with domain.Actor, snap readSnapshot) {
	if !snap.found {
		return
	}
	if i := in.threadIndexLocked(with); i >= 0 {
		in.threads[i].UnreadCount = snap.unread
		in.threads[i].LatestMessage.Read = snap.read
	}
}

// OpenConversation shows the conversation with the given counterpart. The
// thread is marked read immediately. If the fetch fails the read state and
// the previous mode are restored. A response that arrives after another
// open, a Close or Unmount is discarded.
func (in *Inbox) OpenConversation(ctx context.Context, counterpartID int64, counterpartType domain.Role) error {
	with := domain.Actor{ID: counterpartID, Role: counterpartType}

	in.mu.Lock()
	ctx, token := in.convGuard.Begin(ctx)
	prevMode, prevWith, prevConv := in.mode, in.with, in.conversation
	snap := in.markReadLocked(with)
	in.mode = ConversationOpen
	if in.with != with {
		in.conversation = nil
		in.compose = ""
	}
	in.with = with
	in.opening = true
	in.mu.Unlock()

	conv, err := in.backend.Conversation(ctx, in.actor, with)

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.convGuard.Current(token) {
		return nil
	}
	in.opening = false
	if err != nil {
		in.restoreLocked(with, snap)
		in.mode, in.with, in.conversation = prevMode, prevWith, prevConv
		in.log.Warn().Err(err).Int64("counterpart_id", counterpartID).Msg("open conversation")
		in.env.Banner.Show(notice.Error, "Failed to load conversation: "+api.Message(err), in.env.UI.BannerTTL)
		return err
	}
	in.conversation = conv
	in.scroll = true
	return nil
}

// refreshConversation re-fetches the open conversation without touching
// the read state. It yields to an open in progress. The token is taken
// under mu so an open can only supersede the refresh, never the reverse.
func (in *Inbox) refreshConversation(ctx context.Context) error {
	in.mu.Lock()
	if in.mode != ConversationOpen || in.opening {
		in.mu.Unlock()
		return nil
	}
	with := in.with
	ctx, token := in.convGuard.Begin(ctx)
	in.mu.Unlock()

	conv, err := in.backend.Conversation(ctx, in.actor, with)

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.convGuard.Current(token) || in.mode != ConversationOpen || in.with != with {
		return nil
	}
	if err != nil {
		return err
	}
	grew := in.conversation == nil || len(conv.Messages) != len(in.conversation.Messages)
	in.conversation = conv
	if grew {
		in.scroll = true
	}
	return nil
}

// SetCompose edits the message being written.
func (in *Inbox) SetCompose(text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.compose = text
}

// Send posts the compose text to the open conversation. Blank text or no
// open conversation is a no-op. On success the compose box is cleared and
// the conversation and thread list are re-fetched; on failure the text is
// kept.
func (in *Inbox) Send(ctx context.Context) error {
	in.mu.Lock()
	text := in.compose
	if in.mode != ConversationOpen || in.sending || strings.TrimSpace(text) == "" {
		in.mu.Unlock()
		return nil
	}
	with := in.with
	in.sending = true
	in.mu.Unlock()

	sendCtx, cancel := in.convGuard.Attach(ctx)
	_, err := in.backend.Send(sendCtx, in.actor, domain.SendRequest{
		Content:       text,
		RecipientID:   with.ID,
		RecipientType: with.Role,
	})
	cancel()

	in.mu.Lock()
	in.sending = false
	if in.convGuard.Closed() {
		in.mu.Unlock()
		return nil
	}
	if err != nil {
		in.mu.Unlock()
		in.log.Warn().Err(err).Int64("counterpart_id", with.ID).Msg("send message")
		in.env.Banner.Show(notice.Error, "Failed to send message: "+api.Message(err), in.env.UI.BannerTTL)
		return err
	}
	if in.compose == text {
		in.compose = ""
	}
	in.mu.Unlock()

	return errors.Join(in.refreshConversation(ctx), in.LoadThreads(ctx))
}

// Poll refreshes the thread list and the open conversation.
func (in *Inbox) Poll(ctx context.Context) error {
	threadsErr := in.LoadThreads(ctx)
	if err := in.refreshConversation(ctx); err != nil {
		in.log.Debug().Err(err).Msg("poll conversation")
	}
	return threadsErr
}

// Close returns to the thread list.
func (in *Inbox) Close() {
	in.convGuard.Invalidate()
	in.mu.Lock()
	defer in.mu.Unlock()
	in.mode = ThreadListOnly
	in.with = domain.Actor{}
	in.conversation = nil
	in.opening = false
	in.compose = ""
	in.scroll = false
}

// TakeScrollRequest reports whether the view should scroll to the latest
// message, and clears the request.
func (in *Inbox) TakeScrollRequest() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	s := in.scroll
	in.scroll = false
	return s
}

// State returns a snapshot for rendering.
func (in *Inbox) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	var conv *domain.Conversation
	if in.conversation != nil {
		c := *in.conversation
		c.Messages = slices.Clone(c.Messages)
		conv = &c
	}
	return State{
		Mode:           in.mode,
		Threads:        slices.Clone(in.threads),
		LoadingThreads: in.loadingThreads,
		With:           in.with,
		Conversation:   conv,
		Opening:        in.opening,
		Sending:        in.sending,
		Compose:        in.compose,
	}
}

// Unmount cancels outstanding requests; late responses are dropped.
func (in *Inbox) Unmount() {
	in.threadsGuard.Close()
	in.convGuard.Close()
}
