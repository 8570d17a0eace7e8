package inbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/view/viewtest"
)

var (
	me      = domain.Actor{ID: 1, Role: domain.RoleStudent}
	chess   = domain.Actor{ID: 10, Role: domain.RoleClub}
	robotic = domain.Actor{ID: 11, Role: domain.RoleClub}
)

func threadsFixture() []domain.Thread {
	return []domain.Thread{
		{
			CounterpartID:   chess.ID,
			CounterpartType: chess.Role,
			CounterpartName: "Chess Club",
			LatestMessage:   domain.LatestMessage{ID: 3, Content: "See you Friday", Read: false},
			UnreadCount:     2,
		},
		{
			CounterpartID:   robotic.ID,
			CounterpartType: robotic.Role,
			CounterpartName: "Robotics",
			LatestMessage:   domain.LatestMessage{ID: 1, Content: "hi", SentByMe: true, Read: true},
		},
	}
}

func conversationWith(other domain.Actor, n int) *domain.Conversation {
	conv := &domain.Conversation{Counterpart: domain.Counterpart{ID: other.ID, Type: other.Role}}
	for i := 0; i < n; i++ {
		conv.Messages = append(conv.Messages, domain.Message{ID: int64(i + 1), Content: "m", CreatedAt: time.Unix(int64(i), 0)})
	}
	return conv
}

// stubBackend blocks Conversation calls until release is closed, when set.
type stubBackend struct {
	mu       sync.Mutex
	threads  []domain.Thread
	convs    map[domain.Actor]*domain.Conversation
	convErr  error
	release  chan struct{}
	started  chan domain.Actor
	sendErr  error
	sent     []domain.SendRequest
	threadsN int
	convN    int
}

func newStub() *stubBackend {
	return &stubBackend{
		threads: threadsFixture(),
		convs: map[domain.Actor]*domain.Conversation{
			chess:   conversationWith(chess, 3),
			robotic: conversationWith(robotic, 1),
		},
	}
}

func (s *stubBackend) Threads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadsN++
	return append([]domain.Thread(nil), s.threads...), nil
}

func (s *stubBackend) Conversation(ctx context.Context, actor, other domain.Actor) (*domain.Conversation, error) {
	s.mu.Lock()
	s.convN++
	release, started := s.release, s.started
	conv, err := s.convs[other], s.convErr
	s.mu.Unlock()

	if started != nil {
		started <- other
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	c := *conv
	c.Messages = append([]domain.Message(nil), conv.Messages...)
	return &c, nil
}

func (s *stubBackend) Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, req)
	other := domain.Actor{ID: req.RecipientID, Role: req.RecipientType}
	conv := s.convs[other]
	conv.Messages = append(conv.Messages, domain.Message{ID: 99, Content: req.Content, SentByMe: true})
	return &domain.SentMessage{ID: 99, Content: req.Content}, nil
}

func newInbox(t *testing.T, backend Backend) *Inbox {
	t.Helper()
	env, _ := viewtest.New(me)
	in, err := New(env, backend)
	require.NoError(t, err)
	t.Cleanup(in.Unmount)
	return in
}

func TestOpenClearsUnreadBeforeServerResponds(t *testing.T) {
	backend := newStub()
	backend.release = make(chan struct{})
	in := newInbox(t, backend)
	require.NoError(t, in.LoadThreads(context.Background()))
	require.Equal(t, 2, in.State().UnreadTotal())

	done := make(chan error, 1)
	go func() { done <- in.OpenConversation(context.Background(), chess.ID, chess.Role) }()

	require.Eventually(t, func() bool {
		st := in.State()
		return st.Mode == ConversationOpen && st.Opening
	}, time.Second, 5*time.Millisecond)

	st := in.State()
	assert.Zero(t, st.Threads[0].UnreadCount, "badge clears while the request is stalled")
	assert.True(t, st.Threads[0].LatestMessage.Read)
	assert.Nil(t, st.Conversation)

	close(backend.release)
	require.NoError(t, <-done)

	st = in.State()
	assert.False(t, st.Opening)
	require.NotNil(t, st.Conversation)
	assert.Len(t, st.Conversation.Messages, 3)
	assert.True(t, in.TakeScrollRequest())
	assert.False(t, in.TakeScrollRequest(), "scroll request is one-shot")
}

func TestOpenFailureRollsBack(t *testing.T) {
	backend := newStub()
	backend.convErr = &api.Error{Status: 404, Detail: "Club not found"}
	in := newInbox(t, backend)
	require.NoError(t, in.LoadThreads(context.Background()))

	err := in.OpenConversation(context.Background(), chess.ID, chess.Role)
	require.Error(t, err)

	st := in.State()
	assert.Equal(t, ThreadListOnly, st.Mode)
	assert.Equal(t, 2, st.Threads[0].UnreadCount)
	assert.False(t, st.Threads[0].LatestMessage.Read)
	assert.Nil(t, st.Conversation)
	n, ok := in.env.Banner.Current()
	require.True(t, ok)
	assert.Contains(t, n.Text, "Club not found")
}

func TestSupersededOpenIsDiscarded(t *testing.T) {
	backend := newStub()
	backend.release = make(chan struct{})
	backend.started = make(chan domain.Actor, 2)
	in := newInbox(t, backend)

	first := make(chan error, 1)
	go func() { first <- in.OpenConversation(context.Background(), chess.ID, chess.Role) }()
	require.Equal(t, chess, <-backend.started)

	second := make(chan error, 1)
	go func() { second <- in.OpenConversation(context.Background(), robotic.ID, robotic.Role) }()
	require.Equal(t, robotic, <-backend.started)

	close(backend.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	st := in.State()
	assert.Equal(t, robotic, st.With)
	require.NotNil(t, st.Conversation)
	assert.Equal(t, robotic.ID, st.Conversation.Counterpart.ID)
}

func TestCloseDiscardsPendingOpen(t *testing.T) {
	backend := newStub()
	backend.release = make(chan struct{})
	backend.started = make(chan domain.Actor, 1)
	in := newInbox(t, backend)

	done := make(chan error, 1)
	go func() { done <- in.OpenConversation(context.Background(), chess.ID, chess.Role) }()
	<-backend.started
	in.Close()
	close(backend.release)
	require.NoError(t, <-done)

	st := in.State()
	assert.Equal(t, ThreadListOnly, st.Mode)
	assert.Nil(t, st.Conversation)
}

func TestPollRefreshYieldsToLaterOpen(t *testing.T) {
	backend := newStub()
	in := newInbox(t, backend)
	require.NoError(t, in.OpenConversation(context.Background(), chess.ID, chess.Role))

	backend.release = make(chan struct{})
	backend.started = make(chan domain.Actor, 4)

	polled := make(chan error, 1)
	go func() { polled <- in.Poll(context.Background()) }()
	require.Equal(t, chess, <-backend.started)

	opened := make(chan error, 1)
	go func() { opened <- in.OpenConversation(context.Background(), robotic.ID, robotic.Role) }()
	require.Equal(t, robotic, <-backend.started)

	// The open cancelled the refresh; its result must not land.
	require.NoError(t, <-polled)
	st := in.State()
	assert.Equal(t, robotic, st.With)
	assert.True(t, st.Opening)
	assert.Nil(t, st.Conversation)

	close(backend.release)
	require.NoError(t, <-opened)

	st = in.State()
	assert.False(t, st.Opening)
	require.NotNil(t, st.Conversation)
	assert.Equal(t, robotic.ID, st.Conversation.Counterpart.ID)

	backend.mu.Lock()
	backend.convs[robotic].Messages = append(backend.convs[robotic].Messages, domain.Message{ID: 7, Content: "new"})
	backend.mu.Unlock()
	require.NoError(t, in.Poll(context.Background()))
	assert.Len(t, in.State().Conversation.Messages, 2, "later polls still refresh")
}

func TestPollSkipsConversationWhileOpening(t *testing.T) {
	backend := newStub()
	backend.release = make(chan struct{})
	backend.started = make(chan domain.Actor, 2)
	in := newInbox(t, backend)

	opened := make(chan error, 1)
	go func() { opened <- in.OpenConversation(context.Background(), chess.ID, chess.Role) }()
	<-backend.started

	require.NoError(t, in.Poll(context.Background()))
	backend.mu.Lock()
	assert.Equal(t, 1, backend.convN)
	backend.mu.Unlock()

	close(backend.release)
	require.NoError(t, <-opened)
	assert.Equal(t, chess.ID, in.State().Conversation.Counterpart.ID)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Threads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error) {
	args := m.Called(ctx, actor)
	threads, _ := args.Get(0).([]domain.Thread)
	return threads, args.Error(1)
}

func (m *mockBackend) Conversation(ctx context.Context, actor, other domain.Actor) (*domain.Conversation, error) {
	args := m.Called(ctx, actor, other)
	conv, _ := args.Get(0).(*domain.Conversation)
	return conv, args.Error(1)
}

func (m *mockBackend) Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error) {
	args := m.Called(ctx, actor, req)
	msg, _ := args.Get(0).(*domain.SentMessage)
	return msg, args.Error(1)
}

func TestBlankSendMakesNoCall(t *testing.T) {
	backend := &mockBackend{}
	in := newInbox(t, backend)

	in.SetCompose("hello")
	require.NoError(t, in.Send(context.Background()), "no open conversation")

	backend.On("Conversation", mock.Anything, me, chess).Return(conversationWith(chess, 1), nil).Once()
	require.NoError(t, in.OpenConversation(context.Background(), chess.ID, chess.Role))
	for _, text := range []string{"", "   ", "\n\t"} {
		in.SetCompose(text)
		require.NoError(t, in.Send(context.Background()))
		assert.Equal(t, text, in.State().Compose)
	}
	backend.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertExpectations(t)
}

func TestSendSuccessClearsComposeAndRefetches(t *testing.T) {
	backend := newStub()
	in := newInbox(t, backend)
	require.NoError(t, in.LoadThreads(context.Background()))
	require.NoError(t, in.OpenConversation(context.Background(), chess.ID, chess.Role))
	in.TakeScrollRequest()

	in.SetCompose("Is the meeting still on?")
	require.NoError(t, in.Send(context.Background()))

	st := in.State()
	assert.Empty(t, st.Compose)
	require.Len(t, backend.sent, 1)
	assert.Equal(t, domain.SendRequest{Content: "Is the meeting still on?", RecipientID: chess.ID, RecipientType: chess.Role}, backend.sent[0])
	assert.Len(t, st.Conversation.Messages, 4)
	assert.Equal(t, 2, backend.threadsN)
	assert.True(t, in.TakeScrollRequest())
}

func TestSendFailureKeepsCompose(t *testing.T) {
	backend := newStub()
	backend.sendErr = api.ErrConnection
	in := newInbox(t, backend)
	require.NoError(t, in.OpenConversation(context.Background(), chess.ID, chess.Role))

	in.SetCompose("draft")
	require.Error(t, in.Send(context.Background()))
	assert.Equal(t, "draft", in.State().Compose)
	n, ok := in.env.Banner.Current()
	require.True(t, ok)
	assert.Contains(t, n.Text, api.ConnectionMessage)
}

func TestReloadKeepsOpenThreadRead(t *testing.T) {
	backend := newStub()
	in := newInbox(t, backend)
	require.NoError(t, in.OpenConversation(context.Background(), chess.ID, chess.Role))
	require.NoError(t, in.LoadThreads(context.Background()))
	assert.Zero(t, in.State().Threads[0].UnreadCount)

	in.Close()
	require.NoError(t, in.LoadThreads(context.Background()))
	assert.Equal(t, 2, in.State().Threads[0].UnreadCount)
}

func TestReceipt(t *testing.T) {
	assert.Equal(t, ReceiptNone, ReceiptFor(domain.Message{SentByMe: false, Read: true}))
	assert.Equal(t, ReceiptDelivered, ReceiptFor(domain.Message{SentByMe: true}))
	assert.Equal(t, ReceiptRead, ReceiptFor(domain.Message{SentByMe: true, Read: true}))
	assert.Equal(t, "✓✓", ReceiptRead.Icon())
}
