package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/notepid/club_companion/internal/domain"
)

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// Client talks to the Club Companion REST API.
type Client struct {
	baseURL    string
	httpClient *resty.Client
	tokens     TokenSource
}

// NewClient returns a client for baseURL. tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "ClubCompanion/1.0").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// BaseURL returns the API root, used to resolve relative avatar paths.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, result any, opts ...func(*resty.Request)) error {
	req := c.httpClient.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.SetAuthToken(tok)
		}
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, err)
	}
	if resp.IsError() {
		return parseError(resp)
	}
	return nil
}

func parseError(resp *resty.Response) error {
	apiErr := &Error{Status: resp.StatusCode()}
	var body domain.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Detail = strings.TrimSpace(body.Detail)
	}
	return apiErr
}

func actorPath(prefix string, a domain.Actor) string {
	return fmt.Sprintf("%s/%s/%d", prefix, a.Role, a.ID)
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, role domain.Role, creds domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.do(ctx, resty.MethodPost, "/api/login/"+role.String(), creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a student or club account.
func (c *Client) Register(ctx context.Context, role domain.Role, reg domain.Registration) (*domain.RegisterResult, error) {
	var out domain.RegisterResult
	if err := c.do(ctx, resty.MethodPost, "/api/register/"+role.String(), reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the actor's profile.
func (c *Client) Profile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, resty.MethodGet, actorPath("/api/profile", actor), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves the actor's profile.
func (c *Client) UpdateProfile(ctx context.Context, actor domain.Actor, upd domain.ProfileUpdate) error {
	return c.do(ctx, resty.MethodPost, actorPath("/api/profile", actor), upd, nil)
}

// Clubs lists the club directory.
func (c *Client) Clubs(ctx context.Context) ([]domain.Club, error) {
	var out []domain.Club
	if err := c.do(ctx, resty.MethodGet, "/api/clubs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Club fetches one club.
func (c *Client) Club(ctx context.Context, id int64) (*domain.Club, error) {
	var out domain.Club
	if err := c.do(ctx, resty.MethodGet, fmt.Sprintf("/api/clubs/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Members lists the students who saved a club.
func (c *Client) Members(ctx context.Context, clubID int64) ([]domain.Member, error) {
	var out []domain.Member
	if err := c.do(ctx, resty.MethodGet, fmt.Sprintf("/api/club/%d/members", clubID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavedClubs lists a student's saved clubs.
func (c *Client) SavedClubs(ctx context.Context, studentID int64) ([]domain.Club, error) {
	var out []domain.Club
	if err := c.do(ctx, resty.MethodGet, fmt.Sprintf("/api/student/%d/saved-clubs", studentID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveClub adds a club to a student's saved list.
func (c *Client) SaveClub(ctx context.Context, studentID, clubID int64) (*domain.SaveResult, error) {
	var out domain.SaveResult
	path := fmt.Sprintf("/api/student/%d/save-club/%d", studentID, clubID)
	if err := c.do(ctx, resty.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnsaveClub removes a club from a student's saved list.
func (c *Client) UnsaveClub(ctx context.Context, studentID, clubID int64) (*domain.SaveResult, error) {
	var out domain.SaveResult
	path := fmt.Sprintf("/api/student/%d/unsave-club/%d", studentID, clubID)
	if err := c.do(ctx, resty.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsClubSaved reports whether a student saved a club.
func (c *Client) IsClubSaved(ctx context.Context, studentID, clubID int64) (bool, error) {
	var out struct {
		IsSaved bool `json:"is_saved"`
	}
	path := fmt.Sprintf("/api/student/%d/is-club-saved/%d", studentID, clubID)
	if err := c.do(ctx, resty.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.IsSaved, nil
}

// Threads lists the actor's message threads in server order.
func (c *Client) Threads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error) {
	var out []domain.Thread
	if err := c.do(ctx, resty.MethodGet, actorPath("/api/messages", actor)+"/threads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation fetches the full history with a counterpart. The server marks
// incoming messages read as a side effect.
func (c *Client) Conversation(ctx context.Context, actor, other domain.Actor) (*domain.Conversation, error) {
	var out domain.Conversation
	path := fmt.Sprintf("%s/conversation/%s/%d", actorPath("/api/messages", actor), other.Role, other.ID)
	if err := c.do(ctx, resty.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Send posts a message.
func (c *Client) Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error) {
	var out domain.SentMessage
	if err := c.do(ctx, resty.MethodPost, actorPath("/api/messages", actor)+"/send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages lists every message of the actor, newest first.
func (c *Client) Messages(ctx context.Context, actor domain.Actor, unreadOnly bool) ([]domain.SentMessage, error) {
	var out []domain.SentMessage
	query := func(r *resty.Request) {
		r.SetQueryParam("unread_only", strconv.FormatBool(unreadOnly))
	}
	if err := c.do(ctx, resty.MethodGet, actorPath("/api/messages", actor)+"/", nil, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks one incoming message read.
func (c *Client) MarkRead(ctx context.Context, actor domain.Actor, messageID int64) error {
	return c.do(ctx, resty.MethodPost, fmt.Sprintf("%s/read/%d", actorPath("/api/messages", actor), messageID), nil, nil)
}

// SocialLinks lists a club's social links.
func (c *Client) SocialLinks(ctx context.Context, clubID int64) ([]domain.SocialLink, error) {
	var out []domain.SocialLink
	if err := c.do(ctx, resty.MethodGet, fmt.Sprintf("/api/social-media/club/%d", clubID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSocialLink creates a social link for the logged-in club.
func (c *Client) AddSocialLink(ctx context.Context, in domain.SocialLinkInput) (*domain.SocialLink, error) {
	var out domain.SocialLink
	if err := c.do(ctx, resty.MethodPost, "/api/social-media/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSocialLink replaces a social link.
func (c *Client) UpdateSocialLink(ctx context.Context, id int64, in domain.SocialLinkInput) (*domain.SocialLink, error) {
	var out domain.SocialLink
	if err := c.do(ctx, resty.MethodPut, fmt.Sprintf("/api/social-media/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSocialLink removes a social link.
func (c *Client) DeleteSocialLink(ctx context.Context, id int64) error {
	return c.do(ctx, resty.MethodDelete, fmt.Sprintf("/api/social-media/%d", id), nil, nil)
}
