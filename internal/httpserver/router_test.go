package httpserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/testenv"
)

func do(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func detail(t *testing.T, data []byte) string {
	t.Helper()
	var e domain.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e.Detail
}

func TestHealthAndMetrics(t *testing.T) {
	env := testenv.New(t)

	resp, _ := do(t, http.MethodGet, env.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := do(t, http.MethodGet, env.URL+"/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "clubcompanion_http_requests_total")
}

func TestRegisterLoginFlow(t *testing.T) {
	env := testenv.New(t)

	reg := domain.Registration{Email: "carol@ufl.edu", Password: "password123", Name: "Carol", Interests: []string{"Music"}}
	resp, data := do(t, http.MethodPost, env.URL+"/api/register/student", "", reg)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rr domain.RegisterResult
	require.NoError(t, json.Unmarshal(data, &rr))
	assert.Equal(t, "Student registered successfully", rr.Message)

	resp, data = do(t, http.MethodPost, env.URL+"/api/register/student", "", reg)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already registered", detail(t, data))

	resp, data = do(t, http.MethodPost, env.URL+"/api/login/student", "", domain.Credentials{Email: "carol@ufl.edu", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Incorrect email or password", detail(t, data))

	resp, data = do(t, http.MethodPost, env.URL+"/api/login/student", "", domain.Credentials{Email: "carol@ufl.edu", Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr domain.LoginResult
	require.NoError(t, json.Unmarshal(data, &lr))
	assert.Equal(t, rr.ID, lr.ID)
	assert.NotEmpty(t, lr.Token)

	resp, data = do(t, http.MethodGet, env.URL+"/api/profile/student/"+itoa(lr.ID), lr.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p domain.Profile
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, "Carol", p.Name)
	assert.Equal(t, []string{"Music"}, p.Interests)
}

func TestRegisterValidation(t *testing.T) {
	env := testenv.New(t)
	resp, data := do(t, http.MethodPost, env.URL+"/api/register/club", "", domain.Registration{
		Email: "x@club.com", Password: "short", Name: "X",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, detail(t, data), "Password")
}

func TestActorScopedRoutesRequireMatchingToken(t *testing.T) {
	env := testenv.New(t)
	alice, aliceToken := env.Register(t, domain.RoleStudent, "alice@ufl.edu", "Alice")
	bob, _ := env.Register(t, domain.RoleStudent, "bob@ufl.edu", "Bob")

	resp, _ := do(t, http.MethodGet, env.URL+"/api/profile/student/"+itoa(alice.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, env.URL+"/api/profile/student/"+itoa(bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, env.URL+"/api/profile/club/"+itoa(alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, env.URL+"/api/messages/student/"+itoa(alice.ID)+"/threads", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSaveClubAndMembers(t *testing.T) {
	env := testenv.New(t)
	alice, aliceToken := env.Register(t, domain.RoleStudent, "alice@ufl.edu", "Alice", "Sports")
	sports, sportsToken := env.ClubActor(t, "Sports Club")
	base := env.URL + "/api/student/" + itoa(alice.ID)

	resp, data := do(t, http.MethodPost, base+"/save-club/"+itoa(sports.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = do(t, http.MethodGet, base+"/is-club-saved/"+itoa(sports.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"is_saved":true}`, string(data))

	resp, data = do(t, http.MethodGet, base+"/saved-clubs", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved []domain.Club
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].MemberCount)
	assert.Equal(t, "sports@club.com", saved[0].ContactEmail)

	resp, data = do(t, http.MethodGet, env.URL+"/api/club/"+itoa(sports.ID)+"/members", sportsToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members []domain.Member
	require.NoError(t, json.Unmarshal(data, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "Alice", members[0].Name)

	resp, _ = do(t, http.MethodPost, base+"/save-club/9999", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, base+"/unsave-club/"+itoa(sports.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMessagingEndpoints(t *testing.T) {
	env := testenv.New(t)
	alice, aliceToken := env.Register(t, domain.RoleStudent, "alice@ufl.edu", "Alice")
	debate, debateToken := env.ClubActor(t, "Debate Team")

	resp, data := do(t, http.MethodPost, env.URL+"/api/messages/student/"+itoa(alice.ID)+"/send", aliceToken,
		domain.SendRequest{Content: "Hello!", RecipientID: debate.ID, RecipientType: domain.RoleClub})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = do(t, http.MethodPost, env.URL+"/api/messages/student/"+itoa(alice.ID)+"/send", aliceToken,
		domain.SendRequest{Content: "Hello?", RecipientID: 9999, RecipientType: domain.RoleClub})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Club not found", detail(t, data))

	clubBase := env.URL + "/api/messages/club/" + itoa(debate.ID)
	resp, data = do(t, http.MethodGet, clubBase+"/threads", debateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var threads []domain.Thread
	require.NoError(t, json.Unmarshal(data, &threads))
	require.Len(t, threads, 1)
	assert.Equal(t, 1, threads[0].UnreadCount)
	assert.Equal(t, "Alice", threads[0].CounterpartName)

	resp, data = do(t, http.MethodGet, clubBase+"/?unread_only=true", debateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var unread []domain.SentMessage
	require.NoError(t, json.Unmarshal(data, &unread))
	require.Len(t, unread, 1)

	resp, data = do(t, http.MethodGet, clubBase+"/conversation/student/"+itoa(alice.ID), debateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conv domain.Conversation
	require.NoError(t, json.Unmarshal(data, &conv))
	assert.Equal(t, "Alice", conv.Counterpart.Name)
	require.Len(t, conv.Messages, 1)

	resp, data = do(t, http.MethodGet, clubBase+"/threads", debateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &threads))
	assert.Zero(t, threads[0].UnreadCount)
}

func TestProfileAvatarUpload(t *testing.T) {
	env := testenv.New(t)
	alice, token := env.Register(t, domain.RoleStudent, "alice@ufl.edu", "Alice")
	url := env.URL + "/api/profile/student/" + itoa(alice.ID)

	// 1x1 transparent PNG.
	pic := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
	resp, data := do(t, http.MethodPost, url, token, domain.ProfileUpdate{Avatar: &pic})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	_, data = do(t, http.MethodGet, url, token, nil)
	var p domain.Profile
	require.NoError(t, json.Unmarshal(data, &p))
	require.True(t, strings.HasPrefix(p.Avatar, "/uploads/student_profile_pictures/"), p.Avatar)

	resp, _ = do(t, http.MethodGet, env.URL+p.Avatar, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bad := "data:image/png;base64,aGVsbG8="
	resp, _ = do(t, http.MethodPost, url, token, domain.ProfileUpdate{Avatar: &bad})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocialLinksOwnership(t *testing.T) {
	env := testenv.New(t)
	art, artToken := env.ClubActor(t, "Art Society")
	_, sportsToken := env.ClubActor(t, "Sports Club")

	in := domain.SocialLinkInput{ClubID: art.ID, Platform: "instagram", URL: "https://instagram.com/art"}
	resp, _ := do(t, http.MethodPost, env.URL+"/api/social-media/", sportsToken, in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := do(t, http.MethodPost, env.URL+"/api/social-media/", artToken, in)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var link domain.SocialLink
	require.NoError(t, json.Unmarshal(data, &link))

	resp, data = do(t, http.MethodGet, env.URL+"/api/social-media/club/"+itoa(art.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var links []domain.SocialLink
	require.NoError(t, json.Unmarshal(data, &links))
	assert.Len(t, links, 1)

	in.Platform = "myspace"
	resp, _ = do(t, http.MethodPut, env.URL+"/api/social-media/"+itoa(link.ID), artToken, in)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, env.URL+"/api/social-media/"+itoa(link.ID), artToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
