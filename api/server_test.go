package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alextanhongpin/go-fitmate/api"
	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/eventbus"
	"github.com/alextanhongpin/go-fitmate/pkg/slot"
	"github.com/alextanhongpin/go-fitmate/pkg/socket"
	"github.com/alextanhongpin/go-fitmate/pkg/ticket"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

var friendA = domain.Friend{Name: "A", Email: "a@x.com"}

type testServer struct {
	handler http.Handler
	mem     *slot.Memory
	issuer  *ticket.Ticket
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := slot.NewMemory()
	open := func(owner string) domain.Slot { return mem.Slot(slot.Key("test", owner)) }
	sessions := usecase.NewSessions(open, usecase.NewDirectory(friendA), nil)
	issuer := ticket.New([]byte("secret"), time.Hour)

	return &testServer{
		handler: api.New(sessions, issuer, nil).Handler(),
		mem:     mem,
		issuer:  issuer,
	}
}

func (ts *testServer) token(t *testing.T, owner string) string {
	t.Helper()

	token, err := ts.issuer.Issue(owner)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var res map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}

	return w, res
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthenticate(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		Description    string
		Body           any
		ExpectedStatus int
	}{
		{
			Description:    "issues a ticket for an email",
			Body:           map[string]string{"email": "me@x.com"},
			ExpectedStatus: http.StatusOK,
		},
		{
			Description:    "rejects a blank email",
			Body:           map[string]string{"email": "  "},
			ExpectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			w, res := ts.do(t, http.MethodPost, "/authenticate", "", tc.Body)
			require.Equal(t, tc.ExpectedStatus, w.Code)

			if tc.ExpectedStatus == http.StatusOK {
				owner, err := ts.issuer.Verify(res["accessToken"].(string))
				require.NoError(t, err)
				assert.Equal(t, "me@x.com", owner)
			}
		})
	}
}

func TestAuthorization(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		Description string
		Header      string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"garbage token", "Bearer nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/friends", nil)
			require.NoError(t, err)
			if tc.Header != "" {
				req.Header.Set("Authorization", tc.Header)
			}

			w := httptest.NewRecorder()
			ts.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAddFriend(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "me@x.com")

	testCases := []struct {
		Description    string
		Email          string
		ExpectedStatus int
		ExpectedCount  int
		ExpectedError  string
	}{
		{
			Description:    "unknown email",
			Email:          "b@x.com",
			ExpectedStatus: http.StatusNotFound,
			ExpectedError:  "no user found with this email",
		},
		{
			Description:    "blank email is ignored",
			Email:          "",
			ExpectedStatus: http.StatusOK,
			ExpectedCount:  0,
		},
		{
			Description:    "known email",
			Email:          "a@x.com",
			ExpectedStatus: http.StatusOK,
			ExpectedCount:  1,
		},
		{
			Description:    "known email again appends a duplicate",
			Email:          "a@x.com",
			ExpectedStatus: http.StatusOK,
			ExpectedCount:  2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			w, res := ts.do(t, http.MethodPost, "/friends", token, map[string]string{"email": tc.Email})
			require.Equal(t, tc.ExpectedStatus, w.Code)

			if tc.ExpectedError != "" {
				assert.Equal(t, tc.ExpectedError, res["error"])
				return
			}
			assert.Len(t, res["friends"], tc.ExpectedCount)
		})
	}

	raw, ok := ts.mem.Value("test:me@x.com:friends")
	require.True(t, ok)
	assert.JSONEq(t, `[{"name":"A","email":"a@x.com"},{"name":"A","email":"a@x.com"}]`, string(raw))
}

func TestListFriends_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/friends", ts.token(t, "me@x.com"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"friends":[]}`, w.Body.String())
}

func TestRemovalFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "me@x.com")

	w, _ := ts.do(t, http.MethodPost, "/friends", token, map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)

	steps := []struct {
		Description    string
		Method, Path   string
		Body           any
		ExpectedStatus int
		ExpectedState  string
	}{
		{"confirm with nothing staged", http.MethodPost, "/friends/removal/confirm", nil, http.StatusConflict, ""},
		{"cancel with nothing staged", http.MethodDelete, "/friends/removal", nil, http.StatusConflict, ""},
		{"request without email", http.MethodPost, "/friends/removal", domain.Friend{Name: "A"}, http.StatusBadRequest, ""},
		{"request", http.MethodPost, "/friends/removal", friendA, http.StatusAccepted, "confirming_deletion"},
		{"request twice", http.MethodPost, "/friends/removal", friendA, http.StatusConflict, ""},
		{"cancel", http.MethodDelete, "/friends/removal", nil, http.StatusOK, "idle"},
		{"request again", http.MethodPost, "/friends/removal", friendA, http.StatusAccepted, "confirming_deletion"},
		{"state", http.MethodGet, "/friends/removal", nil, http.StatusOK, "confirming_deletion"},
		{"confirm", http.MethodPost, "/friends/removal/confirm", nil, http.StatusOK, ""},
		{"state after confirm", http.MethodGet, "/friends/removal", nil, http.StatusOK, "showing_deletion_notice"},
		{"acknowledge", http.MethodPost, "/friends/removal/ack", nil, http.StatusOK, "idle"},
		{"acknowledge twice", http.MethodPost, "/friends/removal/ack", nil, http.StatusConflict, ""},
	}

	for _, step := range steps {
		w, res := ts.do(t, step.Method, step.Path, token, step.Body)
		require.Equal(t, step.ExpectedStatus, w.Code, step.Description)

		if step.ExpectedState != "" {
			assert.Equal(t, step.ExpectedState, res["state"], step.Description)
		}

		if step.Description == "confirm" {
			assert.Equal(t, []any{}, res["friends"])
			assert.Equal(t, "A(a@x.com) was removed from your friend list.", res["notice"])
		}
	}

	raw, ok := ts.mem.Value("test:me@x.com:friends")
	require.True(t, ok)
	assert.Equal(t, `[]`, string(raw))
}

func TestOwnersAreIsolated(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/friends", ts.token(t, "one@x.com"), map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)

	_, res := ts.do(t, http.MethodGet, "/friends", ts.token(t, "two@x.com"), nil)
	assert.Equal(t, []any{}, res["friends"])
}

type failingSlot struct{ key string }

func (f failingSlot) Key() string                                { return f.key }
func (f failingSlot) Read(context.Context) ([]byte, bool, error) { return nil, false, nil }
func (f failingSlot) Write(context.Context, []byte) error        { return errors.New("quota exceeded") }

func TestAddFriend_PersistenceWarning(t *testing.T) {
	open := func(owner string) domain.Slot { return failingSlot{key: fmt.Sprintf("test:%s:friends", owner)} }
	sessions := usecase.NewSessions(open, usecase.NewDirectory(friendA), nil)
	issuer := ticket.New([]byte("secret"), time.Hour)
	ts := &testServer{handler: api.New(sessions, issuer, nil).Handler(), issuer: issuer}

	w, res := ts.do(t, http.MethodPost, "/friends", ts.token(t, "me@x.com"), map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, res["friends"], 1)
	assert.Contains(t, res["warning"], "quota exceeded")
}

// unreadableSlot fails every read and passes writes through.
type unreadableSlot struct{ domain.Slot }

func (unreadableSlot) Read(context.Context) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestLoadFailureIsReportedOnEveryEndpoint(t *testing.T) {
	testCases := []struct {
		Description    string
		Method, Path   string
		Body           any
		ExpectedStatus int
	}{
		{"list", http.MethodGet, "/friends", nil, http.StatusOK},
		{"add", http.MethodPost, "/friends", map[string]string{"email": "a@x.com"}, http.StatusOK},
		{"removal state", http.MethodGet, "/friends/removal", nil, http.StatusOK},
		{"request removal", http.MethodPost, "/friends/removal", friendA, http.StatusAccepted},
		{"cancel removal", http.MethodDelete, "/friends/removal", nil, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			open := func(owner string) domain.Slot {
				return unreadableSlot{failingSlot{key: fmt.Sprintf("test:%s:friends", owner)}}
			}
			sessions := usecase.NewSessions(open, usecase.NewDirectory(friendA), nil)
			issuer := ticket.New([]byte("secret"), time.Hour)
			ts := &testServer{handler: api.New(sessions, issuer, nil).Handler(), issuer: issuer}
			token := ts.token(t, "me@x.com")

			if tc.Path == "/friends/removal" && tc.Method == http.MethodDelete {
				w, _ := ts.do(t, http.MethodPost, "/friends/removal", token, friendA)
				require.Equal(t, http.StatusAccepted, w.Code)
			}

			w, res := ts.do(t, tc.Method, tc.Path, token, tc.Body)
			require.Equal(t, tc.ExpectedStatus, w.Code)
			assert.Contains(t, res["warning"], "connection refused")
		})
	}
}

func TestAddFriend_UnreadListIsNotOverwritten(t *testing.T) {
	mem := slot.NewMemory()
	mem.Set("test:me@x.com:friends", []byte(`[{"name":"C","email":"c@x.com"}]`))

	open := func(owner string) domain.Slot {
		return unreadableSlot{mem.Slot(slot.Key("test", owner))}
	}
	sessions := usecase.NewSessions(open, usecase.NewDirectory(friendA), nil)
	issuer := ticket.New([]byte("secret"), time.Hour)
	ts := &testServer{handler: api.New(sessions, issuer, nil).Handler(), issuer: issuer, mem: mem}

	w, res := ts.do(t, http.MethodPost, "/friends", ts.token(t, "me@x.com"), map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, res["warning"], "connection refused")
	assert.Contains(t, res["warning"], "has not been read")

	raw, ok := ts.mem.Value("test:me@x.com:friends")
	require.True(t, ok)
	assert.JSONEq(t, `[{"name":"C","email":"c@x.com"}]`, string(raw))
}

func TestNoticeStream(t *testing.T) {
	mem := slot.NewMemory()
	open := func(owner string) domain.Slot { return mem.Slot(slot.Key("test", owner)) }
	sessions := usecase.NewSessions(open, usecase.NewDirectory(friendA), nil)
	issuer := ticket.New([]byte("secret"), time.Hour)
	server := api.New(sessions, issuer, nil)

	bus := eventbus.New[usecase.Notice]()
	for _, event := range []string{usecase.EventFriendAdded, usecase.EventFriendRemoved} {
		bus.On(event, server.PublishNotice)
	}
	sessions.Notices = bus

	hs := httptest.NewServer(server.Handler())
	defer hs.Close()

	ts := &testServer{handler: hs.Config.Handler, mem: mem, issuer: issuer}
	token := ts.token(t, "me@x.com")
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/friends/notices?token="

	t.Run("rejects a bad ticket", func(t *testing.T) {
		_, res, err := websocket.DefaultDialer.Dial(url+"nope", nil)
		require.Error(t, err)
		require.NotNil(t, res)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	ws, _, err := websocket.DefaultDialer.Dial(url+token, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg socket.Message
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, api.MessageConnected, msg.Type)

	// Another owner's activity stays on their own stream.
	w, _ := ts.do(t, http.MethodPost, "/friends", ts.token(t, "other@x.com"), map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/friends", token, map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, usecase.EventFriendAdded, msg.Type)
	assert.Equal(t, map[string]any{"name": "A", "email": "a@x.com"}, msg.Payload["friend"])

	for _, step := range []string{"/friends/removal", "/friends/removal/confirm"} {
		var body any
		if step == "/friends/removal" {
			body = friendA
		}
		w, _ = ts.do(t, http.MethodPost, step, token, body)
		require.Less(t, w.Code, 300, step)
	}

	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, usecase.EventFriendRemoved, msg.Type)
	assert.Equal(t, "A(a@x.com) was removed from your friend list.", msg.Payload["message"])
}
