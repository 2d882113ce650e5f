package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "service-key")
}

func TestSignUpReturnsSession(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ayse@example.com", body.Email)
		assert.Equal(t, "secret1", body.Password)

		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_at":1700000000,"user":{"id":"u1","email":"ayse@example.com"}}`))
	})

	sess, err := NewAuthProvider(client).SignUp(context.Background(), "ayse@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, sess.Confirmed())
	assert.Equal(t, "tok", sess.AccessToken)
	assert.Equal(t, int64(1700000000), sess.ExpiresAt)
	assert.Equal(t, domain.SessionUser{ID: "u1", Email: "ayse@example.com"}, sess.User)
}

func TestSignUpPendingConfirmation(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u2","email":"mehmet@example.com","confirmation_sent_at":"2024-01-01T00:00:00Z"}`))
	})

	sess, err := NewAuthProvider(client).SignUp(context.Background(), "mehmet@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, sess.Confirmed())
	assert.Equal(t, "u2", sess.User.ID)
	assert.Equal(t, "bearer", sess.TokenType)
}

func TestSignUpErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"error code", http.StatusUnprocessableEntity, `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`, port.ErrUserExists},
		{"legacy message", http.StatusBadRequest, `{"code":400,"msg":"User already registered"}`, port.ErrUserExists},
		{"weak password", http.StatusUnprocessableEntity, `{"error_code":"weak_password","msg":"Password should be at least 6 characters"}`, port.ErrSignUpRejected},
		{"provider down", http.StatusBadGateway, `oops`, port.ErrProviderUnavailable},
		{"throttled", http.StatusTooManyRequests, `{"error_code":"over_request_rate_limit","msg":"Request rate limit reached"}`, port.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := NewAuthProvider(client).SignUp(context.Background(), "a@b.co", "secret1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignIn(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

		var body credentials
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"a@b.co"}}`))
	})
	p := NewAuthProvider(client)

	before := time.Now().Unix()
	sess, err := p.SignIn(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.AccessToken)
	assert.GreaterOrEqual(t, sess.ExpiresAt, before+3600)

	_, err = p.SignIn(context.Background(), "a@b.co", "wrong")
	assert.ErrorIs(t, err, port.ErrInvalidCredentials)
}

func TestSignInThrottled(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error_code":"over_request_rate_limit","msg":"Request rate limit reached"}`))
	})

	_, err := NewAuthProvider(client).SignIn(context.Background(), "a@b.co", "secret1")
	assert.ErrorIs(t, err, port.ErrRateLimited)
	assert.NotErrorIs(t, err, port.ErrInvalidCredentials)
}

func TestResolveUser(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.co"}`))
	})
	p := NewAuthProvider(client)

	uc, err := p.ResolveUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", uc.UserID)
	assert.Equal(t, "good", uc.AccessToken)

	_, err = p.ResolveUser(context.Background(), "expired")
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestResolveUserProviderUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "service-key")
	_, err := NewAuthProvider(client).ResolveUser(context.Background(), "tok")
	assert.ErrorIs(t, err, port.ErrProviderUnavailable)
}

func TestUpdatePassword(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] == "same" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error_code":"same_password","msg":"New password should be different"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	})
	p := NewAuthProvider(client)
	uc := &domain.UserContext{UserID: "u1", AccessToken: "user-token"}

	require.NoError(t, p.UpdatePassword(context.Background(), uc, "newsecret"))
	assert.ErrorIs(t, p.UpdatePassword(context.Background(), uc, "same"), port.ErrPasswordRejected)
}

func TestAppendChat(t *testing.T) {
	var rows []historyRow
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/chat_history", r.URL.Path)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		w.WriteHeader(http.StatusCreated)
	})

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := NewHistoryTable(client, "chat_history").AppendChat(context.Background(), domain.ChatRecord{
		UserID: "u1", Question: "Merhaba", Answer: "Selam", CreatedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, historyRow{UserID: "u1", Question: "Merhaba", Answer: "Selam", CreatedAt: "2024-05-01T12:00:00Z"}, rows[0])
}

func TestAppendChatRejected(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"relation \"public.chat_history\" does not exist"}`))
	})

	err := NewHistoryTable(client, "chat_history").AppendChat(context.Background(), domain.ChatRecord{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
