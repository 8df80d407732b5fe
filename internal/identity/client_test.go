package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/model"
	"github.com/sellora/storefront/internal/testutil"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", model.ErrNotFound
	}
	return v, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func makeToken(t *testing.T, userID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestClient_SignIn_Success(t *testing.T) {
	accessToken := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "buyer@example.com", creds["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"expires_in":   3600,
		})
	}))
	defer srv.Close()
	accessToken = makeToken(t, "user-1", "buyer@example.com")

	kv := newMemoryKV()
	c := NewClient(srv.URL, "anon-key", kv, testutil.MakeNoopLogger())

	var pushed []*model.Session
	c.OnSessionChange(func(s *model.Session) { pushed = append(pushed, s) })

	sess, err := c.SignIn(context.Background(), "buyer@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "buyer@example.com", sess.User.Email)
	assert.False(t, sess.Expired())

	// Subscribers observe the new session; the token is persisted.
	require.Len(t, pushed, 1)
	assert.Equal(t, sess.AccessToken, pushed[0].AccessToken)
	_, err = kv.Get(sessionKey)
	require.NoError(t, err)
}

func TestClient_SignIn_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", newMemoryKV(), testutil.MakeNoopLogger())

	_, err := c.SignIn(context.Background(), "buyer@example.com", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestClient_SignUp_EmailTaken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", newMemoryKV(), testutil.MakeNoopLogger())

	_, err := c.SignUp(context.Background(), "taken@example.com", "pw")
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestClient_CurrentSession_RoundTrip(t *testing.T) {
	kv := newMemoryKV()
	token := makeToken(t, "user-2", "other@example.com")
	stored, _ := json.Marshal(storedSession{AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, kv.Set(sessionKey, string(stored)))

	c := NewClient("http://unused", "anon-key", kv, testutil.MakeNoopLogger())

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-2", sess.User.ID)
	assert.Equal(t, "other@example.com", sess.User.Email)
}

func TestClient_CurrentSession_Absent(t *testing.T) {
	c := NewClient("http://unused", "anon-key", newMemoryKV(), testutil.MakeNoopLogger())

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestClient_CurrentSession_Expired(t *testing.T) {
	kv := newMemoryKV()
	token := makeToken(t, "user-3", "late@example.com")
	stored, _ := json.Marshal(storedSession{AccessToken: token, ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, kv.Set(sessionKey, string(stored)))

	c := NewClient("http://unused", "anon-key", kv, testutil.MakeNoopLogger())

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestClient_CurrentSession_MalformedStoredData(t *testing.T) {
	kv := newMemoryKV()
	require.NoError(t, kv.Set(sessionKey, "not json"))

	c := NewClient("http://unused", "anon-key", kv, testutil.MakeNoopLogger())

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestClient_SignOut_ClearsSessionAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	kv := newMemoryKV()
	token := makeToken(t, "user-1", "buyer@example.com")
	stored, _ := json.Marshal(storedSession{AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, kv.Set(sessionKey, string(stored)))

	c := NewClient(srv.URL, "anon-key", kv, testutil.MakeNoopLogger())

	var pushed []*model.Session
	c.OnSessionChange(func(s *model.Session) { pushed = append(pushed, s) })

	require.NoError(t, c.SignOut(context.Background()))

	require.Len(t, pushed, 1)
	assert.Nil(t, pushed[0])

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestClient_SignOut_NoStoredSession(t *testing.T) {
	c := NewClient("http://unused", "anon-key", newMemoryKV(), testutil.MakeNoopLogger())
	assert.NoError(t, c.SignOut(context.Background()))
}
