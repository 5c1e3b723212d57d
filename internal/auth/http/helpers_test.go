package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campuskit/portalauth/internal/auth/domain"
	"github.com/campuskit/portalauth/internal/auth/service"
	"github.com/campuskit/portalauth/internal/auth/store"
	"github.com/campuskit/portalauth/internal/auth/store/drivers/sqlite"
	"github.com/campuskit/portalauth/pkg/cryptox"
	"github.com/campuskit/portalauth/pkg/idx"
	"github.com/campuskit/portalauth/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "correct horse battery"
	testEmail    = "alice@example.edu"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "portalauth-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// routerFixture is a fully wired router over an in-memory store, served from
// an httptest server.
type routerFixture struct {
	Server *httptest.Server
	Store  store.Store
	Codec  *tokenx.Codec
}

func newRouterFixture(t *testing.T, accessTTL time.Duration) *routerFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := tokenx.New([]byte("router-test-secret"), "portal-auth", "portal")
	require.NoError(t, err)

	sessions := &service.SessionService{
		Codec:      codec,
		Store:      st,
		AccessTTL:  accessTTL,
		RefreshTTL: 4 * accessTTL,
	}
	directory := &service.DirectoryService{Store: st}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(codec, "test", st, logger)
	router.SessionService = sessions
	router.DirectoryService = directory
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &routerFixture{Server: srv, Store: st, Codec: codec}
}

func (f *routerFixture) seed(t *testing.T, email, password string, role domain.Role, active bool) domain.Identity {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	identity := domain.Identity{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  "Test Identity",
		Role:         role,
		Active:       active,
		PasswordHash: hash,
	}
	require.NoError(t, f.Store.Identities().Create(context.Background(), identity))
	return identity
}

// request performs an HTTP call against the fixture server and decodes the
// JSON response body into a generic map.
func (f *routerFixture) request(t *testing.T, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, f.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// login performs a login round-trip and returns the token pair.
func (f *routerFixture) login(t *testing.T, email, password string) (access, refresh string) {
	t.Helper()

	status, body := f.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login body: %v", body)
	access, _ = body["access_token"].(string)
	refresh, _ = body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}
