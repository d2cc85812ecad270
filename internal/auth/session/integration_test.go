package session_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repocomply/internal/auth/appjwt"
	"repocomply/internal/auth/deviceflow"
	"repocomply/internal/auth/installation"
	"repocomply/internal/auth/session"
	"repocomply/internal/auth/store"
	"repocomply/internal/github"
	dErrors "repocomply/pkg/domain-errors"
)

// fakeGitHub is a scriptable stand-in for both api.github.com and the
// github.com OAuth endpoints, close enough for the full connect, refresh,
// and device flow paths to run against it unmodified.
type fakeGitHub struct {
	t   *testing.T
	srv *httptest.Server
	key *rsa.PublicKey

	orgLogin       string
	installationID int64
	token          string
	tokenTTL       time.Duration
	uninstalled    atomic.Bool

	deviceAnswers  []map[string]any
	devicePolls    atomic.Int32
	exchangeCalls  atomic.Int32
	deviceUserCode string
}

func newFakeGitHub(t *testing.T, pub *rsa.PublicKey) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		t:              t,
		key:            pub,
		orgLogin:       "acme",
		installationID: 77,
		token:          "ghs_t1",
		tokenTTL:       time.Hour,
		deviceUserCode: "ABCD-1234",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orgs/{org}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"login": f.orgLogin, "name": "Acme Corp"})
	})
	mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("username") {
		case "octocat", "OCTOCAT":
			writeJSON(w, map[string]any{"login": "Octocat"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"login": "monalisa"})
	})
	mux.HandleFunc("GET /app", func(w http.ResponseWriter, r *http.Request) {
		f.requireAppJWT(r)
		writeJSON(w, map[string]any{"slug": "compliance-bot", "client_id": "Iv1.abc"})
	})
	mux.HandleFunc("GET /app/installations", func(w http.ResponseWriter, r *http.Request) {
		f.requireAppJWT(r)
		writeJSON(w, []map[string]any{
			{"id": f.installationID, "account": map[string]any{"login": "ACME"}, "target_type": "Organization"},
		})
	})
	mux.HandleFunc("POST /app/installations/", func(w http.ResponseWriter, r *http.Request) {
		f.requireAppJWT(r)
		f.exchangeCalls.Add(1)
		if f.uninstalled.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{
			"token":      f.token,
			"expires_at": time.Now().Add(f.tokenTTL).UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("POST /login/device/code", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"device_code":      "dev-1",
			"user_code":        f.deviceUserCode,
			"verification_uri": "https://github.com/login/device",
			"expires_in":       900,
			"interval":         0,
		})
	})
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		i := int(f.devicePolls.Add(1)) - 1
		if i >= len(f.deviceAnswers) {
			i = len(f.deviceAnswers) - 1
		}
		writeJSON(w, f.deviceAnswers[i])
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// requireAppJWT verifies the bearer is an RS256 assertion signed with the
// App's key, the same check GitHub performs.
func (f *fakeGitHub) requireAppJWT(r *http.Request) {
	f.t.Helper()
	raw := r.Header.Get("Authorization")
	require.True(f.t, len(raw) > 7, "missing bearer")
	_, err := jwt.Parse(raw[7:], func(*jwt.Token) (any, error) { return f.key, nil },
		jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(f.t, err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// harness wires real components (client, minter, manager, orchestrator)
// around a fake GitHub, with only the store in memory.
type harness struct {
	svc    *session.Service
	fake   *fakeGitHub
	store  *store.InMemoryStore
	flows  *deviceflow.Orchestrator
	keyPEM string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))

	fake := newFakeGitHub(t, &key.PublicKey)
	client := github.NewClient(
		github.WithAPIBaseURL(fake.srv.URL),
		github.WithOAuthBaseURL(fake.srv.URL),
	)
	minter := appjwt.NewMinter()
	manager := installation.NewManager(client, minter)
	flows := deviceflow.New(client,
		deviceflow.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	st := store.NewInMemoryStore()

	return &harness{
		svc:    session.New(client, manager, minter, flows, st),
		fake:   fake,
		store:  st,
		flows:  flows,
		keyPEM: keyPEM,
	}
}

func (h *harness) connectApp(t *testing.T) session.Snapshot {
	t.Helper()
	snap, err := h.svc.ConnectWithApp(context.Background(), session.AppCredentials{
		AppID:         "123",
		PrivateKeyPEM: h.keyPEM,
		Organization:  "acme",
	})
	require.NoError(t, err)
	return snap
}

func TestAppConnect_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap := h.connectApp(t)

	assert.Equal(t, session.ModeApp, snap.Mode)
	assert.Equal(t, int64(77), snap.InstallationID)
	assert.Equal(t, "Acme Corp", snap.DisplayName)
	assert.Contains(t, snap.ActorIdentity, "123")
	assert.True(t, snap.NeedsUserIdentity)
	assert.True(t, snap.DeviceFlowAvailable)

	tok, err := h.svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghs_t1", tok)

	// A second ask reuses the cached installation token.
	calls := h.fake.exchangeCalls.Load()
	_, err = h.svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, h.fake.exchangeCalls.Load())
}

func TestAppConnect_UninstallForcesDisconnect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.connectApp(t)

	// Make the cached token stale, then remove the installation.
	h.fake.uninstalled.Store(true)
	h.fake.tokenTTL = 0
	_, err := h.svc.ConnectWithApp(ctx, session.AppCredentials{
		AppID: "123", PrivateKeyPEM: h.keyPEM, Organization: "acme",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, installation.ErrUninstalled)
	assert.False(t, h.svc.Snapshot().Connected())
}

func TestToken_UninstallMidSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Issue short-lived tokens so the next ask must hit the exchange.
	h.fake.tokenTTL = time.Minute
	h.connectApp(t)
	h.fake.uninstalled.Store(true)

	_, err := h.svc.Token(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, installation.ErrUninstalled)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	assert.False(t, h.svc.Snapshot().Connected())
	_, err = h.svc.Token(ctx)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHydration_Roundtrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before := h.connectApp(t)
	require.NoError(t, h.svc.SetManualLogin(ctx, "octocat"))

	// A fresh service over the same store and fake rebuilds the session.
	client := github.NewClient(
		github.WithAPIBaseURL(h.fake.srv.URL),
		github.WithOAuthBaseURL(h.fake.srv.URL),
	)
	minter := appjwt.NewMinter()
	manager := installation.NewManager(client, minter)
	flows := deviceflow.New(client)
	revived := session.New(client, manager, minter, flows, h.store)
	require.NoError(t, revived.Hydrate(ctx))

	after := revived.Snapshot()
	assert.Equal(t, session.ModeApp, after.Mode)
	assert.Equal(t, before.InstallationID, after.InstallationID)
	assert.Equal(t, "Octocat", after.ActorIdentity)
	assert.False(t, after.NeedsUserIdentity)

	tok, err := revived.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghs_t1", tok)
}

func TestDeviceFlow_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.connectApp(t)
	h.fake.deviceAnswers = []map[string]any{
		{"error": "authorization_pending"},
		{"access_token": "gho_abc", "token_type": "bearer"},
	}

	prompt, err := h.svc.StartDeviceFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", prompt.UserCode)

	<-h.flows.Done()

	st := h.svc.DeviceFlowStatus()
	assert.Equal(t, deviceflow.StateIdentified, st.State)
	assert.Equal(t, "monalisa", st.Login)
	assert.Equal(t, "monalisa", h.svc.ActorIdentity())
	assert.False(t, h.svc.NeedsUserIdentity())

	persisted, err := h.store.Get(ctx, "actor_identity")
	require.NoError(t, err)
	assert.Equal(t, "monalisa", persisted)
}

func TestManualLogin_UnknownUserOneMessage(t *testing.T) {
	h := newHarness(t)
	h.connectApp(t)

	err := h.svc.SetManualLogin(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(t, "user not found: ghost", err.Error())
}
