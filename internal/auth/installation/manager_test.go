package installation

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repocomply/internal/auth/appjwt"
	"repocomply/internal/github"
	dErrors "repocomply/pkg/domain-errors"
)

type fakeServer struct {
	t *testing.T

	installations []github.Installation
	tokenStatus   int // 0 means success
	token         string
	expiresAt     time.Time

	listCalls     atomic.Int64
	exchangeCalls atomic.Int64
}

func (f *fakeServer) start(t *testing.T) *github.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /app/installations", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[`)
		for i, inst := range f.installations {
			if i > 0 {
				fmt.Fprint(w, `,`)
			}
			fmt.Fprintf(w, `{"id":%d,"account":{"login":%q},"target_type":"Organization"}`, inst.ID, inst.Account.Login)
		}
		fmt.Fprint(w, `]`)
	})
	mux.HandleFunc("POST /app/installations/", func(w http.ResponseWriter, r *http.Request) {
		f.exchangeCalls.Add(1)
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token":%q,"expires_at":%q}`, f.token, f.expiresAt.Format(time.RFC3339))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return github.NewClient(github.WithAPIBaseURL(srv.URL))
}

func testPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func TestEnsureFresh_ResolvesAndExchanges(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{{ID: 77, Account: github.InstallationAccount{Login: "acme"}}},
		token:         "t1",
		expiresAt:     time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	api := f.start(t)

	m := NewManager(api, appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	token, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
	assert.Equal(t, int64(77), m.InstallationID())
	assert.Equal(t, f.expiresAt, m.TokenExpiry().UTC())

	// Second call reuses the cached token and the resolved installation id.
	_, err = m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.listCalls.Load())
	assert.Equal(t, int64(1), f.exchangeCalls.Load())
}

func TestEnsureFresh_ResolutionIsCaseInsensitive(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{{ID: 9, Account: github.InstallationAccount{Login: "AcMe"}}},
		token:         "t9",
		expiresAt:     time.Now().Add(time.Hour),
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	_, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), m.InstallationID())
}

func TestEnsureFresh_NotInstalledEnumeratesFindings(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{
			{ID: 1, Account: github.InstallationAccount{Login: "globex"}},
			{ID: 2, Account: github.InstallationAccount{Login: "initech"}},
		},
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	_, err := m.EnsureFresh(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Contains(t, err.Error(), "globex")
	assert.Contains(t, err.Error(), "initech")
	assert.Equal(t, int64(0), f.exchangeCalls.Load())
}

func TestEnsureFresh_SingleFlight(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{{ID: 77, Account: github.InstallationAccount{Login: "acme"}}},
		token:         "t1",
		expiresAt:     time.Now().Add(time.Hour),
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	const callers = 16
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			tokens[idx], errs[idx] = m.EnsureFresh(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "t1", tokens[i], "all concurrent callers must observe the identical token")
	}
	assert.Equal(t, int64(1), f.exchangeCalls.Load(), "stale concurrent callers must coalesce into one exchange")
}

func TestEnsureFresh_ExpiryBufferForcesRefresh(t *testing.T) {
	// First token expires within the 5-minute buffer, so the next call
	// must treat the cache as stale.
	f := &fakeServer{
		installations: []github.Installation{{ID: 77, Account: github.InstallationAccount{Login: "acme"}}},
		token:         "t1",
		expiresAt:     time.Now().Add(4 * time.Minute),
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	first, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", first)

	f.token = "t2"
	f.expiresAt = time.Now().Add(time.Hour)
	second, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", second)
	assert.Equal(t, int64(2), f.exchangeCalls.Load())
}

func TestEnsureFresh_Exchange404IsFatal(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{{ID: 77, Account: github.InstallationAccount{Login: "acme"}}},
		tokenStatus:   http.StatusNotFound,
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	_, err := m.EnsureFresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUninstalled)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestEnsureFresh_TransientFailureLeavesStateRetryable(t *testing.T) {
	f := &fakeServer{
		installations: []github.Installation{{ID: 77, Account: github.InstallationAccount{Login: "acme"}}},
		tokenStatus:   http.StatusBadGateway,
	}
	m := NewManager(f.start(t), appjwt.NewMinter())
	m.Configure("123", testPEM(t), "acme", 0)

	_, err := m.EnsureFresh(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUninstalled)

	// Next attempt retries the full refresh.
	f.tokenStatus = 0
	f.token = "t-recovered"
	f.expiresAt = time.Now().Add(time.Hour)
	token, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-recovered", token)
}

func TestEnsureFresh_Unconfigured(t *testing.T) {
	m := NewManager(nil, appjwt.NewMinter())
	_, err := m.EnsureFresh(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
