package installation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"repocomply/internal/platform/metrics"
	"repocomply/internal/platform/tracer"
	dErrors "repocomply/pkg/domain-errors"
)

// freshnessBuffer is how close to expiry a cached token is still considered
// usable. Within the buffer the token counts as stale and gets replaced.
const freshnessBuffer = 5 * time.Minute

// refreshKey is the single-flight key. There is one session per process, so
// one key suffices.
const refreshKey = "installation_token"

// ErrUninstalled reports that the App installation no longer exists. Callers
// must treat it as fatal and tear the session down rather than retry.
var ErrUninstalled = errors.New("app installation no longer exists")

// Minter signs App assertions.
type Minter interface {
	Mint(appID, privateKeyPEM string) (string, error)
}

// Manager keeps one installation token fresh. It is a two-state machine:
// FRESH (cached token outside the expiry buffer) and STALE (no token, or
// inside the buffer). A stale request mints an assertion, resolves the
// installation when it is not yet known, and exchanges for a new token.
// Concurrent stale requests coalesce into a single refresh.
type Manager struct {
	api    API
	minter Minter
	logger *slog.Logger
	m      *metrics.Metrics
	tracer tracer.Tracer
	now    func() time.Time

	group singleflight.Group

	mu             sync.Mutex
	appID          string
	privateKeyPEM  string
	organization   string
	installationID int64
	token          string
	expiresAt      time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mm *metrics.Metrics) Option {
	return func(m *Manager) {
		m.m = mm
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(api API, minter Minter, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		minter: minter,
		now:    time.Now,
		tracer: tracer.Noop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Configure installs App credentials and drops any cached token. Pass a zero
// installationID when it is not yet known; the first refresh resolves it.
func (m *Manager) Configure(appID, privateKeyPEM, organization string, installationID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appID = appID
	m.privateKeyPEM = privateKeyPEM
	m.organization = organization
	m.installationID = installationID
	m.token = ""
	m.expiresAt = time.Time{}
}

// Reset clears credentials and cached state.
func (m *Manager) Reset() {
	m.Configure("", "", "", 0)
}

// InstallationID returns the resolved installation id, or zero before the
// first successful refresh.
func (m *Manager) InstallationID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installationID
}

// TokenExpiry returns the server-declared expiry of the cached token.
func (m *Manager) TokenExpiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// EnsureFresh returns a usable installation token, refreshing it when the
// cached one is stale. Concurrent callers during a refresh all observe the
// same token or the same failure. On ErrUninstalled the App has been removed
// from the organization; any other failure leaves cached state untouched so
// the next call retries cleanly.
func (m *Manager) EnsureFresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.appID == "" {
		m.mu.Unlock()
		return "", dErrors.New(dErrors.CodeUnauthorized, "no app credentials configured")
	}
	if m.freshLocked() {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(refreshKey, func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) freshLocked() bool {
	return m.token != "" && m.now().Before(m.expiresAt.Add(-freshnessBuffer))
}

func (m *Manager) refresh(ctx context.Context) (_ string, err error) {
	ctx, span := m.tracer.Start(ctx, "installation.refresh")
	defer func() { span.End(err) }()

	// A caller that lost the race to another refresh finds a fresh token here.
	m.mu.Lock()
	if m.freshLocked() {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	appID := m.appID
	privateKeyPEM := m.privateKeyPEM
	organization := m.organization
	installationID := m.installationID
	m.mu.Unlock()

	assertion, err := m.minter.Mint(appID, privateKeyPEM)
	if err != nil {
		return "", err
	}

	if installationID == 0 {
		installationID, err = Resolve(ctx, m.api, assertion, organization)
		if err != nil {
			return "", err
		}
		span.AddEvent("installation_resolved")
	}

	tok, err := m.api.CreateInstallationToken(ctx, assertion, installationID)
	if err != nil {
		m.countAuthFailure()
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Exchange 404 means the App was uninstalled. Fatal: the caller
			// must tear the session down, not retry.
			return "", dErrors.Wrap(ErrUninstalled, dErrors.CodeUnauthorized,
				"app is no longer installed on this organization")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "failed to create installation token")
	}

	m.mu.Lock()
	m.installationID = installationID
	m.token = tok.Token
	m.expiresAt = tok.ExpiresAt
	m.mu.Unlock()

	if m.m != nil {
		m.m.TokenRefreshes.Inc()
	}
	m.logger.InfoContext(ctx, "installation token refreshed",
		"installation_id", installationID,
		"expires_at", tok.ExpiresAt,
	)
	return tok.Token, nil
}

func (m *Manager) countAuthFailure() {
	if m.m != nil {
		m.m.AuthFailures.Inc()
	}
}
