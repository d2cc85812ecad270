package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"repocomply/internal/audit"
	"repocomply/internal/auth/deviceflow"
	"repocomply/internal/auth/installation"
	"repocomply/internal/auth/pemutil"
	"repocomply/internal/auth/store"
	"repocomply/internal/platform/metrics"
	"repocomply/internal/platform/tracer"
	dErrors "repocomply/pkg/domain-errors"
	strutil "repocomply/pkg/string"
)

// Service is the session state machine. All mutating operations hold the
// mutex and write the resulting state through to the store before
// returning, so persisted state never lags the in-memory session.
type Service struct {
	api     API
	tokens  TokenSource
	minter  Minter
	devices DeviceFlow
	store   store.Store
	logger  *slog.Logger
	m       *metrics.Metrics
	tracer  tracer.Tracer
	trail   *audit.Publisher

	mu             sync.Mutex
	mode           Mode
	organization   string
	displayName    string
	personalToken  string
	appID          string
	privateKeyPEM  string
	installationID int64
	oauthClientID  string
	actorIdentity  string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.m = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithAudit attaches an audit trail; session lifecycle and identity
// changes are recorded to it.
func WithAudit(trail *audit.Publisher) Option {
	return func(s *Service) {
		s.trail = trail
	}
}

func New(api API, tokens TokenSource, minter Minter, devices DeviceFlow, st store.Store, opts ...Option) *Service {
	s := &Service{
		api:     api,
		tokens:  tokens,
		minter:  minter,
		devices: devices,
		store:   st,
		tracer:  tracer.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Hydrate rebuilds the session from the store. A missing mode marker means
// no session was persisted; incomplete persisted state is discarded rather
// than half-loaded.
func (s *Service) Hydrate(ctx context.Context) error {
	mode, err := s.store.Get(ctx, keyMode)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read persisted session")
	}

	switch Mode(mode) {
	case ModeToken:
		err = s.hydrateToken(ctx)
	case ModeApp:
		err = s.hydrateApp(ctx)
	default:
		err = dErrors.New(dErrors.CodeInternal, "unknown persisted session mode: "+mode)
	}
	if err != nil {
		s.logger.Warn("discarding unusable persisted session", "mode", mode, "error", err)
		return s.store.Clear(ctx)
	}

	s.logger.InfoContext(ctx, "session hydrated", "mode", mode, "org", s.organization)
	return nil
}

func (s *Service) hydrateToken(ctx context.Context) error {
	token, err := s.store.Get(ctx, keyPersonalToken)
	if err != nil {
		return err
	}
	org, err := s.store.Get(ctx, keyOrganization)
	if err != nil {
		return err
	}
	displayName, _ := s.store.Get(ctx, keyDisplayName)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeToken
	s.personalToken = token
	s.organization = org
	s.displayName = displayName
	return nil
}

func (s *Service) hydrateApp(ctx context.Context) error {
	appID, err := s.store.Get(ctx, keyAppID)
	if err != nil {
		return err
	}
	privateKey, err := s.store.Get(ctx, keyPrivateKey)
	if err != nil {
		return err
	}
	org, err := s.store.Get(ctx, keyOrganization)
	if err != nil {
		return err
	}
	rawID, err := s.store.Get(ctx, keyInstallationID)
	if err != nil {
		return err
	}
	installationID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persisted installation id is not numeric")
	}
	actor, err := s.store.Get(ctx, keyActorIdentity)
	if err != nil {
		return err
	}
	displayName, _ := s.store.Get(ctx, keyDisplayName)
	clientID, _ := s.store.Get(ctx, keyOAuthClientID)

	s.tokens.Configure(appID, privateKey, org, installationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeApp
	s.appID = appID
	s.privateKeyPEM = privateKey
	s.organization = org
	s.installationID = installationID
	s.oauthClientID = clientID
	s.actorIdentity = actor
	s.displayName = displayName
	return nil
}

// ConnectWithToken validates a personal access token against the target
// organization and makes token mode the active session.
func (s *Service) ConnectWithToken(ctx context.Context, creds TokenCredentials) (Snapshot, error) {
	var err error
	ctx, span := s.tracer.Start(ctx, "session.connect_token")
	defer func() { span.End(err) }()

	strutil.TrimStrings(&creds.PersonalToken, &creds.Organization)
	if creds.PersonalToken == "" || creds.Organization == "" {
		err = dErrors.New(dErrors.CodeInvalidInput, "personal token and organization are required")
		return Snapshot{}, err
	}

	// Replacing a session starts by tearing the old one down, so a failed
	// connect always lands in a clean disconnected state.
	if err = s.teardown(ctx); err != nil {
		return Snapshot{}, err
	}

	org, err := s.api.Organization(ctx, creds.PersonalToken, creds.Organization)
	if err != nil {
		s.countAuthFailure()
		err = dErrors.Wrap(err, dErrors.CodeUnauthorized, "token validation against organization failed")
		return Snapshot{}, err
	}
	displayName := org.Name
	if displayName == "" {
		displayName = org.Login
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeToken
	s.personalToken = creds.PersonalToken
	s.organization = creds.Organization
	s.displayName = displayName

	if err = s.persistLocked(ctx); err != nil {
		return Snapshot{}, err
	}

	s.countConnect(ModeToken)
	s.record(ctx, audit.ActionSessionConnected, "", creds.Organization, string(ModeToken))
	s.logger.InfoContext(ctx, "session connected", "mode", ModeToken, "org", creds.Organization)
	return s.snapshotLocked(), nil
}

// ConnectWithApp validates App credentials end-to-end (normalize the key,
// mint an assertion, resolve the installation, exchange a token) and makes
// app mode the active session. The actor identity starts as a synthetic
// placeholder until a user identity is attached.
func (s *Service) ConnectWithApp(ctx context.Context, creds AppCredentials) (Snapshot, error) {
	var err error
	ctx, span := s.tracer.Start(ctx, "session.connect_app")
	defer func() { span.End(err) }()

	strutil.TrimStrings(&creds.AppID, &creds.Organization)
	if creds.AppID == "" || creds.PrivateKeyPEM == "" || creds.Organization == "" {
		err = dErrors.New(dErrors.CodeInvalidInput, "app id, private key, and organization are required")
		return Snapshot{}, err
	}
	if err = pemutil.ValidateFormat(creds.PrivateKeyPEM); err != nil {
		return Snapshot{}, err
	}
	normalized, err := pemutil.Normalize(creds.PrivateKeyPEM)
	if err != nil {
		return Snapshot{}, err
	}

	if err = s.teardown(ctx); err != nil {
		return Snapshot{}, err
	}

	s.tokens.Configure(creds.AppID, string(normalized), creds.Organization, creds.InstallationID)
	token, err := s.tokens.EnsureFresh(ctx)
	if err != nil {
		s.tokens.Reset()
		s.countAuthFailure()
		return Snapshot{}, err
	}
	installationID := s.tokens.InstallationID()

	// Display name and OAuth client id are cosmetic; their probes must not
	// fail an otherwise valid connection.
	displayName := creds.Organization
	if org, orgErr := s.api.Organization(ctx, token, creds.Organization); orgErr == nil {
		if org.Name != "" {
			displayName = org.Name
		} else if org.Login != "" {
			displayName = org.Login
		}
	} else {
		s.logger.Warn("organization display name probe failed", "error", orgErr)
	}

	clientID := s.discoverClientID(ctx, creds.AppID, string(normalized))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeApp
	s.appID = creds.AppID
	s.privateKeyPEM = string(normalized)
	s.organization = creds.Organization
	s.displayName = displayName
	s.installationID = installationID
	s.oauthClientID = clientID
	s.actorIdentity = placeholderIdentity(creds.AppID)

	if err = s.persistLocked(ctx); err != nil {
		return Snapshot{}, err
	}

	s.countConnect(ModeApp)
	s.record(ctx, audit.ActionSessionConnected, s.actorIdentity, creds.Organization, string(ModeApp))
	s.logger.InfoContext(ctx, "session connected",
		"mode", ModeApp,
		"org", creds.Organization,
		"installation_id", installationID,
		"device_flow_available", clientID != "",
	)
	return s.snapshotLocked(), nil
}

// discoverClientID mints a fresh assertion and reads the App's metadata to
// learn its OAuth client id. Best-effort: older Apps or restricted keys
// leave the device flow unavailable, nothing more.
func (s *Service) discoverClientID(ctx context.Context, appID, privateKeyPEM string) string {
	assertion, err := s.minter.Mint(appID, privateKeyPEM)
	if err != nil {
		s.logger.Warn("client id probe: mint failed", "error", err)
		return ""
	}
	app, err := s.api.App(ctx, assertion)
	if err != nil {
		s.logger.Warn("client id probe: app metadata fetch failed", "error", err)
		return ""
	}
	return app.ClientID
}

// Disconnect tears the session down: cancels any device flow, drops cached
// tokens, zeroes credentials, and clears the store.
func (s *Service) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeNone {
		return nil
	}
	mode := s.mode
	actor := s.actorIdentity
	organization := s.organization
	s.disconnectLocked()
	if err := s.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear persisted session")
	}
	if s.m != nil {
		s.m.SessionDisconnects.Inc()
	}
	s.record(ctx, audit.ActionSessionDisconnected, actor, organization, string(mode))
	s.logger.InfoContext(ctx, "session disconnected", "mode", mode)
	return nil
}

// teardown disconnects in memory and clears the store. Connect paths call
// it before touching the network.
func (s *Service) teardown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked()
	if err := s.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear persisted session")
	}
	return nil
}

// disconnectLocked resets in-memory state only; the caller decides whether
// the store is cleared or overwritten.
func (s *Service) disconnectLocked() {
	s.devices.Cancel()
	s.tokens.Reset()
	s.mode = ModeNone
	s.organization = ""
	s.displayName = ""
	s.personalToken = ""
	s.appID = ""
	s.privateKeyPEM = ""
	s.installationID = 0
	s.oauthClientID = ""
	s.actorIdentity = ""
}

// Token returns a credential usable against the GitHub API right now. In
// app mode a vanished installation force-disconnects the session: the
// credentials can never work again.
func (s *Service) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	mode := s.mode
	personalToken := s.personalToken
	s.mu.Unlock()

	switch mode {
	case ModeToken:
		return personalToken, nil
	case ModeApp:
		token, err := s.tokens.EnsureFresh(ctx)
		if err != nil {
			if errors.Is(err, installation.ErrUninstalled) {
				s.record(ctx, audit.ActionTokenRefused, s.ActorIdentity(), "", "installation gone")
				s.logger.Warn("installation gone, disconnecting session")
				if dErr := s.Disconnect(ctx); dErr != nil {
					s.logger.Error("forced disconnect failed", "error", dErr)
				}
			}
			return "", err
		}
		return token, nil
	default:
		return "", dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
}

// SetManualLogin attaches a user identity to an app-mode session by
// verifying the username exists. Any failure collapses to a single answer:
// the user could not be confirmed.
func (s *Service) SetManualLogin(ctx context.Context, username string) error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	if mode != ModeApp {
		return dErrors.New(dErrors.CodeInvalidInput, "manual identity requires an app session")
	}
	strutil.TrimStrings(&username)
	if username == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}

	token, err := s.tokens.EnsureFresh(ctx)
	if err != nil {
		return dErrors.New(dErrors.CodeNotFound, "user not found: "+username)
	}
	user, err := s.api.User(ctx, token, username)
	if err != nil {
		return dErrors.New(dErrors.CodeNotFound, "user not found: "+username)
	}

	// The API's canonical casing wins over whatever the caller typed.
	if err := s.setActorIdentity(ctx, user.Login); err != nil {
		return err
	}
	s.countIdentity("manual")
	s.record(ctx, audit.ActionIdentitySet, user.Login, "", "manual")
	s.logger.InfoContext(ctx, "actor identity set manually", "login", user.Login)
	return nil
}

// ClearIdentity reverts an app-mode session to the synthetic placeholder
// actor.
func (s *Service) ClearIdentity(ctx context.Context) error {
	s.mu.Lock()
	mode := s.mode
	appID := s.appID
	s.mu.Unlock()
	if mode != ModeApp {
		return dErrors.New(dErrors.CodeInvalidInput, "no app session to clear identity on")
	}
	s.devices.Cancel()
	if err := s.setActorIdentity(ctx, placeholderIdentity(appID)); err != nil {
		return err
	}
	s.record(ctx, audit.ActionIdentityCleared, placeholderIdentity(appID), "", "")
	return nil
}

// NeedsUserIdentity reports whether the session is attributing actions to
// a synthetic actor that should be replaced with a real user.
func (s *Service) NeedsUserIdentity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ModeApp && IsPlaceholder(s.actorIdentity)
}

// ActorIdentity returns the identity actions are currently attributed to.
func (s *Service) ActorIdentity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actorIdentity
}

// StartDeviceFlow begins device authorization to resolve a real user for
// an app-mode session. Identity applies through the same write path as the
// manual fallback; whichever finishes last wins.
func (s *Service) StartDeviceFlow(ctx context.Context) (deviceflow.Prompt, error) {
	s.mu.Lock()
	mode := s.mode
	clientID := s.oauthClientID
	s.mu.Unlock()

	if mode != ModeApp {
		return deviceflow.Prompt{}, dErrors.New(dErrors.CodeInvalidInput, "device flow requires an app session")
	}
	if clientID == "" {
		return deviceflow.Prompt{}, dErrors.Wrap(deviceflow.ErrNoClientID, dErrors.CodeInvalidInput,
			"the app did not report an oauth client id")
	}

	return s.devices.Start(ctx, clientID, func(ctx context.Context, login string) error {
		if err := s.setActorIdentity(ctx, login); err != nil {
			return err
		}
		s.countIdentity("device_flow")
		s.record(ctx, audit.ActionIdentitySet, login, "", "device_flow")
		return nil
	})
}

// CancelDeviceFlow stops any in-flight device authorization.
func (s *Service) CancelDeviceFlow() {
	s.devices.Cancel()
}

// DeviceFlowStatus reports the current device flow state.
func (s *Service) DeviceFlowStatus() deviceflow.Status {
	return s.devices.Status()
}

func (s *Service) setActorIdentity(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeApp {
		// The session disconnected while an identity flow was in flight.
		return dErrors.New(dErrors.CodeInvalidInput, "no app session to attach identity to")
	}
	s.actorIdentity = identity
	if err := s.store.Set(ctx, keyActorIdentity, identity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist actor identity")
	}
	return nil
}

// Snapshot reports the current session without secrets.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		Mode:          s.mode,
		Organization:  s.organization,
		DisplayName:   s.displayName,
		ActorIdentity: s.actorIdentity,
	}
	if s.mode == ModeApp {
		snap.AppID = s.appID
		snap.InstallationID = s.installationID
		snap.TokenExpiresAt = s.tokens.TokenExpiry()
		snap.NeedsUserIdentity = IsPlaceholder(s.actorIdentity)
		snap.DeviceFlowAvailable = s.oauthClientID != ""
	}
	return snap
}

// persistLocked writes the full session under the mode marker. Secrets go
// to the same store as everything else; isolating them is the store
// implementation's concern.
func (s *Service) persistLocked(ctx context.Context) error {
	pairs := map[string]string{
		keyMode:         string(s.mode),
		keyOrganization: s.organization,
		keyDisplayName:  s.displayName,
	}
	switch s.mode {
	case ModeToken:
		pairs[keyPersonalToken] = s.personalToken
	case ModeApp:
		pairs[keyAppID] = s.appID
		pairs[keyPrivateKey] = s.privateKeyPEM
		pairs[keyInstallationID] = strconv.FormatInt(s.installationID, 10)
		pairs[keyOAuthClientID] = s.oauthClientID
		pairs[keyActorIdentity] = s.actorIdentity
	}

	// Replace wholesale so keys from a previous mode cannot bleed through.
	if err := s.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset persisted session")
	}
	for key, value := range pairs {
		if err := s.store.Set(ctx, key, value); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action audit.Action, actor, target, detail string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Emit(ctx, audit.Event{
		Actor:  actor,
		Action: action,
		Target: target,
		Detail: detail,
	}); err != nil {
		s.logger.Warn("failed to record audit event", "action", action, "error", err)
	}
}

func (s *Service) countConnect(mode Mode) {
	if s.m != nil {
		s.m.SessionConnects.WithLabelValues(string(mode)).Inc()
	}
}

func (s *Service) countAuthFailure() {
	if s.m != nil {
		s.m.AuthFailures.Inc()
	}
}

func (s *Service) countIdentity(method string) {
	if s.m != nil {
		s.m.IdentityResolved.WithLabelValues(method).Inc()
	}
}
