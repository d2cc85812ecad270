// Package deviceflow drives the OAuth device authorization protocol
// end-to-end: request a code, poll until the user approves, resolve the
// approving user's login. The resulting identity is handed to a callback;
// the OAuth access token itself is discarded once the login is known.
package deviceflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"repocomply/internal/github"
	"repocomply/internal/platform/metrics"
	"repocomply/internal/platform/tracer"
	dErrors "repocomply/pkg/domain-errors"
)

// State enumerates the orchestrator's observable states.
type State string

const (
	StateIdle           State = "idle"
	StateRequestingCode State = "requesting_code"
	StateAwaiting       State = "awaiting_authorization"
	StateResolvingUser  State = "resolving_user"
	StateIdentified     State = "identified"
	StateCancelled      State = "cancelled"
	StateExpired        State = "expired"
	StateDenied         State = "denied"
	StateError          State = "error"
)

// slowDownIncrement is how much the polling interval grows on every
// slow_down answer, per RFC 8628.
const slowDownIncrement = 5 * time.Second

const defaultPollInterval = 5 * time.Second

// API is the slice of the GitHub client the orchestrator depends on.
type API interface {
	RequestDeviceCode(ctx context.Context, clientID string) (*github.DeviceCode, error)
	PollDeviceToken(ctx context.Context, clientID, deviceCode string) (*github.DeviceToken, error)
	AuthenticatedUser(ctx context.Context, accessToken string) (*github.User, error)
}

// IdentifiedFunc receives the resolved login of the authorizing user.
type IdentifiedFunc func(ctx context.Context, login string) error

// Prompt is what the user needs to complete the authorization.
type Prompt struct {
	UserCode        string    `json:"user_code"`
	VerificationURI string    `json:"verification_uri"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Status is a point-in-time view of the flow for the UI.
type Status struct {
	State  State  `json:"state"`
	Prompt Prompt `json:"prompt,omitzero"`
	Login  string `json:"login,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Orchestrator runs at most one device flow at a time. Starting a new flow
// cancels a live one; cancellation is cooperative and a response that
// arrives after cancellation is discarded, never applied.
type Orchestrator struct {
	api    API
	logger *slog.Logger
	m      *metrics.Metrics
	tracer tracer.Tracer
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	runID   string
	state   State
	prompt  Prompt
	login   string
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.m = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithSleep overrides the polling sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

func New(api API, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:    api,
		state:  StateIdle,
		sleep:  sleepContext,
		tracer: tracer.Noop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Start begins a device authorization against the given OAuth client id and
// returns the user prompt. Any live flow is cancelled first. Polling
// continues in the background; onIdentified fires once with the resolved
// login, after which the flow reaches StateIdentified.
func (o *Orchestrator) Start(ctx context.Context, clientID string, onIdentified IdentifiedFunc) (Prompt, error) {
	o.Cancel()

	runID := uuid.New().String()
	o.mu.Lock()
	o.runID = runID
	o.state = StateRequestingCode
	o.prompt = Prompt{}
	o.login = ""
	o.lastErr = nil
	o.mu.Unlock()

	code, err := o.api.RequestDeviceCode(ctx, clientID)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeAPI,
			"failed to request device code; ensure the app has device flow enabled")
		o.transition(runID, StateError, func() { o.lastErr = err })
		return Prompt{}, err
	}

	prompt := Prompt{
		UserCode:        code.UserCode,
		VerificationURI: code.VerificationURI,
		ExpiresAt:       time.Now().Add(time.Duration(code.ExpiresIn) * time.Second),
	}

	// The polling goroutine outlives the request that started the flow, so
	// its context derives from Background, cancelled only through Cancel.
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	o.mu.Lock()
	if o.runID != runID {
		// A newer Start raced us between code request and here.
		o.mu.Unlock()
		cancel()
		return Prompt{}, dErrors.New(dErrors.CodeInvalidInput, "device flow superseded by a newer one")
	}
	o.state = StateAwaiting
	o.prompt = prompt
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	if o.m != nil {
		o.m.DeviceFlowsStarted.Inc()
	}
	o.logger.InfoContext(ctx, "device flow started",
		"user_code", code.UserCode,
		"verification_uri", code.VerificationURI,
		"poll_interval_s", code.Interval,
	)

	go o.poll(runCtx, runID, clientID, code, onIdentified, done)
	return prompt, nil
}

// Cancel stops a live flow. It is safe to call at any time; a flow already
// in a terminal state is left alone. Cancel does not wait for the polling
// goroutine: the goroutine observes the cancelled context at its next
// checkpoint and records StateCancelled itself.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status reports the current flow state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Status{State: o.state, Login: o.login}
	if o.state == StateAwaiting {
		s.Prompt = o.prompt
	}
	if o.lastErr != nil {
		s.Error = o.lastErr.Error()
	}
	return s
}

// Done exposes the live run's completion channel, or nil when no flow is
// running. Tests use it to wait for a terminal state.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

func (o *Orchestrator) poll(ctx context.Context, runID, clientID string, code *github.DeviceCode, onIdentified IdentifiedFunc, done chan struct{}) {
	defer close(done)

	var err error
	ctx, span := o.tracer.Start(ctx, "deviceflow.poll")
	defer func() { span.End(err) }()

	interval := time.Duration(code.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		// Checkpoint one: the sleep itself aborts on cancellation.
		if err = o.sleep(ctx, interval); err != nil {
			o.finishCancelled(runID)
			return
		}
		// Checkpoint two: cancellation that landed between sleep and poll.
		if ctx.Err() != nil {
			o.finishCancelled(runID)
			return
		}

		var tok *github.DeviceToken
		tok, err = o.api.PollDeviceToken(ctx, clientID, code.DeviceCode)
		if err != nil {
			if ctx.Err() != nil {
				err = nil
				o.finishCancelled(runID)
				return
			}
			o.finishError(runID, err)
			return
		}

		switch {
		case tok.AccessToken != "":
			o.transition(runID, StateResolvingUser, nil)
			err = o.resolveUser(ctx, runID, tok.AccessToken, onIdentified)
			return

		case tok.Error == "authorization_pending":
			continue

		case tok.Error == "slow_down":
			interval += slowDownIncrement
			continue

		case tok.Error == "expired_token":
			o.finishTerminal(runID, StateExpired)
			return

		case tok.Error == "access_denied":
			o.finishTerminal(runID, StateDenied)
			return

		default:
			msg := tok.ErrorDescription
			if msg == "" {
				msg = tok.Error
			}
			err = dErrors.New(dErrors.CodeAPI, "device authorization failed: "+msg)
			o.finishError(runID, err)
			return
		}
	}
}

// resolveUser exchanges the access token for the authorizing user's login
// and applies it. The token is not retained: it proves identity, it never
// authorizes API calls. A cancellation observed at any point discards the
// result instead of applying it.
func (o *Orchestrator) resolveUser(ctx context.Context, runID, accessToken string, onIdentified IdentifiedFunc) error {
	user, err := o.api.AuthenticatedUser(ctx, accessToken)
	if err != nil {
		if ctx.Err() != nil {
			o.finishCancelled(runID)
			return nil
		}
		o.finishError(runID, err)
		return err
	}
	if ctx.Err() != nil {
		o.finishCancelled(runID)
		return nil
	}

	if err := onIdentified(ctx, user.Login); err != nil {
		o.finishError(runID, err)
		return err
	}

	o.transition(runID, StateIdentified, func() { o.login = user.Login })
	o.countOutcome("identified")
	o.logger.InfoContext(ctx, "device flow identified user", "login", user.Login)
	return nil
}

// transition applies a state change only when the flow has not been
// superseded by a newer run.
func (o *Orchestrator) transition(runID string, state State, apply func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runID != runID {
		return
	}
	o.state = state
	if apply != nil {
		apply()
	}
}

func (o *Orchestrator) finishCancelled(runID string) {
	o.transition(runID, StateCancelled, nil)
	o.countOutcome("cancelled")
}

func (o *Orchestrator) finishTerminal(runID string, state State) {
	o.transition(runID, state, nil)
	o.countOutcome(string(state))
}

func (o *Orchestrator) finishError(runID string, err error) {
	o.transition(runID, StateError, func() { o.lastErr = err })
	o.countOutcome("error")
	o.logger.Error("device flow failed", "error", err)
}

func (o *Orchestrator) countOutcome(outcome string) {
	if o.m != nil {
		o.m.DeviceFlowOutcomes.WithLabelValues(outcome).Inc()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ErrNoClientID reports that the App's OAuth client id is unknown, which
// makes the device flow unavailable.
var ErrNoClientID = errors.New("oauth client id unknown; device flow unavailable")
