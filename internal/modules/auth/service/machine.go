package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/repository"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/samber/oops"
)

// Platform is the subset of the user-account API the login flow needs.
// Implementations translate transport errors into *domain.PlatformError.
type Platform interface {
	Self(ctx context.Context) (*domain.Account, error)
	SendCode(ctx context.Context, phone string) (codeHash string, err error)
	SignIn(ctx context.Context, phone, codeHash, code string) (*domain.Account, error)
	CheckPassword(ctx context.Context, password string) (*domain.Account, error)
	MigrateTo(ctx context.Context, dc int) error
	ExportSession(ctx context.Context) ([]byte, error)
}

// Operator receives prompts that need a human.
type Operator interface {
	Operator(ctx context.Context, text string) error
}

// Options configures a Machine.
type Options struct {
	Phone       string
	Code        string
	Password    string
	CallTimeout time.Duration
	Now         func() time.Time
}

// Machine drives the account login flow. Only one attempt runs at a time;
// concurrent callers get domain.ErrAuthInProgress.
type Machine struct {
	platform Platform
	store    repository.Repository
	operator Operator
	opts     Options
	logger   *slog.Logger

	busy atomic.Bool

	mu         sync.Mutex
	state      domain.State
	resumeTo   domain.State
	pending    *domain.Challenge
	account    *domain.Account
	floodUntil time.Time

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a new login state machine
func New(platform Platform, store repository.Repository, operator Operator, opts Options, logger *slog.Logger) *Machine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		platform: platform,
		store:    store,
		operator: operator,
		opts:     opts,
		logger:   logger.With("component", "auth"),
		state:    domain.StateUnauthenticated,
		ready:    make(chan struct{}),
	}
}

// Authenticate checks the stored session and, if the server rejects it as
// unauthorized, starts a code login. Other errors leave the state unchanged. It returns code_requested when the flow is waiting for the
// operator.
func (m *Machine) Authenticate(ctx context.Context) (domain.State, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return m.State(), domain.ErrAuthInProgress
	}
	defer m.busy.Store(false)

	if m.State() == domain.StateAuthenticated {
		return domain.StateAuthenticated, nil
	}
	if err := m.floodGate(); err != nil {
		return domain.StateFloodWait, err
	}

	account, err := m.self(ctx)
	if err == nil {
		return m.authenticated(ctx, account)
	}
	if _, ok := domain.AsPlatformError(err, domain.ErrorKindFloodWait); ok {
		return m.fail(ctx, err)
	}
	if !isKind(err, domain.ErrorKindUnauthorized) {
		return m.State(), oops.Wrapf(err, "failed to check stored session")
	}
	m.logger.Info("Stored session is not usable, starting login", "reason", err)

	if m.opts.Phone == "" {
		return m.State(), errors.ErrMissingPhoneNumber
	}
	if err := m.requestCode(ctx); err != nil {
		return m.fail(ctx, err)
	}

	if code := m.takeConfiguredCode(); code != "" {
		state, err := m.submitCode(ctx, code)
		if _, invalid := domain.AsPlatformError(err, domain.ErrorKindCodeInvalid); !invalid {
			return state, err
		}
		m.logger.Warn("Configured login code was rejected, asking the operator")
	}

	m.notify(ctx, fmt.Sprintf(
		"🔐 A login code was sent to %s.\nReply within %d minutes with:\ncode 1 2 3 4 5\n(digits separated by spaces)",
		maskPhone(m.opts.Phone), int(domain.CodeTTL/time.Minute)))
	return domain.StateCodeRequested, nil
}

// SubmitCode completes a pending code challenge.
func (m *Machine) SubmitCode(ctx context.Context, code string) (domain.State, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return m.State(), domain.ErrAuthInProgress
	}
	defer m.busy.Store(false)

	if err := m.floodGate(); err != nil {
		return domain.StateFloodWait, err
	}
	if code = strings.TrimSpace(code); code == "" {
		return m.State(), oops.Errorf("empty login code")
	}
	return m.submitCode(ctx, code)
}

// SubmitPassword answers a pending two-factor challenge.
func (m *Machine) SubmitPassword(ctx context.Context, password string) (domain.State, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return m.State(), domain.ErrAuthInProgress
	}
	defer m.busy.Store(false)

	if err := m.floodGate(); err != nil {
		return domain.StateFloodWait, err
	}
	if m.State() != domain.StateTwoFactorRequired {
		return m.State(), domain.ErrNoPendingTwoFA
	}
	return m.checkPassword(ctx, password)
}

// Heartbeat re-validates an authenticated session. A revoked session drops
// the machine back to unauthenticated and tells the operator.
func (m *Machine) Heartbeat(ctx context.Context) error {
	if m.State() != domain.StateAuthenticated {
		return nil
	}
	if !m.busy.CompareAndSwap(false, true) {
		return nil
	}
	defer m.busy.Store(false)

	_, err := m.self(ctx)
	if err == nil {
		return nil
	}
	if _, ok := domain.AsPlatformError(err, domain.ErrorKindUnauthorized); ok {
		m.mu.Lock()
		m.state = domain.StateUnauthenticated
		m.account = nil
		m.mu.Unlock()
		m.logger.Error("Session was revoked", "error", err)
		m.notify(ctx, "⚠️ The account session was revoked. Send /login to sign in again.")
	}
	return oops.Wrapf(err, "session heartbeat")
}

// Ready is closed the first time the machine reaches authenticated.
func (m *Machine) Ready() <-chan struct{} { return m.ready }

// State returns the current state.
func (m *Machine) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Account returns the logged-in account, or nil.
func (m *Machine) Account() *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return nil
	}
	acct := *m.account
	return &acct
}

// Status returns a snapshot for status endpoints.
func (m *Machine) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.Status{State: m.state, InProgress: m.busy.Load()}
	if m.account != nil {
		acct := *m.account
		status.Account = &acct
	}
	if m.pending != nil {
		status.PendingFor = m.opts.Now().Sub(m.pending.RequestedAt).Round(time.Second).String()
	}
	if !m.floodUntil.IsZero() {
		until := m.floodUntil
		status.FloodUntil = &until
	}
	return status
}

func (m *Machine) requestCode(ctx context.Context) error {
	hash, err := m.sendCode(ctx)
	if pe, ok := domain.AsPlatformError(err, domain.ErrorKindMigrate); ok {
		m.logger.Info("Account lives on another datacenter, migrating", "dc", pe.DC)
		if err := m.platform.MigrateTo(ctx, pe.DC); err != nil {
			return oops.With("dc", pe.DC).Wrapf(err, "migrating to datacenter")
		}
		hash, err = m.sendCode(ctx)
	}
	if err != nil {
		return oops.With("phone", maskPhone(m.opts.Phone)).Wrapf(err, "requesting login code")
	}

	m.mu.Lock()
	m.state = domain.StateCodeRequested
	m.pending = &domain.Challenge{Phone: m.opts.Phone, CodeHash: hash, RequestedAt: m.opts.Now()}
	m.mu.Unlock()

	m.logger.Info("Login code requested", "phone", maskPhone(m.opts.Phone))
	return nil
}

func (m *Machine) submitCode(ctx context.Context, code string) (domain.State, error) {
	m.mu.Lock()
	pending := m.pending
	if pending == nil {
		m.mu.Unlock()
		return m.State(), domain.ErrNoPendingCode
	}
	if pending.Expired(m.opts.Now()) {
		m.pending = nil
		m.state = domain.StateUnauthenticated
		m.mu.Unlock()
		return domain.StateUnauthenticated, domain.ErrCodeExpired
	}
	m.state = domain.StateCodeSubmitted
	m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	account, err := m.platform.SignIn(cctx, pending.Phone, pending.CodeHash, code)
	cancel()

	switch {
	case err == nil:
		return m.authenticated(ctx, account)
	case isKind(err, domain.ErrorKindPasswordNeeded):
		m.mu.Lock()
		m.state = domain.StateTwoFactorRequired
		m.pending = nil
		m.mu.Unlock()
		return m.tryStoredPassword(ctx)
	case isKind(err, domain.ErrorKindCodeExpired):
		m.mu.Lock()
		m.state = domain.StateUnauthenticated
		m.pending = nil
		m.mu.Unlock()
		return domain.StateUnauthenticated, domain.ErrCodeExpired
	case isKind(err, domain.ErrorKindFloodWait):
		m.setState(domain.StateCodeRequested)
		return m.fail(ctx, err)
	default:
		m.setState(domain.StateCodeRequested)
		return domain.StateCodeRequested, oops.Wrapf(err, "submitting login code")
	}
}

func (m *Machine) tryStoredPassword(ctx context.Context) (domain.State, error) {
	if m.opts.Password == "" {
		m.logger.Warn("Two-factor password required but not configured")
		m.notify(ctx, "🔑 This account has two-factor authentication enabled and TWO_FACTOR_PASSWORD is not set.\nSend /password <your password> to continue.")
		return domain.StateTwoFactorRequired, domain.ErrPasswordRequired
	}
	return m.checkPassword(ctx, m.opts.Password)
}

func (m *Machine) checkPassword(ctx context.Context, password string) (domain.State, error) {
	cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	account, err := m.platform.CheckPassword(cctx, password)
	cancel()

	if err == nil {
		return m.authenticated(ctx, account)
	}
	if isKind(err, domain.ErrorKindFloodWait) {
		return m.fail(ctx, err)
	}
	return domain.StateTwoFactorRequired, oops.Wrapf(err, "checking two-factor password")
}

func (m *Machine) authenticated(ctx context.Context, account *domain.Account) (domain.State, error) {
	blob, err := m.platform.ExportSession(ctx)
	if err != nil {
		m.logger.Error("Failed to export session", "error", err)
	} else if err := m.store.Save(ctx, blob); err != nil {
		m.logger.Error("Failed to persist session", "error", err)
	}

	m.mu.Lock()
	m.state = domain.StateAuthenticated
	m.account = account
	m.pending = nil
	m.floodUntil = time.Time{}
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })

	if account != nil {
		m.logger.Info("Authenticated", "account_id", account.ID, "name", account.DisplayName())
	}
	return domain.StateAuthenticated, nil
}

// fail enters flood_wait when err asks for it and returns err unchanged
// otherwise.
func (m *Machine) fail(ctx context.Context, err error) (domain.State, error) {
	pe, ok := domain.AsPlatformError(err, domain.ErrorKindFloodWait)
	if !ok {
		return m.State(), err
	}

	m.mu.Lock()
	if m.state != domain.StateFloodWait {
		m.resumeTo = m.state
	}
	m.state = domain.StateFloodWait
	m.floodUntil = m.opts.Now().Add(pe.Wait)
	until := m.floodUntil
	m.mu.Unlock()

	m.logger.Warn("Rate limited by the platform", "wait", pe.Wait, "until", until)
	m.notify(ctx, fmt.Sprintf(
		"⏳ Telegram rate-limited the login. Wait %s (until %s UTC) before trying again.",
		domain.HumanizeWait(pe.Wait), until.UTC().Format("2006-01-02 15:04")))
	return domain.StateFloodWait, pe
}

// floodGate rejects calls until a flood wait has elapsed.
func (m *Machine) floodGate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.floodUntil.IsZero() {
		return nil
	}
	now := m.opts.Now()
	if now.Before(m.floodUntil) {
		return domain.FloodWait(m.floodUntil.Sub(now), nil)
	}

	m.floodUntil = time.Time{}
	if m.state == domain.StateFloodWait {
		m.state = m.resumeTo
		if m.state == "" {
			m.state = domain.StateUnauthenticated
		}
	}
	return nil
}

func (m *Machine) self(ctx context.Context) (*domain.Account, error) {
	cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	defer cancel()
	return m.platform.Self(cctx)
}

func (m *Machine) sendCode(ctx context.Context) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	defer cancel()
	return m.platform.SendCode(cctx, m.opts.Phone)
}

func (m *Machine) takeConfiguredCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := m.opts.Code
	m.opts.Code = ""
	return code
}

func (m *Machine) setState(state domain.State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *Machine) notify(ctx context.Context, text string) {
	if m.operator == nil {
		return
	}
	if err := m.operator.Operator(ctx, text); err != nil {
		m.logger.Error("Failed to message operator", "error", err)
	}
}

func isKind(err error, kind domain.ErrorKind) bool {
	_, ok := domain.AsPlatformError(err, kind)
	return ok
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
