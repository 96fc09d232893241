// Package app is the Clarus front-end controller. It owns the view state
// (auth, dashboard, job), the job history, the currently viewed job and the
// subscription panel, and receives the job poller's results.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kiranshivaraju/clarus/internal/backend"
	"github.com/kiranshivaraju/clarus/internal/poller"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

const defaultHistoryLimit = 50

// Session is the authentication context the controller works against.
type Session interface {
	Authenticated() bool
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	OnInvalidate(fn func())
}

// Options configures an App.
type Options struct {
	Backend      backend.Client
	Session      Session
	Poll         poller.Config
	PlanCode     string
	HistoryLimit int
	Locale       string
	Logger       *slog.Logger
	Observer     Observer
}

// App is safe for concurrent use.
//
// Lock order is nav, then the poller's lock, then mu. The poller calls
// JobFetched and FetchFailed with its own lock held, so nothing here calls
// the poller while holding mu.
type App struct {
	backend      backend.Client
	session      Session
	poller       *poller.Poller
	planCode     string
	historyLimit int
	msgs         messages
	logger       *slog.Logger
	observer     Observer

	ctx    context.Context
	cancel context.CancelFunc

	// nav serializes changes of the current job with the poller call that
	// follows them.
	nav sync.Mutex

	mu       sync.Mutex
	view     View
	jobs     models.JobList
	current  *models.Job
	watching string
	jobError string
	sub      *models.SubscriptionStatus
	subErr   string
	opErr    string
}

var _ poller.Sink = (*App)(nil)

// New creates an App in the auth view. Call Start to pick the initial view
// from the session.
func New(opts Options) *App {
	if opts.PlanCode == "" {
		opts.PlanCode = models.DefaultPlanCode
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		backend:      opts.Backend,
		session:      opts.Session,
		planCode:     opts.PlanCode,
		historyLimit: opts.HistoryLimit,
		msgs:         messagesFor(opts.Locale),
		logger:       opts.Logger,
		observer:     opts.Observer,
		ctx:          ctx,
		cancel:       cancel,
		view:         ViewAuth,
		jobs:         models.NewJobList(nil),
	}
	a.poller = poller.New(opts.Backend, a, opts.Poll)
	opts.Session.OnInvalidate(a.reset)
	return a
}

// Close stops polling. The App must not be used afterwards.
func (a *App) Close() {
	a.nav.Lock()
	defer a.nav.Unlock()
	a.poller.Stop()
	a.cancel()
}

// Start enters the dashboard when a token is present and the auth view
// otherwise.
func (a *App) Start(ctx context.Context) {
	if !a.session.Authenticated() {
		a.update(func() { a.view = ViewAuth })
		return
	}
	a.enterDashboard(ctx)
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, email, password string) error {
	a.beginOp()
	if err := a.backend.Register(ctx, email, password); err != nil {
		return a.failOp(err)
	}
	return a.Login(ctx, email, password)
}

// Login signs in and enters the dashboard.
func (a *App) Login(ctx context.Context, email, password string) error {
	a.beginOp()
	tok, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return a.failOp(err)
	}
	if err := a.session.Set(ctx, tok.AccessToken); err != nil {
		return a.failOp(fmt.Errorf("saving session: %w", err))
	}
	a.logger.Info("signed in")
	a.enterDashboard(ctx)
	return nil
}

// Logout drops the token. The session's invalidation hook resets the
// controller state.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	a.logger.Info("signed out")
	return nil
}

// reset runs whenever the session identity is dropped or replaced.
func (a *App) reset() {
	a.nav.Lock()
	defer a.nav.Unlock()
	a.poller.Stop()
	a.update(func() {
		a.view = ViewAuth
		a.jobs = models.NewJobList(nil)
		a.current = nil
		a.watching = ""
		a.jobError = ""
		a.sub = nil
		a.subErr = ""
		a.opErr = ""
	})
}

func (a *App) enterDashboard(ctx context.Context) {
	a.update(func() { a.view = ViewDashboard })
	_ = a.RefreshSubscription(ctx)
	_ = a.RefreshHistory(ctx)
}

// RefreshSubscription re-reads the billing status. Without a token it does
// nothing. A failure drops the cached status.
func (a *App) RefreshSubscription(ctx context.Context) error {
	if !a.session.Authenticated() {
		return nil
	}
	a.update(func() { a.subErr = "" })

	sub, err := a.backend.Subscription(ctx)
	if err != nil {
		a.update(func() {
			a.subErr = err.Error()
			a.sub = nil
		})
		return err
	}
	a.update(func() { a.sub = sub })
	return nil
}

// Renew extends the subscription with planCode, or the configured plan when
// empty, and then refreshes the billing status.
func (a *App) Renew(ctx context.Context, planCode string) (*models.Renewal, error) {
	if planCode == "" {
		planCode = a.planCode
	}
	a.update(func() { a.subErr = "" })

	renewal, err := a.backend.Renew(ctx, planCode)
	if err != nil {
		a.update(func() { a.subErr = err.Error() })
		return nil, err
	}
	a.logger.Info("subscription renewed", "plan_code", planCode, "payment_id", renewal.PaymentID)

	if err := a.RefreshSubscription(ctx); err != nil {
		return renewal, err
	}
	return renewal, nil
}

// Upload sends a CSV for scoring. The created job becomes current and is
// polled until it finishes.
func (a *App) Upload(ctx context.Context, filename string, file io.Reader) (*models.Job, error) {
	a.beginOp()

	job, err := a.backend.Upload(ctx, filename, file)
	if err != nil {
		if backend.IsSubscriptionRequired(err) {
			a.update(func() { a.opErr = a.msgs.SubscriptionRequired })
			_ = a.RefreshSubscription(ctx)
			return nil, fmt.Errorf("%w: %w", ErrSubscriptionRequired, err)
		}
		return nil, a.failOp(err)
	}
	a.logger.Info("upload accepted", "job_id", job.ID, "status", job.Status)

	a.nav.Lock()
	defer a.nav.Unlock()
	created := *job
	a.update(func() {
		a.jobs = a.jobs.Prepend(created)
		a.current = &created
		a.watching = created.ID
		a.jobError = ""
		a.view = ViewJob
	})
	a.poller.Watch(a.ctx, created.ID)
	return job, nil
}

// RefreshHistory replaces the job list with the latest page of history.
// Failures are logged and returned, never shown as a banner.
func (a *App) RefreshHistory(ctx context.Context) error {
	items, err := a.backend.ListJobs(ctx, backend.ListOptions{Limit: a.historyLimit, Offset: 0})
	if err != nil {
		a.logger.Warn("loading job history", "error", err)
		return err
	}
	a.update(func() { a.jobs = models.NewJobList(items) })
	return nil
}

// OpenJob makes jobID current and starts polling it. The cached history
// snapshot is shown until the first fetch lands.
func (a *App) OpenJob(jobID string) {
	a.nav.Lock()
	defer a.nav.Unlock()
	a.focus(jobID, true)
	a.poller.Watch(a.ctx, jobID)
}

// Inspect makes jobID current and fetches it once, without polling.
func (a *App) Inspect(ctx context.Context, jobID string) (*models.JobResult, error) {
	a.nav.Lock()
	a.poller.Stop()
	a.focus(jobID, false)
	a.nav.Unlock()

	result, err := a.backend.GetJob(ctx, jobID)
	if err != nil {
		a.FetchFailed(jobID, err)
		return nil, err
	}
	a.JobFetched(*result)
	return result, nil
}

func (a *App) focus(jobID string, watch bool) {
	a.update(func() {
		job, ok := a.jobs.Get(jobID)
		if !ok {
			job = models.Job{ID: jobID}
		}
		a.current = &job
		a.watching = ""
		if watch {
			a.watching = jobID
		}
		a.jobError = ""
		a.view = ViewJob
	})
}

// Back leaves the job view and stops polling.
func (a *App) Back() {
	a.nav.Lock()
	defer a.nav.Unlock()
	a.poller.Stop()
	a.update(func() {
		a.current = nil
		a.watching = ""
		a.jobError = ""
		a.view = ViewDashboard
	})
}

// Download opens the scored CSV of the current job. The caller closes it.
func (a *App) Download(ctx context.Context) (*backend.Download, error) {
	a.mu.Lock()
	cur := a.current
	a.mu.Unlock()
	if cur == nil || !cur.Downloadable() {
		return nil, ErrDownloadUnavailable
	}

	a.beginOp()
	d, err := a.backend.Download(ctx, cur.ID)
	if err != nil {
		return nil, a.failOp(err)
	}
	return d, nil
}

// Done returns a channel closed when the current poll ends.
func (a *App) Done() <-chan struct{} {
	return a.poller.Done()
}

// JobFetched applies a fresh snapshot. Results for a job that is no longer
// current only refresh the history entry.
func (a *App) JobFetched(result models.JobResult) {
	a.update(func() {
		a.jobs = a.jobs.Reconcile(result.Job)
		if a.current == nil || a.current.ID != result.Job.ID {
			return
		}
		job := result.Job
		a.current = &job
		if result.JobError != "" {
			a.jobError = result.JobError
		}
		if job.IsTerminal() {
			a.watching = ""
		}
	})
}

// FetchFailed records a poll failure as the job-level error.
func (a *App) FetchFailed(jobID string, err error) {
	a.logger.Debug("job fetch failed", "job_id", jobID, "error", err)
	a.update(func() {
		if a.current == nil || a.current.ID != jobID {
			return
		}
		a.jobError = err.Error()
	})
}

// Snapshot returns a copy of the current state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *App) snapshotLocked() Snapshot {
	s := Snapshot{
		View:              a.view,
		Authenticated:     a.session.Authenticated(),
		Jobs:              a.jobs.Items(),
		JobError:          a.jobError,
		SubscriptionError: a.subErr,
		Error:             a.opErr,
	}
	if a.current != nil {
		job := *a.current
		s.CurrentJob = &job
		s.Polling = a.watching == job.ID && !job.IsTerminal()
	}
	if a.sub != nil {
		sub := *a.sub
		s.Subscription = &sub
	}
	return s
}

func (a *App) beginOp() {
	a.update(func() { a.opErr = "" })
}

func (a *App) failOp(err error) error {
	a.update(func() { a.opErr = err.Error() })
	return err
}

// update applies fn under the lock and then notifies the observer.
func (a *App) update(fn func()) {
	a.mu.Lock()
	fn()
	var snap Snapshot
	if a.observer != nil {
		snap = a.snapshotLocked()
	}
	a.mu.Unlock()

	if a.observer != nil {
		a.observer(snap)
	}
}
