// Package store holds the latest market analysis and the dashboard's view
// state. It is the only writer of either.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sentix/apperror"
	"sentix/credential"
	"sentix/logging"
	"sentix/models"
)

// ErrLoadInProgress is returned by Load when a fetch is already in flight.
var ErrLoadInProgress = errors.New("store: load already in progress")

// State is the fetch lifecycle position.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText lets State appear by name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Resolver produces the credential for one fetch.
type Resolver interface {
	Resolve(override string) (credential.Credential, error)
}

// Fetcher retrieves a fresh analysis.
type Fetcher interface {
	FetchAnalysis(ctx context.Context, cred credential.Credential) (*models.MarketAnalysis, error)
}

// Journal records load attempts.
type Journal interface {
	Record(ctx context.Context, rec models.ScanRecord) error
}

// Failure is the user-facing description of the last failed load.
type Failure struct {
	Kind            apperror.Kind `json:"kind"`
	Message         string        `json:"message"`
	Detail          string        `json:"detail"`
	NeedsCredential bool          `json:"needsCredential"`
}

// Snapshot is a copy of the store's state, safe to render without locking.
type Snapshot struct {
	State          State                  `json:"state"`
	Loading        bool                   `json:"loading"`
	View           models.View            `json:"view"`
	Analysis       *models.MarketAnalysis `json:"analysis"`
	SelectedSymbol string                 `json:"selectedSymbol,omitempty"`
	Selected       *models.StockSentiment `json:"selected,omitempty"`
	Failure        *Failure               `json:"error,omitempty"`
	// Stale is set when Analysis predates a failed refresh.
	Stale     bool      `json:"stale"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithJournal records every load attempt to j.
func WithJournal(j Journal) Option { return func(s *Store) { s.journal = j } }

// WithModel names the model in journal records.
func WithModel(name string) Option { return func(s *Store) { s.model = name } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Store is the analysis state machine:
//
//	Idle -> Loading -> Ready | Failed
//	Ready | Failed -> Loading
//
// A failed load keeps the previous analysis so the page can show stale data
// under the error banner.
type Store struct {
	resolver Resolver
	fetcher  Fetcher
	journal  Journal
	model    string
	now      func() time.Time

	inflight sync.WaitGroup

	mu        sync.Mutex
	state     State
	analysis  *models.MarketAnalysis
	selected  string
	view      models.View
	failure   *Failure
	updatedAt time.Time
}

// New creates an idle store showing the dashboard view.
func New(resolver Resolver, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		resolver: resolver,
		fetcher:  fetcher,
		now:      time.Now,
		view:     models.ViewDashboard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load runs one fetch synchronously. It returns ErrLoadInProgress, changing
// nothing, when another load is in flight; otherwise the fetch error, if any.
// override is used for this attempt only and never stored.
func (s *Store) Load(ctx context.Context, override string) error {
	if !s.begin() {
		return ErrLoadInProgress
	}
	return s.run(ctx, override)
}

// Refresh starts a fetch in the background and reports whether it started.
// ctx must outlive the call; it bounds the fetch, not the caller.
func (s *Store) Refresh(ctx context.Context, override string) bool {
	if !s.begin() {
		return false
	}
	go s.run(ctx, override)
	return true
}

// Wait blocks until no load is in flight.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// begin is the only transition into Loading. The check and the transition
// happen under one lock so two fetches can never overlap.
func (s *Store) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Loading {
		logging.Debug("Refresh ignored, scan already running")
		return false
	}
	s.state = Loading
	s.failure = nil
	s.inflight.Add(1)
	return true
}

func (s *Store) run(ctx context.Context, override string) error {
	defer s.inflight.Done()

	started := s.now()
	logging.Info("Market scan started")

	analysis, err := s.fetch(ctx, override)
	s.finish(analysis, err)

	rec := models.ScanRecord{
		StartedAt:  started,
		FinishedAt: s.now(),
		Model:      s.model,
	}
	if err != nil {
		rec.Status = Failed.String()
		rec.ErrorKind = apperror.KindOf(err).String()
		rec.Message = err.Error()
		logging.Error("Market scan failed", "kind", rec.ErrorKind, "error", err, "elapsed", rec.Duration())
	} else {
		rec.Status = Ready.String()
		rec.Positive = len(analysis.TopPositive)
		rec.Negative = len(analysis.TopNegative)
		logging.Info("Market scan finished", "positive", rec.Positive, "negative", rec.Negative, "elapsed", rec.Duration())
	}
	s.record(ctx, rec)

	return err
}

// fetch turns a panic in the resolver or fetcher into an error so the store
// always leaves Loading.
func (s *Store) fetch(ctx context.Context, override string) (analysis *models.MarketAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis = nil
			err = apperror.New(apperror.KindUnknown, "fetch analysis", fmt.Sprintf("panic: %v", r))
		}
	}()

	cred, err := s.resolver.Resolve(override)
	if err != nil {
		return nil, err
	}
	analysis, err = s.fetcher.FetchAnalysis(ctx, cred)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, apperror.New(apperror.KindEmptyResponse, "fetch analysis", "no analysis returned")
	}
	return analysis, nil
}

func (s *Store) finish(analysis *models.MarketAnalysis, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = Failed
		s.failure = describe(err)
		return
	}

	s.analysis = analysis
	s.state = Ready
	s.updatedAt = s.now()
	if !inPositive(analysis, s.selected) {
		s.selected = ""
		if len(analysis.TopPositive) > 0 {
			s.selected = analysis.TopPositive[0].Symbol
		}
	}
}

// inPositive reports whether symbol is in the bullish list. A bearish
// selection does not carry over to a new analysis.
func inPositive(a *models.MarketAnalysis, symbol string) bool {
	for _, st := range a.TopPositive {
		if st.Symbol == symbol {
			return true
		}
	}
	return false
}

func (s *Store) record(ctx context.Context, rec models.ScanRecord) {
	if s.journal == nil {
		return
	}
	// The scan context may already be done; the journal write is local.
	if err := s.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		logging.Warn("Failed to record scan", "error", err)
	}
}

// SelectStock points the detail panel at symbol. It is a no-op returning
// false when symbol is not in the current analysis.
func (s *Store) SelectStock(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analysis.Find(symbol); !ok {
		return false
	}
	s.selected = symbol
	return true
}

// SetView switches the active tab.
func (s *Store) SetView(v models.View) error {
	if _, err := models.ParseView(string(v)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	return nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot copies the current state for rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:     s.state,
		Loading:   s.state == Loading,
		View:      s.view,
		Analysis:  s.analysis.Clone(),
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		snap.UpdatedAt = &at
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
		snap.Stale = s.analysis != nil
	}
	if stock, ok := snap.Analysis.Find(s.selected); ok {
		snap.SelectedSymbol = s.selected
		snap.Selected = &stock
	}
	return snap
}

// describe picks the message shown to the user for err.
func describe(err error) *Failure {
	f := &Failure{
		Kind:            apperror.KindOf(err),
		Detail:          err.Error(),
		NeedsCredential: apperror.NeedsCredential(err),
	}

	var appErr *apperror.Error
	errors.As(err, &appErr)

	switch {
	case f.Kind == apperror.KindMissingCredential:
		f.Message = "API key configuration error: no Gemini API key was found. " +
			"Set REACT_APP_API_KEY (or VITE_API_KEY, NEXT_PUBLIC_API_KEY, API_KEY, GEMINI_API_KEY), " +
			"add it to a .env file, or enter a key below."
	case f.Kind == apperror.KindInvalidCredentialFormat:
		f.Message = "The configured API key is not a valid Google API key (it must start with " +
			credential.Marker + "). Check the value or enter a key below."
	case f.NeedsCredential && appErr != nil:
		f.Message = fmt.Sprintf("The AI provider rejected the API key (%d %s). Check the key or enter another below.",
			appErr.Status, http.StatusText(appErr.Status))
	default:
		f.Message = "Failed to generate market analysis. The AI model might be busy or the search failed. Please try again."
	}
	return f
}
