// Package service sequences the import pipeline for one statement at a time: format
// detection, extraction, column mapping, normalization, duplicate filtering,
// categorization and the final ledger write.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/dedup"
	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-import/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

const tracerName = "github.com/FACorreiaa/statement-import/internal/domain/import/service"

// Options tunes an ImportService.
type Options struct {
	DefaultCategoryID int64  // assigned when no merchant rule matches
	SampleRows        int    // rows echoed in diagnostics when a mapping is needed
	MaxFileBytes      int64  // larger inputs fail the session
	Currency          string // used for totals when the statement names none
}

// DefaultOptions returns the settings used by NewImportService.
func DefaultOptions() Options {
	return Options{
		DefaultCategoryID: 1,
		SampleRows:        5,
		MaxFileBytes:      20 << 20,
		Currency:          money.EUR,
	}
}

// Result describes a session after Open or ApplyMapping.
type Result struct {
	SessionID    uuid.UUID
	State        State
	Diagnostics  model.Diagnostics
	Transactions []model.CategorizedTransaction // the batch Commit will insert
	Duplicates   int
	Matched      int // transactions categorized by a rule
	ZeroDropped  int
	Suggestions  []categorization.Suggestion
}

// Outcome is the final report of a session.
type Outcome struct {
	SessionID   uuid.UUID
	Inserted    int
	Duplicates  int
	Warnings    []string
	Diagnostics model.Diagnostics
	Suggestions []categorization.Suggestion
	Totals      money.Totals
}

type session struct {
	mu     sync.Mutex // held while a stage runs
	id     uuid.UUID
	name   string
	state  atomic.Int32
	cancel context.CancelFunc // guarded by ImportService.mu

	format       model.Format
	extraction   *model.Extraction
	schema       sniffer.Schema
	profileKey   string
	baseWarnings []string // survive a re-mapping pass

	diag        model.Diagnostics
	pending     []model.CategorizedTransaction
	duplicates  int
	matched     int
	zeroDropped int
	suggestions []categorization.Suggestion
}

func (sess *session) State() State {
	return State(sess.state.Load())
}

// reset clears everything derived from a column mapping.
func (sess *session) reset() {
	sess.diag = model.Diagnostics{
		Format:          sess.format,
		Warnings:        append([]string(nil), sess.baseWarnings...),
		BankProfileKey:  sess.profileKey,
		ScannedDocument: sess.extraction != nil && sess.extraction.Scanned,
	}
	if sess.extraction != nil {
		sess.diag.Currency = sess.extraction.Currency
	}
	sess.pending = nil
	sess.duplicates = 0
	sess.matched = 0
	sess.zeroDropped = 0
	sess.suggestions = nil
}

func (sess *session) result() *Result {
	return &Result{
		SessionID:    sess.id,
		State:        sess.State(),
		Diagnostics:  sess.diag,
		Transactions: sess.pending,
		Duplicates:   sess.duplicates,
		Matched:      sess.matched,
		ZeroDropped:  sess.zeroDropped,
		Suggestions:  sess.suggestions,
	}
}

// ImportService runs one import session at a time. Opening a new file discards the
// previous session, and any stage still running for it returns ErrSessionSuperseded.
type ImportService struct {
	ledger   repository.Ledger
	rules    categorization.RuleStore
	mappings repository.MappingStore // optional
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	opts     Options

	mu      sync.Mutex
	current *session
}

// NewImportService creates a new import service
func NewImportService(ledger repository.Ledger, rules categorization.RuleStore, mappings repository.MappingStore, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		ledger:   ledger,
		rules:    rules,
		mappings: mappings,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		opts:     DefaultOptions(),
	}
}

// WithOptions replaces the service settings. Zero fields keep their defaults.
func (s *ImportService) WithOptions(opts Options) *ImportService {
	def := DefaultOptions()
	if opts.SampleRows <= 0 {
		opts.SampleRows = def.SampleRows
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = def.MaxFileBytes
	}
	if opts.Currency == "" {
		opts.Currency = def.Currency
	}
	if opts.DefaultCategoryID == 0 {
		opts.DefaultCategoryID = def.DefaultCategoryID
	}
	s.opts = opts
	return s
}

// WithMetrics adds Prometheus instrumentation.
func (s *ImportService) WithMetrics(m *Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer replaces the global OpenTelemetry tracer.
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// State returns the state of the current session, or StateIdle when none is open.
func (s *ImportService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return StateIdle
	}
	return s.current.State()
}

// Open starts a new session for r, superseding any session in progress, and runs the
// pipeline as far as it can go without caller input. The returned Result is non-nil
// whenever a session was created, including when the session failed, so that its
// diagnostics can be shown.
func (s *ImportService) Open(ctx context.Context, r io.Reader, name string) (*Result, error) {
	return s.open(ctx, r, name, nil)
}

// open runs Open. declared, when set for a row-oriented statement, replaces remembered
// and inferred mappings from the first normalization pass.
func (s *ImportService) open(ctx context.Context, r io.Reader, name string, declared *model.ColumnMapping) (*Result, error) {
	sess := &session{id: uuid.New(), name: name}

	s.mu.Lock()
	if prev := s.current; prev != nil && prev.cancel != nil {
		prev.cancel()
	}
	s.current = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx, cancel := s.attach(ctx, sess)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "import.Open", trace.WithAttributes(
		attribute.String("import.session_id", sess.id.String()),
		attribute.String("import.file_name", name),
	))
	defer span.End()

	s.logger.Info("import session opened", "session_id", sess.id, "file", name)
	sess.reset()

	var data []byte
	err := s.runStage(ctx, "read", func(ctx context.Context) error {
		var readErr error
		data, readErr = s.read(ctx, r)
		if readErr == nil {
			return nil
		}
		if len(data) == 0 || errors.Is(readErr, ErrInputTooLarge) || ctx.Err() != nil {
			return readErr
		}
		// Keep what arrived before the stream broke.
		sess.baseWarnings = append(sess.baseWarnings,
			fmt.Sprintf("read interrupted after %d bytes, importing what was received: %v", len(data), readErr))
		return nil
	})
	if err != nil {
		return sess.result(), s.fail(ctx, sess, fmt.Errorf("failed to read statement: %w", err))
	}
	if len(data) == 0 {
		return sess.result(), s.fail(ctx, sess, parser.ErrEmptyInput)
	}

	prefix := data
	if len(prefix) > sniffer.PrefixSize {
		prefix = prefix[:sniffer.PrefixSize]
	}
	format, reason := sniffer.Sniff(prefix, name)
	sess.format = format
	sess.diag.Format = format
	span.SetAttributes(attribute.String("import.format", string(format)))
	if err := s.advance(ctx, sess, StateDetected); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}
	s.logger.Debug("statement format detected", "session_id", sess.id, "format", format, "reason", reason)

	err = s.runStage(ctx, "extract", func(ctx context.Context) error {
		extraction, err := parser.ForFormat(format).Extract(ctx, data)
		if err != nil {
			return err
		}
		sess.extraction = extraction
		sess.baseWarnings = append(sess.baseWarnings, extraction.Warnings...)
		return nil
	})
	if err != nil {
		return sess.result(), s.fail(ctx, sess, fmt.Errorf("failed to extract %s statement: %w", format, err))
	}
	sess.reset()
	if err := s.advance(ctx, sess, StateExtracted); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}

	if !format.IsRowOriented() {
		return s.resume(ctx, sess, nil)
	}

	sess.schema = sniffer.InferSchema(sess.extraction.Rows)
	if sess.schema.HasHeader() {
		sess.profileKey = sniffer.ProfileKey(format, sess.schema.Columns)
	}
	if declared != nil {
		s.remember(ctx, sess, *declared)
	}
	return s.resume(ctx, sess, declared)
}

// ApplyMapping supplies or corrects the column mapping of the current session and
// resumes from extraction. The mapping is remembered under the session's bank profile
// key so the next statement with the same layout maps itself.
func (s *ImportService) ApplyMapping(ctx context.Context, m model.ColumnMapping) (*Result, error) {
	sess := s.session()
	if sess == nil {
		return nil, ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !m.Valid() {
		return sess.result(), ErrInvalidMapping
	}
	if !sess.format.IsRowOriented() {
		return sess.result(), fmt.Errorf("%w: %s statements have no columns to map", ErrInvalidState, sess.format)
	}
	if st := sess.State(); st != StateNeedsMapping && st != StateReadyToCommit {
		return sess.result(), fmt.Errorf("%w: cannot apply a mapping while %s", ErrInvalidState, st)
	}

	ctx, cancel := s.attach(ctx, sess)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "import.ApplyMapping", trace.WithAttributes(
		attribute.String("import.session_id", sess.id.String()),
	))
	defer span.End()

	s.remember(ctx, sess, m)

	if err := s.advance(ctx, sess, StateExtracted); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}
	return s.resume(ctx, sess, &m)
}

// Commit writes the pending batch to the ledger in one atomic insert. A failed write
// ends the session; nothing is retried.
func (s *ImportService) Commit(ctx context.Context) (*Outcome, error) {
	sess := s.session()
	if sess == nil {
		return nil, ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch st := sess.State(); st {
	case StateReadyToCommit:
	case StateNeedsMapping:
		return s.outcome(sess, 0), ErrNeedsMapping
	default:
		return s.outcome(sess, 0), fmt.Errorf("%w: cannot commit while %s", ErrInvalidState, st)
	}

	ctx, cancel := s.attach(ctx, sess)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "import.Commit", trace.WithAttributes(
		attribute.String("import.session_id", sess.id.String()),
		attribute.Int("import.pending", len(sess.pending)),
	))
	defer span.End()

	inserted := 0
	err := s.runStage(ctx, "commit", func(ctx context.Context) error {
		if len(sess.pending) == 0 {
			return nil
		}
		n, err := s.ledger.InsertBatch(ctx, sess.pending)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		return s.outcome(sess, 0), s.fail(ctx, sess, fmt.Errorf("failed to commit import batch: %w", err))
	}

	sess.state.Store(int32(StateCommitted))
	out := s.outcome(sess, inserted)

	s.metrics.session(sess.format, "committed")
	s.metrics.committed(inserted, sess.duplicates, len(sess.diag.Warnings))
	span.SetAttributes(attribute.Int("import.inserted", inserted))

	s.logger.Info("import committed",
		"session_id", sess.id,
		"format", sess.format,
		"inserted", inserted,
		"duplicates", sess.duplicates,
		"warnings", len(sess.diag.Warnings),
		"inflow", out.Totals.InflowDisplay(),
		"outflow", out.Totals.OutflowDisplay(),
	)
	return out, nil
}

// Import runs a whole session: Open, then Commit. A mapping, when given, is used for a
// row-oriented statement in place of any remembered or inferred one and is remembered
// like ApplyMapping does. Without a mapping, a statement whose columns cannot be
// inferred returns ErrNeedsMapping along with its diagnostics.
func (s *ImportService) Import(ctx context.Context, r io.Reader, name string, mapping *model.ColumnMapping) (*Outcome, error) {
	if mapping != nil && !mapping.Valid() {
		return nil, ErrInvalidMapping
	}

	res, err := s.open(ctx, r, name, mapping)
	if err != nil {
		return outcomeFromResult(res), err
	}

	if res.State == StateNeedsMapping {
		return outcomeFromResult(res), ErrNeedsMapping
	}
	return s.Commit(ctx)
}

// resume runs mapping resolution through categorization. mapping, when set, is a
// caller-declared mapping that overrides remembered and inferred ones.
func (s *ImportService) resume(ctx context.Context, sess *session, mapping *model.ColumnMapping) (*Result, error) {
	sess.reset()

	var norm normalizer.Result
	if sess.format.IsRowOriented() {
		if len(sess.extraction.Rows) == 0 {
			return sess.result(), s.fail(ctx, sess, ErrNoTransactions)
		}

		m, ok := s.resolveMapping(ctx, sess, mapping)
		if !ok {
			s.suspend(sess)
			return sess.result(), nil
		}

		headerIndex := -1
		if sess.schema.HasHeader() {
			headerIndex = sess.schema.HeaderIndex
		}
		_ = s.runStage(ctx, "normalize", func(context.Context) error {
			norm = normalizer.NormalizeRows(sess.extraction.Rows, m, headerIndex)
			return nil
		})
	} else {
		_ = s.runStage(ctx, "normalize", func(context.Context) error {
			norm = normalizer.NormalizeCandidates(sess.extraction.Candidates)
			return nil
		})
	}

	sess.diag.Warnings = append(sess.diag.Warnings, norm.Warnings...)
	sess.zeroDropped = norm.ZeroDropped
	if len(norm.Transactions) == 0 {
		return sess.result(), s.fail(ctx, sess, ErrNoTransactions)
	}
	if err := s.advance(ctx, sess, StateNormalized); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}

	var fresh []model.NormalizedTransaction
	err := s.runStage(ctx, "dedup", func(ctx context.Context) error {
		var err error
		fresh, sess.duplicates, err = dedup.Filter(ctx, norm.Transactions, s.ledger)
		return err
	})
	if err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}
	if err := s.advance(ctx, sess, StateDeduplicated); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}

	err = s.runStage(ctx, "categorize", func(ctx context.Context) error {
		res, err := categorization.NewCategorizer(s.rules).Categorize(ctx, fresh, s.opts.DefaultCategoryID)
		if err != nil {
			return err
		}
		sess.pending = res.Transactions
		if code := sess.diag.Currency; code != "" {
			for i := range sess.pending {
				sess.pending[i].Currency = code
			}
		}
		sess.matched = res.Matched
		sess.suggestions = res.Suggestions
		sess.diag.Warnings = append(sess.diag.Warnings, res.Warnings...)
		return nil
	})
	if err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}
	if err := s.advance(ctx, sess, StateCategorized); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}

	if err := s.advance(ctx, sess, StateReadyToCommit); err != nil {
		return sess.result(), s.fail(ctx, sess, err)
	}

	s.logger.Info("import ready to commit",
		"session_id", sess.id,
		"format", sess.format,
		"pending", len(sess.pending),
		"duplicates", sess.duplicates,
		"categorized", sess.matched,
		"warnings", len(sess.diag.Warnings),
	)
	return sess.result(), nil
}

// resolveMapping picks, in order, the caller's mapping, a remembered mapping for the
// profile key and the mapping inferred from the header.
func (s *ImportService) resolveMapping(ctx context.Context, sess *session, declared *model.ColumnMapping) (model.ColumnMapping, bool) {
	if declared != nil {
		return *declared, true
	}

	if sess.profileKey != "" && s.mappings != nil {
		stored, err := s.mappings.LoadMapping(ctx, sess.profileKey)
		switch {
		case err != nil:
			s.logger.Warn("failed to load remembered mapping", "session_id", sess.id, "profile_key", sess.profileKey, "error", err)
			sess.diag.Warn(fmt.Sprintf("remembered mapping could not be loaded: %v", err))
		case stored != nil && stored.Valid():
			s.logger.Debug("using remembered mapping", "session_id", sess.id, "profile_key", sess.profileKey)
			return *stored, true
		}
	}

	if sess.schema.Mapping != nil {
		return *sess.schema.Mapping, true
	}
	return model.ColumnMapping{}, false
}

// remember saves m under the session's bank profile key. A failure only warns.
func (s *ImportService) remember(ctx context.Context, sess *session, m model.ColumnMapping) {
	if sess.profileKey == "" || s.mappings == nil {
		return
	}
	if err := s.mappings.SaveMapping(ctx, sess.profileKey, m); err != nil {
		s.logger.Warn("failed to remember column mapping", "session_id", sess.id, "profile_key", sess.profileKey, "error", err)
		sess.baseWarnings = append(sess.baseWarnings, fmt.Sprintf("mapping could not be remembered for next time: %v", err))
	}
}

// suspend stops the pipeline until the caller supplies a mapping.
func (s *ImportService) suspend(sess *session) {
	rows := sess.extraction.Rows
	skip := sess.schema.HeaderIndex + 1

	sess.diag.NeedsMapping = true
	sess.diag.Columns = sess.schema.Columns
	sess.diag.SuggestedMapping = sniffer.SuggestMapping(rows, skip)

	for i := skip; i < len(rows) && len(sess.diag.SampleRows) < s.opts.SampleRows; i++ {
		sess.diag.SampleRows = append(sess.diag.SampleRows, rows[i].Cells)
	}

	sess.state.Store(int32(StateNeedsMapping))
	s.metrics.session(sess.format, "needs_mapping")
	s.logger.Info("import needs a column mapping",
		"session_id", sess.id,
		"columns", len(sess.diag.Columns),
		"has_header", sess.schema.HasHeader(),
		"suggested", sess.diag.SuggestedMapping != nil,
	)
}

// advance moves to the next state unless the session was superseded or cancelled.
func (s *ImportService) advance(ctx context.Context, sess *session, next State) error {
	if s.session() != sess {
		return ErrSessionSuperseded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	sess.state.Store(int32(next))
	return nil
}

// fail ends the session and returns the error to report. A session that was replaced
// reports ErrSessionSuperseded instead of its own error.
func (s *ImportService) fail(ctx context.Context, sess *session, err error) error {
	if s.session() != sess {
		err = ErrSessionSuperseded
	}
	sess.state.Store(int32(StateFailed))

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if errors.Is(err, ErrSessionSuperseded) {
		s.metrics.session(sess.format, "superseded")
		s.logger.Info("import session superseded", "session_id", sess.id)
		return err
	}

	s.metrics.session(sess.format, "failed")
	s.logger.Warn("import session failed",
		"session_id", sess.id,
		"file", sess.name,
		"format", sess.format,
		"warnings", len(sess.diag.Warnings),
		"error", err,
	)
	return err
}

func (s *ImportService) session() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// attach derives a context that Open can cancel when it supersedes sess.
func (s *ImportService) attach(ctx context.Context, sess *session) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.current != sess {
		cancel()
	}
	sess.cancel = cancel
	s.mu.Unlock()
	return ctx, cancel
}

// runStage wraps one pipeline stage in a span and a duration observation.
func (s *ImportService) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "import."+stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.observeStage(stage, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// read drains r on its own goroutine so a stalled reader does not block past ctx.
func (s *ImportService) read(ctx context.Context, r io.Reader) ([]byte, error) {
	type readResult struct {
		data []byte
		err  error
	}

	limit := s.opts.MaxFileBytes
	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, limit+1))
		done <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if int64(len(res.data)) > limit {
			return nil, fmt.Errorf("%w (%d bytes)", ErrInputTooLarge, limit)
		}
		return res.data, res.err
	}
}

func (s *ImportService) outcome(sess *session, inserted int) *Outcome {
	currency := sess.diag.Currency
	if currency == "" {
		currency = s.opts.Currency
	}
	totals := money.Summarize(currency)
	if inserted > 0 {
		for _, t := range sess.pending {
			totals.Add(t.SignedAmountMinor)
		}
	}

	return &Outcome{
		SessionID:   sess.id,
		Inserted:    inserted,
		Duplicates:  sess.duplicates,
		Warnings:    sess.diag.Warnings,
		Diagnostics: sess.diag,
		Suggestions: sess.suggestions,
		Totals:      totals,
	}
}

func outcomeFromResult(res *Result) *Outcome {
	if res == nil {
		return nil
	}
	return &Outcome{
		SessionID:   res.SessionID,
		Duplicates:  res.Duplicates,
		Warnings:    res.Diagnostics.Warnings,
		Diagnostics: res.Diagnostics,
		Suggestions: res.Suggestions,
	}
}
