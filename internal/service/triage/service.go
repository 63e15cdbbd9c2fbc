// Package triage fetches recent mail, keeps the important messages and
// summarizes, stores and logs them.
package triage

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	mqcontracts "mailtriage/contracts/mq"
	"mailtriage/internal/lock"
	"mailtriage/internal/model"
	"mailtriage/internal/service/priority"
	"mailtriage/internal/summarizer"
	"mailtriage/pkg/apperr"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
)

// MaxFetch is the largest page the Gmail list call accepts.
const MaxFetch = 500

// MailSource yields the most recent messages of a mailbox.
type MailSource interface {
	FetchRecent(ctx context.Context, maxResults int) ([]model.EmailRecord, error)
}

// EmailWriter persists important emails by id.
type EmailWriter interface {
	Upsert(ctx context.Context, e model.StoredEmail) error
}

// ConversationLog receives one turn per stored email.
type ConversationLog interface {
	Record(emailID, subject string, priority int, summary string)
}

// EventPublisher announces stored emails to other services.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ScoreFunc maps an email to its priority.
type ScoreFunc func(subject, body string) (int, error)

// Report is the result of one triage run. Outcomes has one entry per
// fetched email, in fetch order; Important holds the stored ones.
type Report struct {
	Important []model.ImportantEmail
	Outcomes  []model.ItemOutcome
}

// Skipped returns the outcomes of emails that were not stored.
func (r *Report) Skipped() []model.ItemOutcome {
	var out []model.ItemOutcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			out = append(out, o)
		}
	}
	return out
}

type Service struct {
	source     MailSource
	summarizer summarizer.Summarizer
	store      EmailWriter
	memory     ConversationLog
	locker     lock.Locker
	publisher  EventPublisher
	score      ScoreFunc
	now        func() time.Time
	logger     *zap.Logger

	runs singleflight.Group
}

type Option func(*Service)

// WithPublisher publishes an email.important event for every stored email.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithScorer replaces the keyword scorer.
func WithScorer(f ScoreFunc) Option {
	return func(s *Service) { s.score = f }
}

func NewService(
	source MailSource,
	sum summarizer.Summarizer,
	store EmailWriter,
	memory ConversationLog,
	locker lock.Locker,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		source:     source,
		summarizer: sum,
		store:      store,
		memory:     memory,
		locker:     locker,
		score:      priority.Score,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run triages up to maxResults recent emails. Per-email failures are
// reported in the Report and never fail the run; only a failed fetch does.
// A call with the same maxResults that arrives while a run is still fetching
// shares that run; once the fetch returns, new calls start their own.
func (s *Service) Run(ctx context.Context, maxResults int) (*Report, error) {
	if maxResults < 1 || maxResults > MaxFetch {
		return nil, apperr.Validation("triage.Run", "max_results must be between 1 and %d, got %d", MaxFetch, maxResults)
	}

	key := strconv.Itoa(maxResults)
	v, err, shared := s.runs.Do(key, func() (interface{}, error) {
		// shared runs are not cancelled when one caller goes away
		return s.run(context.WithoutCancel(ctx), key, maxResults)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.WithTrace(ctx, s.logger).Debug("joined in-flight triage run", zap.Int("max_results", maxResults))
	}
	return v.(*Report), nil
}

func (s *Service) run(ctx context.Context, key string, maxResults int) (*Report, error) {
	log := logger.WithTrace(ctx, s.logger)

	records, err := s.source.FetchRecent(ctx, maxResults)
	s.runs.Forget(key)
	if err != nil {
		log.Error("mail fetch failed, nothing processed", zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Dependency("triage.fetch", err)
		}
		return nil, err
	}

	report := &Report{
		Important: []model.ImportantEmail{},
		Outcomes:  make([]model.ItemOutcome, 0, len(records)),
	}
	for _, rec := range records {
		important, outcome := s.process(ctx, log, rec)
		report.Outcomes = append(report.Outcomes, outcome)
		metrics.IncrementTriageOutcome(string(outcome.Status))
		if outcome.Status == model.OutcomeStored {
			report.Important = append(report.Important, important)
		}
	}

	log.Info("triage run finished",
		zap.Int("fetched", len(records)),
		zap.Int("stored", len(report.Important)),
	)
	return report, nil
}

func (s *Service) process(ctx context.Context, log *zap.Logger, rec model.EmailRecord) (model.ImportantEmail, model.ItemOutcome) {
	log = log.With(zap.String("email_id", rec.ID))
	outcome := model.ItemOutcome{EmailID: rec.ID}

	skip := func(status model.OutcomeStatus, err error) (model.ImportantEmail, model.ItemOutcome) {
		outcome.Status = status
		if err != nil {
			outcome.Reason = err.Error()
			log.Warn("email skipped", zap.String("status", string(status)), zap.Error(err))
		}
		return model.ImportantEmail{}, outcome
	}

	p, err := s.score(rec.Subject, rec.Body)
	if err != nil {
		return skip(model.OutcomeScoreFailed, err)
	}
	outcome.Priority = p
	if !priority.IsImportant(p) {
		return skip(model.OutcomeBelowThreshold, nil)
	}

	summary, err := s.summarizer.Summarize(ctx, rec.Body)
	if err != nil {
		return skip(model.OutcomeSummarizeFailed, err)
	}

	important := model.ImportantEmail{
		ScoredEmail: model.ScoredEmail{EmailRecord: rec, Priority: p},
		Summary:     summary,
	}
	if err := s.persist(ctx, important); err != nil {
		return skip(model.OutcomeStoreFailed, err)
	}

	s.announce(ctx, log, important)

	outcome.Status = model.OutcomeStored
	return important, outcome
}

// persist writes the email and its conversation turn while holding the
// email's lock, so concurrent runs touching the same id apply in order.
func (s *Service) persist(ctx context.Context, e model.ImportantEmail) error {
	unlock, err := s.locker.Lock(ctx, "email:"+e.ID)
	if err != nil {
		return apperr.Dependency("triage.lock", err)
	}
	defer unlock()

	if err := s.store.Upsert(ctx, e.Stored()); err != nil {
		return err
	}
	s.memory.Record(e.ID, e.Subject, e.Priority, e.Summary)
	return nil
}

func (s *Service) announce(ctx context.Context, log *zap.Logger, e model.ImportantEmail) {
	if s.publisher == nil {
		return
	}
	payload := mqcontracts.EmailImportantPayload{
		EmailID:     e.ID,
		Subject:     e.Subject,
		Priority:    e.Priority,
		Summary:     e.Summary,
		ProcessedAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, mqcontracts.RoutingKeyEmailImportant, payload); err != nil {
		metrics.IncrementEventPublishFailure(mqcontracts.RoutingKeyEmailImportant)
		log.Warn("failed to publish email.important event", zap.Error(err))
	}
}
