package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/pkg/logger"
)

const (
	defaultIssueSpec   = "@every 5m"
	defaultSummarySpec = "@every 15m"
	defaultJobTimeout  = 2 * time.Minute
)

// Issuer issues credentials for registrants that lack one.
type Issuer interface {
	IssueAll(ctx context.Context) (services.IssueReport, error)
}

// Summarizer produces attendance summaries.
type Summarizer interface {
	Summarize(ctx context.Context) (services.Summary, error)
}

// SummaryPublisher receives each summary produced by the scheduler.
type SummaryPublisher func(services.Summary)

// Scheduler runs background jobs: periodic credential issuance and attendance snapshots.
type Scheduler struct {
	issuer     Issuer
	summarizer Summarizer
	publish    SummaryPublisher
	cron       *cron.Cron
	log        *zap.Logger
	timeout    time.Duration

	issueSchedule   string
	summarySchedule string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithAutoIssue enables periodic issuance on the given cron specification.
func WithAutoIssue(issuer Issuer, spec string) Option {
	return func(s *Scheduler) {
		s.issuer = issuer
		if spec != "" {
			s.issueSchedule = spec
		}
	}
}

// WithSummary enables periodic attendance snapshots.
func WithSummary(summarizer Summarizer, spec string, publish SummaryPublisher) Option {
	return func(s *Scheduler) {
		s.summarizer = summarizer
		s.publish = publish
		if spec != "" {
			s.summarySchedule = spec
		}
	}
}

// WithJobTimeout bounds each job run.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewScheduler constructs a Scheduler. Jobs without a dependency are skipped.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		timeout:         defaultJobTimeout,
		issueSchedule:   defaultIssueSpec,
		summarySchedule: defaultSummarySpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the enabled jobs and launches the cron scheduler.
func (s *Scheduler) Start() error {
	if s.issuer == nil && s.summarizer == nil {
		return nil
	}

	if s.issuer != nil {
		if _, err := s.cron.AddFunc(s.issueSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := s.issue(ctx); err != nil {
				s.log.Warn("scheduled issuance failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if s.summarizer != nil {
		if _, err := s.cron.AddFunc(s.summarySchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := s.summarize(ctx); err != nil {
				s.log.Warn("attendance snapshot failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every enabled job sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.issuer != nil {
		errs = multierr.Append(errs, s.issue(ctx))
	}
	if s.summarizer != nil {
		errs = multierr.Append(errs, s.summarize(ctx))
	}
	return errs
}

func (s *Scheduler) issue(ctx context.Context) error {
	report, err := s.issuer.IssueAll(ctx)
	if report.Generated > 0 || len(report.Failures) > 0 {
		s.log.Info("scheduled issuance complete",
			zap.Int("generated", report.Generated),
			zap.Int("failures", len(report.Failures)),
		)
	}
	return err
}

func (s *Scheduler) summarize(ctx context.Context) error {
	summary, err := s.summarizer.Summarize(ctx)
	if err != nil {
		return err
	}

	s.log.Info("attendance snapshot",
		zap.Int("total", summary.Total),
		zap.Int("issued", summary.IssuedCount),
		zap.Int("validated", summary.ValidatedCount),
		zap.Float64("percentage", summary.Percentage),
	)
	if s.publish != nil {
		s.publish(summary)
	}
	return nil
}
