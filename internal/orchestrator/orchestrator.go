// Package orchestrator drives the end-to-end application loop: discover
// postings per platform, score them against the profile, generate answers,
// and submit through the adapter while the tracker records every step.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/logger"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/matching"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
)

// ApproveFunc is asked once per platform before the first submission. A
// false return means the platform's matches are reported but nothing is
// submitted or recorded.
type ApproveFunc func(platformID string, matches int) (bool, error)

// Summary is the per-platform outcome of one run.
type Summary struct {
	PlatformID        string
	Discovered        int
	Matched           int
	SkippedDuplicates int
	Submitted         int
	Confirmed         int
	Failed            int
}

// Config carries the collaborators for a run. Profile, Matcher, Answerer
// and Tracker are required.
type Config struct {
	Profile  *profile.Profile
	Matcher  *matching.Matcher
	Answerer qa.Answerer
	Tracker  *tracker.Tracker
	Filters  *platform.SearchFilters
	Logger   *zap.Logger

	// Approve gates submissions per platform. Nil means auto-approve.
	Approve ApproveFunc

	// DryRun runs match, detection and generation but never submits and
	// never writes tracker records.
	DryRun bool
}

type Orchestrator struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{cfg: cfg, log: log}
}

// Run processes every adapter concurrently, one session per platform. A
// platform's failures never affect the others; the returned summaries are
// ordered like the adapters. Cancellation is observed between jobs, so an
// in-flight submission always reaches a terminal record state.
func (o *Orchestrator) Run(ctx context.Context, adapters []platform.Adapter) ([]*Summary, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	summaries := make([]*Summary, len(adapters))

	for i, adapter := range adapters {
		group.Go(func() error {
			summaries[i] = o.runPlatform(groupCtx, adapter)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summaries, err
	}

	return summaries, ctx.Err()
}

// platformRun is the per-session state: one adapter, one summary, and the
// approval decision once it has been taken.
type platformRun struct {
	adapter  platform.Adapter
	summary  *Summary
	log      *zap.Logger
	approved *bool
}

func (o *Orchestrator) runPlatform(ctx context.Context, adapter platform.Adapter) *Summary {
	run := &platformRun{
		adapter: adapter,
		summary: &Summary{PlatformID: adapter.ID()},
		log:     logger.WithFields(o.log, zap.String(logger.FieldPlatform, adapter.ID())),
	}

	ok, err := adapter.Login(ctx)
	if err != nil {
		run.log.Error("login error, aborting platform run", zap.Error(err))
		return run.summary
	}
	if !ok {
		run.log.Error("login rejected, aborting platform run",
			zap.Error(platform.ErrLoginFailed))
		return run.summary
	}

	defer func() {
		if _, err := adapter.Logout(ctx); err != nil {
			run.log.Warn("logout failed", zap.Error(err))
		}
	}()

	cursor, err := adapter.SearchJobs(ctx, o.cfg.Filters)
	if err != nil {
		run.log.Error("search failed, aborting platform run", zap.Error(err))
		return run.summary
	}

	for {
		// Cancellation is only honored here, between jobs.
		if ctx.Err() != nil {
			run.log.Info("run cancelled", zap.Int("discovered", run.summary.Discovered))
			return run.summary
		}

		posting, err := cursor.Next(ctx)
		if errors.Is(err, platform.ErrEndOfSearch) {
			break
		}
		if err != nil {
			run.log.Error("search page failed, aborting platform run", zap.Error(err))
			return run.summary
		}

		run.summary.Discovered++
		o.processJob(ctx, run, posting)
	}

	return run.summary
}

// processJob takes one posting through the full pipeline. Nothing it does
// aborts the platform run; every failure ends in a terminal record. Tracker
// writes use a cancellation-immune context: once a job has started, its
// record must reach a terminal state even when the run is cancelled
// mid-submission.
func (o *Orchestrator) processJob(ctx context.Context, run *platformRun, posting *job.Posting) {
	storeCtx := context.WithoutCancel(ctx)
	log := logger.WithFields(o.log,
		logger.JobFields(run.adapter.ID(), o.cfg.Profile.ID, posting.ExternalID)...)

	// Duplicate gate, before any further adapter interaction.
	existing, err := o.cfg.Tracker.Lookup(ctx, o.cfg.Profile.ID, run.adapter.ID(), posting.ExternalID)
	if err != nil {
		log.Error("tracker lookup failed, skipping job", zap.Error(err))
		run.summary.Failed++
		return
	}
	if existing != nil && existing.Status != tracker.StatusFailed {
		log.Debug("skipping duplicate application",
			zap.String("existing_status", string(existing.Status)))
		run.summary.SkippedDuplicates++
		return
	}

	result := o.cfg.Matcher.Score(o.cfg.Profile, posting)
	if !result.Accept {
		log.Debug("posting rejected by matcher",
			zap.Float64("score", result.Score),
			zap.Strings("reasons", result.Reasons),
		)
		return
	}

	run.summary.Matched++
	log.Info("posting matched",
		zap.String("title", posting.Title),
		zap.Float64("score", result.Score),
		zap.Strings("skills", result.MatchedSkills),
	)

	if o.cfg.DryRun {
		o.dryRunJob(ctx, run, log, posting)
		return
	}

	if !o.approved(run) {
		log.Info("submission not approved, skipping")
		return
	}

	record, err := o.cfg.Tracker.Begin(storeCtx, o.cfg.Profile.ID, run.adapter.ID(), posting.ExternalID)
	if errors.Is(err, tracker.ErrDuplicateApplication) {
		// A concurrent run won the insert race.
		run.summary.SkippedDuplicates++
		return
	}
	if err != nil {
		log.Error("tracker begin failed, skipping job", zap.Error(err))
		run.summary.Failed++
		return
	}

	record.JobTitle = posting.Title
	record.Company = posting.Company
	record.Score = result.Score

	if err := o.cfg.Tracker.Transition(storeCtx, record, tracker.StatusMatched); err != nil {
		log.Error("tracker transition failed", zap.Error(err))
		run.summary.Failed++
		return
	}

	o.apply(ctx, storeCtx, run, log, record, posting)
}

// approved resolves the per-platform approval lazily, on the first match
// that would lead to a submission.
func (o *Orchestrator) approved(run *platformRun) bool {
	if run.approved != nil {
		return *run.approved
	}
	if o.cfg.Approve == nil {
		yes := true
		run.approved = &yes
		return true
	}

	ok, err := o.cfg.Approve(run.adapter.ID(), run.summary.Matched)
	if err != nil {
		run.log.Warn("approval prompt failed, not submitting", zap.Error(err))
		ok = false
	}
	run.approved = &ok

	return ok
}

// apply runs detection, generation and submission for a record that is
// already in Matched.
func (o *Orchestrator) apply(ctx, storeCtx context.Context, run *platformRun, log *zap.Logger, record *tracker.Record, posting *job.Posting) {
	details, err := run.adapter.GetJobDetails(ctx, posting.ExternalID)
	if platform.IsTransient(err) {
		// The fetch is read-only, so one in-run retry is free.
		log.Warn("transient details error, retrying once", zap.Error(err))
		details, err = run.adapter.GetJobDetails(ctx, posting.ExternalID)
	}
	if err != nil {
		o.fail(storeCtx, run, log, record, adapterReason(err), err)
		return
	}
	if details == nil {
		o.fail(storeCtx, run, log, record, tracker.ReasonJobDisappeared,
			fmt.Errorf("job %s no longer available", posting.ExternalID))
		return
	}

	questions := qa.DetectQuestions(details.Form)
	if err := o.cfg.Tracker.Transition(storeCtx, record, tracker.StatusQuestionsDetected); err != nil {
		log.Error("tracker transition failed", zap.Error(err))
		run.summary.Failed++
		return
	}
	log.Debug("questions detected", zap.Int("count", len(questions)))

	answers, err := o.generateAnswers(ctx, questions, details)
	if err != nil {
		o.fail(storeCtx, run, log, record, tracker.ReasonAnswerGenerationFailed, err)
		return
	}

	if err := o.cfg.Tracker.RecordAnswers(storeCtx, record, answers); err != nil {
		log.Error("tracker transition failed", zap.Error(err))
		run.summary.Failed++
		return
	}

	o.submit(ctx, storeCtx, run, log, record, details, answers)
}

// generateAnswers produces one answer per question, in form order. A single
// generation failure aborts the whole set; a partial answer sheet is never
// submitted.
func (o *Orchestrator) generateAnswers(ctx context.Context, questions []qa.Question, posting *job.Posting) ([]qa.Answer, error) {
	answers := make([]qa.Answer, 0, len(questions))

	for _, question := range questions {
		answer, err := o.cfg.Answerer.Answer(ctx, question, posting, o.cfg.Profile)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}

	return answers, nil
}

// submit performs the one externally visible side effect. A transient
// adapter error is retried exactly once; the retry flag is persisted first
// so a second run can never retry again.
func (o *Orchestrator) submit(ctx, storeCtx context.Context, run *platformRun, log *zap.Logger, record *tracker.Record, posting *job.Posting, answers []qa.Answer) {
	if err := o.cfg.Tracker.Transition(storeCtx, record, tracker.StatusSubmitted); err != nil {
		log.Error("tracker transition failed", zap.Error(err))
		run.summary.Failed++
		return
	}
	run.summary.Submitted++

	accepted, err := run.adapter.SubmitApplication(ctx, posting, answers)
	if platform.IsTransient(err) && !record.SubmitRetried {
		log.Warn("transient submission error, retrying once", zap.Error(err))
		if markErr := o.cfg.Tracker.MarkSubmitRetried(storeCtx, record); markErr != nil {
			o.fail(storeCtx, run, log, record, tracker.ReasonAdapterTransient, markErr)
			return
		}
		accepted, err = run.adapter.SubmitApplication(ctx, posting, answers)
	}

	switch {
	case err != nil:
		o.fail(storeCtx, run, log, record, adapterReason(err), err)
	case !accepted:
		o.fail(storeCtx, run, log, record, tracker.ReasonSubmissionRejected,
			fmt.Errorf("platform rejected submission for job %s", posting.ExternalID))
	default:
		if err := o.cfg.Tracker.Transition(storeCtx, record, tracker.StatusConfirmed); err != nil {
			log.Error("tracker transition failed", zap.Error(err))
			run.summary.Failed++
			return
		}
		run.summary.Confirmed++
		log.Info("application confirmed", zap.String("title", record.JobTitle))
	}
}

// dryRunJob exercises detection and generation without touching the tracker
// or the adapter's submission endpoint.
func (o *Orchestrator) dryRunJob(ctx context.Context, run *platformRun, log *zap.Logger, posting *job.Posting) {
	if details, err := run.adapter.GetJobDetails(ctx, posting.ExternalID); err == nil && details != nil {
		posting = details
	}

	questions := qa.DetectQuestions(posting.Form)

	answers, err := o.generateAnswers(ctx, questions, posting)
	if err != nil {
		log.Warn("dry run: answer generation failed", zap.Error(err))
		return
	}

	log.Info("dry run: would submit",
		zap.String("title", posting.Title),
		zap.Int("questions", len(questions)),
		zap.Int("answers", len(answers)),
	)
}

func (o *Orchestrator) fail(ctx context.Context, run *platformRun, log *zap.Logger, record *tracker.Record, reason string, cause error) {
	run.summary.Failed++
	log.Warn("application failed",
		zap.String("reason", reason),
		zap.Error(cause),
	)

	if err := o.cfg.Tracker.Fail(ctx, record, reason, cause); err != nil {
		log.Error("recording failure state failed", zap.Error(err))
	}
}

// adapterReason maps an adapter error onto the failure taxonomy. Errors the
// adapter did not classify count as permanent.
func adapterReason(err error) string {
	switch {
	case platform.IsTransient(err):
		return tracker.ReasonAdapterTransient
	case platform.IsPermanent(err):
		return tracker.ReasonAdapterPermanent
	default:
		return tracker.ReasonAdapterPermanent
	}
}
