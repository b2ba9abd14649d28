// Package ingest runs a resumable scrape over a list of course codes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mytimetable-scraper/internal/components/assert"
	"mytimetable-scraper/internal/components/chrono"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/scrapers/mytimetable"
	"mytimetable-scraper/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_run_prime    = "run.prime"
	report_run_item     = "run.item"
	report_run_abort    = "run.abort"
	report_run_outcomes = "run.outcomes"
)

var (
	tracer = otel.Tracer("mytimetable-scraper/ingest")
	meter  = otel.Meter("mytimetable-scraper/ingest")
)

// NotAuthorizedMessage is recorded for the course a run aborted on.
const NotAuthorizedMessage = "Not Authorized (session expired). Refresh the browser session storage state and rerun."

// AbortError stops a run after the session expired. The in-flight course is
// already recorded.
type AbortError struct {
	Course string
	Err    error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted at %s: %v, refresh the session storage state and rerun", e.Course, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Scraper is the part of the timetable client a run needs.
type Scraper interface {
	Prime(ctx context.Context) (mytimetable.Session, error)
	Resolve(ctx context.Context, course string) (mytimetable.Identity, error)
	Fetch(ctx context.Context, sess mytimetable.Session, id mytimetable.Identity) (mytimetable.FetchResult, mytimetable.Session, error)
}

type Options struct {
	// Delay is slept after every course that reached an outcome.
	Delay time.Duration
	// ProgressEvery reports progress every n outcomes, 0 means 50.
	ProgressEvery int
}

type Summary struct {
	RunId   string
	Ok      int
	Fail    int
	Skipped int
	// Recaptures counts templates recaptured because of stale tokens.
	Recaptures int
}

func (s Summary) Total() int {
	return s.Ok + s.Fail
}

type Pipeline struct {
	scraper    Scraper
	classifier mytimetable.ResponseClassifier
	log        *store.OutcomeLog
	artifacts  store.ArtifactStore
	opts       Options

	tel      telemetry.API
	time     chrono.TimeAPI
	outcomes metric.Int64Counter
}

func NewPipeline(
	scraper Scraper,
	log *store.OutcomeLog,
	artifacts store.ArtifactStore,
	opts Options,
	tel telemetry.API,
	clock chrono.TimeAPI,
) *Pipeline {
	assert.NotNil(scraper)
	assert.NotNil(log)
	assert.NotNil(tel)
	assert.NotNil(clock)

	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 50
	}
	tel = telemetry.NewScopedAPI("ingest", tel)

	outcomes, err := meter.Int64Counter(
		"mtscrape.outcomes",
		metric.WithDescription("courses that reached an outcome"),
	)
	if err != nil {
		tel.ReportBroken(report_run_outcomes, err)
	}

	return &Pipeline{
		scraper:    scraper,
		classifier: mytimetable.DefaultClassifier,
		log:        log,
		artifacts:  artifacts,
		opts:       opts,
		tel:        tel,
		time:       clock,
		outcomes:   outcomes,
	}
}

// Run processes every course without an outcome yet, in input order. It
// returns early without touching the network when there is nothing to do.
func (p *Pipeline) Run(ctx context.Context, courses []string) (Summary, error) {
	summary := Summary{RunId: uuid.NewString()}

	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", summary.RunId),
		attribute.Int("run.courses", len(courses)),
	)

	summary, err := p.run(ctx, courses, summary)
	span.SetAttributes(
		attribute.Int("run.ok", summary.Ok),
		attribute.Int("run.fail", summary.Fail),
		attribute.Int("run.skipped", summary.Skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}

	p.tel.ReportInfo(
		"done",
		"run", summary.RunId,
		"ok", summary.Ok,
		"fail", summary.Fail,
		"total", summary.Total(),
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, courses []string, summary Summary) (Summary, error) {
	processed, err := p.log.Processed()
	if err != nil {
		return summary, err
	}

	var pending []string
	for _, course := range courses {
		if processed.Has(course) {
			summary.Skipped++
			continue
		}
		pending = append(pending, course)
	}
	if len(pending) == 0 {
		p.tel.ReportInfo("nothing to do", "run", summary.RunId, "skipped", summary.Skipped)
		return summary, nil
	}
	p.tel.ReportInfo("starting", "run", summary.RunId, "pending", len(pending), "skipped", summary.Skipped)

	sess, err := p.scraper.Prime(ctx)
	if err != nil {
		p.tel.ReportBroken(report_run_prime, err)
		return summary, p.fatal(ctx, fmt.Errorf("prime session: %w", err))
	}

	for _, course := range pending {
		// duplicate input lines are handled once
		if processed.Has(course) {
			summary.Skipped++
			continue
		}
		if ctx.Err() != nil {
			return summary, context.Cause(ctx)
		}

		var outcome *store.Outcome
		var recaptured bool
		outcome, sess, recaptured, err = p.process(ctx, sess, course)
		if recaptured {
			summary.Recaptures++
		}

		if outcome != nil {
			appendErr := p.log.Append(*outcome)
			if appendErr != nil {
				return summary, errors.Join(appendErr, err)
			}
			processed.Add(course)
			if outcome.Ok {
				summary.Ok++
			} else {
				summary.Fail++
			}
			p.count(ctx, *outcome)
		}

		if errors.Is(err, mytimetable.ErrNotAuthorized) {
			p.tel.ReportBroken(report_run_abort, course, err)
			return summary, &AbortError{Course: course, Err: err}
		}
		if err != nil {
			p.tel.ReportBroken(report_run_item, course, err)
			return summary, p.fatal(ctx, err)
		}

		if summary.Total()%p.opts.ProgressEvery == 0 {
			p.tel.ReportInfo(
				"progress",
				"processed", summary.Total(),
				"ok", summary.Ok,
				"fail", summary.Fail,
			)
		}

		err = p.time.Sleep(ctx, p.opts.Delay)
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// fatal prefers the cause of a cancelled run, ex. a blocked request, over
// the error it surfaced as.
func (p *Pipeline) fatal(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
		return fmt.Errorf("%w (%v)", cause, err)
	}
	return err
}

// process takes one course to an outcome. A nil outcome with an error means
// the course must be retried by the next run.
func (p *Pipeline) process(ctx context.Context, sess mytimetable.Session, course string) (*store.Outcome, mytimetable.Session, bool, error) {
	ctx, span := tracer.Start(ctx, "ingest.process")
	defer span.End()
	span.SetAttributes(attribute.String("course", course))

	id, err := p.scraper.Resolve(ctx, course)
	var resolveErr *mytimetable.ResolveError
	if errors.As(err, &resolveErr) {
		outcome := store.ResolveFailed(course, resolveErr.Reason)
		span.SetStatus(codes.Error, resolveErr.Reason)
		return &outcome, sess, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, sess, false, err
	}
	span.SetAttributes(attribute.String("cn_key", id.CnKey))

	result, sess, err := p.scraper.Fetch(ctx, sess, id)
	span.SetAttributes(attribute.Int("attempts", result.Attempts))
	if errors.Is(err, mytimetable.ErrNotAuthorized) {
		outcome := store.ClassDataFailed(course, id.CnKey, id.Va, result.Response.Status, "", NotAuthorizedMessage)
		span.RecordError(err)
		return &outcome, sess, result.Recaptured, err
	}
	if err != nil {
		span.RecordError(err)
		return nil, sess, result.Recaptured, err
	}

	xmlPath, err := p.artifacts.Save(id.CnKey, result.Response.Body)
	if err != nil {
		return nil, sess, result.Recaptured, fmt.Errorf("save artifact: %w", err)
	}

	if msg, failed := p.classifier.ContentError(result.Response.Text()); failed {
		outcome := store.ClassDataFailed(course, id.CnKey, id.Va, result.Response.Status, xmlPath, msg)
		span.SetStatus(codes.Error, msg)
		return &outcome, sess, result.Recaptured, nil
	}
	outcome := store.Succeeded(course, id.CnKey, id.Va, result.Response.Status, xmlPath)
	return &outcome, sess, result.Recaptured, nil
}

func (p *Pipeline) count(ctx context.Context, outcome store.Outcome) {
	if p.outcomes == nil {
		return
	}
	stage := string(outcome.Stage)
	if outcome.Ok {
		stage = "done"
	}
	p.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("ok", outcome.Ok),
		attribute.String("stage", stage),
	))
}
