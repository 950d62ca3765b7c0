// Package dispatch is the background-execution harness from spec.md §6.2:
// it runs a nesting job in a goroutine, off whatever interactive thread
// started it, and converts the core's cooperative cancellation into a
// stream of outcome events. Grounded on the teacher's runAutoOptimize
// pattern (internal/ui/app.go) — a goroutine that runs the optimizer and
// reports back — generalised from a single fire-and-forget update into a
// start/cancel/progress channel contract.
package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nesting"
)

// OutcomeKind is one of the four outcomes spec.md §6.2 requires the
// harness to produce.
type OutcomeKind int

const (
	OutcomeProgress OutcomeKind = iota
	OutcomeComplete
	OutcomeError
	OutcomeCancelled
)

// Outcome is one event on a Job's channel.
type Outcome struct {
	Kind    OutcomeKind
	Percent float64
	Message string
	Results []model.NestingResult
	Err     error
}

// Job wraps one nesting run over internal/nesting.Driver.RunSheet, one
// sheet at a time, dispatched to a goroutine with a context.Context for
// cancellation and a buffered channel for coalesced progress events.
type Job struct {
	cancel   context.CancelFunc
	outcomes chan Outcome
}

// Start begins a nesting job for design against sheets using cfg, and
// returns immediately with a Job the caller can observe via Outcomes and
// stop via Cancel.
func Start(ctx context.Context, design model.Design, sheets []model.SheetPreset, cfg model.Config) *Job {
	runCtx, cancel := context.WithCancel(ctx)
	j := &Job{cancel: cancel, outcomes: make(chan Outcome, 16)}
	go j.run(runCtx, design, sheets, cfg)
	return j
}

// Outcomes returns the channel of outcome events; it is closed when the
// job finishes, for whatever reason.
func (j *Job) Outcomes() <-chan Outcome {
	return j.outcomes
}

// Cancel requests cooperative cancellation. The job's next suspension
// point (between sheets, between GA generations, between BLF outer
// iterations) observes it and the job ends with OutcomeCancelled — no
// partial results are returned.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) run(ctx context.Context, design model.Design, sheets []model.SheetPreset, cfg model.Config) {
	defer close(j.outcomes)
	defer func() {
		if r := recover(); r != nil {
			j.emitTerminal(Outcome{Kind: OutcomeError, Err: fmt.Errorf("%w: %v", nesting.ErrOther, r)})
		}
	}()

	driver := nesting.NewDriver(cfg)
	total := len(sheets)

	// innerProgress is passed down into RunSheet, which forwards it to the
	// BLF/GA suspension points (between outer BLF iterations, between GA
	// generations) — those fire far more often than once per sheet, so it
	// only checks cancellation and never drives the reported percentage.
	innerProgress := func() bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}

	var results []model.NestingResult
	cancelled := false
	for i, sheet := range sheets {
		if !innerProgress() {
			cancelled = true
			break
		}
		r, ok := driver.RunSheet(design, sheet, innerProgress)
		if !innerProgress() {
			cancelled = true
			break
		}
		if ok {
			results = append(results, r)
		}
		j.emitProgress(Outcome{Kind: OutcomeProgress, Percent: 100 * float64(i+1) / float64(total)})
	}

	if cancelled {
		j.emitTerminal(Outcome{Kind: OutcomeCancelled, Err: nesting.ErrCancelled})
		return
	}
	sortByEfficiency(results)
	j.emitTerminal(Outcome{Kind: OutcomeComplete, Results: results})
}

func sortByEfficiency(results []model.NestingResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Efficiency > results[j].Efficiency
	})
}

// emitProgress sends an advisory progress event without blocking: if the
// channel is full (a consumer not draining concurrently with the job
// goroutine) the event is dropped rather than stalling the job. Only
// OutcomeProgress may be dropped this way — terminal outcomes go through
// emitTerminal instead.
func (j *Job) emitProgress(o Outcome) {
	select {
	case j.outcomes <- o:
	default:
	}
}

// emitTerminal delivers a job's one and only terminal outcome
// (Complete/Error/Cancelled). It blocks on send so the result is never
// silently lost to a full progress buffer; run always returns (and closes
// the channel) immediately afterward, so the send completes as soon as
// any consumer reads from or closes out its drain loop.
func (j *Job) emitTerminal(o Outcome) {
	j.outcomes <- o
}
