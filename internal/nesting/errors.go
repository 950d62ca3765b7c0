package nesting

import (
	"errors"
	"fmt"

	"github.com/piwi3910/nestforge/internal/model"
)

// The five error kinds a nesting job can fail with: callers
// compare with errors.Is and wrap with fmt.Errorf("...: %w", ...) the same
// way internal/project/profiles.go checks os.ErrNotExist.
var (
	// ErrKernelUnavailable means the polygon boolean engine rejected the
	// request (e.g. a degenerate clipper result it could not recover from).
	ErrKernelUnavailable = errors.New("nesting: polygon boolean kernel unavailable")
	// ErrDegenerateInput means the Design's main polygon has fewer than 3
	// vertices, zero area, or the sheet has non-positive extent.
	ErrDegenerateInput = errors.New("nesting: degenerate input")
	// ErrNumericEdge means a computation produced a value the caller must
	// treat as inconclusive rather than authoritative (e.g. a zero-area
	// valid region that might be a true negative or a precision artifact).
	ErrNumericEdge = errors.New("nesting: numeric edge condition")
	// ErrCancelled is returned, unwrapped, when a suspension point observes
	// a cancellation request. Partial results are not returned alongside it.
	ErrCancelled = errors.New("nesting: cancelled")
	// ErrOther is the catch-all for failures that don't fit the other four
	// kinds.
	ErrOther = errors.New("nesting: error")
)

// ClassifyDegenerate reports ErrDegenerateInput, wrapped with context, when
// design or sheet is structurally invalid: fewer than 3 vertices on the
// main polygon, zero design area, or a sheet with non-positive extent. It
// returns nil for any valid input, including one BLF/GA simply can't pack.
//
// RunSheet calls this to short-circuit to "no result for this sheet"
// without throwing, matching the degenerate-input contract; callers that
// need to distinguish "degenerate" from "valid but unpackable" can call it
// directly and check errors.Is(err, ErrDegenerateInput).
func ClassifyDegenerate(design model.Design, sheet model.BoundingBox) error {
	main := design.MainPolygon()
	if len(main) < 3 {
		return fmt.Errorf("%w: design %q main polygon has fewer than 3 vertices", ErrDegenerateInput, design.ID)
	}
	if design.TotalArea <= 0 {
		return fmt.Errorf("%w: design %q has zero or negative area", ErrDegenerateInput, design.ID)
	}
	if sheet.Width <= 0 || sheet.Height <= 0 {
		return fmt.Errorf("%w: sheet has non-positive extent", ErrDegenerateInput)
	}
	return nil
}

// ClassifyEmptyResult explains why a boolean-engine-backed strategy (NFP
// union/offset/difference, Minkowski sum) came back with no placements:
// kernelErr, when non-nil, is a genuine kernel failure (the boolean engine
// recorded one via Engine.LastErr) and becomes ErrKernelUnavailable.
// Otherwise, if the strategy had nonempty input to work with, an empty
// result is the NumericEdge condition spec.md §7 describes — a union,
// offset, or Minkowski sum collapsing to nothing because of integer-scale
// precision — and the caller treats it as "no valid area for this
// rotation", not a thrown error. A nil return means there's nothing to
// classify: the empty result is an ordinary "didn't fit".
func ClassifyEmptyResult(kernelErr error, inputNonEmpty bool) error {
	if kernelErr != nil {
		return fmt.Errorf("%w: %v", ErrKernelUnavailable, kernelErr)
	}
	if inputNonEmpty {
		return ErrNumericEdge
	}
	return nil
}
