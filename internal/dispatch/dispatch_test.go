package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareDesign(side float64) model.Design {
	poly := model.Polygon{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}
	return model.NewDesign("square", []model.Polygon{poly})
}

func drain(t *testing.T, j *Job, timeout time.Duration) []Outcome {
	t.Helper()
	var got []Outcome
	deadline := time.After(timeout)
	for {
		select {
		case o, ok := <-j.Outcomes():
			if !ok {
				return got
			}
			got = append(got, o)
		case <-deadline:
			t.Fatal("timed out waiting for job outcomes")
		}
	}
}

func TestStart_CompletesWithResults(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Margin = 2
	design := squareDesign(20)
	sheets := []model.SheetPreset{{Name: "sheet", Width: 100, Height: 100}}

	j := Start(context.Background(), design, sheets, cfg)
	outcomes := drain(t, j, 5*time.Second)

	require.NotEmpty(t, outcomes)
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, OutcomeComplete, last.Kind)
	assert.NotEmpty(t, last.Results)
}

func TestStart_CancelBeforeRunYieldsCancelled(t *testing.T) {
	cfg := model.DefaultConfig()
	design := squareDesign(20)
	sheets := []model.SheetPreset{{Name: "sheet", Width: 1000, Height: 1000}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := Start(ctx, design, sheets, cfg)
	outcomes := drain(t, j, 5*time.Second)

	require.NotEmpty(t, outcomes)
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, OutcomeCancelled, last.Kind)
	assert.ErrorIs(t, last.Err, nesting.ErrCancelled)
}

func TestStart_NoSheetsCompletesEmpty(t *testing.T) {
	cfg := model.DefaultConfig()
	design := squareDesign(20)

	j := Start(context.Background(), design, nil, cfg)
	outcomes := drain(t, j, 5*time.Second)

	require.NotEmpty(t, outcomes)
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, OutcomeComplete, last.Kind)
	assert.Empty(t, last.Results)
}
