package model_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/instl/internal/model"
)

func TestVerdictCanProceed(t *testing.T) {
	tests := map[string]struct {
		verdict model.Verdict
		exp     bool
	}{
		"Proceed should proceed.":              {verdict: model.VerdictProceed, exp: true},
		"Proceed after create should proceed.": {verdict: model.VerdictProceedAfterCreate, exp: true},
		"Conflict should not proceed.":         {verdict: model.VerdictConflict, exp: false},
		"Invalid should not proceed.":          {verdict: model.VerdictInvalid, exp: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.verdict.CanProceed())
		})
	}
}

func TestStateKindBusy(t *testing.T) {
	busy := []model.StateKind{model.StateValidating, model.StateExtracting, model.StateRegistering}
	idle := []model.StateKind{model.StateIdle, model.StateAwaitingConfirmation, model.StateComplete, model.StateFailed}

	for _, k := range busy {
		assert.True(t, k.Busy(), "%s should be busy", k)
	}
	for _, k := range idle {
		assert.False(t, k.Busy(), "%s should not be busy", k)
	}
}

func TestStateKindRankOrder(t *testing.T) {
	ordered := []model.StateKind{
		model.StateIdle,
		model.StateValidating,
		model.StateAwaitingConfirmation,
		model.StateExtracting,
		model.StateRegistering,
		model.StateComplete,
		model.StateFailed,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Rank(), ordered[i].Rank())
	}
}

func TestInstallStateString(t *testing.T) {
	tests := map[string]struct {
		state model.InstallState
		exp   string
	}{
		"Extracting should include progress.": {
			state: model.InstallState{Kind: model.StateExtracting, Progress: 20},
			exp:   "extracting(20)",
		},
		"Failed should include the reason.": {
			state: model.InstallState{Kind: model.StateFailed, Reason: fmt.Errorf("boom")},
			exp:   "failed(boom)",
		},
		"Complete should be the kind.": {
			state: model.InstallState{Kind: model.StateComplete},
			exp:   "complete",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.state.String())
		})
	}
}
