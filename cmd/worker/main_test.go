package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
)

func TestDecide(t *testing.T) {
	live := context.Background()
	stopped, cancel := context.WithCancel(context.Background())
	cancel()

	for _, tc := range []struct {
		name   string
		ctx    context.Context
		runErr error
		want   outcome
	}{
		{"finished", live, nil, outcomeFinished},
		{"finished after shutdown began", stopped, nil, outcomeFinished},
		{"shutdown", stopped, fmt.Errorf("tournament_selection|gbx_crossover|swap_mutation|elitism_true run 3: %w", context.Canceled), outcomeInterrupted},
		{"canceled without shutdown", live, context.Canceled, outcomeFailed},
		{"invalid settings", live, fmt.Errorf("%w: runs must be > 0", charles.ErrInvalidConfiguration), outcomeFailed},
		{"other error during shutdown", stopped, errors.New("关系表不存在"), outcomeFailed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decide(tc.ctx, tc.runErr))
		})
	}
}
