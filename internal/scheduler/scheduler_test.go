package scheduler

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"
)

func testSheet() *domain.RelationshipSheet {
	// 1-2、3-4、5-6、7-8 两两之间关系最好
	matrix := make([][]float64, 8)
	for i := range matrix {
		matrix[i] = make([]float64, 8)
	}
	for g := 0; g < 8; g += 2 {
		matrix[g][g+1], matrix[g+1][g] = 10, 10
	}
	matrix[0][2], matrix[2][0] = 1, 1

	return &domain.RelationshipSheet{
		ID:     7,
		Guests: []string{"A", "B", "C", "D", "E", "F", "G", ""},
		Matrix: matrix,
	}
}

func testParameters() *Parameters {
	return &Parameters{
		PopSize:        10,
		Generations:    20,
		CrossoverProb:  0.9,
		MutationProb:   0.2,
		Elitism:        true,
		EliteSize:      2,
		NrTables:       2,
		TournamentSize: 3,
		Selection:      charles.TournamentSelectionName,
		Crossover:      charles.GBXCrossoverName,
		Mutation:       charles.SwapMutationName,
		Seed:           42,
	}
}

func TestSchedule(t *testing.T) {
	sheet := testSheet()

	s, err := New(testParameters(), sheet)
	require.NoError(t, err)

	plan, err := s.Schedule()
	require.NoError(t, err)

	assert.Equal(t, int64(7), plan.RelationshipSheetID)
	require.Len(t, plan.Tables, 2)
	require.Len(t, plan.FitnessHistory, 20)
	assert.Equal(t, plan.FitnessHistory[len(plan.FitnessHistory)-1], plan.Fitness)
	require.NoError(t, utils.ValidateSeatingPlan(plan, sheet.Matrix))

	for _, table := range plan.Tables {
		require.Len(t, table.GuestNames, len(table.Guests))
		for i, guest := range table.Guests {
			if guest == 8 {
				assert.Equal(t, "8", table.GuestNames[i])
			} else {
				assert.Equal(t, sheet.Guests[guest-1], table.GuestNames[i])
			}
		}
	}

	// 精英保留下每一代的最优适应度不会下降
	for g := 1; g < len(plan.FitnessHistory); g++ {
		assert.GreaterOrEqual(t, plan.FitnessHistory[g], plan.FitnessHistory[g-1])
	}

	// 相同的种子得到相同的座位安排
	again, err := s.Schedule()
	require.NoError(t, err)
	assert.Equal(t, plan, again)
}

func TestScheduleRejects(t *testing.T) {
	p := testParameters()
	p.NrTables = 3
	s, err := New(p, testSheet())
	require.NoError(t, err)
	_, err = s.Schedule()
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)

	p = testParameters()
	p.Mutation = "scramble"
	s, err = New(p, testSheet())
	require.NoError(t, err)
	_, err = s.Schedule()
	require.ErrorIs(t, err, charles.ErrUnknownOperator)

	sheet := testSheet()
	sheet.Matrix[0][1] = 3
	_, err = New(testParameters(), sheet)
	require.Error(t, err)
}

func TestParametersValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	require.NoError(t, validate.Struct(testParameters()))

	p := testParameters()
	p.Crossover = "pmx"
	require.Error(t, validate.Struct(p))

	p = testParameters()
	p.EliteSize = 11
	require.Error(t, validate.Struct(p))

	p = testParameters()
	p.MutationProb = 1.5
	require.Error(t, validate.Struct(p))

	p = testParameters()
	p.PopSize = 1001
	require.Error(t, validate.Struct(p))
}

func validConfig() *config.Config {
	cfg := &config.Config{}
	cfg.GA.PopSize = 50
	cfg.GA.Generations = 100
	cfg.GA.CrossoverProb = 0.9
	cfg.GA.MutationProb = 0.1
	cfg.GA.EliteSize = 5
	cfg.GA.TournamentSize = 4
	cfg.GA.NrGuests = 64
	cfg.GA.NrTables = 8
	cfg.GridSearch.Runs = 30
	cfg.GridSearch.Workers = 4
	cfg.GridSearch.BaseSeed = 1
	cfg.GridSearch.MaxGenerations = 500
	cfg.GridSearch.MaxPopSize = 500
	return cfg
}

func TestCheckConfig(t *testing.T) {
	require.NoError(t, CheckConfig(validConfig()))

	for _, tc := range []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{"guests not divisible", func(cfg *config.Config) { cfg.GA.NrGuests = 63 }},
		{"no tables", func(cfg *config.Config) { cfg.GA.NrTables = 0 }},
		{"crossover prob", func(cfg *config.Config) { cfg.GA.CrossoverProb = 1.2 }},
		{"mutation prob", func(cfg *config.Config) { cfg.GA.MutationProb = -0.1 }},
		{"elite size", func(cfg *config.Config) { cfg.GA.EliteSize = 51 }},
		{"tournament size", func(cfg *config.Config) { cfg.GA.TournamentSize = -1 }},
		{"generations over cap", func(cfg *config.Config) { cfg.GA.Generations = 501 }},
		{"pop size over cap", func(cfg *config.Config) { cfg.GA.PopSize = 501 }},
		{"no runs", func(cfg *config.Config) { cfg.GridSearch.Runs = 0 }},
		{"no workers", func(cfg *config.Config) { cfg.GridSearch.Workers = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.modify(cfg)
			require.ErrorIs(t, CheckConfig(cfg), charles.ErrInvalidConfiguration)
		})
	}
}
