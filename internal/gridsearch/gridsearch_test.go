package gridsearch

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/xuri/excelize/v2"
)

func testMatrix(t *testing.T, n int) *charles.RelationshipMatrix {
	t.Helper()

	rng := charles.NewRand(int64(n))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := float64(rng.Intn(20))
			rows[i][j], rows[j][i] = v, v
		}
	}

	rel, err := charles.NewRelationshipMatrix(rows)
	require.NoError(t, err)
	return rel
}

func testSettings() Settings {
	return Settings{
		PopSize:       6,
		NrGuests:      8,
		NrTables:      2,
		Generations:   5,
		CrossoverProb: 0.9,
		MutationProb:  0.2,
		EliteSize:     2,
		Runs:          3,
		Workers:       2,
		BaseSeed:      7,
	}
}

func TestDefaultPlanCombinations(t *testing.T) {
	combinations, err := DefaultPlan().Combinations()
	require.NoError(t, err)
	require.Len(t, combinations, 1*3*4*2)

	assert.Equal(t, "tournament_selection|eager_breeder_crossover|the_hop|elitism_true", combinations[0].Name())
	assert.Equal(t, "tournament_selection|eager_breeder_crossover|the_hop|elitism_false", combinations[1].Name())
	assert.Equal(t, "tournament_selection|twin_maker|dream_team|elitism_false", combinations[len(combinations)-1].Name())
}

func TestPlanRejectsUnknownOperator(t *testing.T) {
	plan := DefaultPlan()
	plan.Mutations = []string{"scramble"}
	_, err := plan.Combinations()
	require.ErrorIs(t, err, charles.ErrUnknownOperator)

	plan = DefaultPlan()
	plan.Elitism = nil
	_, err = plan.Combinations()
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)
}

func TestParseCombination(t *testing.T) {
	comb := Combination{Selection: "rank_selection", Crossover: "gbx_crossover", Mutation: "dream_team", Elitism: true}

	parsed, err := ParseCombination(comb.Name())
	require.NoError(t, err)
	assert.Equal(t, comb, parsed)

	parsed, err = ParseCombination(comb.Operators())
	require.NoError(t, err)
	assert.False(t, parsed.Elitism)

	_, err = ParseCombination("rank_selection|gbx_crossover")
	require.ErrorIs(t, err, charles.ErrUnknownOperator)
	_, err = ParseCombination("rank_selection|gbx_crossover|dream_team|elite_yes")
	require.ErrorIs(t, err, charles.ErrUnknownOperator)

	// 只接受算子的完整名称
	_, err = ParseCombination("tournament|gbx|swap|elitism_true")
	require.ErrorIs(t, err, charles.ErrUnknownOperator)
}

func TestSelectionStudy(t *testing.T) {
	combinations, err := SelectionStudy(8, charles.NewRand(1))
	require.NoError(t, err)
	require.Len(t, combinations, 8*3)

	// 每种选择算子搭配的是同一组（交叉，变异）
	for i := 0; i < 8; i++ {
		for s := 1; s < 3; s++ {
			other := combinations[s*8+i]
			assert.Equal(t, combinations[i].Crossover, other.Crossover)
			assert.Equal(t, combinations[i].Mutation, other.Mutation)
			assert.False(t, other.Elitism)
		}
	}

	_, err = SelectionStudy(13, charles.NewRand(1))
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)
}

func TestDeriveSeedIsStable(t *testing.T) {
	assert.Equal(t, deriveSeed(1, 2, 3), deriveSeed(1, 2, 3))
	assert.NotEqual(t, deriveSeed(1, 2, 3), deriveSeed(1, 3, 2))
	assert.NotEqual(t, deriveSeed(1, 0, 0), deriveSeed(2, 0, 0))
}

func TestNewRunnerRejects(t *testing.T) {
	rel := testMatrix(t, 8)

	s := testSettings()
	s.NrGuests = 10
	_, err := NewRunner(rel, s)
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)

	s = testSettings()
	s.Workers = 0
	_, err = NewRunner(rel, s)
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)

	s = testSettings()
	s.EliteSize = 7
	_, err = NewRunner(rel, s)
	require.ErrorIs(t, err, charles.ErrInvalidConfiguration)
}

func TestRunnerRun(t *testing.T) {
	rel := testMatrix(t, 8)
	combinations, err := DefaultPlan().Combinations()
	require.NoError(t, err)

	var mu sync.Mutex
	var calls []int
	runner, err := NewRunner(rel, testSettings(), WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		assert.Equal(t, len(combinations)*3, total)
	}))
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), combinations)
	require.NoError(t, err)

	require.Len(t, results.Columns, len(combinations))
	assert.Equal(t, 5, results.Generations)
	assert.Len(t, calls, len(combinations)*3)

	for i, c := range results.Columns {
		assert.Equal(t, combinations[i].Name(), c.Name)
		require.Len(t, c.Runs, 3)
		for _, history := range c.Runs {
			require.Len(t, history, 5)
			if combinations[i].Elitism {
				for g := 1; g < len(history); g++ {
					assert.GreaterOrEqual(t, history[g], history[g-1])
				}
			}
		}
	}

	// 相同的种子得到相同的结果，与调度顺序无关
	again, err := runner.Run(context.Background(), combinations)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestRunnerCanceled(t *testing.T) {
	runner, err := NewRunner(testMatrix(t, 8), testSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	combinations, err := DefaultPlan().Combinations()
	require.NoError(t, err)
	_, err = runner.Run(ctx, combinations)
	require.ErrorIs(t, err, context.Canceled)
	// 每个被取消的运行都会返回错误，只保留第一个
	assert.Equal(t, context.Canceled.Error(), err.Error())
}

func TestBestOfRuns(t *testing.T) {
	runner, err := NewRunner(testMatrix(t, 8), testSettings())
	require.NoError(t, err)

	comb := Combination{Selection: charles.TournamentSelectionName, Crossover: charles.GBXCrossoverName, Mutation: charles.SwapMutationName, Elitism: true}
	best, err := runner.BestOfRuns(context.Background(), comb)
	require.NoError(t, err)

	require.NoError(t, best.Arrangement.Validate())
	require.Len(t, best.Histories, 3)
	assert.GreaterOrEqual(t, best.Run, 1)

	sum := 0.0
	for _, f := range best.TableFitness() {
		sum += f
	}
	assert.InDelta(t, best.Arrangement.Fitness(), sum, 1e-9)

	for _, history := range best.Histories {
		assert.GreaterOrEqual(t, best.Arrangement.Fitness(), history[len(history)-1])
	}
}

func sampleResults() *Results {
	return &Results{
		Generations: 2,
		Columns: []Column{
			{Name: "tournament_selection|gbx_crossover|swap_mutation|elitism_true", Runs: [][]float64{{1, 4}, {3, 6}, {2, 8}}},
			{Name: "tournament_selection|twin_maker|the_hop|elitism_false", Runs: [][]float64{{5, 5}, {5, 7}, {2, 3}}},
		},
	}
}

func TestSummarizeAndRank(t *testing.T) {
	summaries := sampleResults().Summarize()
	require.Len(t, summaries, 2)

	assert.Equal(t, []float64{2, 6}, summaries[0].Mean)
	assert.Equal(t, []float64{2, 6}, summaries[0].Median)
	assert.Equal(t, []float64{3, 8}, summaries[0].Best)
	assert.InDelta(t, 1.0, summaries[0].StdDev[0], 1e-12)
	assert.Equal(t, []float64{5, 5}, summaries[1].Median)

	ranked := Rank(summaries)
	assert.Equal(t, summaries[0].Name, ranked[0].Name)
	assert.Equal(t, 6.0, ranked[0].Final())
	assert.Equal(t, 5.0, ranked[1].Final())

	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestCSVRoundTrip(t *testing.T) {
	results := sampleResults()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"tournament_selection|gbx_crossover|swap_mutation|elitism_true","tournament_selection|twin_maker|the_hop|elitism_false"`, lines[0])
	assert.Equal(t, `"[1,3,2]","[5,5,2]"`, lines[1])

	read, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, results, read)
}

func TestWriteMediansCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMediansCSV(&buf, sampleResults()))

	assert.Equal(t,
		",tournament_selection|gbx_crossover|swap_mutation,tournament_selection|twin_maker|the_hop\n"+
			"0,2,5\n"+
			"1,6,5\n",
		buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResults()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "[4,6,8]", rows[2][0])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "tournament_selection|gbx_crossover|swap_mutation|elitism_true", summary[1][1])
}

func TestWriteConvergencePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConvergencePNG(&buf, sampleResults(), "convergence", 1))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
