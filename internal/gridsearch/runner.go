package gridsearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
)

// ProgressFunc 每完成一次运行调用一次，可能被多个 goroutine 同时调用
type ProgressFunc func(done, total int)

// Runner 在同一个关系矩阵上并行执行多次独立的进化
//
// 并行的粒度是一次完整的运行：每次运行都有自己的种群和随机数流，只共享只读的关系矩阵
type Runner struct {
	rel      *charles.RelationshipMatrix
	settings Settings
	logger   *slog.Logger
	progress ProgressFunc
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithProgress(progress ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = progress
	}
}

func NewRunner(rel *charles.RelationshipMatrix, settings Settings, opts ...Option) (*Runner, error) {
	if rel == nil {
		return nil, fmt.Errorf("%w: relationship matrix is nil", charles.ErrInvalidConfiguration)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.NrGuests != rel.Size() {
		return nil, fmt.Errorf("%w: settings have %d guests but relationship matrix has %d", charles.ErrInvalidConfiguration, settings.NrGuests, rel.Size())
	}

	r := &Runner{
		rel:      rel,
		settings: settings,
		logger:   slog.New(slog.DiscardHandler),
		progress: func(int, int) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) Settings() Settings {
	return r.settings
}

// runOutcome 一次运行的结果
type runOutcome struct {
	history []float64
	best    *charles.Arrangement
}

// runOnce 用派生出的种子执行一次完整的进化
func (r *Runner) runOnce(comb Combination, seed int64) (*runOutcome, error) {
	params := r.settings.evolveParams(comb)
	if err := params.SetOperators(comb.Selection, comb.Crossover, comb.Mutation); err != nil {
		return nil, err
	}

	pop, err := charles.NewPopulation(r.rel, r.settings.populationConfig(), charles.NewRand(seed), charles.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	history, err := pop.Evolve(params)
	if err != nil {
		return nil, err
	}

	return &runOutcome{history: history, best: pop.BestIndividual()}, nil
}

// execute 对每个组合执行 Runs 次运行，任何一次运行出错都会取消其余尚未开始的运行
func (r *Runner) execute(ctx context.Context, combinations []Combination) ([][]*runOutcome, error) {
	for _, comb := range combinations {
		if err := comb.Validate(); err != nil {
			return nil, err
		}
	}

	outcomes := make([][]*runOutcome, len(combinations))
	for i := range outcomes {
		outcomes[i] = make([]*runOutcome, r.settings.Runs)
	}

	total := len(combinations) * r.settings.Runs
	var done atomic.Int64

	p := pool.New().WithContext(ctx).WithMaxGoroutines(r.settings.Workers).WithCancelOnError().WithFirstError()
	for ci, comb := range combinations {
		for run := 0; run < r.settings.Runs; run++ {
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}

				outcome, err := r.runOnce(comb, deriveSeed(r.settings.BaseSeed, ci, run))
				if err != nil {
					return fmt.Errorf("%s run %d: %w", comb.Name(), run+1, err)
				}
				outcomes[ci][run] = outcome

				r.logger.Info("完成一次运行",
					slog.String("combination", comb.Name()),
					slog.Int("run", run+1),
					slog.Float64("best_fitness", outcome.best.Fitness()),
				)
				r.progress(int(done.Add(1)), total)
				return nil
			})
		}
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Run 执行网格搜索，返回每个组合每次运行的最优适应度历史
func (r *Runner) Run(ctx context.Context, combinations []Combination) (*Results, error) {
	outcomes, err := r.execute(ctx, combinations)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Generations: r.settings.Generations,
		Columns:     make([]Column, len(combinations)),
	}
	for ci, comb := range combinations {
		runs := make([][]float64, len(outcomes[ci]))
		for run, outcome := range outcomes[ci] {
			runs[run] = outcome.history
		}
		results.Columns[ci] = Column{Name: comb.Name(), Runs: runs}
	}
	return results, nil
}

// Best 一个组合多次运行中最优的座位安排
type Best struct {
	Combination Combination
	Run         int // 从 1 开始
	Arrangement *charles.Arrangement
	Histories   [][]float64
}

// TableFitness 每张桌子的适应度
func (b *Best) TableFitness() []float64 {
	fitness := make([]float64, b.Arrangement.NumTables())
	for i := range fitness {
		fitness[i] = b.Arrangement.TableFitness(i)
	}
	return fitness
}

// BestOfRuns 把一个组合运行 Runs 次，返回最后一代最优个体中适应度最高的一个（相同时取较早的运行）
func (r *Runner) BestOfRuns(ctx context.Context, comb Combination) (*Best, error) {
	outcomes, err := r.execute(ctx, []Combination{comb})
	if err != nil {
		return nil, err
	}

	best := &Best{Combination: comb, Histories: make([][]float64, len(outcomes[0]))}
	for run, outcome := range outcomes[0] {
		best.Histories[run] = outcome.history
		if best.Arrangement == nil || outcome.best.Fitness() > best.Arrangement.Fitness() {
			best.Arrangement = outcome.best
			best.Run = run + 1
		}
	}
	return best, nil
}
