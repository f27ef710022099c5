package charles

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Config 种群规模和问题规模
type Config struct {
	PopSize  int // 种群大小
	NrGuests int // 宾客数量 N
	NrTables int // 桌子数量 K
}

// GuestsPerTable 每张桌子的座位数 N/K
func (c Config) GuestsPerTable() int {
	return c.NrGuests / c.NrTables
}

func (c Config) Validate() error {
	if c.PopSize <= 0 {
		return fmt.Errorf("%w: pop size must be > 0 (got %d)", ErrInvalidConfiguration, c.PopSize)
	}
	if c.NrTables <= 0 {
		return fmt.Errorf("%w: nr tables must be > 0 (got %d)", ErrInvalidConfiguration, c.NrTables)
	}
	if c.NrGuests <= 0 {
		return fmt.Errorf("%w: nr guests must be > 0 (got %d)", ErrInvalidConfiguration, c.NrGuests)
	}
	if c.NrGuests%c.NrTables != 0 {
		return fmt.Errorf("%w: %d guests are not divisible by %d tables", ErrInvalidConfiguration, c.NrGuests, c.NrTables)
	}
	if float64(c.PopSize) > distinctPartitions(c.NrGuests, c.NrTables) {
		return fmt.Errorf("%w: only %.0f distinct arrangements exist for %d guests at %d tables (pop size %d)",
			ErrInvalidConfiguration, distinctPartitions(c.NrGuests, c.NrTables), c.NrGuests, c.NrTables, c.PopSize)
	}
	return nil
}

// distinctPartitions N 位宾客分到 K 张无序等大桌子的方案数 N! / ((N/K)!^K * K!)
func distinctPartitions(nrGuests, nrTables int) float64 {
	lg := func(x int) float64 {
		v, _ := math.Lgamma(float64(x + 1))
		return v
	}
	logCount := lg(nrGuests) - float64(nrTables)*lg(nrGuests/nrTables) - lg(nrTables)
	return math.Round(math.Exp(logCount))
}

// Selector 从种群中选出一个个体，不能修改种群
type Selector func(pop *Population) *Arrangement

// Crossover 由两个父代产生一个或两个后代，第二个后代可以为 nil
// 返回的后代必须满足划分约束，父代不能被修改
type Crossover func(p1, p2 *Arrangement, rng RNG) (*Arrangement, *Arrangement, error)

// Mutator 原地修改个体，返回时个体必须满足划分约束
type Mutator func(a *Arrangement, rng RNG) error

// Population 种群：一组引用同一个关系矩阵、同一 (N, K) 配置的个体
type Population struct {
	cfg    Config
	rel    *RelationshipMatrix
	rng    RNG
	logger *slog.Logger

	individuals []*Arrangement
	history     []float64
}

type Option func(*Population)

// WithLogger 每一代结束时以 Debug 级别输出最优适应度
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) {
		p.logger = logger
	}
}

// NewPopulation 创建种群并随机生成 PopSize 个互不相同的个体
func NewPopulation(rel *RelationshipMatrix, cfg Config, rng RNG, opts ...Option) (*Population, error) {
	if rel == nil {
		return nil, fmt.Errorf("%w: relationship matrix is nil", ErrInvalidConfiguration)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NrGuests != rel.Size() {
		return nil, fmt.Errorf("%w: config has %d guests but relationship matrix has %d", ErrInvalidConfiguration, cfg.NrGuests, rel.Size())
	}

	p := &Population{
		cfg:    cfg,
		rel:    rel,
		rng:    rng,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.initialize()

	return p, nil
}

// initialize 反复打乱宾客序列并切成 K 段，直到收集到 PopSize 个不同的划分
func (p *Population) initialize() {
	guests := make([]int, p.cfg.NrGuests)
	for i := range guests {
		guests[i] = i + 1
	}

	seats := p.cfg.GuestsPerTable()
	seen := make(map[string]bool, p.cfg.PopSize)
	p.individuals = make([]*Arrangement, 0, p.cfg.PopSize)

	for len(p.individuals) < p.cfg.PopSize {
		p.rng.Shuffle(len(guests), func(i, j int) {
			guests[i], guests[j] = guests[j], guests[i]
		})

		tables := make([][]int, p.cfg.NrTables)
		for t := range tables {
			tables[t] = guests[t*seats : (t+1)*seats]
		}

		key := partitionKey(tables)
		if seen[key] {
			continue
		}
		seen[key] = true
		p.individuals = append(p.individuals, newUncheckedArrangement(p.rel, tables))
	}
}

// Config 返回种群配置
func (p *Population) Config() Config {
	return p.cfg
}

// Relationships 返回种群使用的关系矩阵
func (p *Population) Relationships() *RelationshipMatrix {
	return p.rel
}

// Rand 种群持有的随机数来源，选择算子通过它取随机数
func (p *Population) Rand() RNG {
	return p.rng
}

func (p *Population) Len() int {
	return len(p.individuals)
}

// Individual 返回第 i 个个体（不拷贝）
func (p *Population) Individual(i int) *Arrangement {
	return p.individuals[i]
}

// Individuals 返回当前个体切片的拷贝（个体本身不拷贝）
func (p *Population) Individuals() []*Arrangement {
	out := make([]*Arrangement, len(p.individuals))
	copy(out, p.individuals)
	return out
}

// FitnessHistory 到目前为止每一代的最优适应度
func (p *Population) FitnessHistory() []float64 {
	out := make([]float64, len(p.history))
	copy(out, p.history)
	return out
}

// BestIndividual 返回最优个体的拷贝
func (p *Population) BestIndividual() *Arrangement {
	return p.BestIndividuals(1)[0]
}

// BestIndividuals 按适应度降序返回前 n 个个体的拷贝，适应度相同时保持原有顺序
func (p *Population) BestIndividuals(n int) []*Arrangement {
	sorted := sortByFitnessDesc(p.individuals)
	n = min(n, len(sorted))

	out := make([]*Arrangement, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].Clone()
	}
	return out
}

func sortByFitnessDesc(individuals []*Arrangement) []*Arrangement {
	sorted := make([]*Arrangement, len(individuals))
	copy(sorted, individuals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness() > sorted[j].Fitness()
	})
	return sorted
}

func (p *Population) String() string {
	lines := make([]string, len(p.individuals))
	for i, ind := range p.individuals {
		lines[i] = ind.String()
	}
	return strings.Join(lines, "\n")
}
