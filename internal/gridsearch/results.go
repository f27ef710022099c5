package gridsearch

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Results 网格搜索的结果表：每个组合一列，每一代一行，每个单元格是该代在各次运行中的最优适应度
type Results struct {
	Generations int
	Columns     []Column
}

// Column 一个组合的全部运行记录
type Column struct {
	Name string
	Runs [][]float64 // Runs[run][generation]
}

// Generation 第 g 代在各次运行中的最优适应度
func (c Column) Generation(g int) []float64 {
	values := make([]float64, len(c.Runs))
	for run, history := range c.Runs {
		values[run] = history[g]
	}
	return values
}

// Column 按名称查找一列
func (r *Results) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (r *Results) validate() error {
	for _, c := range r.Columns {
		for run, history := range c.Runs {
			if len(history) != r.Generations {
				return fmt.Errorf("column %q run %d has %d generations, want %d", c.Name, run+1, len(history), r.Generations)
			}
		}
	}
	return nil
}

// Summary 一个组合每一代最优适应度的统计量
type Summary struct {
	Name   string    `json:"name"`
	Mean   []float64 `json:"mean"`
	Median []float64 `json:"median"`
	StdDev []float64 `json:"stdDev"`
	Best   []float64 `json:"best"`
}

// Final 最后一代的平均最优适应度，没有任何一代时返回负无穷
func (s Summary) Final() float64 {
	if len(s.Mean) == 0 {
		return math.Inf(-1)
	}
	return s.Mean[len(s.Mean)-1]
}

// Summarize 计算每个组合每一代的平均值、中位数、标准差和最大值
func (r *Results) Summarize() []Summary {
	summaries := make([]Summary, len(r.Columns))
	for i, c := range r.Columns {
		s := Summary{
			Name:   c.Name,
			Mean:   make([]float64, r.Generations),
			Median: make([]float64, r.Generations),
			StdDev: make([]float64, r.Generations),
			Best:   make([]float64, r.Generations),
		}
		for g := 0; g < r.Generations; g++ {
			values := c.Generation(g)
			if len(values) == 0 {
				continue
			}
			s.Mean[g] = stat.Mean(values, nil)
			s.Median[g] = median(values)
			s.Best[g] = slices.Max(values)
			if len(values) > 1 {
				s.StdDev[g] = stat.StdDev(values, nil)
			}
		}
		summaries[i] = s
	}
	return summaries
}

// Rank 按最后一代的平均最优适应度降序排列，相同时保持原有顺序
func Rank(summaries []Summary) []Summary {
	ranked := slices.Clone(summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Final() > ranked[j].Final()
	})
	return ranked
}

// median 偶数个值时取中间两个值的平均
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
