package gridsearch

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// NewConvergencePlot 画出每个组合每一代平均最优适应度的折线，横轴是代数
func NewConvergencePlot(summaries []Summary, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Best fitness (mean over runs)"

	lines := make([]any, 0, 2*len(summaries))
	for _, s := range summaries {
		pts := make(plotter.XYs, len(s.Mean))
		for g, v := range s.Mean {
			pts[g].X = float64(g)
			pts[g].Y = v
		}
		lines = append(lines, s.Name, pts)
	}

	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("add lines: %w", err)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// WriteConvergencePNG 把收敛曲线以 PNG 格式写到 w，只画排名前 top 的组合（top <= 0 时画全部）
func WriteConvergencePNG(w io.Writer, results *Results, title string, top int) error {
	summaries := Rank(results.Summarize())
	if top > 0 && top < len(summaries) {
		summaries = summaries[:top]
	}

	p, err := NewConvergencePlot(summaries, title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
