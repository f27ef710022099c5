package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/gridsearch"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/relationships"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"
)

// defaultCombination best 模式下默认运行的组合
const defaultCombination = "tournament_selection|gbx_crossover|swap_mutation|elitism_true"

func main() {
	var (
		mode        string
		input       string
		random      int
		maxAffinity int
		selections  string
		crossovers  string
		mutations   string
		elitism     string
		combination string
		pairs       int
		csvOut      string
		mediansOut  string
		xlsxOut     string
		pngOut      string
		top         int
		verbose     bool
	)

	settings := gridsearch.DefaultSettings()
	plan := gridsearch.DefaultPlan()

	flag.StringVar(&mode, "mode", "grid", "运行模式 (grid: 网格搜索, study: 选择算子对比, best: 单个组合多次运行取最优)")
	flag.StringVar(&input, "input", "", "关系表 xlsx 文件")
	flag.IntVar(&random, "random", 0, "不指定 -input 时随机生成的宾客数量")
	flag.IntVar(&maxAffinity, "max-affinity", 10, "随机关系分数的最大值")
	flag.IntVar(&settings.PopSize, "pop-size", settings.PopSize, "种群大小")
	flag.IntVar(&settings.NrTables, "tables", settings.NrTables, "桌子数量")
	flag.IntVar(&settings.Generations, "generations", settings.Generations, "进化代数")
	flag.Float64Var(&settings.CrossoverProb, "xo-prob", settings.CrossoverProb, "交叉概率")
	flag.Float64Var(&settings.MutationProb, "mut-prob", settings.MutationProb, "变异概率")
	flag.IntVar(&settings.EliteSize, "elite-size", settings.EliteSize, "精英数量")
	flag.IntVar(&settings.Runs, "runs", settings.Runs, "每个组合的运行次数")
	flag.IntVar(&settings.Workers, "workers", settings.Workers, "并行运行的 goroutine 数")
	flag.Int64Var(&settings.BaseSeed, "seed", settings.BaseSeed, "基础随机种子")
	flag.StringVar(&selections, "selections", strings.Join(plan.Selections, ","), "选择算子，逗号分隔")
	flag.StringVar(&crossovers, "crossovers", strings.Join(plan.Crossovers, ","), "交叉算子，逗号分隔")
	flag.StringVar(&mutations, "mutations", strings.Join(plan.Mutations, ","), "变异算子，逗号分隔")
	flag.StringVar(&elitism, "elitism", "true,false", "是否保留精英，逗号分隔")
	flag.StringVar(&combination, "combination", defaultCombination, "best 模式下的组合名称")
	flag.IntVar(&pairs, "pairs", 8, "study 模式下随机抽取的（交叉，变异）组合数量")
	flag.StringVar(&csvOut, "csv", "", "结果 CSV 输出路径")
	flag.StringVar(&mediansOut, "medians", "", "每代中位数 CSV 输出路径")
	flag.StringVar(&xlsxOut, "xlsx", "", "结果 XLSX 输出路径")
	flag.StringVar(&pngOut, "png", "", "收敛曲线 PNG 输出路径")
	flag.IntVar(&top, "top", 5, "收敛曲线中绘制的组合数量")
	flag.BoolVar(&verbose, "v", false, "输出每一代的日志")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	guests, rel, err := loadRelationships(input, random, maxAffinity)
	if err != nil {
		logger.Error("无法读取关系表", slog.String("error", err.Error()))
		os.Exit(1)
	}
	settings.NrGuests = rel.Size()
	logger.Info("读取关系表成功", slog.Int("guests", rel.Size()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := gridsearch.NewRunner(rel, settings,
		gridsearch.WithLogger(logger),
		gridsearch.WithProgress(func(done, total int) {
			logger.Info("完成一次运行", slog.Int("done", done), slog.Int("total", total))
		}),
	)
	if err != nil {
		logger.Error("无法创建网格搜索", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if mode == "best" {
		if err := runBest(ctx, runner, combination, guests); err != nil {
			logger.Error("运行失败", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	var combinations []gridsearch.Combination
	switch mode {
	case "grid":
		var elites []bool
		if elites, err = parseBools(elitism); err != nil {
			break
		}
		plan = gridsearch.Plan{
			Selections: splitList(selections),
			Crossovers: splitList(crossovers),
			Mutations:  splitList(mutations),
			Elitism:    elites,
		}
		combinations, err = plan.Combinations()
	case "study":
		combinations, err = gridsearch.SelectionStudy(pairs, charles.NewRand(settings.BaseSeed))
	default:
		err = fmt.Errorf("未知的运行模式 %q", mode)
	}
	if err != nil {
		logger.Error("无法生成组合", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("开始网格搜索", slog.Int("combinations", len(combinations)), slog.Int("runs", settings.Runs))
	results, err := runner.Run(ctx, combinations)
	if err != nil {
		logger.Error("网格搜索失败", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for i, s := range gridsearch.Rank(results.Summarize()) {
		fmt.Printf("%2d. %-40s %.2f\n", i+1, s.Name, s.Final())
	}

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{csvOut, func(w io.Writer) error { return gridsearch.WriteCSV(w, results) }},
		{mediansOut, func(w io.Writer) error { return gridsearch.WriteMediansCSV(w, results) }},
		{xlsxOut, func(w io.Writer) error { return gridsearch.WriteXLSX(w, results) }},
		{pngOut, func(w io.Writer) error {
			return gridsearch.WriteConvergencePNG(w, results, "最优适应度收敛曲线", top)
		}},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.write); err != nil {
			logger.Error("无法写入结果", slog.String("path", out.path), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("写入结果成功", slog.String("path", out.path))
	}
}

func loadRelationships(input string, random int, maxAffinity int) ([]string, *charles.RelationshipMatrix, error) {
	if input != "" {
		sheet, err := relationships.OpenFile(input)
		if err != nil {
			return nil, nil, err
		}
		return sheet.Guests, sheet.Matrix, nil
	}

	if random <= 0 {
		return nil, nil, fmt.Errorf("需要指定 -input 或 -random")
	}
	rel, err := charles.NewRelationshipMatrix(utils.GenerateRandomRelationshipMatrix(random, maxAffinity))
	if err != nil {
		return nil, nil, err
	}
	return utils.GenerateGuestLabels(random), rel, nil
}

func runBest(ctx context.Context, runner *gridsearch.Runner, name string, guests []string) error {
	comb, err := gridsearch.ParseCombination(name)
	if err != nil {
		return err
	}

	best, err := runner.BestOfRuns(ctx, comb)
	if err != nil {
		return err
	}

	fmt.Printf("%s 第 %d 次运行最优，适应度 %.2f\n", comb.Name(), best.Run, best.Arrangement.Fitness())
	for i, fitness := range best.TableFitness() {
		names := make([]string, 0)
		for _, g := range best.Arrangement.Table(i) {
			if g-1 < len(guests) && guests[g-1] != "" {
				names = append(names, guests[g-1])
			} else {
				names = append(names, strconv.Itoa(g))
			}
		}
		fmt.Printf("第 %d 桌 (%.2f): %s\n", i+1, fitness, strings.Join(names, ", "))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseBools(s string) ([]bool, error) {
	values := make([]bool, 0)
	for _, item := range splitList(s) {
		v, err := strconv.ParseBool(item)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
