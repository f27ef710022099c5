package gridsearch

import (
	"encoding/json"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "results"
	summarySheet = "summary"
)

// NewWorkbook 生成包含两个工作表的工作簿：
// results 与 CSV 格式相同；summary 按最后一代平均最优适应度给组合排名
func NewWorkbook(results *Results) (*excelize.File, error) {
	if err := results.validate(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, err
	}

	for i, c := range results.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, c.Name); err != nil {
			return nil, err
		}
		for g := 0; g < results.Generations; g++ {
			data, err := json.Marshal(c.Generation(g))
			if err != nil {
				return nil, err
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, g+2)
			if err := f.SetCellValue(resultsSheet, cell, string(data)); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	header := []any{"rank", "combination", "final_mean", "final_median", "final_std", "final_best"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return nil, err
	}

	last := results.Generations - 1
	for i, s := range Rank(results.Summarize()) {
		row := []any{i + 1, s.Name}
		if last >= 0 {
			row = append(row, s.Mean[last], s.Median[last], s.StdDev[last], s.Best[last])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteXLSX 把结果表以 xlsx 格式写到 w
func WriteXLSX(w io.Writer, results *Results) error {
	f, err := NewWorkbook(results)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	_, err = f.WriteTo(w)
	return err
}
