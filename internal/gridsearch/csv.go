package gridsearch

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteCSV 以 CSV 格式输出结果表：表头是组合名，之后每一代一行，单元格是 JSON 数组；所有单元格都加引号
func WriteCSV(w io.Writer, results *Results) error {
	if err := results.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	header := make([]string, len(results.Columns))
	for i, c := range results.Columns {
		header[i] = c.Name
	}
	if err := writeQuotedRecord(bw, header); err != nil {
		return err
	}

	for g := 0; g < results.Generations; g++ {
		record := make([]string, len(results.Columns))
		for i, c := range results.Columns {
			cell, err := json.Marshal(c.Generation(g))
			if err != nil {
				return err
			}
			record[i] = string(cell)
		}
		if err := writeQuotedRecord(bw, record); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// writeQuotedRecord encoding/csv 只在必要时加引号，这里每个字段都加
func writeQuotedRecord(w *bufio.Writer, record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// ReadCSV 读取 WriteCSV 写出的结果表
func ReadCSV(r io.Reader) (*Results, error) {
	reader := csv.NewReader(r)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("results csv is empty")
	}

	header := records[0]
	rows := records[1:]

	results := &Results{
		Generations: len(rows),
		Columns:     make([]Column, len(header)),
	}
	for i, name := range header {
		results.Columns[i] = Column{Name: name}
	}

	for g, row := range rows {
		for i, cell := range row {
			var values []float64
			if err := json.Unmarshal([]byte(cell), &values); err != nil {
				return nil, fmt.Errorf("generation %d column %q: %w", g, header[i], err)
			}

			col := &results.Columns[i]
			if g == 0 {
				col.Runs = make([][]float64, len(values))
				for run := range col.Runs {
					col.Runs[run] = make([]float64, len(rows))
				}
			}
			if len(values) != len(col.Runs) {
				return nil, fmt.Errorf("generation %d column %q has %d runs, want %d", g, header[i], len(values), len(col.Runs))
			}
			for run, v := range values {
				col.Runs[run][g] = v
			}
		}
	}

	return results, nil
}

// WriteMediansCSV 输出每个组合每一代的中位数，第一列是代数，列名不带精英策略
func WriteMediansCSV(w io.Writer, results *Results) error {
	if err := results.validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := []string{""}
	for _, c := range results.Columns {
		name := c.Name
		if comb, err := ParseCombination(c.Name); err == nil {
			name = comb.Operators()
		}
		header = append(header, name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	summaries := results.Summarize()
	for g := 0; g < results.Generations; g++ {
		record := []string{strconv.Itoa(g)}
		for _, s := range summaries {
			record = append(record, strconv.FormatFloat(s.Median[g], 'f', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
