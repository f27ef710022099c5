// Package relationships 负责读写宾客关系表
//
// 关系表是一个 xlsx 工作簿，第一个工作表的第一行是表头，第一列是名为 idx 的序号列（读取时丢弃），
// 其余为 N×N 的关系分数。第 g 行/列（不含表头和序号列）对应编号为 g 的宾客
package relationships

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/xuri/excelize/v2"
)

// IndexColumn 关系表中被丢弃的序号列的列名
const IndexColumn = "idx"

var ErrMalformedSheet = errors.New("relationships: malformed sheet")

// Sheet 从工作簿读出的关系表
type Sheet struct {
	Guests []string // 宾客名称（来自表头），第 g-1 个对应编号为 g 的宾客
	Matrix *charles.RelationshipMatrix
}

// OpenFile 读取磁盘上的关系表
func OpenFile(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return parse(f)
}

// OpenReader 从上传的文件等数据流中读取关系表
func OpenReader(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return parse(f)
}

func parse(f *excelize.File) (*Sheet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheet", ErrMalformedSheet)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	return ParseRows(rows)
}

// ParseRows 把表头加数据行解析成关系表，如果表头中存在 idx 列则丢弃该列
func ParseRows(rows [][]string) (*Sheet, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", ErrMalformedSheet)
	}

	header := rows[0]
	dropped := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), IndexColumn) {
			dropped = i
			break
		}
	}

	guests := make([]string, 0, len(header))
	for i, name := range header {
		if i != dropped {
			guests = append(guests, strings.TrimSpace(name))
		}
	}

	data := rows[1:]
	// 忽略末尾的空行
	for len(data) > 0 && isBlank(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	n := len(guests)
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d guests in header but %d data rows", ErrMalformedSheet, n, len(data))
	}

	matrix := make([][]float64, n)
	for i, row := range data {
		matrix[i] = make([]float64, 0, n)
		for j := 0; j < len(header); j++ {
			if j == dropped {
				continue
			}

			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}

			// 空单元格（例如对角线）按 0 处理
			if cell == "" {
				matrix[i] = append(matrix[i], 0)
				continue
			}

			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrMalformedSheet, i+2, header[j], err)
			}
			matrix[i] = append(matrix[i], v)
		}
	}

	rel, err := charles.NewRelationshipMatrix(matrix)
	if err != nil {
		return nil, err
	}

	return &Sheet{Guests: guests, Matrix: rel}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// GuestName 返回编号为 guest 的宾客名称，表头为空时使用编号
func (s *Sheet) GuestName(guest int) string {
	if guest >= 1 && guest <= len(s.Guests) && s.Guests[guest-1] != "" {
		return s.Guests[guest-1]
	}
	return strconv.Itoa(guest)
}
