package relationships

import (
	"io"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// NewWorkbook 把关系表写成与 OpenFile 相同格式的工作簿
func NewWorkbook(guests []string, rel *charles.RelationshipMatrix) (*excelize.File, error) {
	f := excelize.NewFile()

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := f.SetCellValue(defaultSheetName, cell, IndexColumn); err != nil {
		return nil, err
	}

	sheet := &Sheet{Guests: guests, Matrix: rel}
	for g := 1; g <= rel.Size(); g++ {
		cell, _ := excelize.CoordinatesToCellName(g+1, 1)
		if err := f.SetCellValue(defaultSheetName, cell, sheet.GuestName(g)); err != nil {
			return nil, err
		}
	}

	for i, row := range rel.Rows() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(defaultSheetName, cell, i); err != nil {
			return nil, err
		}
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellValue(defaultSheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// Write 把关系表写到 w
func Write(w io.Writer, guests []string, rel *charles.RelationshipMatrix) error {
	f, err := NewWorkbook(guests, rel)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	_, err = f.WriteTo(w)
	return err
}

// SaveAs 把关系表保存到 path
func SaveAs(path string, guests []string, rel *charles.RelationshipMatrix) error {
	f, err := NewWorkbook(guests, rel)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return f.SaveAs(path)
}
