package pantry

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const shoppingSheet = "Shopping"

// ExportShoppingXLSX 把購物清單輸出為單一工作表的 XLSX
func (s *Service) ExportShoppingXLSX(ctx context.Context, session string) ([]byte, error) {
	list, err := s.ShoppingList(ctx, session)
	if err != nil {
		return nil, err
	}
	return WriteShoppingXLSX(list)
}

// WriteShoppingXLSX 第一列為標題，之後每列一個項目
func WriteShoppingXLSX(items []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shoppingSheet); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(shoppingSheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", []interface{}{"#", "item", "done"}); err != nil {
		return nil, err
	}
	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, []interface{}{i + 1, item, ""}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
