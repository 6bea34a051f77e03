package extractor

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// decodeXLS reads legacy BIFF workbooks. The library renders every cell as
// text, so cells are strings; it has no support for encrypted workbooks.
func decodeXLS(data []byte, _ string) (sheets []models.Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets = nil
			err = fmt.Errorf("xls library crashed: %v: %w", r, models.ErrDecode)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %v: %w", err, models.ErrDecode)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("xls has no sheets: %w", models.ErrDecode)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		sheet := models.Sheet{Name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				sheet.Rows = append(sheet.Rows, nil)
				continue
			}
			values := make([]any, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				values = append(values, row.Col(c))
			}
			sheet.Rows = append(sheet.Rows, models.NormalizeRow(values))
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}
