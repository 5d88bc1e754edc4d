package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetWriter appends rows per sheet and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	rows map[string]int
	bold int
	err  error
}

func (w *sheetWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *sheetWriter) row(sheet string, values ...interface{}) {
	if w.err != nil {
		return
	}
	if w.rows == nil {
		w.rows = make(map[string]int)
	}
	w.rows[sheet]++

	cell, err := excelize.CoordinatesToCellName(1, w.rows[sheet])
	if err != nil {
		w.fail(err)
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.fail(fmt.Errorf("failed to write %s row %d: %w", sheet, w.rows[sheet], err))
	}
}

func (w *sheetWriter) header(sheet string, titles ...string) {
	values := make([]interface{}, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	w.row(sheet, values...)
	if w.err != nil {
		return
	}

	if w.bold == 0 {
		style, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			w.fail(fmt.Errorf("failed to create header style: %w", err))
			return
		}
		w.bold = style
	}

	last, err := excelize.CoordinatesToCellName(len(titles), w.rows[sheet])
	if err != nil {
		w.fail(err)
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.bold); err != nil {
		w.fail(fmt.Errorf("failed to style %s header: %w", sheet, err))
	}
}
