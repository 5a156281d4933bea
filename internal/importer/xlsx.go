// Package importer builds item lists from spreadsheets and serial number ranges.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"tomgalvin.uk/tsclabel/internal/label"
)

type column int

const (
	colText column = iota
	colQR
	colBarcode
	colNone
)

var headerNames = map[string]column{
	"text":            colText,
	"label":           colText,
	"qr":              colQR,
	"qr_content":      colQR,
	"qrcode":          colQR,
	"barcode":         colBarcode,
	"barcode_content": colBarcode,
}

// ReadXLSX reads items from one sheet of a workbook. When the first row names the
// columns (text, qr, barcode and their request-field spellings) columns are mapped by
// name; otherwise columns A, B and C are text, qr and barcode. Empty rows are skipped.
// An empty sheet name reads the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([]label.Item, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open workbook:\n%w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, label.ValidationError("xlsx", "sheet %q: %v", sheet, err)
	}
	if len(rows) == 0 {
		return nil, label.ValidationError("xlsx", "sheet %q is empty", sheet)
	}

	columns, hasHeader := headerColumns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	items := []label.Item{}
	for _, row := range rows {
		var it label.Item
		for colIdx, cellValue := range row {
			if colIdx >= len(columns) {
				break
			}
			v := strings.TrimSpace(cellValue)
			switch columns[colIdx] {
			case colText:
				it.Text = v
			case colQR:
				it.QRContent = v
			case colBarcode:
				it.BarcodeContent = v
			}
		}
		if it == (label.Item{}) {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, label.ValidationError("xlsx", "sheet %q has no items", sheet)
	}
	return items, nil
}

// headerColumns maps each column of the first row. A row with no recognised name is data
// and gets the positional mapping.
func headerColumns(first []string) ([]column, bool) {
	columns := make([]column, len(first))
	found := false
	for i, name := range first {
		c, ok := headerNames[strings.ToLower(strings.TrimSpace(name))]
		if ok {
			found = true
			columns[i] = c
		} else {
			columns[i] = colNone
		}
	}
	if found {
		return columns, true
	}
	return []column{colText, colQR, colBarcode}, false
}
