// Package rates reads the branch exchange-rate spreadsheet.
package rates

import (
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Column offsets within a data row.
const (
	colCurrency    = 2
	colCashBuy     = 3
	colTransferBuy = 4
	colSell        = 5
)

var headerMarkers = []string{"stt", "đồng tiền", "currency"}

// ErrNoRates means the sheet had no row with a usable rate.
var ErrNoRates = errors.New("no exchange rates found in sheet")

// ErrLegacyWorkbook means a binary .xls workbook, which cannot be read.
var ErrLegacyWorkbook = errors.New("legacy .xls workbook, save the sheet as .xlsx")

// CheckName rejects workbook names ParseFile cannot read.
func CheckName(name string) error {
	if strings.EqualFold(filepath.Ext(name), ".xls") {
		return ErrLegacyWorkbook
	}
	return nil
}

// Row is one currency line of the sheet. Missing rates are nil.
type Row struct {
	CurrencyCode string
	CashBuy      *float64
	TransferBuy  *float64
	Sell         *float64
}

// ParseFile reads the first sheet of an .xlsx workbook.
func ParseFile(path string) ([]Row, error) {
	if err := CheckName(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()
	return parseWorkbook(f)
}

// ParseReader is ParseFile for an in-memory workbook.
func ParseReader(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()
	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) ([]Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRates
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	rows := ParseRows(cells)
	if len(rows) == 0 {
		return nil, ErrNoRates
	}
	return rows, nil
}

// ParseRows locates the header row by its first cell and reads every row
// below it. Rows without a currency or without any non-zero rate are skipped.
func ParseRows(cells [][]string) []Row {
	header := -1
	for i, r := range cells {
		if len(r) == 0 {
			continue
		}
		first := strings.ToLower(strings.TrimSpace(r[0]))
		for _, marker := range headerMarkers {
			if strings.Contains(first, marker) {
				header = i
				break
			}
		}
		if header >= 0 {
			break
		}
	}
	if header < 0 {
		return nil
	}

	var out []Row
	for _, r := range cells[header+1:] {
		if len(r) < 3 {
			continue
		}
		code := strings.TrimSpace(r[colCurrency])
		if code == "" {
			continue
		}
		row := Row{
			CurrencyCode: code,
			CashBuy:      ParseRate(cell(r, colCashBuy)),
			TransferBuy:  ParseRate(cell(r, colTransferBuy)),
			Sell:         ParseRate(cell(r, colSell)),
		}
		if nonZero(row.CashBuy) || nonZero(row.TransferBuy) || nonZero(row.Sell) {
			out = append(out, row)
		}
	}
	return out
}

// ParseRate normalizes a rate cell. Thousands separators (',' and '.') and
// whitespace are removed; empty cells and "-" yield nil.
func ParseRate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ' ', '\t', '\n', '\r', ' ':
			return -1
		}
		return r
	}, s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func cell(r []string, i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}
