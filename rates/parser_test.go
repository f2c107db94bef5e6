package rates

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseReader(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"NGÂN HÀNG TMCP"},
		{"Bảng tỷ giá ngày 05/03/2024"},
		{"STT", "Tên", "Đồng tiền", "Mua TM", "Mua CK", "Bán"},
		{"1", "Đô la Mỹ", "USD", "24,550", "24,580", "24,920"},
		{"2", "Euro", "EUR", "26.500", "-", ""},
		{"3", "Không niêm yết", "KRW", "", "-", "0"},
		{"4", "Thiếu mã", "", "1", "1", "1"},
	})

	rows, err := ParseReader(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "USD", rows[0].CurrencyCode)
	assert.Equal(t, 24550.0, *rows[0].CashBuy)
	assert.Equal(t, 24580.0, *rows[0].TransferBuy)
	assert.Equal(t, 24920.0, *rows[0].Sell)

	assert.Equal(t, "EUR", rows[1].CurrencyCode)
	assert.Equal(t, 26500.0, *rows[1].CashBuy)
	assert.Nil(t, rows[1].TransferBuy)
	assert.Nil(t, rows[1].Sell)
}

func TestParseReaderWithoutHeader(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"1", "Đô la Mỹ", "USD", "24550"},
	})
	_, err := ParseReader(buf)
	assert.ErrorIs(t, err, ErrNoRates)
}

func TestParseReaderRejectsGarbage(t *testing.T) {
	_, err := ParseReader(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRates)
}

func TestParseRowsEnglishHeader(t *testing.T) {
	rows := ParseRows([][]string{
		{},
		{"Currency", "", "code"},
		{"", "", "JPY", "160.5"},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "JPY", rows[0].CurrencyCode)
	assert.Equal(t, 1605.0, *rows[0].CashBuy)
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"", nil},
		{" - ", nil},
		{"abc", nil},
		{"NaN", nil},
		{"1,234,567", ptr(1234567)},
		{" 24 550 ", ptr(24550)},
		{"25.000", ptr(25000)},
	}
	for _, tt := range tests {
		got := ParseRate(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.Equal(t, *tt.want, *got, tt.in)
	}
}

func ptr(v float64) *float64 { return &v }

func TestCheckName(t *testing.T) {
	assert.ErrorIs(t, CheckName("ty-gia.xls"), ErrLegacyWorkbook)
	assert.ErrorIs(t, CheckName("TY-GIA.XLS"), ErrLegacyWorkbook)
	assert.NoError(t, CheckName("ty-gia.xlsx"))

	_, err := ParseFile("/nonexistent/ty-gia.xls")
	assert.ErrorIs(t, err, ErrLegacyWorkbook)
}
