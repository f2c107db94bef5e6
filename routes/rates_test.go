package routes

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cppla/docportal/models"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func rateSheet(t *testing.T, rows ...[]interface{}) testFile {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return testFile{field: "excel_file", name: "ty-gia.xlsx", mime: xlsxMIME, body: buf.String()}
}

func TestExchangeRates(t *testing.T) {
	h := newHarness(t)
	header := []interface{}{"STT", "Tên", "Đồng tiền", "Mua TM", "Mua CK", "Bán"}

	w := h.multipart("/admin/exchange-rates/upload", nil, nil, &h.admin)
	assert.Equal(t, 40080, decode(t, w).Code)

	w = h.multipart("/admin/exchange-rates/upload", nil, []testFile{rateSheet(t, []interface{}{"không có tiêu đề"})}, &h.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40081, decode(t, w).Code)

	legacy := testFile{field: "excel_file", name: "ty-gia.xls", mime: "application/vnd.ms-excel", body: "\xd0\xcf\x11\xe0"}
	w = h.multipart("/admin/exchange-rates/upload", nil, []testFile{legacy}, &h.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40084, decode(t, w).Code)
	assert.Zero(t, dirCount(t, h.store.TempDir()))

	w = h.multipart("/admin/exchange-rates/upload", nil, []testFile{txt("excel_file", "rates.txt", "USD")}, &h.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.multipart("/admin/exchange-rates/upload", url.Values{
		"notification_date":   {"05/03/2024"},
		"notification_number": {"2"},
	}, []testFile{rateSheet(t,
		header,
		[]interface{}{"1", "Đô la Mỹ", "USD", "24,550", "24,580", "24,920"},
		[]interface{}{"2", "Euro", "EUR", "26.500", "-", "27.100"},
	)}, &h.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w).Data["imported"])
	assert.Zero(t, dirCount(t, h.store.TempDir()))

	var stored []models.ExchangeRate
	require.NoError(t, h.db.Order("id ASC").Find(&stored).Error)
	require.Len(t, stored, 2)
	usd, eur := stored[0], stored[1]
	assert.Equal(t, "USD", usd.CurrencyCode)
	assert.Equal(t, 24550.0, *usd.CashBuyRate)
	assert.Equal(t, "05/03/2024", usd.NotificationDate)
	assert.Equal(t, 2, usd.NotificationNumber)
	assert.Nil(t, eur.TransferBuyRate)

	rates := list(t, decode(t, h.get("/", &h.reader)).Data, "Rates")
	assert.Len(t, rates, 2)

	eurPath := strconv.Itoa(int(eur.ID))
	w = h.form(http.MethodPost, "/admin/exchange-rates/toggle/"+eurPath, nil, &h.admin)
	require.Equal(t, http.StatusOK, w.Code)
	rates = list(t, decode(t, h.get("/", &h.reader)).Data, "Rates")
	require.Len(t, rates, 1)
	assert.Equal(t, "USD", rates[0]["currency_code"])

	w = h.form(http.MethodPost, "/admin/exchange-rates/edit/"+eurPath, url.Values{
		"currency_code":       {" eur "},
		"sell_rate":           {"27200"},
		"cash_buy_rate":       {"abc"},
		"notification_number": {"0"},
		"is_active":           {"1"},
	}, &h.admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, h.db.First(&eur, eur.ID).Error)
	assert.True(t, eur.IsActive)
	assert.Equal(t, "EUR", eur.CurrencyCode)
	assert.Equal(t, 27200.0, *eur.SellRate)
	assert.Nil(t, eur.CashBuyRate)
	assert.Equal(t, 1, eur.NotificationNumber)

	w = h.form(http.MethodPost, "/admin/exchange-rates/edit/"+eurPath, url.Values{"currency_code": {""}}, &h.admin)
	assert.Equal(t, 40083, decode(t, w).Code)
	assert.Equal(t, http.StatusNotFound, h.form(http.MethodPost, "/admin/exchange-rates/toggle/9999", nil, &h.admin).Code)
	assert.Equal(t, http.StatusForbidden, h.form(http.MethodPost, "/admin/exchange-rates/clear", nil, &h.poster).Code)

	w = h.form(http.MethodPost, "/admin/exchange-rates/delete/"+strconv.Itoa(int(usd.ID)), nil, &h.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	h.db.Model(&models.ExchangeRate{}).Count(&count)
	assert.EqualValues(t, 1, count)

	w = h.form(http.MethodPost, "/admin/exchange-rates/clear", nil, &h.admin)
	require.Equal(t, http.StatusOK, w.Code)
	h.db.Model(&models.ExchangeRate{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, list(t, decode(t, h.get("/", &h.reader)).Data, "Rates"))
}
