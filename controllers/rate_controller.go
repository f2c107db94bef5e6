package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/middleware"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/rates"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

const (
	msgRatesNotFound    = "Không tìm thấy dữ liệu tỷ giá hợp lệ trong file Excel!"
	msgRateNotFound     = "Tỷ giá không tồn tại!"
	msgCurrencyRequired = "Mã ngoại tệ không được để trống!"
	msgLegacyWorkbook   = "Chỉ hỗ trợ file Excel định dạng .xlsx! Vui lòng lưu lại file dưới dạng .xlsx."
)

// RateController administers the exchange-rate table.
type RateController struct {
	db    *gorm.DB
	store *storage.Manager
}

func NewRateController(db *gorm.DB, store *storage.Manager) *RateController {
	return &RateController{db: db, store: store}
}

func invalidateRates() { utils.InvalidateByPrefix(utils.CacheKeyActiveRates) }

// List renders every stored rate.
func (r *RateController) List(ctx *gin.Context) {
	var list []models.ExchangeRate
	if err := r.db.Order("id ASC").Find(&list).Error; err != nil {
		utils.Sugar.Errorw("list exchange rates failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50080, "Lỗi khi tải tỷ giá!")
		return
	}
	utils.Render(ctx, http.StatusOK, "admin_rates.html", page(ctx, "Quản lý tỷ giá", gin.H{
		"Rates": list,
	}))
}

// Upload imports an .xlsx rate sheet, replacing the whole table. The uploaded
// workbook is removed once parsed.
func (r *RateController) Upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("excel_file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "Vui lòng chọn file Excel!")
		return
	}
	if errors.Is(rates.CheckName(fh.Filename), rates.ErrLegacyWorkbook) {
		middleware.RateImports.WithLabelValues("rejected").Inc()
		utils.Error(ctx, http.StatusBadRequest, 40084, msgLegacyWorkbook)
		return
	}
	tmp, err := r.store.SaveTemp(fh)
	if err != nil {
		middleware.RateImports.WithLabelValues("rejected").Inc()
		respondUploadError(ctx, r.store, err)
		return
	}
	defer r.store.Discard([]storage.SavedFile{tmp})

	rows, err := rates.ParseFile(tmp.Path)
	if err != nil {
		if errors.Is(err, rates.ErrNoRates) {
			middleware.RateImports.WithLabelValues("empty").Inc()
			utils.Error(ctx, http.StatusBadRequest, 40081, msgRatesNotFound)
			return
		}
		middleware.RateImports.WithLabelValues("failed").Inc()
		utils.Sugar.Warnw("parse exchange-rate sheet failed", "file", tmp.Name, "error", err)
		utils.Error(ctx, http.StatusBadRequest, 40082, "Lỗi khi đọc file Excel: "+errors.Cause(err).Error())
		return
	}
	if len(rows) == 0 {
		middleware.RateImports.WithLabelValues("empty").Inc()
		utils.Error(ctx, http.StatusBadRequest, 40081, msgRatesNotFound)
		return
	}

	notice := rates.Notice{Date: strings.TrimSpace(ctx.PostForm("notification_date"))}
	notice.Number, _ = strconv.Atoi(strings.TrimSpace(ctx.PostForm("notification_number")))
	n, err := rates.Replace(r.db, rows, notice)
	if err != nil {
		middleware.RateImports.WithLabelValues("failed").Inc()
		utils.Sugar.Errorw("store exchange rates failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50081, "Lỗi khi cập nhật tỷ giá!")
		return
	}
	middleware.RateImports.WithLabelValues("ok").Inc()
	invalidateRates()
	utils.Sugar.Infow("exchange rates imported", "rows", n, "file", tmp.Name)
	utils.Redirect(ctx, "/admin/exchange-rates", gin.H{"imported": n})
}

// Toggle flips whether a rate is shown.
func (r *RateController) Toggle(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40480, msgRateNotFound)
		return
	}
	res := r.db.Model(&models.ExchangeRate{}).Where("id = ?", id).
		Update("is_active", gorm.Expr("CASE WHEN is_active THEN ? ELSE ? END", false, true))
	r.finish(ctx, res, "Lỗi khi cập nhật trạng thái!")
}

// Delete removes one rate.
func (r *RateController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40480, msgRateNotFound)
		return
	}
	r.finish(ctx, r.db.Delete(&models.ExchangeRate{}, id), "Lỗi khi xóa tỷ giá!")
}

// Clear removes every rate.
func (r *RateController) Clear(ctx *gin.Context) {
	if err := rates.Clear(r.db); err != nil {
		utils.Sugar.Errorw("clear exchange rates failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50082, "Lỗi khi xóa tất cả tỷ giá!")
		return
	}
	invalidateRates()
	utils.Redirect(ctx, "/admin/exchange-rates", nil)
}

type rateForm struct {
	CurrencyCode       string `form:"currency_code"`
	CashBuyRate        string `form:"cash_buy_rate"`
	TransferBuyRate    string `form:"transfer_buy_rate"`
	SellRate           string `form:"sell_rate"`
	NotificationDate   string `form:"notification_date"`
	NotificationNumber string `form:"notification_number"`
	IsActive           string `form:"is_active"`
}

// optionalFloat reads an edited rate; blank or unparsable input clears it.
func optionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Edit overwrites one rate row.
func (r *RateController) Edit(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40480, msgRateNotFound)
		return
	}
	var form rateForm
	_ = ctx.ShouldBind(&form)
	code := strings.ToUpper(strings.TrimSpace(form.CurrencyCode))
	if code == "" {
		utils.Error(ctx, http.StatusBadRequest, 40083, msgCurrencyRequired)
		return
	}
	number, err := strconv.Atoi(strings.TrimSpace(form.NotificationNumber))
	if err != nil || number <= 0 {
		number = 1
	}
	res := r.db.Model(&models.ExchangeRate{}).Where("id = ?", id).Updates(map[string]interface{}{
		"currency_code":       code,
		"cash_buy_rate":       optionalFloat(form.CashBuyRate),
		"transfer_buy_rate":   optionalFloat(form.TransferBuyRate),
		"sell_rate":           optionalFloat(form.SellRate),
		"notification_date":   strings.TrimSpace(form.NotificationDate),
		"notification_number": number,
		"is_active":           form.IsActive != "" && form.IsActive != "0" && form.IsActive != "false",
	})
	r.finish(ctx, res, "Lỗi khi cập nhật tỷ giá!")
}

func (r *RateController) finish(ctx *gin.Context, res *gorm.DB, failure string) {
	if res.Error != nil {
		utils.Sugar.Errorw("exchange rate change failed", "id", ctx.Param("id"), "error", res.Error)
		utils.Error(ctx, http.StatusInternalServerError, 50083, failure)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40480, msgRateNotFound)
		return
	}
	invalidateRates()
	utils.Redirect(ctx, "/admin/exchange-rates", nil)
}
