package rates

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
)

// Notice identifies the rate bulletin a sheet belongs to.
type Notice struct {
	Date   string
	Number int
}

// Replace swaps the whole rate table for rows in one transaction. Imported
// rows start active. It returns the number of rows stored.
func Replace(db *gorm.DB, rows []Row, notice Notice) (int, error) {
	if len(rows) == 0 {
		return 0, ErrNoRates
	}
	if notice.Number <= 0 {
		notice.Number = 1
	}
	records := make([]models.ExchangeRate, len(rows))
	for i, r := range rows {
		records[i] = models.ExchangeRate{
			CurrencyCode:       r.CurrencyCode,
			CashBuyRate:        r.CashBuy,
			TransferBuyRate:    r.TransferBuy,
			SellRate:           r.Sell,
			NotificationDate:   notice.Date,
			NotificationNumber: notice.Number,
			IsActive:           true,
		}
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Clear(tx); err != nil {
			return err
		}
		return errors.Wrap(tx.Create(&records).Error, "insert exchange rates")
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Clear deletes every stored rate.
func Clear(db *gorm.DB) error {
	err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ExchangeRate{}).Error
	return errors.Wrap(err, "clear exchange rates")
}
