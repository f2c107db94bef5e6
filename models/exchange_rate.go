package models

import "time"

// ExchangeRate is one currency row of the latest imported rate sheet.
type ExchangeRate struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CurrencyCode       string    `gorm:"size:16;not null;index:idx_rates_active_code,priority:2" json:"currency_code"`
	CashBuyRate        *float64  `json:"cash_buy_rate"`
	TransferBuyRate    *float64  `json:"transfer_buy_rate"`
	SellRate           *float64  `json:"sell_rate"`
	NotificationDate   string    `gorm:"size:32" json:"notification_date"`
	NotificationNumber int       `gorm:"not null;default:1" json:"notification_number"`
	IsActive           bool      `gorm:"not null;index:idx_rates_active_code,priority:1" json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
