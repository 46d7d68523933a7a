package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for market data and fixings.
const DateLayout = "2006-01-02"

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PricePoint is one daily observation fed to the indicator calculator.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// Grade is a tradable oil grade with its quality specification.
type Grade struct {
	ID       int    `json:"id" db:"id" validate:"gte=0"` // 0 lets the store assign one
	Name     string `json:"name" db:"name" validate:"notblank"`
	Region   string `json:"region,omitempty" db:"region"`
	FFA      string `json:"ffa,omitempty" db:"ffa"`
	Moisture string `json:"moisture,omitempty" db:"moisture"`
	IV       string `json:"iv,omitempty" db:"iv"`
	DOBI     string `json:"dobi,omitempty" db:"dobi"`
}

// MarketData is a daily price record for one grade.
type MarketData struct {
	ID        string          `json:"id" db:"id"`
	GradeID   int             `json:"gradeId" db:"grade_id" validate:"gt=0"`
	GradeName string          `json:"gradeName" db:"grade_name"`
	Date      string          `json:"date" db:"date" validate:"datetime=2006-01-02"`
	PriceUSD  decimal.Decimal `json:"priceUsd" db:"price_usd" validate:"gt=0"`
	USDTND    decimal.Decimal `json:"usdTnd" db:"usd_tnd" validate:"gte=0"`
	Volume    string          `json:"volume" db:"volume"` // "1234 MT"
	Change24h float64         `json:"change24h" db:"change_24h"`
}

// Day parses Date. A malformed date yields the zero time.
func (m MarketData) Day() time.Time {
	t, err := time.Parse(DateLayout, m.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToSeries converts date-ascending market data into price points, keeping order.
func ToSeries(items []MarketData) []PricePoint {
	series := make([]PricePoint, len(items))
	for i, it := range items {
		series[i] = PricePoint{Date: it.Day(), Price: it.PriceUSD.InexactFloat64()}
	}
	return series
}

// Fixing is a concluded physical purchase.
type Fixing struct {
	ID           string          `json:"id" db:"id"`
	Date         string          `json:"date" db:"date" validate:"datetime=2006-01-02"`
	Route        string          `json:"route" db:"route" validate:"notblank"`
	Grade        string          `json:"grade" db:"grade" validate:"notblank"`
	Volume       string          `json:"volume" db:"volume" validate:"notblank"`
	PriceUSD     decimal.Decimal `json:"priceUsd" db:"price_usd" validate:"gt=0"`
	Counterparty string          `json:"counterparty" db:"counterparty" validate:"notblank"`
	Vessel       string          `json:"vessel,omitempty" db:"vessel"`
	Currency     string          `json:"currency,omitempty" db:"currency"`
	Notes        string          `json:"notes,omitempty" db:"notes"`
}
