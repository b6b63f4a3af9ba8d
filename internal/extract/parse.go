package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"haulbook/internal/core"

	"github.com/shopspring/decimal"
)

var firstNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)

// dateLayouts are the spellings seen on ledger pages, tried in order.
var dateLayouts = []string{
	core.DateLayout,
	"2-Jan-06",
	"2-Jan-2006",
	"2 Jan 2006",
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
}

// parseDrafts decodes the model's JSON array into trip drafts.
func parseDrafts(text string) ([]core.Trip, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResponse
	}

	drafts := make([]core.Trip, 0, len(rows))
	for _, row := range rows {
		t := draft(row)
		t.Normalize()
		drafts = append(drafts, t)
	}
	return drafts, nil
}

func draft(row map[string]any) core.Trip {
	str := func(k string) string { return text(row[k]) }
	num := func(k string) decimal.Decimal { return number(row[k]) }
	return core.Trip{
		DriverNumber:         str("driverNumber"),
		Date:                 normalizeDate(str("date")),
		VehicleNumber:        str("vehicleNumber"),
		VehicleSize:          str("vehicleSize"),
		Weight:               num("weight"),
		Freight:              num("freight"),
		OfficeFare:           num("officeFare"),
		VehicleReceivedBilty: num("vehicleReceivedBilty"),
		VehicleFare:          num("vehicleFare"),
		LaborCharges:         num("laborCharges"),
		ExciseCharges:        num("exciseCharges"),
		Bonus:                num("bonus"),
		MiscExpenses:         num("miscExpenses"),
		DailyWages:           num("dailyWages"),
		ExtraWeight:          num("extraWeight"),
		PartyBalance:         num("partyBalance"),
		PartyReceived:        num("partyReceived"),
		BrokerageCommission:  num("brokerageCommission"),
		VehicleBalance:       num("vehicleBalance"),
		VehicleAccount:       str("vehicleAccount"),
		AdditionalDetails:    str("additionalDetails"),
		Station:              str("station"),
		BrokerName:           str("brokerName"),
		PartyName:            str("partyName"),
		MT:                   num("mt"),
	}
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return decimal.NewFromFloat(x).String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// number reads a cell as a decimal. Blank or unreadable cells are 0 and a
// range such as "20-25" yields its first number.
func number(v any) decimal.Decimal {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x)
	case string:
		s := strings.NewReplacer(",", "", " ", "").Replace(x)
		m := firstNumber.FindString(s)
		if m == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(m)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// normalizeDate rewrites known ledger spellings as YYYY-MM-DD. Anything else
// is returned unchanged for the reviewer to fix.
func normalizeDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(core.DateLayout)
		}
	}
	return s
}
