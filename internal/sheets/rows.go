package sheets

import (
	"strconv"

	"haulbook/internal/core"
)

// Header is the first row of the trip register.
var Header = []string{
	"S.No", "Date", "Vehicle", "Size", "Driver", "Station", "Broker", "Party",
	"Freight", "Office Fare", "Vehicle Fare", "Expenses", "Party Balance",
	"Party Received", "Commission", "Vehicle Balance", "Vehicle Account", "Details",
}

// LastColumn is the column letter of the final Header cell.
const LastColumn = "R"

// TripRow renders a trip as register cells in Header order. Amounts are
// written as plain decimal strings so the sheet parses them as numbers.
func TripRow(t core.Trip) []any {
	return []any{
		strconv.Itoa(t.SerialNumber),
		t.Date,
		t.VehicleNumber,
		t.VehicleSize,
		t.DriverNumber,
		t.Station,
		t.BrokerName,
		t.PartyName,
		t.Freight.String(),
		t.OfficeFare.String(),
		t.VehicleFare.String(),
		t.Expenses().String(),
		t.PartyBalance.String(),
		t.PartyReceived.String(),
		t.BrokerageCommission.String(),
		t.VehicleBalance.String(),
		t.VehicleAccount,
		t.AdditionalDetails,
	}
}

// HeaderRow returns Header as sheet cells.
func HeaderRow() []any {
	out := make([]any, len(Header))
	for i, h := range Header {
		out[i] = h
	}
	return out
}
