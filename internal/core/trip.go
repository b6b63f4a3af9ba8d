package core

import (
	"github.com/shopspring/decimal"
)

// Trip is one consignment moved by a truck, with every cost and balance the
// ledger derives party, broker and owner positions from.
type Trip struct {
	Model `yaml:",inline"`

	SerialNumber   int    `json:"serialNumber" yaml:"serialNumber"`
	DriverNumber   string `json:"driverNumber" yaml:"driverNumber"`
	Date           string `json:"date" yaml:"date"`
	VehicleNumber  string `json:"vehicleNumber" yaml:"vehicleNumber"`
	VehicleSize    string `json:"vehicleSize" yaml:"vehicleSize"`
	VehicleAccount string `json:"vehicleAccount" yaml:"vehicleAccount"`
	Station        string `json:"station" yaml:"station"`
	BrokerName     string `json:"brokerName" yaml:"brokerName"`
	PartyName      string `json:"partyName" yaml:"partyName"`

	Weight               decimal.Decimal `json:"weight" yaml:"weight"`
	Freight              decimal.Decimal `json:"freight" yaml:"freight"`
	OfficeFare           decimal.Decimal `json:"officeFare" yaml:"officeFare"`
	VehicleReceivedBilty decimal.Decimal `json:"vehicleReceivedBilty" yaml:"vehicleReceivedBilty"`
	VehicleFare          decimal.Decimal `json:"vehicleFare" yaml:"vehicleFare"`
	LaborCharges         decimal.Decimal `json:"laborCharges" yaml:"laborCharges"`
	ExciseCharges        decimal.Decimal `json:"exciseCharges" yaml:"exciseCharges"`
	Bonus                decimal.Decimal `json:"bonus" yaml:"bonus"`
	MiscExpenses         decimal.Decimal `json:"miscExpenses" yaml:"miscExpenses"`
	DailyWages           decimal.Decimal `json:"dailyWages" yaml:"dailyWages"`
	ExtraWeight          decimal.Decimal `json:"extraWeight" yaml:"extraWeight"`
	PartyBalance         decimal.Decimal `json:"partyBalance" yaml:"partyBalance"`
	PartyReceived        decimal.Decimal `json:"partyReceived" yaml:"partyReceived"`
	BrokerageCommission  decimal.Decimal `json:"brokerageCommission" yaml:"brokerageCommission"`
	VehicleBalance       decimal.Decimal `json:"vehicleBalance" yaml:"vehicleBalance"`
	MT                   decimal.Decimal `json:"mt" yaml:"mt"`

	AdditionalDetails string          `json:"additionalDetails" yaml:"additionalDetails"`
	ProductName       string          `json:"productName" yaml:"productName"`
	ProductQuantity   decimal.Decimal `json:"productQuantity" yaml:"productQuantity"`
	ProductUnit       string          `json:"productUnit" yaml:"productUnit"`
	ProductType       string          `json:"productType" yaml:"productType"`
	TruckDimensions   string          `json:"truckDimensions" yaml:"truckDimensions"`
}

func (t *Trip) Normalize() {
	trim(&t.DriverNumber, &t.Date, &t.VehicleNumber, &t.VehicleSize, &t.VehicleAccount,
		&t.Station, &t.BrokerName, &t.PartyName, &t.AdditionalDetails, &t.ProductName,
		&t.ProductUnit, &t.ProductType, &t.TruckDimensions)
}

func (t *Trip) Validate() error {
	var c checker
	c.required("driverNumber", t.DriverNumber)
	c.date("date", t.Date)
	c.required("vehicleNumber", t.VehicleNumber)
	c.required("vehicleSize", t.VehicleSize)
	c.required("vehicleAccount", t.VehicleAccount)
	c.required("station", t.Station)
	c.required("brokerName", t.BrokerName)
	c.required("partyName", t.PartyName)
	if t.SerialNumber < 0 {
		c.fail("serialNumber", "must not be negative")
	}
	if t.Weight.IsNegative() {
		c.fail("weight", "must not be negative")
	}
	if t.MT.IsNegative() {
		c.fail("mt", "must not be negative")
	}
	if t.ProductQuantity.IsNegative() {
		c.fail("productQuantity", "must not be negative")
	}
	return c.err()
}

// Expenses is the trip's running cost: labour, excise, miscellaneous and daily wages.
func (t *Trip) Expenses() decimal.Decimal {
	return Sum(t.LaborCharges, t.ExciseCharges, t.MiscExpenses, t.DailyWages)
}
