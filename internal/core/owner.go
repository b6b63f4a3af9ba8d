package core

import (
	"github.com/shopspring/decimal"
)

const (
	TruckActive      = "active"
	TruckInactive    = "inactive"
	TruckMaintenance = "maintenance"
)

type Dimensions struct {
	Length decimal.Decimal `json:"length" yaml:"length"`
	Width  decimal.Decimal `json:"width" yaml:"width"`
	Height decimal.Decimal `json:"height" yaml:"height"`
}

type Truck struct {
	VehicleNumber    string          `json:"vehicleNumber" yaml:"vehicleNumber"`
	VehicleSize      string          `json:"vehicleSize" yaml:"vehicleSize"`
	Dimensions       Dimensions      `json:"dimensions" yaml:"dimensions"`
	Capacity         decimal.Decimal `json:"capacity" yaml:"capacity"`
	RegistrationDate string          `json:"registrationDate,omitempty" yaml:"registrationDate,omitempty"`
	InsuranceExpiry  string          `json:"insuranceExpiry,omitempty" yaml:"insuranceExpiry,omitempty"`
	FitnessExpiry    string          `json:"fitnessExpiry,omitempty" yaml:"fitnessExpiry,omitempty"`
	Status           string          `json:"status" yaml:"status"`
}

// OwnerLedger is always derived from trips and payments; client supplied
// values are discarded.
type OwnerLedger struct {
	Debit              decimal.Decimal `json:"debit" yaml:"-"`
	Credit             decimal.Decimal `json:"credit" yaml:"-"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance" yaml:"-"`
	TotalTrips         int             `json:"totalTrips" yaml:"-"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings" yaml:"-"`
	TotalPayments      decimal.Decimal `json:"totalPayments" yaml:"-"`
}

// Owner is a truck owner whose vehicles are hired for trips.
type Owner struct {
	Model `yaml:",inline"`

	Name   string  `json:"name" yaml:"name"`
	Trucks []Truck `json:"trucks" yaml:"trucks"`

	OwnerLedger `yaml:"-"`
}

// Normalize trims fields, drops incomplete truck rows and defaults truck status.
func (o *Owner) Normalize() {
	trim(&o.Name)
	trucks := make([]Truck, 0, len(o.Trucks))
	for _, t := range o.Trucks {
		trim(&t.VehicleNumber, &t.VehicleSize, &t.RegistrationDate, &t.InsuranceExpiry,
			&t.FitnessExpiry, &t.Status)
		if t.VehicleNumber == "" || t.VehicleSize == "" {
			continue
		}
		if t.Status == "" {
			t.Status = TruckActive
		}
		trucks = append(trucks, t)
	}
	o.Trucks = trucks
}

func (o *Owner) Validate() error {
	var c checker
	c.required("name", o.Name)
	seen := make(map[string]bool, len(o.Trucks))
	for _, t := range o.Trucks {
		key := VehicleKey(t.VehicleNumber)
		if seen[key] {
			c.fail("trucks", "vehicle "+t.VehicleNumber+" is listed twice")
		}
		seen[key] = true
		c.oneOf("trucks.status", t.Status, TruckActive, TruckInactive, TruckMaintenance)
		for field, d := range map[string]string{
			"trucks.registrationDate": t.RegistrationDate,
			"trucks.insuranceExpiry":  t.InsuranceExpiry,
			"trucks.fitnessExpiry":    t.FitnessExpiry,
		} {
			if d != "" && !ValidDate(d) {
				c.fail(field, "must be a date in YYYY-MM-DD format")
			}
		}
		if t.Capacity.IsNegative() {
			c.fail("trucks.capacity", "must not be negative")
		}
	}
	return c.err()
}

// OwnsVehicle reports whether one of the owner's trucks has the given number.
func (o *Owner) OwnsVehicle(number string) bool {
	key := VehicleKey(number)
	for _, t := range o.Trucks {
		if VehicleKey(t.VehicleNumber) == key {
			return true
		}
	}
	return false
}
