package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	LabourFromParty = "party"
	LabourFromSelf  = "self"
)

// DefaultSelfNames are the in-house names a self-paid labour cost may carry.
var DefaultSelfNames = []string{"hamza", "shahid"}

// Labour is a loading or unloading cost borne either by a party or in-house.
type Labour struct {
	Model `yaml:",inline"`

	Cost        decimal.Decimal `json:"cost" yaml:"cost"`
	Source      string          `json:"source" yaml:"source"`
	SelfName    string          `json:"selfName,omitempty" yaml:"selfName,omitempty"`
	PartyName   string          `json:"partyName,omitempty" yaml:"partyName,omitempty"`
	Date        string          `json:"date" yaml:"date"`
	Description string          `json:"description" yaml:"description"`
}

func (l *Labour) Normalize() {
	trim(&l.Source, &l.SelfName, &l.PartyName, &l.Date, &l.Description)
	l.SelfName = strings.ToLower(l.SelfName)
	switch l.Source {
	case LabourFromSelf:
		l.PartyName = ""
	case LabourFromParty:
		l.SelfName = ""
	}
}

func (l *Labour) Validate() error {
	var c checker
	c.date("date", l.Date)
	c.oneOf("source", l.Source, LabourFromParty, LabourFromSelf)
	if l.Cost.IsNegative() {
		c.fail("cost", "must not be negative")
	}
	switch l.Source {
	case LabourFromSelf:
		c.required("selfName", l.SelfName)
	case LabourFromParty:
		c.required("partyName", l.PartyName)
	}
	return c.err()
}

// CheckSelfName rejects self-paid costs whose name is not in allowed.
func (l *Labour) CheckSelfName(allowed []string) error {
	if l.Source != LabourFromSelf {
		return nil
	}
	var c checker
	c.oneOf("selfName", l.SelfName, allowed...)
	return c.err()
}

// ProductReceive records goods received into the yard.
type ProductReceive struct {
	Model `yaml:",inline"`

	ProductName     string          `json:"productName" yaml:"productName"`
	Quantity        decimal.Decimal `json:"quantity" yaml:"quantity"`
	Unit            string          `json:"unit" yaml:"unit"`
	ReceivedFrom    string          `json:"receivedFrom" yaml:"receivedFrom"`
	Date            string          `json:"date" yaml:"date"`
	ProductType     string          `json:"productType" yaml:"productType"`
	TruckDimensions string          `json:"truckDimensions" yaml:"truckDimensions"`
	Description     string          `json:"description" yaml:"description"`
}

func (p *ProductReceive) Normalize() {
	trim(&p.ProductName, &p.Unit, &p.ReceivedFrom, &p.Date, &p.ProductType,
		&p.TruckDimensions, &p.Description)
}

func (p *ProductReceive) Validate() error {
	var c checker
	c.required("productName", p.ProductName)
	c.required("unit", p.Unit)
	c.required("receivedFrom", p.ReceivedFrom)
	c.date("date", p.Date)
	c.required("productType", p.ProductType)
	c.required("truckDimensions", p.TruckDimensions)
	if p.Quantity.IsNegative() {
		c.fail("quantity", "must not be negative")
	}
	return c.err()
}
