package core

import (
	"net/mail"

	"github.com/shopspring/decimal"
)

const (
	PartyRegular = "Regular"
	PartyOneTime = "One-time"
)

// Party is a customer that books freight. OutstandingBalance is the opening
// balance carried into the ledger before any recorded trip.
type Party struct {
	Model `yaml:",inline"`

	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	Contact      string `json:"contact" yaml:"contact"`
	Address      string `json:"address" yaml:"address"`
	Phone        string `json:"phone" yaml:"phone"`
	Email        string `json:"email" yaml:"email"`
	City         string `json:"city" yaml:"city"`
	BusinessType string `json:"businessType" yaml:"businessType"`
	GSTNumber    string `json:"gstNumber" yaml:"gstNumber"`
	PANNumber    string `json:"panNumber" yaml:"panNumber"`

	Debit              decimal.Decimal `json:"debit" yaml:"debit"`
	Credit             decimal.Decimal `json:"credit" yaml:"credit"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance" yaml:"outstandingBalance"`
}

func (p *Party) Normalize() {
	trim(&p.Name, &p.Type, &p.Contact, &p.Address, &p.Phone, &p.Email, &p.City,
		&p.BusinessType, &p.GSTNumber, &p.PANNumber)
}

func (p *Party) Validate() error {
	var c checker
	c.required("name", p.Name)
	c.oneOf("type", p.Type, PartyRegular, PartyOneTime)
	c.required("contact", p.Contact)
	c.required("address", p.Address)
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			c.fail("email", "is not a valid address")
		}
	}
	return c.err()
}

// Broker arranges loads at a station for a commission.
type Broker struct {
	Model `yaml:",inline"`

	Name       string          `json:"name" yaml:"name"`
	Commission decimal.Decimal `json:"commission" yaml:"commission"`
	Contact    string          `json:"contact" yaml:"contact"`
	Station    string          `json:"station" yaml:"station"`
	Debit      decimal.Decimal `json:"debit" yaml:"debit"`
	Credit     decimal.Decimal `json:"credit" yaml:"credit"`
}

var hundred = decimal.NewFromInt(100)

func (b *Broker) Normalize() {
	trim(&b.Name, &b.Contact, &b.Station)
}

func (b *Broker) Validate() error {
	var c checker
	c.required("name", b.Name)
	c.required("contact", b.Contact)
	c.required("station", b.Station)
	if b.Commission.IsNegative() || b.Commission.GreaterThan(hundred) {
		c.fail("commission", "must be between 0 and 100")
	}
	return c.err()
}
