package core

import (
	"github.com/shopspring/decimal"
)

const (
	PaymentReceived = "received"
	PaymentPaid     = "paid"

	EntityParty  = "party"
	EntityBroker = "broker"
	EntityOwner  = "owner"
)

// Payment records money received from a party or paid to a broker or owner.
type Payment struct {
	Model `yaml:",inline"`

	Date        string          `json:"date" yaml:"date"`
	Type        string          `json:"type" yaml:"type"`
	EntityType  string          `json:"entityType" yaml:"entityType"`
	EntityName  string          `json:"entityName" yaml:"entityName"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Description string          `json:"description" yaml:"description"`
	Reference   string          `json:"reference,omitempty" yaml:"reference,omitempty"`
}

func (p *Payment) Normalize() {
	trim(&p.Date, &p.Type, &p.EntityType, &p.EntityName, &p.Description, &p.Reference)
	if p.Date == "" {
		p.Date = Today()
	}
	if p.Description == "" && p.EntityName != "" {
		switch p.Type {
		case PaymentReceived:
			p.Description = "Payment received from " + p.EntityName
		case PaymentPaid:
			p.Description = "Payment made to " + p.EntityName
		}
	}
}

func (p *Payment) Validate() error {
	var c checker
	c.date("date", p.Date)
	c.oneOf("type", p.Type, PaymentReceived, PaymentPaid)
	c.oneOf("entityType", p.EntityType, EntityParty, EntityBroker, EntityOwner)
	c.required("entityName", p.EntityName)
	c.required("description", p.Description)
	if !p.Amount.IsPositive() {
		c.fail("amount", "must be greater than 0")
	}
	return c.err()
}

// Settles reports whether the payment reduces the balance of the named entity
// in the given direction.
func (p *Payment) Settles(typ, entityType, name string) bool {
	return p.Type == typ && p.EntityType == entityType && p.EntityName == name
}
