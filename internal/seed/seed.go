// Package seed loads YAML fixtures into an empty book.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/storage"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the on-disk seed format. Owner ledgers are never read from a
// fixture; reconcile after Apply to derive them.
type Fixtures struct {
	Parties         []core.Party          `yaml:"parties"`
	Brokers         []core.Broker         `yaml:"brokers"`
	Owners          []core.Owner          `yaml:"owners"`
	Trips           []core.Trip           `yaml:"trips"`
	Payments        []core.Payment        `yaml:"payments"`
	Labours         []core.Labour         `yaml:"labours"`
	ProductReceives []core.ProductReceive `yaml:"productReceives"`
}

// Counts reports how many documents of each kind Apply stored.
type Counts struct {
	Parties, Brokers, Owners, Trips, Payments, Labours, ProductReceives int
}

func (c Counts) Total() int {
	return c.Parties + c.Brokers + c.Owners + c.Trips + c.Payments + c.Labours + c.ProductReceives
}

// Default returns the embedded demo fixtures.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Parse decodes fixtures, rejecting unknown keys.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Prepare normalizes and validates every fixture and numbers unnumbered
// trips after the highest serial present.
func (f *Fixtures) Prepare() error {
	var errs []error
	check := func(kind string, i int, d core.Document) {
		d.Normalize()
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", kind, i, err))
		}
	}
	for i := range f.Parties {
		check("parties", i, &f.Parties[i])
	}
	for i := range f.Brokers {
		check("brokers", i, &f.Brokers[i])
	}
	for i := range f.Owners {
		check("owners", i, &f.Owners[i])
	}
	for i := range f.Payments {
		check("payments", i, &f.Payments[i])
	}
	for i := range f.Labours {
		check("labours", i, &f.Labours[i])
	}
	for i := range f.ProductReceives {
		check("productReceives", i, &f.ProductReceives[i])
	}

	last := 0
	for _, t := range f.Trips {
		last = max(last, t.SerialNumber)
	}
	for i := range f.Trips {
		if f.Trips[i].SerialNumber == 0 {
			f.Trips[i].SerialNumber = ledger.NextSerial(last)
			last = f.Trips[i].SerialNumber
		}
		check("trips", i, &f.Trips[i])
	}
	return errors.Join(errs...)
}

// Apply empties the repository and stores the fixtures.
func Apply(ctx context.Context, repo *storage.Repository, f *Fixtures) (Counts, error) {
	var n Counts
	if err := f.Prepare(); err != nil {
		return n, err
	}
	if err := repo.Reset(ctx); err != nil {
		return n, err
	}

	for i := range f.Parties {
		if err := repo.Parties.Create(ctx, &f.Parties[i]); err != nil {
			return n, err
		}
		n.Parties++
	}
	for i := range f.Brokers {
		if err := repo.Brokers.Create(ctx, &f.Brokers[i]); err != nil {
			return n, err
		}
		n.Brokers++
	}
	for i := range f.Owners {
		f.Owners[i].OwnerLedger = core.OwnerLedger{}
		if err := repo.Owners.Create(ctx, &f.Owners[i]); err != nil {
			return n, err
		}
		n.Owners++
	}
	for i := range f.Trips {
		if err := repo.Trips.Create(ctx, &f.Trips[i]); err != nil {
			return n, err
		}
		n.Trips++
	}
	for i := range f.Payments {
		if err := repo.Payments.Create(ctx, &f.Payments[i]); err != nil {
			return n, err
		}
		n.Payments++
	}
	for i := range f.Labours {
		if err := repo.Labours.Create(ctx, &f.Labours[i]); err != nil {
			return n, err
		}
		n.Labours++
	}
	for i := range f.ProductReceives {
		if err := repo.ProductReceives.Create(ctx, &f.ProductReceives[i]); err != nil {
			return n, err
		}
		n.ProductReceives++
	}
	return n, nil
}
