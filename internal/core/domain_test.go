package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrip() *Trip {
	return &Trip{
		DriverNumber:   "0300-1111111",
		Date:           "2025-07-13",
		VehicleNumber:  "TR-12345",
		VehicleSize:    "40ft",
		VehicleAccount: "AC-V1",
		Station:        "North Hub",
		BrokerName:     "Al-Fatah Goods Carrier",
		PartyName:      "Global Exports Inc.",
		Weight:         decimal.NewFromInt(25),
	}
}

func TestTripValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Trip)
		field  string
	}{
		{"valid", func(*Trip) {}, ""},
		{"missing driver", func(tr *Trip) { tr.DriverNumber = "  " }, "driverNumber"},
		{"bad date", func(tr *Trip) { tr.Date = "13-Jul-25" }, "date"},
		{"missing party", func(tr *Trip) { tr.PartyName = "" }, "partyName"},
		{"negative weight", func(tr *Trip) { tr.Weight = decimal.NewFromInt(-1) }, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := validTrip()
			tt.mutate(trip)
			trip.Normalize()
			err := trip.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestTripValidateAllowsNegativeVehicleBalance(t *testing.T) {
	trip := validTrip()
	trip.VehicleBalance = decimal.NewFromInt(-3000)
	assert.NoError(t, trip.Validate())
}

func TestValidationErrorListsEveryField(t *testing.T) {
	err := (&Party{}).Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Equal(t, "validation failed: address is required; contact is required; name is required; type must be one of Regular, One-time", err.Error())
}

func TestBrokerCommissionRange(t *testing.T) {
	b := &Broker{Name: "Madina Cargo", Contact: "0321", Station: "South", Commission: decimal.RequireFromString("100.5")}
	require.Error(t, b.Validate())

	b.Commission = decimal.NewFromInt(100)
	assert.NoError(t, b.Validate())

	b.Commission = decimal.RequireFromString("4.5")
	assert.NoError(t, b.Validate())
}

func TestPaymentNormalize(t *testing.T) {
	p := &Payment{Type: PaymentReceived, EntityType: EntityParty, EntityName: " Local Goods Co. ", Amount: decimal.NewFromInt(500)}
	p.Normalize()
	assert.Equal(t, "Payment received from Local Goods Co.", p.Description)
	assert.Equal(t, Today(), p.Date)
	require.NoError(t, p.Validate())

	paid := &Payment{Date: "2025-01-02", Type: PaymentPaid, EntityType: EntityBroker, EntityName: "Al-Fatah", Amount: decimal.NewFromInt(1)}
	paid.Normalize()
	assert.Equal(t, "Payment made to Al-Fatah", paid.Description)
}

func TestPaymentRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-10"} {
		p := &Payment{Date: "2025-01-02", Type: PaymentPaid, EntityType: EntityBroker, EntityName: "X", Description: "d", Amount: decimal.RequireFromString(amount)}
		var verr *ValidationError
		require.ErrorAs(t, p.Validate(), &verr, amount)
		assert.Contains(t, verr.Fields, "amount")
	}
}

func TestOwnerNormalizeDropsIncompleteTrucks(t *testing.T) {
	o := &Owner{
		Name: " Rafiq Transport ",
		Trucks: []Truck{
			{VehicleNumber: "LES-123", VehicleSize: "22ft"},
			{VehicleNumber: "", VehicleSize: "40ft"},
			{VehicleNumber: "LES-999", VehicleSize: " "},
			{VehicleNumber: "TKR-1", VehicleSize: "40ft", Status: TruckMaintenance},
		},
	}
	o.Normalize()
	require.NoError(t, o.Validate())

	assert.Equal(t, "Rafiq Transport", o.Name)
	require.Len(t, o.Trucks, 2)
	assert.Equal(t, TruckActive, o.Trucks[0].Status)
	assert.Equal(t, TruckMaintenance, o.Trucks[1].Status)
	assert.True(t, o.OwnsVehicle(" les-123"))
	assert.False(t, o.OwnsVehicle("LES-999"))
}

func TestOwnerRejectsDuplicateTruck(t *testing.T) {
	o := &Owner{Name: "A", Trucks: []Truck{
		{VehicleNumber: "LES-123", VehicleSize: "22ft"},
		{VehicleNumber: "les-123", VehicleSize: "22ft"},
	}}
	o.Normalize()
	assert.Error(t, o.Validate())
}

func TestLabourValidate(t *testing.T) {
	self := &Labour{Cost: decimal.NewFromInt(800), Source: LabourFromSelf, SelfName: "Hamza", PartyName: "ignored", Date: "2025-03-01"}
	self.Normalize()
	require.NoError(t, self.Validate())
	assert.Equal(t, "hamza", self.SelfName)
	assert.Empty(t, self.PartyName)
	assert.NoError(t, self.CheckSelfName(DefaultSelfNames))
	assert.Error(t, self.CheckSelfName([]string{"bilal"}))

	party := &Labour{Cost: decimal.NewFromInt(800), Source: LabourFromParty, Date: "2025-03-01"}
	party.Normalize()
	var verr *ValidationError
	require.ErrorAs(t, party.Validate(), &verr)
	assert.Contains(t, verr.Fields, "partyName")
}

func TestProductReceiveValidate(t *testing.T) {
	p := &ProductReceive{ProductName: "Cement", Quantity: decimal.NewFromInt(200), Unit: "bags", ReceivedFrom: "Lucky", Date: "2025-03-01", ProductType: "Building", TruckDimensions: "22ft"}
	require.NoError(t, p.Validate())

	p.TruckDimensions = ""
	assert.Error(t, p.Validate())
}

func TestVehicleKey(t *testing.T) {
	assert.Equal(t, "LES123", VehicleKey(" les 123 "))
	assert.Equal(t, VehicleKey("TR-12345"), VehicleKey("tr-12345"))
}
