package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// LineItemDraft is a quote item before it is attached to a quote and a
// service record.
type LineItemDraft struct {
	ServiceType model.ServiceType `json:"service_type"`
	Quantity    int               `json:"quantity"`
	UnitPrice   int64             `json:"unit_price"`
	TotalPrice  int64             `json:"total_price"`
	UsageDate   *time.Time        `json:"usage_date,omitempty"`
}

// NewLineItemDraft prices a draft: TotalPrice is Quantity × UnitPrice.
func NewLineItemDraft(st model.ServiceType, qty int, unit int64, usage *time.Time) LineItemDraft {
	return LineItemDraft{
		ServiceType: st,
		Quantity:    qty,
		UnitPrice:   unit,
		TotalPrice:  int64(qty) * unit,
		UsageDate:   usage,
	}
}

// Addition is one (service record, line item) pair to persist.  The
// service record is written first; the item then points at it.
type Addition struct {
	Service model.ServiceRecord
	Item    LineItemDraft
}

// LineItem binds the draft to its quote and service record.
func (a Addition) LineItem(quoteID, serviceID uuid.UUID) model.LineItem {
	return model.LineItem{
		QuoteID:      quoteID,
		ServiceType:  a.Item.ServiceType,
		ServiceRefID: serviceID,
		Quantity:     a.Item.Quantity,
		UnitPrice:    a.Item.UnitPrice,
		TotalPrice:   a.Item.TotalPrice,
		UsageDate:    a.Item.UsageDate,
	}
}

// DetailDraft is one reservation detail row as submitted by the form.
// For car kinds Quantity is ignored and derived from CarType.
type DetailDraft struct {
	Kind           string
	PriceCode      string
	CarType        string
	Quantity       int
	UsageDate      *time.Time
	PassengerCount int
	VehicleCount   int
	Location       string
	Note           *string
}
