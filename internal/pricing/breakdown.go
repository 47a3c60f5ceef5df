package pricing

import "encoding/json"

// Amount represents a monetary value in rupees as the backend reports it.
// Amounts are display values; the backend owns the exact minor-unit figures
// used for payment and the client never derives one from the other.
type Amount = float64

// BulkDiscount mirrors the backend's nested discount object.
type BulkDiscount struct {
	Amount     Amount `json:"amount"`
	Percentage Amount `json:"percentage"`
}

// Breakdown is the server-authoritative pricing summary for a cart or a
// single quote. It is only ever replaced wholesale, never recomputed or
// field-patched client-side.
type Breakdown struct {
	Subtotal        Amount       `json:"subtotal"`
	BulkDiscount    BulkDiscount `json:"bulkDiscount"`
	SurgeMultiplier Amount       `json:"surgeMultiplier,omitempty"`
	ExtraCharges    Amount       `json:"extraCharges,omitempty"`
	HelmetCharges   Amount       `json:"helmetCharges,omitempty"`
	GST             Amount       `json:"gst"`
	GSTPercentage   Amount       `json:"gstPercentage"`
	Total           Amount       `json:"total"`
}

// UnmarshalJSON accepts both the current shape and the legacy one the
// backend still emits on some endpoints ({subtotal, discount, gst,
// helmetCharges, totalAmount}).
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	type alias Breakdown
	aux := struct {
		*alias
		TotalAmount *Amount `json:"totalAmount"`
		Discount    *Amount `json:"discount"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.Total == 0 && aux.TotalAmount != nil {
		b.Total = *aux.TotalAmount
	}
	if b.BulkDiscount.Amount == 0 && aux.Discount != nil {
		b.BulkDiscount.Amount = *aux.Discount
	}
	return nil
}
