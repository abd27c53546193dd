package mpesa

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Daraja result codes that map to terminal settlement states. Anything else
// is recorded as unknown and left for manual review.
const (
	ResultCodeSuccess          = 0
	ResultCodeFailed           = 1
	ResultCodeCancelledByUser  = 1032
	ResultCodeInvalidInitiator = 2001
)

// CallbackEnvelope is the payload Daraja POSTs to the callback URL after an
// STK push settles, times out, or is dismissed.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback carries the settlement outcome for one checkout request.
type StkCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

// CallbackMetadata holds the name/value items present on successful payments.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is a single metadata entry. Value is a string for receipt
// numbers and phone numbers, and a JSON number for amounts.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// stringValue renders a metadata value. Phone numbers and amounts arrive as
// JSON numbers, which decode to float64 and must not be printed in exponent
// notation.
func (i MetadataItem) stringValue() string {
	switch v := i.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ReceiptNumber extracts the MpesaReceiptNumber metadata entry, if present.
func (c StkCallback) ReceiptNumber() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			return item.stringValue()
		}
	}
	return ""
}

// SettledAmount extracts the Amount metadata entry, if present.
func (c StkCallback) SettledAmount() (decimal.Decimal, bool) {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != "Amount" || item.Value == nil {
			continue
		}
		d, err := decimal.NewFromString(item.stringValue())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// PayerPhone extracts the PhoneNumber metadata entry, if present.
func (c StkCallback) PayerPhone() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "PhoneNumber" {
			return item.stringValue()
		}
	}
	return ""
}
