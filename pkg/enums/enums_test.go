package enums

import "testing"

func TestTransactionStatusTerminality(t *testing.T) {
	if TransactionStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	for _, status := range []TransactionStatus{
		TransactionStatusSuccess,
		TransactionStatusFailed,
		TransactionStatusCancelled,
		TransactionStatusUnknown,
	} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
	if TransactionStatus("bogus").IsTerminal() {
		t.Fatal("unknown values are not terminal")
	}
}

func TestParseTransactionStatus(t *testing.T) {
	status, err := ParseTransactionStatus("cancelled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != TransactionStatusCancelled {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseTransactionStatus("void"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestMerchandiseOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to MerchandiseOrderStatus
		allowed  bool
	}{
		{MerchandiseOrderPending, MerchandiseOrderProcessing, true},
		{MerchandiseOrderPending, MerchandiseOrderCancelled, true},
		{MerchandiseOrderProcessing, MerchandiseOrderShipped, true},
		{MerchandiseOrderShipped, MerchandiseOrderDelivered, true},
		{MerchandiseOrderShipped, MerchandiseOrderCancelled, false},
		{MerchandiseOrderDelivered, MerchandiseOrderPending, false},
		{MerchandiseOrderCancelled, MerchandiseOrderProcessing, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("mpesa")
	if err != nil || method != PaymentMethodMpesa {
		t.Fatalf("unexpected result %s %v", method, err)
	}
	if _, err := ParsePaymentMethod("cash"); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}
