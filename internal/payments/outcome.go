package payments

import (
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

// SettlementOutcome is the classified result of one provider callback. The
// mapping from raw result codes to outcomes lives here and nowhere else.
type SettlementOutcome string

const (
	OutcomeSuccess   SettlementOutcome = "success"
	OutcomeFailed    SettlementOutcome = "failed"
	OutcomeCancelled SettlementOutcome = "cancelled"
	OutcomeUnknown   SettlementOutcome = "unknown"
)

// OutcomeForResultCode classifies a Daraja result code. Codes outside the
// known set settle as unknown so the raw code is preserved for audit instead
// of being silently treated as a failure.
func OutcomeForResultCode(code int) SettlementOutcome {
	switch code {
	case mpesa.ResultCodeSuccess:
		return OutcomeSuccess
	case mpesa.ResultCodeFailed, mpesa.ResultCodeInvalidInitiator:
		return OutcomeFailed
	case mpesa.ResultCodeCancelledByUser:
		return OutcomeCancelled
	default:
		return OutcomeUnknown
	}
}

// TransactionStatus maps the outcome onto the ledger status enum.
func (o SettlementOutcome) TransactionStatus() enums.TransactionStatus {
	switch o {
	case OutcomeSuccess:
		return enums.TransactionStatusSuccess
	case OutcomeFailed:
		return enums.TransactionStatusFailed
	case OutcomeCancelled:
		return enums.TransactionStatusCancelled
	default:
		return enums.TransactionStatusUnknown
	}
}

func (o SettlementOutcome) String() string {
	return string(o)
}
