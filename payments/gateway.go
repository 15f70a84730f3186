package payments

// Outcome is the result extracted from a verified gateway callback.
// AppointmentRef carries the order reference the gateway echoes back
// (vnp_TxnRef for VNPay, orderInfo for MoMo).
type Outcome struct {
	AppointmentRef string
	Succeeded      bool
	TransactionNo  string
	Amount         float64
	FailureCode    string
}
