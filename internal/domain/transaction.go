package domain

type TransactionState string

const (
	StatePending  TransactionState = "pending"
	StateComplete TransactionState = "complete"
)

type Order struct {
	From        string
	To          string
	Amount      float64
	Destination string
}

type Transaction struct {
	Address       string
	Order         Order
	State         TransactionState
	CreatedAt     int
	SettledAt     int
	SettledAmount float64
}

// Invoice describes what a counterparty has to pay to Address to trigger
// settlement of the conversion.
type Invoice struct {
	Address  string  `json:"address"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type Settlement struct {
	Address     string
	Currency    string
	Amount      float64
	Destination string
	// Repeated is set when an already complete transaction was settled again.
	Repeated bool
}

type TransactionStatus struct {
	Address       string           `json:"address"`
	State         TransactionState `json:"state"`
	From          string           `json:"from"`
	To            string           `json:"to"`
	Amount        float64          `json:"amount"`
	CreatedAt     int64            `json:"created_at"`
	SettledAmount float64          `json:"settled_amount,omitempty"`
}
