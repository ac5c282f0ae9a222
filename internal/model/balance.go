package model

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address  string `json:"address"`
	SOL      string `json:"sol"`
	Lamports uint64 `json:"lamports"`
	PriceUSD string `json:"priceUsd"`
	USD      string `json:"sol_amount_in_usd"`
}

// Token is an SPL token balance reported by the backend
type Token struct {
	Mint    string  `json:"mint"`
	Symbol  string  `json:"symbol"`
	Name    string  `json:"name"`
	Logo    string  `json:"logo,omitempty"`
	Balance float64 `json:"balance"`
}
