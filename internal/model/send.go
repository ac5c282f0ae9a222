package model

// SendRequest represents request for POST /wallet/send
type SendRequest struct {
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// SendResponse represents response for POST /wallet/send
type SendResponse struct {
	TxID   string `json:"txId"`
	Status string `json:"status"`
}
