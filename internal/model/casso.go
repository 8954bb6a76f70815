package model

// CassoTransaction is the bank transfer notification pushed by Casso.
// Description carries the payment code typed by the buyer.
type CassoTransaction struct {
	ID                  int64  `json:"id"`
	Description         string `json:"description"`
	Amount              int64  `json:"amount"`
	TransactionDateTime string `json:"transactionDateTime"`
	AccountNumber       string `json:"accountNumber"`
	BankName            string `json:"bankName"`
}

type CassoWebhookEvent struct {
	Data *CassoTransaction `json:"data"`
}
