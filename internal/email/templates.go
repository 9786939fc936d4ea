package email

import (
	"fmt"
	"html"

	"github.com/shopspring/decimal"
)

// DepositReceiptParams holds the data for the "balance added" email.
type DepositReceiptParams struct {
	To         string
	Name       string // may be empty
	Amount     decimal.Decimal
	NewBalance decimal.Decimal
	Currency   string // e.g. "INR"
	PaymentID  string
}

// DepositReceipt builds the message sent after a wallet top-up is credited.
func DepositReceipt(p DepositReceiptParams) Message {
	amount := fmt.Sprintf("%s %s", p.Currency, p.Amount.StringFixed(2))
	balance := fmt.Sprintf("%s %s", p.Currency, p.NewBalance.StringFixed(2))

	greeting := "Hello"
	if p.Name != "" {
		greeting = "Hello " + p.Name
	}

	return Message{
		To:       []string{p.To},
		Subject:  "Balance added to your wallet",
		HTMLBody: depositReceiptHTML(html.EscapeString(greeting), amount, balance, html.EscapeString(p.PaymentID)),
		TextBody: fmt.Sprintf("%s,\n\nWe have added %s to your wallet. Your new balance is %s.\nPayment reference: %s\n",
			greeting, amount, balance, p.PaymentID),
	}
}

func depositReceiptHTML(greeting, amount, balance, paymentID string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Balance Added to Wallet</h2>
  <p>%s,</p>
  <p>We have received your payment of <strong>%s</strong> and added it to your
  wallet. Your new balance is <strong>%s</strong>.</p>
  <p style="color: #6b7280; font-size: 14px;">
    Payment reference: %s<br>
    If you did not make this payment, reply to this email.
  </p>
</body>
</html>`, greeting, amount, balance, paymentID)
}
