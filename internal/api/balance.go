package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyashahama/wallet-topup-backend/internal/email"
	"github.com/nyashahama/wallet-topup-backend/internal/razorpay"
	"github.com/nyashahama/wallet-topup-backend/internal/store"
)

// ─── REQUEST / RESPONSE TYPES ────────────────────────────────────────────────

type walletUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Balance     string `json:"balance"`
}

type addBalancePageResponse struct {
	User          walletUser `json:"user"`
	Avatar        string     `json:"avatar"`
	Href          string     `json:"href"`
	RazorpayKeyID string     `json:"razorpay_key_id"`
	Currency      string     `json:"currency"`
}

type createOrderRequest struct {
	AddAmount decimal.Decimal `json:"addAmount"`
}

// paymentSuccessRequest is the checkout.js handler payload plus the amount
// the page asked for.
type paymentSuccessRequest struct {
	PaymentID string          `json:"razorpay_payment_id" validate:"required,startswith=pay_,max=64"`
	OrderID   string          `json:"razorpay_order_id"   validate:"required,startswith=order_,max=64"`
	Signature string          `json:"razorpay_signature"  validate:"required,hexadecimal,len=64"`
	Amount    decimal.Decimal `json:"amount"`
}

type paymentSuccessResponse struct {
	Success bool   `json:"success"`
	Balance string `json:"balance,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	msgInvalidSignature = "Invalid signature"
	msgInvalidAmount    = "Invalid payment amount"
	msgAlreadyProcessed = "Payment already processed"
	msgGatewayUnchecked = "Could not confirm payment with gateway"
	msgSaveFailed       = "Failed to save payment info"
	msgOrderFailed      = "Razorpay Order Creation Failed"
)

// ─── HANDLERS ────────────────────────────────────────────────────────────────

// handleAddBalancePage handles GET /addBalance.
// Returns what the top-up page needs to render and to open checkout.js.
func (s *Server) handleAddBalancePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondErr(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, err := s.q.GetUserByID(r.Context(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	respond(w, http.StatusOK, addBalancePageResponse{
		User: walletUser{
			ID:          user.ID.String(),
			DisplayName: user.DisplayName,
			Email:       user.Email.String,
			Balance:     user.Balance.StringFixed(2),
		},
		Avatar:        user.Image.String,
		Href:          "/addBalance",
		RazorpayKeyID: s.cfg.RazorpayKeyID,
		Currency:      s.cfg.Currency,
	})
}

// handleCreateOrder handles POST /addBalance/create-order.
//
// Converts addAmount to minor units and registers an order with the gateway.
// The gateway's order JSON is returned verbatim; checkout.js needs its id.
// Nothing is written locally.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondErr(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req createOrderRequest
	if !decode(w, r, &req) {
		return
	}

	minor, err := razorpay.MinorUnits(req.AddAmount)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "addAmount must be a positive amount with at most two decimal places")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GatewayTimeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderParams{
		AmountMinor: minor,
		Currency:    s.cfg.Currency,
		Receipt:     razorpay.NewReceipt(time.Now()),
		Notes:       map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		s.logger.Error("create order failed",
			"user_id", userID,
			"amount_minor", minor,
			"error", err,
			logField(r),
		)
		respondText(w, http.StatusInternalServerError, msgOrderFailed)
		return
	}

	s.logger.Info("order created", "user_id", userID, "order_id", order.ID, "amount_minor", minor, logField(r))
	respondRaw(w, http.StatusOK, order.Raw)
}

// handlePaymentSuccess handles POST /addBalance/payment-success.
//
// Flow:
//  1. Verify the checkout signature over order_id|payment_id.
//  2. Check the amount, and when enabled confirm it against the gateway order.
//  3. Credit the wallet and record the Deposit transaction atomically.
//  4. Queue a receipt email. Mail failures never affect the response.
//
// A confirmation already credited to the same user answers success with the
// current balance, so a retried request is harmless.
func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondErr(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	// checkout.js may send fields beyond the ones read here.
	var req paymentSuccessRequest
	if err := readJSON(w, r, &req, false); err != nil {
		s.logger.Warn("payment: unreadable confirmation", "user_id", userID, "error", err, logField(r))
		respond(w, http.StatusBadRequest, paymentSuccessResponse{Message: msgInvalidSignature})
		return
	}

	log := s.logger.With("user_id", userID, "order_id", req.OrderID, "payment_id", req.PaymentID, logField(r))

	if err := s.validate.Struct(req); err != nil {
		log.Warn("payment: malformed confirmation", "error", err)
		respond(w, http.StatusBadRequest, paymentSuccessResponse{Message: msgInvalidSignature})
		return
	}

	err := razorpay.VerifySignature(razorpay.PaymentConfirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	}, s.cfg.RazorpayKeySecret)
	switch {
	case errors.Is(err, razorpay.ErrInvalidSignature):
		log.Warn("payment: signature verification failed")
		respond(w, http.StatusBadRequest, paymentSuccessResponse{Message: msgInvalidSignature})
		return
	case err != nil:
		s.respondInternalErr(w, r, err)
		return
	}

	minor, err := razorpay.MinorUnits(req.Amount)
	if err != nil {
		log.Warn("payment: invalid amount", "amount", req.Amount.String())
		respond(w, http.StatusBadRequest, paymentSuccessResponse{Message: msgInvalidAmount})
		return
	}

	var payload []byte
	if s.cfg.VerifyOrderAmount {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GatewayTimeout)
		order, err := s.gateway.FetchOrder(ctx, req.OrderID)
		cancel()
		if err != nil {
			log.Error("payment: fetch order failed", "error", err)
			respond(w, http.StatusBadGateway, paymentSuccessResponse{Message: msgGatewayUnchecked})
			return
		}
		if order.Amount != minor || !strings.EqualFold(order.Currency, s.cfg.Currency) {
			log.Warn("payment: amount does not match order",
				"claimed", razorpay.MajorUnits(minor).StringFixed(2),
				"order_amount", razorpay.MajorUnits(order.Amount).StringFixed(2),
				"order_currency", order.Currency,
			)
			respond(w, http.StatusBadRequest, paymentSuccessResponse{Message: msgInvalidAmount})
			return
		}
		payload = order.Raw
	}

	res, err := s.ledger.CreditDeposit(r.Context(), store.CreditDepositParams{
		UserID:         userID,
		Amount:         req.Amount,
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		GatewayPayload: payload,
	})
	if errors.Is(err, store.ErrPaymentAlreadyCredited) {
		s.replayedPayment(w, r, req.PaymentID)
		return
	}
	if err != nil {
		log.Error("payment: credit failed", "error", err)
		respondText(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	log.Info("payment: wallet credited",
		"amount", req.Amount.StringFixed(2),
		"balance", res.User.Balance.StringFixed(2),
		"transaction_id", res.Transaction.ID,
	)

	if res.User.Email.Valid && res.User.Email.String != "" {
		msg := email.DepositReceipt(email.DepositReceiptParams{
			To:         res.User.Email.String,
			Name:       res.User.DisplayName,
			Amount:     req.Amount,
			NewBalance: res.User.Balance,
			Currency:   s.cfg.Currency,
			PaymentID:  req.PaymentID,
		})
		s.logAndIgnoreEmailErr(r, s.mail.Enqueue(r.Context(), msg), "deposit_receipt")
	}

	respond(w, http.StatusOK, paymentSuccessResponse{
		Success: true,
		Balance: res.User.Balance.StringFixed(2),
	})
}

// replayedPayment answers a confirmation whose payment id is already on the
// ledger. The owner gets their current balance; anyone else gets a 409.
func (s *Server) replayedPayment(w http.ResponseWriter, r *http.Request, paymentID string) {
	userID, _ := userIDFrom(r.Context())

	existing, err := s.q.GetTransactionByPaymentID(r.Context(), paymentID)
	if err != nil {
		s.logger.Error("payment: replay lookup failed", "payment_id", paymentID, "error", err, logField(r))
		respondText(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	if existing.UserID != userID {
		s.logger.Warn("payment: replay by a different user",
			"payment_id", paymentID,
			"user_id", userID,
			"owner_id", existing.UserID,
			logField(r),
		)
		respond(w, http.StatusConflict, paymentSuccessResponse{Message: msgAlreadyProcessed})
		return
	}

	user, err := s.q.GetUserByID(r.Context(), userID)
	if err != nil {
		s.logger.Error("payment: balance lookup failed", "user_id", userID, "error", err, logField(r))
		respondText(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	s.logger.Info("payment: duplicate confirmation", "payment_id", paymentID, "user_id", userID, logField(r))
	respond(w, http.StatusOK, paymentSuccessResponse{
		Success: true,
		Balance: user.Balance.StringFixed(2),
	})
}
