package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediae/backend-pediae/internal/common"
	"github.com/pediae/backend-pediae/internal/obs"
	"github.com/pediae/backend-pediae/internal/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler exposes the payment HTTP surface: checkout creation for both
// providers and the SumUp return redirect.
type Handler struct {
	SumUp         *SumUp
	Stripe        *StripeCheckout
	Store         store.Store
	SuccessURL    string
	CancelURL     string
	ReturnBaseURL string
	Currency      string
	Logger        zerolog.Logger
}

type restaurantRef struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
}

type createSumUpReq struct {
	PedidoID   string        `json:"pedidoId" validate:"required"`
	Amount     float64       `json:"amount" validate:"required,gt=0"`
	Currency   string        `json:"currency"`
	Restaurant restaurantRef `json:"restaurant"`
}

type createStripeReq struct {
	PedidoID   string  `json:"pedidoId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Restaurant struct {
		ID   string `json:"id"`
		Nome string `json:"nome" validate:"required"`
	} `json:"restaurant"`
}

// CreateSumUpCheckout opens a hosted SumUp checkout and returns its redirect URL.
func (h *Handler) CreateSumUpCheckout(w http.ResponseWriter, r *http.Request) {
	var req createSumUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if fields := missingFields(validate.Struct(req)); len(fields) > 0 {
		common.JSONError(w, http.StatusBadRequest, "missing_fields", fields)
		return
	}
	if !h.SumUp.Configured() {
		countCheckout("sumup", "not_configured")
		common.JSONError(w, http.StatusInternalServerError, "sumup_not_configured", nil)
		return
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = h.currency()
	}
	checkout, err := h.SumUp.CreateCheckout(r.Context(), CheckoutRequest{
		Reference:   checkoutReference(req.PedidoID),
		Amount:      req.Amount,
		Currency:    currency,
		ReturnURL:   h.returnURL(req.PedidoID),
		Description: checkoutDescription(req.PedidoID, req.Restaurant.Nome),
	})
	if err != nil {
		countCheckout("sumup", "error")
		h.Logger.Error().Err(err).Str("pedido_id", req.PedidoID).Msg("sumup checkout creation failed")
		common.JSONError(w, http.StatusInternalServerError, "sumup_error", err.Error())
		return
	}
	countCheckout("sumup", "created")
	common.JSON(w, http.StatusOK, map[string]string{
		"checkout_id": checkout.ID,
		"url":         h.SumUp.HostedCheckoutURL(checkout.ID),
	})
}

// CreateStripeSession opens a hosted Stripe checkout session.
func (h *Handler) CreateStripeSession(w http.ResponseWriter, r *http.Request) {
	var req createStripeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if fields := missingFields(validate.Struct(req)); len(fields) > 0 {
		common.JSONError(w, http.StatusBadRequest, "missing_fields", fields)
		return
	}
	if !h.Stripe.Configured() {
		countCheckout("stripe", "not_configured")
		common.JSONError(w, http.StatusInternalServerError, "stripe_not_configured", nil)
		return
	}
	sess, err := h.Stripe.CreateSession(r.Context(), req.PedidoID, req.Amount, req.Restaurant.ID, req.Restaurant.Nome)
	if err != nil {
		countCheckout("stripe", "error")
		h.Logger.Error().Err(err).Str("pedido_id", req.PedidoID).Msg("stripe session creation failed")
		common.JSONError(w, http.StatusInternalServerError, "stripe_error", err.Error())
		return
	}
	countCheckout("stripe", "created")
	common.JSON(w, http.StatusOK, map[string]string{
		"url": sess.URL,
		"id":  sess.ID,
	})
}

// SumUpReturn finalises a hosted checkout when the shopper's browser comes
// back from the provider. The response is always a redirect; every failure
// collapses into the cancel URL.
func (h *Handler) SumUpReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pedidoID := strings.TrimSpace(q.Get("pedido_id"))
	checkoutID := firstNonEmpty(q.Get("checkout_id"), q.Get("checkoutId"))
	transactionID := firstNonEmpty(q.Get("transaction_id"), q.Get("transactionId"))

	status, err := h.SumUp.ResolveReturnStatus(r.Context(), checkoutID, transactionID)
	if err != nil {
		countReturn("error")
		h.Logger.Warn().Err(err).Str("pedido_id", pedidoID).Msg("payment return status resolution failed")
		http.Redirect(w, r, h.CancelURL, http.StatusFound)
		return
	}
	if !Approved(status) {
		countReturn("declined")
		http.Redirect(w, r, h.CancelURL, http.StatusFound)
		return
	}
	if pedidoID != "" && h.Store != nil {
		// best effort: a failed status update must not break the shopper's redirect
		if err := h.Store.MarkOrderAccepted(r.Context(), pedidoID, "pagamento confirmado (SumUp)"); err != nil {
			h.Logger.Warn().Err(err).Str("pedido_id", pedidoID).Msg("order status update failed")
		}
	}
	countReturn("approved")
	http.Redirect(w, r, h.SuccessURL, http.StatusFound)
}

func (h *Handler) currency() string {
	if strings.TrimSpace(h.Currency) == "" {
		return "BRL"
	}
	return h.Currency
}

func (h *Handler) returnURL(pedidoID string) string {
	base := strings.TrimRight(h.ReturnBaseURL, "/")
	return fmt.Sprintf("%s/payments/sumup/return?pedido_id=%s", base, url.QueryEscape(pedidoID))
}

// checkoutReference builds a provider-unique reference. SumUp rejects reuse,
// so retried orders get a fresh suffix.
func checkoutReference(pedidoID string) string {
	return fmt.Sprintf("pediae-%s-%s", pedidoID, uuid.NewString()[:8])
}

func checkoutDescription(pedidoID, restaurantName string) string {
	if strings.TrimSpace(restaurantName) == "" {
		return "Pedido " + pedidoID
	}
	return fmt.Sprintf("Pedido %s - %s", pedidoID, restaurantName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// missingFields maps validator failures onto the JSON field names the
// frontend sent.
func missingFields(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"body"}
	}
	fields := []string{}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "PedidoID":
			fields = append(fields, "pedidoId")
		case "Amount":
			fields = append(fields, "amount")
		case "Nome":
			fields = append(fields, "restaurant.nome")
		default:
			fields = append(fields, strings.ToLower(fe.StructField()))
		}
	}
	return fields
}

func countCheckout(provider, result string) {
	if obs.PaymentCheckoutTotal != nil {
		obs.PaymentCheckoutTotal.WithLabelValues(provider, result).Inc()
	}
}

func countReturn(result string) {
	if obs.PaymentReturnTotal != nil {
		obs.PaymentReturnTotal.WithLabelValues(result).Inc()
	}
}
