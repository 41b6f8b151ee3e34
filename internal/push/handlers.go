package push

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pediae/backend-pediae/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler exposes the push dispatch endpoints. Both sit behind the shared
// bearer-token middleware; this type only deals with payloads and channels.
type Handler struct {
	Service *Service
}

type sendReq struct {
	UserID       string       `json:"userId" validate:"required"`
	Notification Notification `json:"notification"`
}

func decodeSendReq(w http.ResponseWriter, r *http.Request) (sendReq, bool) {
	var req sendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.JSONError(w, http.StatusBadRequest, "missing_fields", []string{"userId"})
		} else {
			common.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		}
		return req, false
	}
	return req, true
}

// SendToUser delivers a Web Push notification to every browser endpoint the
// user registered.
func (h *Handler) SendToUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSendReq(w, r)
	if !ok {
		return
	}
	if h.Service.WebPush == nil || !h.Service.WebPush.Configured() {
		common.JSONError(w, http.StatusServiceUnavailable, "webpush_not_configured", nil)
		return
	}
	sent, results, err := h.Service.SendWebPush(r.Context(), req.UserID, req.Notification)
	if err != nil {
		respondError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"sent":    sent,
		"results": results,
	})
}

// FCMSendToUser delivers one multicast FCM message covering every device
// token the user registered.
func (h *Handler) FCMSendToUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSendReq(w, r)
	if !ok {
		return
	}
	if h.Service.FCM == nil || !h.Service.FCM.Configured() {
		common.JSONError(w, http.StatusServiceUnavailable, "fcm_not_configured", nil)
		return
	}
	sent, failureCount, err := h.Service.SendFCM(r.Context(), req.UserID, req.Notification)
	if err != nil {
		respondError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"sent":         sent,
		"failureCount": failureCount,
	})
}

// respondError keeps the stable error code when the store raised a typed
// error, otherwise falls back to the generic push code.
func respondError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, http.StatusInternalServerError, appErr.Code, appErr.Message)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "push_error", err.Error())
}
