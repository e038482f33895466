package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
)

// maxWebhookBody bounds how much of an arbitrary PSP payload we will buffer.
const maxWebhookBody = 1 << 20

type checkoutRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type checkoutResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
	AccessToken   string `json:"accessToken,omitempty"`
	MeetingURL    string `json:"meetingUrl,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	intent := model.PurchaseIntent{
		Product: model.ProductSKU(chi.URLParam(r, "product")),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
	}

	result, err := s.checkoutUC.Initiate(ctx, intent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrPaymentUnavailable):
			http.Error(w, "Payment provider unavailable, please retry", http.StatusServiceUnavailable)
		default:
			http.Error(w, "Checkout failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:       true,
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		AccessToken:   result.AccessToken,
		MeetingURL:    result.MeetingURL,
	})
}

type confirmResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	AccessToken   string `json:"accessToken"`
	MeetingURL    string `json:"meetingUrl,omitempty"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grant, err := s.confirmUC.Confirm(r.Context(), q.Get("transactionId"), q.Get("email"), q.Get("signature"))
	if err != nil {
		s.writeConfirmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{Success: true, TransactionID: grant.TransactionID, AccessToken: grant.AccessToken, MeetingURL: grant.MeetingURL})
}

func (s *Server) writeConfirmError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadTicket):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrPaymentNotCompleted), errors.Is(err, domain.ErrPSPNotConfigured):
		http.Error(w, "Payment not completed", http.StatusBadRequest)
	case errors.Is(err, domain.ErrPaymentUnavailable):
		http.Error(w, "Payment provider unavailable, please retry", http.StatusBadGateway)
	default:
		http.Error(w, "Confirmation failed", http.StatusInternalServerError)
	}
}

// handleRedirectRelay receives the PSP's browser redirect (GET or the
// dialect's POST redirectMode), confirms server-side, and forwards the buyer
// to a user-facing page. Running the confirmation here avoids client script
// inside a PSP-hosted frame.
func (s *Server) handleRedirectRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	txnID, email, sig := q.Get("transactionId"), q.Get("email"), q.Get("signature")

	grant, err := s.confirmUC.Confirm(r.Context(), txnID, email, sig)
	if err != nil {
		s.log.Info().Err(err).Str("txn_id", txnID).Msg("redirect relay: confirmation failed")
		http.Redirect(w, r, s.cfg.Server.FailureURL, http.StatusSeeOther)
		return
	}

	dest, err := url.Parse(s.cfg.Server.SuccessURL)
	if err != nil {
		http.Error(w, "Bad success URL", http.StatusInternalServerError)
		return
	}
	dq := dest.Query()
	dq.Set("token", grant.AccessToken)
	dq.Set("email", email)
	dq.Set("transactionId", grant.TransactionID)
	dest.RawQuery = dq.Encode()
	http.Redirect(w, r, dest.String(), http.StatusSeeOther)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		body = nil
	}
	s.webhookUC.Receive(r.Context(), r.Header, body)

	// Always 200, always fast: an error here would make the provider
	// retry-storm the endpoint.
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resourcesResponse struct {
	Resources []model.Resource `json:"resources"`
	UpsellURL string           `json:"upsellUrl,omitempty"`
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resources, upsell, err := s.resourceUC.Resolve(q.Get("token"), q.Get("email"), model.ProductSKU(q.Get("product")))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, resourcesResponse{Resources: resources, UpsellURL: upsell})
}

type completePreviewRequest struct {
	Token         string `json:"token"`
	Email         string `json:"email"`
	TransactionID string `json:"transactionId"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
}

func (s *Server) handleCompletePreview(w http.ResponseWriter, r *http.Request) {
	var req completePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.confirmUC.CompletePreview(r.Context(), req.Token, req.Email, model.PreviewCompletion{TransactionID: req.TransactionID, Name: req.Name, Phone: req.Phone})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Completion failed", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Admin (reconciliation) =====

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || s.cfg.Security.AdminKey == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key != s.cfg.Security.AdminKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminWebhooks serves the webhook log by transaction id for manual
// reconciliation.
func (s *Server) handleAdminWebhooks(w http.ResponseWriter, r *http.Request) {
	txnID := r.URL.Query().Get("transaction_id")
	if txnID == "" {
		http.Error(w, "transaction_id is required", http.StatusBadRequest)
		return
	}

	events, err := s.webhooks.FindByTransactionID(r.Context(), txnID)
	if err != nil {
		http.Error(w, "Failed to read webhook log", http.StatusInternalServerError)
		return
	}

	type eventView struct {
		ID            string    `json:"id"`
		TransactionID *string   `json:"transaction_id"`
		Headers       string    `json:"headers"`
		Body          string    `json:"body"`
		ReceivedAt    time.Time `json:"received_at"`
	}
	out := struct {
		Data []eventView `json:"data"`
	}{Data: make([]eventView, 0, len(events))}
	for _, ev := range events {
		out.Data = append(out.Data, eventView{
			ID:            ev.ID,
			TransactionID: ev.TransactionID,
			Headers:       ev.Headers,
			Body:          string(ev.Body),
			ReceivedAt:    ev.ReceivedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
