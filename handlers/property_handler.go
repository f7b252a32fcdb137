package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/promissory/models"
	"github.com/ferreirogomes/promissory/services"
)

// PropertyHandler lida com o cadastro e o ciclo de vida das propriedades.
type PropertyHandler struct {
	Ledger *services.PropertyLedger
}

func NewPropertyHandler(l *services.PropertyLedger) *PropertyHandler {
	return &PropertyHandler{Ledger: l}
}

type propertyResponse struct {
	models.Property
	StatusName string `json:"status_name"`
}

func toPropertyResponse(p models.Property) propertyResponse {
	return propertyResponse{Property: p, StatusName: p.Status.String()}
}

// CreateProperty cadastra uma propriedade pendente.
// POST /properties
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var requestBody struct {
		TokenName     string      `json:"token_name"`
		TokenSymbol   string      `json:"token_symbol"`
		TokenSupply   json.Number `json:"token_supply"`
		InterestRate  json.Number `json:"interest_rate_bps"`
		LockingPeriod json.Number `json:"locking_period_seconds"`
	}
	if err := decodeBody(r, &requestBody); err != nil {
		writeError(w, err)
		return
	}
	supply, err := intField(requestBody.TokenSupply, "token_supply")
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := intField(requestBody.InterestRate, "interest_rate_bps")
	if err != nil {
		writeError(w, err)
		return
	}
	lock, err := intField(requestBody.LockingPeriod, "locking_period_seconds")
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := h.Ledger.AddProperty(r.Context(), caller, requestBody.TokenName, requestBody.TokenSymbol, supply, rate, lock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListProperties lista todas as propriedades.
// GET /properties
func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Ledger.Properties(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]propertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProperty obtém uma propriedade pelo ID.
// GET /properties/{id}
func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := propertyID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, found, err := h.Ledger.Property(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Message: "Propriedade não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, toPropertyResponse(p))
}

// ListEvents retorna o histórico de eventos da propriedade.
// GET /properties/{id}/events
func (h *PropertyHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := propertyID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := h.Ledger.Events(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type valueRequest struct {
	Value json.Number `json:"value"`
}

// update decodifica {"value": n} e aplica a edição do proprietário.
func update(apply func(ctx context.Context, caller string, id uint64, value int64) (models.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			writeError(w, err)
			return
		}
		id, err := propertyID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var body valueRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		value, err := intField(body.Value, "value")
		if err != nil {
			writeError(w, err)
			return
		}
		event, err := apply(r.Context(), caller, id, value)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// PUT /properties/{id}/interest-rate
func (h *PropertyHandler) UpdateInterestRate(w http.ResponseWriter, r *http.Request) {
	update(h.Ledger.UpdateInterestRate)(w, r)
}

// PUT /properties/{id}/token-supply
func (h *PropertyHandler) UpdateTokenSupply(w http.ResponseWriter, r *http.Request) {
	update(h.Ledger.UpdateTokenSupply)(w, r)
}

// PUT /properties/{id}/locking-period
func (h *PropertyHandler) UpdateLockingPeriod(w http.ResponseWriter, r *http.Request) {
	update(h.Ledger.UpdateLockingPeriod)(w, r)
}

// ApproveProperty aprova e tokeniza uma propriedade pendente.
// POST /properties/{id}/approve
func (h *PropertyHandler) ApproveProperty(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := propertyID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var requestBody struct {
		TokensToLock json.Number `json:"tokens_to_lock"`
	}
	if err := decodeBody(r, &requestBody); err != nil {
		writeError(w, err)
		return
	}
	tokensToLock, err := uintField(requestBody.TokensToLock, "tokens_to_lock")
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := h.Ledger.ApproveProperty(r.Context(), caller, id, tokensToLock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// BanProperty bane uma propriedade pendente.
// POST /properties/{id}/ban
func (h *PropertyHandler) BanProperty(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := propertyID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := h.Ledger.BanProperty(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
