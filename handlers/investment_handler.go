package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/promissory/models"
	"github.com/ferreirogomes/promissory/services"

	"github.com/go-chi/chi/v5"
)

// InvestmentHandler lida com investimentos, saques e liquidações.
type InvestmentHandler struct {
	Ledger *services.PropertyLedger
}

func NewInvestmentHandler(l *services.PropertyLedger) *InvestmentHandler {
	return &InvestmentHandler{Ledger: l}
}

type amountRequest struct {
	Amount json.Number `json:"amount"`
}

// withAmount decodifica {"amount": n} e chama a operação do ledger.
func withAmount(apply func(ctx context.Context, caller string, id uint64, amount uint64) (models.Event, error)) http.HandlerFunc {
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
		var body amountRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		amount, err := uintField(body.Amount, "amount")
		if err != nil {
			writeError(w, err)
			return
		}
		event, err := apply(r.Context(), caller, id, amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// Invest investe value token numa propriedade aprovada.
// POST /properties/{id}/investments
func (h *InvestmentHandler) Invest(w http.ResponseWriter, r *http.Request) {
	withAmount(h.Ledger.InvestInProperty)(w, r)
}

// POST /properties/{id}/claims/investment
func (h *InvestmentHandler) ClaimInvestment(w http.ResponseWriter, r *http.Request) {
	withAmount(h.Ledger.ClaimInvestment)(w, r)
}

// POST /properties/{id}/claims/tokens
func (h *InvestmentHandler) ClaimPropertyTokens(w http.ResponseWriter, r *http.Request) {
	withAmount(h.Ledger.ClaimPropertyTokens)(w, r)
}

// POST /properties/{id}/claims/return
func (h *InvestmentHandler) ClaimReturn(w http.ResponseWriter, r *http.Request) {
	withAmount(h.Ledger.ClaimReturn)(w, r)
}

// GetInvestment obtém o registro de um investidor.
// GET /properties/{id}/investments/{investor}
func (h *InvestmentHandler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := propertyID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.Ledger.Investment(r.Context(), id, chi.URLParam(r, "investor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ReturnInvestment liquida o investimento de um investidor com juros.
// POST /properties/{id}/settlements
func (h *InvestmentHandler) ReturnInvestment(w http.ResponseWriter, r *http.Request) {
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
		Investor string `json:"investor"`
	}
	if err := decodeBody(r, &requestBody); err != nil {
		writeError(w, err)
		return
	}
	if requestBody.Investor == "" {
		writeError(w, invalid("campo investor é obrigatório"))
		return
	}
	event, err := h.Ledger.ReturnInvestment(r.Context(), caller, id, requestBody.Investor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type custodyResponse struct {
	CustodyAddress string `json:"custody_address"`
	ValueToken     string `json:"value_token"`
	Expected       int64  `json:"expected"`
	Actual         uint64 `json:"actual"`
	Drift          int64  `json:"drift"`
}

// Custody compara o saldo esperado com o saldo real da custódia.
// GET /custody
func (h *InvestmentHandler) Custody(w http.ResponseWriter, r *http.Request) {
	expected, err := h.Ledger.ExpectedCustody(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	actual, err := h.Ledger.CustodyBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	drift, err := services.CustodyDrift(expected, actual)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, custodyResponse{
		CustodyAddress: h.Ledger.CustodyAddress(),
		ValueToken:     h.Ledger.ValueTokenAddress(),
		Expected:       expected,
		Actual:         actual,
		Drift:          drift,
	})
}
