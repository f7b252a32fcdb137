package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/promissory/services"

	"github.com/go-chi/chi/v5"
)

// SandboxHandler expõe o token de liquidação em memória para testes manuais:
// cunhar saldo, aprovar a custódia e consultar saldos.
type SandboxHandler struct {
	Value   *services.MemoryToken
	Issuer  *services.MemoryIssuer
	Custody string
}

func NewSandboxHandler(value *services.MemoryToken, issuer *services.MemoryIssuer, custody string) *SandboxHandler {
	return &SandboxHandler{Value: value, Issuer: issuer, Custody: custody}
}

// Faucet cunha value token para um endereço.
// POST /sandbox/faucet
func (h *SandboxHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Address string      `json:"address"`
		Amount  json.Number `json:"amount"`
	}
	if err := decodeBody(r, &requestBody); err != nil {
		writeError(w, err)
		return
	}
	if requestBody.Address == "" {
		writeError(w, invalid("campo address é obrigatório"))
		return
	}
	amount, err := uintField(requestBody.Amount, "amount")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Value.Mint(requestBody.Address, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": h.Value.Balance(requestBody.Address)})
}

// Approve define quanto a custódia pode puxar do chamador.
// POST /sandbox/approve
func (h *SandboxHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
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
	h.Value.Approve(caller, h.Custody, amount)
	writeJSON(w, http.StatusOK, map[string]uint64{"allowance": h.Value.AllowanceOf(caller, h.Custody)})
}

type balancesResponse struct {
	Address    string            `json:"address"`
	Value      uint64            `json:"value"`
	Allowance  uint64            `json:"allowance"`
	Allotments map[string]uint64 `json:"allotments,omitempty"`
}

// Balances consulta o saldo de value token e, com ?token=, de tokens de fração.
// GET /sandbox/balances/{address}
func (h *SandboxHandler) Balances(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	resp := balancesResponse{
		Address:   address,
		Value:     h.Value.Balance(address),
		Allowance: h.Value.AllowanceOf(address, h.Custody),
	}
	for _, tokenAddress := range r.URL.Query()["token"] {
		token, ok := h.Issuer.Token(tokenAddress)
		if !ok {
			continue
		}
		if resp.Allotments == nil {
			resp.Allotments = make(map[string]uint64)
		}
		resp.Allotments[tokenAddress] = token.Balance(address)
	}
	writeJSON(w, http.StatusOK, resp)
}

func sandboxDisabled(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Message: errSandboxDisabled.Error()})
}
