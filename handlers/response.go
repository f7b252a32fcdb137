package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/promissory/services"

	"github.com/go-chi/chi/v5"
)

// CallerHeader identifica o endereço do chamador. A autenticação fica a
// cargo de quem está na frente do serviço.
const CallerHeader = "X-Caller-Address"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	"InvalidArgument":            http.StatusBadRequest,
	"NotOwner":                   http.StatusForbidden,
	"NotInvestor":                http.StatusForbidden,
	"NotFound":                   http.StatusNotFound,
	"NotApproved":                http.StatusConflict,
	"AlreadyFinalized":           http.StatusConflict,
	"LockingPeriodActive":        http.StatusConflict,
	"SupplyExceeded":             http.StatusUnprocessableEntity,
	"ExceedsAvailable":           http.StatusUnprocessableEntity,
	"ExceedsLocked":              http.StatusUnprocessableEntity,
	"CollaboratorTransferFailed": http.StatusBadGateway,
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError traduz o motivo de rejeição do ledger em status HTTP.
func writeError(w http.ResponseWriter, err error) {
	kind := services.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		kind = "Internal"
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: err.Error()})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func callerFrom(r *http.Request) (string, error) {
	caller := r.Header.Get(CallerHeader)
	if caller == "" {
		return "", invalid("cabeçalho %s é obrigatório", CallerHeader)
	}
	return caller, nil
}

// decodeBody lê o corpo JSON preservando números como json.Number.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("corpo da requisição inválido: %v", err)
	}
	return nil
}

// uintField aceita só inteiros não negativos; 7.25 ou -1 são rejeitados.
func uintField(n json.Number, field string) (uint64, error) {
	if n == "" {
		return 0, invalid("campo %s é obrigatório", field)
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0, invalid("campo %s deve ser um inteiro não negativo, recebido %s", field, n)
	}
	return v, nil
}

// intField aceita inteiros com sinal; o ledger decide se negativos valem.
func intField(n json.Number, field string) (int64, error) {
	if n == "" {
		return 0, invalid("campo %s é obrigatório", field)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, invalid("campo %s deve ser um inteiro, recebido %s", field, n)
	}
	return v, nil
}

func propertyID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalid("id de propriedade inválido %q", raw)
	}
	return id, nil
}

var errSandboxDisabled = errors.New("sandbox disponível apenas com a chain em memória")
