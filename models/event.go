package models

import (
	"strings"
	"time"
)

// Nomes dos eventos emitidos pelo ledger.
const (
	EventPropertyAdded                = "PropertyAdded"
	EventInterestRateUpdated          = "InterestRateUpdated"
	EventTokenSupplyUpdated           = "TokenSupplyUpdated"
	EventLockingPeriodUpdated         = "LockingPeriodUpdated"
	EventPropertyApprovedAndTokenized = "PropertyApprovedAndTokenized"
	EventPropertyBanned               = "PropertyBanned"
	EventInvested                     = "Invested"
	EventInvestmentClaimed            = "InvestmentClaimed"
	EventPropertyTokensClaimed        = "PropertyTokensClaimed"
	EventClaimedReturn                = "ClaimedReturn"
	EventClaimedInvestment            = "ClaimedInvestment"
	EventInvestmentReturned           = "InvestmentReturned"
)

// EventField é um campo nomeado de um evento, na ordem em que foi emitido.
type EventField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Event é o registro estruturado emitido por cada operação bem-sucedida.
type Event struct {
	ID         string       `json:"id"`
	Seq        uint64       `json:"seq"`
	PropertyID uint64       `json:"property_id"`
	Name       string       `json:"name"`
	Fields     []EventField `json:"fields"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Field retorna o valor do campo pelo nome.
func (e Event) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values retorna os valores dos campos na ordem de emissão.
func (e Event) Values() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Value
	}
	return out
}

// String formata o evento como Nome(v1,v2,...).
func (e Event) String() string {
	return e.Name + "(" + strings.Join(e.Values(), ",") + ")"
}
