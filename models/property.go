package models

// PropertyStatus representa o estágio do ciclo de vida de uma propriedade.
// 0 indica propriedade inexistente.
type PropertyStatus uint8

const (
	PropertyStatusNone PropertyStatus = iota
	PropertyStatusPending
	PropertyStatusApproved
	PropertyStatusBanned
)

func (s PropertyStatus) String() string {
	switch s {
	case PropertyStatusPending:
		return "pending"
	case PropertyStatusApproved:
		return "approved"
	case PropertyStatusBanned:
		return "banned"
	default:
		return "none"
	}
}

// Property representa um imóvel registrado que pode ser tokenizado.
type Property struct {
	ID                      uint64         `json:"id" db:"id"`
	OwnerAddress            string         `json:"owner_address" db:"owner_address"`
	TokenName               string         `json:"token_name" db:"token_name"`
	TokenSymbol             string         `json:"token_symbol" db:"token_symbol"`
	TokenSupply             uint64         `json:"token_supply" db:"token_supply"`
	InterestRateBps         uint64         `json:"interest_rate_bps" db:"interest_rate_bps"`         // 1 = 0,01%
	LockingPeriodSeconds    uint64         `json:"locking_period_seconds" db:"locking_period_seconds"`
	Status                  PropertyStatus `json:"status" db:"status"`
	AllotmentTokenAddress   string         `json:"allotment_token_address,omitempty" db:"allotment_token_address"` // vazio até a aprovação
	ApprovalTimestamp       int64          `json:"approval_timestamp" db:"approval_timestamp"`                     // segundos unix
	LockedTokens            uint64         `json:"locked_tokens" db:"locked_tokens"`
	TotalInvestedAmount     uint64         `json:"total_invested_amount" db:"total_invested_amount"`
	ClaimedInvestmentAmount uint64         `json:"claimed_investment_amount" db:"claimed_investment_amount"`
}

// LockingPeriodEnd retorna o instante (segundos unix) a partir do qual o
// proprietário pode liquidar os investimentos.
func (p Property) LockingPeriodEnd() int64 {
	return p.ApprovalTimestamp + int64(p.LockingPeriodSeconds)
}

// AvailableInvestment é o valor investido que o proprietário ainda pode sacar.
func (p Property) AvailableInvestment() uint64 {
	return p.TotalInvestedAmount - p.ClaimedInvestmentAmount
}
