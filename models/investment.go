package models

// Investment acumula o que um investidor aplicou em uma propriedade.
// Existe no máximo um registro por par (propriedade, investidor).
type Investment struct {
	PropertyID          uint64 `json:"property_id" db:"property_id"`
	InvestorAddress     string `json:"investor_address" db:"investor_address"`
	InvestedAmount      uint64 `json:"invested_amount" db:"invested_amount"`
	ClaimedReturnAmount uint64 `json:"claimed_return_amount" db:"claimed_return_amount"`
}

// Remaining é o saldo que o investidor ainda pode resgatar via claimReturn.
func (i Investment) Remaining() uint64 {
	if i.ClaimedReturnAmount >= i.InvestedAmount {
		return 0
	}
	return i.InvestedAmount - i.ClaimedReturnAmount
}
