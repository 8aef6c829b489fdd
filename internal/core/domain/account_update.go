package domain

// AccountUpdate carries a partial change to an account. Nil fields are left
// untouched when merged, so that heterogeneous sources can each update only
// what they know about.
type AccountUpdate struct {
	Address           string       `json:"address"`
	Type              *AccountType `json:"type,omitempty"`
	MkrBalance        *string      `json:"mkrBalance,omitempty"`
	HasInfMkrApproval *bool        `json:"hasInfMkrApproval,omitempty"`
	HasProxy          *bool        `json:"hasProxy,omitempty"`
	ProxyRole         *ProxyRole   `json:"proxyRole,omitempty"`
	VotingFor         *string      `json:"votingFor,omitempty"`
	Proxy             *ProxyUpdate `json:"proxy,omitempty"`
}

// ProxyUpdate is the partial counterpart of Proxy.
type ProxyUpdate struct {
	Address           *string              `json:"address,omitempty"`
	HasInfMkrApproval *bool                `json:"hasInfMkrApproval,omitempty"`
	VotingPower       *string              `json:"votingPower,omitempty"`
	LinkedAccount     *LinkedAccountUpdate `json:"linkedAccount,omitempty"`
}

// LinkedAccountUpdate is the partial counterpart of LinkedAccount.
type LinkedAccountUpdate struct {
	Address    *string    `json:"address,omitempty"`
	MkrBalance *string    `json:"mkrBalance,omitempty"`
	ProxyRole  *ProxyRole `json:"proxyRole,omitempty"`
}

// Merge returns a copy of the account with every non-nil field of the update
// applied. The address is never changed.
func (a Account) Merge(u AccountUpdate) Account {
	merged := a
	mergeValue(&merged.Type, u.Type)
	mergeValue(&merged.MkrBalance, u.MkrBalance)
	mergeValue(&merged.HasInfMkrApproval, u.HasInfMkrApproval)
	mergeValue(&merged.HasProxy, u.HasProxy)
	mergeValue(&merged.ProxyRole, u.ProxyRole)
	mergeValue(&merged.VotingFor, u.VotingFor)
	if u.Proxy != nil {
		merged.Proxy = merged.Proxy.merge(*u.Proxy)
	}
	return merged
}

func (p Proxy) merge(u ProxyUpdate) Proxy {
	merged := p
	mergeValue(&merged.Address, u.Address)
	mergeValue(&merged.HasInfMkrApproval, u.HasInfMkrApproval)
	mergeValue(&merged.VotingPower, u.VotingPower)
	if u.LinkedAccount != nil {
		merged.LinkedAccount = merged.LinkedAccount.merge(*u.LinkedAccount)
	}
	return merged
}

func (l LinkedAccount) merge(u LinkedAccountUpdate) LinkedAccount {
	merged := l
	mergeValue(&merged.Address, u.Address)
	mergeValue(&merged.MkrBalance, u.MkrBalance)
	mergeValue(&merged.ProxyRole, u.ProxyRole)
	return merged
}

func mergeValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
