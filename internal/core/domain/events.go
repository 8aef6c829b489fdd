package domain

const (
	EventAccountAdded               EventType = "ACCOUNT_ADDED"
	EventAccountUpdated             EventType = "ACCOUNT_UPDATED"
	EventMkrLocked                  EventType = "MKR_LOCKED"
	EventMkrWithdrawn               EventType = "MKR_WITHDRAWN"
	EventFetchingAccountData        EventType = "FETCHING_ACCOUNT_DATA"
	EventActiveAccountSet           EventType = "ACTIVE_ACCOUNT_SET"
	EventHardwareAccountsConnecting EventType = "HARDWARE_ACCOUNTS_CONNECTING"
	EventHardwareAccountsConnected  EventType = "HARDWARE_ACCOUNTS_CONNECTED"
	EventHardwareAccountsError      EventType = "HARDWARE_ACCOUNTS_ERROR"
	EventHardwareAccountConnected   EventType = "HARDWARE_ACCOUNT_CONNECTED"
	EventHardwareAccountError       EventType = "HARDWARE_ACCOUNT_ERROR"
)

// EventType identifies the kind of a store event.
type EventType string

func (t EventType) String() string {
	return string(t)
}

// AllEventTypes lists every event the store applies.
var AllEventTypes = []EventType{
	EventAccountAdded,
	EventAccountUpdated,
	EventMkrLocked,
	EventMkrWithdrawn,
	EventFetchingAccountData,
	EventActiveAccountSet,
	EventHardwareAccountsConnecting,
	EventHardwareAccountsConnected,
	EventHardwareAccountsError,
	EventHardwareAccountConnected,
	EventHardwareAccountError,
}

// Event is a state transition request applied by State.Apply.
type Event interface {
	Type() EventType
}

// AccountAdded adds an account or replaces the one with the same address.
type AccountAdded struct {
	Account Account `json:"account"`
}

func (AccountAdded) Type() EventType { return EventAccountAdded }

// AccountUpdated merges a partial update into an existing account.
type AccountUpdated struct {
	Update AccountUpdate `json:"update"`
}

func (AccountUpdated) Type() EventType { return EventAccountUpdated }

// MkrLocked records a completed lock of Amount MKR into the proxy of Address.
// An empty Address refers to the active account.
type MkrLocked struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (MkrLocked) Type() EventType { return EventMkrLocked }

// MkrWithdrawn records a completed withdrawal of Amount MKR from the proxy of
// Address. An empty Address refers to the active account.
type MkrWithdrawn struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (MkrWithdrawn) Type() EventType { return EventMkrWithdrawn }

type FetchingAccountData struct {
	Fetching bool `json:"fetching"`
}

func (FetchingAccountData) Type() EventType { return EventFetchingAccountData }

type ActiveAccountSet struct {
	Address string `json:"address"`
}

func (ActiveAccountSet) Type() EventType { return EventActiveAccountSet }

// HardwareAccountsConnecting signals that a device scan started.
type HardwareAccountsConnecting struct {
	AccountType AccountType `json:"accountType"`
}

func (HardwareAccountsConnecting) Type() EventType {
	return EventHardwareAccountsConnecting
}

// HardwareAccountsConnected carries the candidates found by a device scan and
// the callback that finalizes one of them.
type HardwareAccountsConnected struct {
	AccountType     AccountType       `json:"accountType"`
	Accounts        []HardwareAccount `json:"accounts"`
	OnAccountChosen FinalizeFunc      `json:"-"`
}

func (HardwareAccountsConnected) Type() EventType {
	return EventHardwareAccountsConnected
}

type HardwareAccountsError struct {
	AccountType AccountType `json:"accountType"`
}

func (HardwareAccountsError) Type() EventType {
	return EventHardwareAccountsError
}

// HardwareAccountConnected signals that a candidate was chosen and added.
type HardwareAccountConnected struct {
	AccountType AccountType `json:"accountType"`
}

func (HardwareAccountConnected) Type() EventType {
	return EventHardwareAccountConnected
}

type HardwareAccountError struct {
	AccountType AccountType `json:"accountType"`
}

func (HardwareAccountError) Type() EventType {
	return EventHardwareAccountError
}
