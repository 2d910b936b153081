package models

import "fmt"

// State is a transaction lifecycle state. The numeric order of the constants is the lifecycle order;
// the two side terminal states sort after financialResponse but are reached from any open state.
type State uint8

const (
	StateUnknown State = iota
	StateTransactionReceived
	StateTransactionSent
	StateTransactionResponded
	StateQuoteReceived
	StateQuoteResponded
	StateAuthReceived
	StateAuthSent
	StateFinancialRequestReceived
	StateFinancialRequestSent
	StateTransferReceived
	StateFulfillmentSent
	StateFulfillmentResponse
	StateFinancialResponse
	StateTransactionDeclined
	StateTransactionCancelled
)

type stateInfo struct {
	code string
	name string
}

var stateTable = map[State]stateInfo{
	StateTransactionReceived:      {"01", "transactionReceived"},
	StateTransactionSent:          {"02", "transactionSent"},
	StateTransactionResponded:     {"03", "transactionResponded"},
	StateQuoteReceived:            {"04", "quoteReceived"},
	StateQuoteResponded:           {"05", "quoteResponded"},
	StateAuthReceived:             {"06", "authReceived"},
	StateAuthSent:                 {"07", "authSent"},
	StateFinancialRequestReceived: {"08", "financialRequestReceived"},
	StateFinancialRequestSent:     {"09", "financialRequestSent"},
	StateTransferReceived:         {"0A", "transferReceived"},
	StateFulfillmentSent:          {"0B", "fulfillmentSent"},
	StateFulfillmentResponse:      {"0C", "fulfillmentResponse"},
	StateFinancialResponse:        {"0D", "financialResponse"},
	StateTransactionDeclined:      {"0E", "transactionDeclined"},
	StateTransactionCancelled:     {"0F", "transactionCancelled"},
}

var (
	stateByCode = make(map[string]State, len(stateTable))
	stateByName = make(map[string]State, len(stateTable))
)

func init() {
	for s, info := range stateTable {
		stateByCode[info.code] = s
		stateByName[info.name] = s
	}
}

// TerminalStates are the states a transaction never leaves.
var TerminalStates = []State{StateFinancialResponse, StateTransactionDeclined, StateTransactionCancelled}

// ParseStateCode returns the state stored under code.
func ParseStateCode(code string) (State, error) {
	s, ok := stateByCode[code]
	if !ok {
		return StateUnknown, fmt.Errorf("unknown state code %q", code)
	}
	return s, nil
}

// ParseStateName returns the state named name, e.g. "quoteResponded".
func ParseStateName(name string) (State, error) {
	s, ok := stateByName[name]
	if !ok {
		return StateUnknown, fmt.Errorf("unknown state %q", name)
	}
	return s, nil
}

func (s State) Valid() bool {
	_, ok := stateTable[s]
	return ok
}

// Code is the two character code persisted for the state.
func (s State) Code() string {
	return stateTable[s].code
}

func (s State) String() string {
	if info, ok := stateTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) IsTerminal() bool {
	return s == StateFinancialResponse || s == StateTransactionDeclined || s == StateTransactionCancelled
}

// Before reports whether s comes earlier than other in the lifecycle.
func (s State) Before(other State) bool {
	return s < other
}

// ReachedOrPassed reports whether a transaction in state s has progressed to point or beyond it.
func (s State) ReachedOrPassed(point State) bool {
	return s >= point
}

// CanTransitionTo reports whether next may follow s.
func (s State) CanTransitionTo(next State) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next == StateTransactionDeclined || next == StateTransactionCancelled {
		return true
	}
	return s < next
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseStateName(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
