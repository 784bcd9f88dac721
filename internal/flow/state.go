package flow

import (
	"fmt"
)

// State is the progress of a flow. It only ever moves forward.
type State int32

const (
	StateInit State = iota
	StateDiscovery
	StateAuthorizing
	StateCodeExchange
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateDiscovery:
		return "DISCOVERY"
	case StateAuthorizing:
		return "AUTHORIZING"
	case StateCodeExchange:
		return "CODE_EXCHANGE"
	case StateFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
