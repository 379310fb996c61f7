package ca

import "fmt"

// CircuitState is one node of the per-role circuit state machine (spec
// §4.5). The client and server sides use disjoint subsets of the same
// enum so a StatePair can be printed and compared uniformly.
type CircuitState int

const (
	CircuitSendVersionRequest CircuitState = iota
	CircuitAwaitingVersionResponse
	CircuitIdle // server-side initial state
	CircuitSendVersionResponse
	CircuitConnected
	CircuitDisconnected
)

func (s CircuitState) String() string {
	switch s {
	case CircuitSendVersionRequest:
		return "SEND_VERSION_REQUEST"
	case CircuitAwaitingVersionResponse:
		return "AWAITING_VERSION_RESPONSE"
	case CircuitIdle:
		return "IDLE"
	case CircuitSendVersionResponse:
		return "SEND_VERSION_RESPONSE"
	case CircuitConnected:
		return "CONNECTED"
	case CircuitDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// ChannelState is one node of the per-role channel state machine.
type ChannelState int

const (
	ChannelSendCreateChanRequest ChannelState = iota
	ChannelAwaitCreateChanResponse
	ChannelIdle // server-side initial state
	ChannelSendCreateChanResponse
	ChannelConnected
	ChannelMustClose
	ChannelClosed
	ChannelFailed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelSendCreateChanRequest:
		return "SEND_CREATE_CHAN_REQUEST"
	case ChannelAwaitCreateChanResponse:
		return "AWAIT_CREATE_CHAN_RESPONSE"
	case ChannelIdle:
		return "IDLE"
	case ChannelSendCreateChanResponse:
		return "SEND_CREATE_CHAN_RESPONSE"
	case ChannelConnected:
		return "CONNECTED"
	case ChannelMustClose:
		return "MUST_CLOSE"
	case ChannelClosed:
		return "CLOSED"
	case ChannelFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// StatePair names the (client view, server view) pair an error was raised
// against, for whichever state machine (circuit or channel) was involved.
type StatePair struct {
	Client fmt.Stringer
	Server fmt.Stringer
}

func (p StatePair) String() string {
	return fmt.Sprintf("{client=%v server=%v}", p.Client, p.Server)
}

// circuitTransition advances a single role's circuit view given a command
// ID being sent or received in that role. who and ourRole tell us whether
// this call represents us sending (when who == ourRole) or receiving (when
// who is the other role); the transition table is the same either way because both
// views update in lockstep (spec §4.5 design note "dual state").
func circuitTransition(state CircuitState, who, ourRole Role, cmd uint16) (CircuitState, error) {
	isOurs := who == ourRole

	switch state {
	case CircuitSendVersionRequest:
		if isOurs && cmd == cmdVersion {
			return CircuitAwaitingVersionResponse, nil
		}
	case CircuitAwaitingVersionResponse:
		if !isOurs && cmd == cmdVersion {
			return CircuitConnected, nil
		}
	case CircuitIdle:
		if isOurs && cmd == cmdVersion {
			return CircuitSendVersionResponse, nil
		}
		if !isOurs && cmd == cmdVersion {
			return CircuitSendVersionResponse, nil
		}
	case CircuitSendVersionResponse:
		if isOurs && cmd == cmdVersion {
			return CircuitConnected, nil
		}
	case CircuitConnected:
		// Most commands are legal and don't change circuit state once
		// connected; only an explicit disconnect (modeled by the caller
		// invoking Disconnect directly, not via command) changes it.
		return CircuitConnected, nil
	case CircuitDisconnected:
		return CircuitDisconnected, fmt.Errorf("circuit is disconnected")
	}
	return state, fmt.Errorf("command %d illegal in state %v", cmd, state)
}

// channelTransition mirrors circuitTransition for per-channel state.
func channelTransition(state ChannelState, who, ourRole Role, cmd uint16) (ChannelState, error) {
	isOurs := who == ourRole

	switch state {
	case ChannelSendCreateChanRequest:
		if isOurs && cmd == cmdCreateChan {
			return ChannelAwaitCreateChanResponse, nil
		}
	case ChannelAwaitCreateChanResponse:
		if !isOurs {
			switch cmd {
			case cmdCreateChan, cmdAccessRights:
				return ChannelConnected, nil
			case cmdCreateChFail:
				return ChannelFailed, nil
			}
		}
	case ChannelIdle:
		if isOurs && cmd == cmdCreateChan {
			return ChannelSendCreateChanResponse, nil
		}
		if !isOurs && cmd == cmdCreateChan {
			return ChannelSendCreateChanResponse, nil
		}
	case ChannelSendCreateChanResponse:
		if isOurs {
			switch cmd {
			case cmdCreateChan, cmdAccessRights:
				return ChannelConnected, nil
			case cmdCreateChFail:
				return ChannelFailed, nil
			}
		}
	case ChannelConnected:
		switch cmd {
		case cmdClearChannel:
			return ChannelMustClose, nil
		case cmdServerDisconn:
			return ChannelClosed, nil
		default:
			return ChannelConnected, nil
		}
	case ChannelMustClose:
		switch cmd {
		case cmdClearChannel, cmdServerDisconn:
			return ChannelClosed, nil
		}
	case ChannelClosed, ChannelFailed:
		return state, fmt.Errorf("channel is %v", state)
	}
	return state, fmt.Errorf("command %d illegal in channel state %v", cmd, state)
}

// connectedChannelCommands lists the client commands that require the
// channel to already be CONNECTED (spec §4.5 "representative rules").
var connectedChannelCommands = map[uint16]bool{
	cmdReadNotify:   true,
	cmdWriteNotify:  true,
	cmdEventAdd:     true,
	cmdClearChannel: true,
	cmdWrite:        true,
	cmdRead:         true,
}
