package ca

import "fmt"

// LocalProtocolError indicates this side attempted an illegal send: the
// engine's own state forbade the command. The engine state is left
// unchanged.
type LocalProtocolError struct {
	Command interface{}
	State   StatePair
	Reason  string
}

func (e *LocalProtocolError) Error() string {
	return fmt.Sprintf("local protocol error: %v (state %v): %v", commandName(e.Command), e.State, e.Reason)
}

// RemoteProtocolError indicates the peer sent something illegal: an unknown
// ioid, a mismatched subscription echo, a transition-violating command, or
// malformed framing. The circuit may continue (send ErrorResponse) or be
// torn down; the core does not decide which.
type RemoteProtocolError struct {
	Command interface{}
	State   StatePair
	Reason  string
}

func (e *RemoteProtocolError) Error() string {
	return fmt.Sprintf("remote protocol error: %v (state %v): %v", commandName(e.Command), e.State, e.Reason)
}

// ValidationError is a codec-level framing error: bad command ID, or a
// payload size inconsistent with data_type x data_count. Fatal for the
// current stream.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Reason }

// CaprotoTypeError reports an impossible type coercion, e.g. requesting a
// DBR promotion that does not exist in the lattice.
type CaprotoTypeError struct {
	Reason string
}

func (e *CaprotoTypeError) Error() string { return "type error: " + e.Reason }

// CaprotoValueError reports an out-of-range or otherwise invalid argument
// supplied to a command constructor (e.g. priority outside 0..99).
type CaprotoValueError struct {
	Reason string
}

func (e *CaprotoValueError) Error() string { return "value error: " + e.Reason }

// DisconnectedCircuit is the sentinel value Recv returns in place of a
// command once the peer has closed the connection and the receive buffer
// is empty.
type DisconnectedCircuit struct{ baseCommand }

func (DisconnectedCircuit) CommandName() string { return "DisconnectedCircuit" }
func (DisconnectedCircuit) CommandID() uint16    { return 0xFFFF }
func (DisconnectedCircuit) Direction() Direction { return Response }
func (DisconnectedCircuit) HasPayload() bool     { return false }
func (DisconnectedCircuit) Payload() []byte      { return nil }
func (DisconnectedCircuit) Header() Header       { return Header{} }

func commandName(c interface{}) string {
	if c == nil {
		return "<nil>"
	}
	if n, ok := c.(interface{ CommandName() string }); ok {
		return n.CommandName()
	}
	return fmt.Sprintf("%T", c)
}
