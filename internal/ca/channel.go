package ca

// Channel is identified by (circuit, cid) on the client and (circuit,
// sid) on the server, with client_channel.cid == server_channel.cid
// within a circuit enforced by the circuit that owns it. Every channel
// tracks BOTH the client's and the server's view of its lifecycle (spec
// §4.5/§9 "dual state"), so a single engine instance can drive either
// role and still catch a peer sending responses out of order.
type Channel struct {
	Name            string
	CID             uint32
	SID             uint32
	NativeDataType  Type
	NativeDataCount uint32
	AccessRights    uint32

	ClientView ChannelState
	ServerView ChannelState

	circuit *VirtualCircuit
}

func newChannel(circuit *VirtualCircuit, name string, cid uint32) *Channel {
	return &Channel{
		Name: name, CID: cid, circuit: circuit,
		ClientView: ChannelSendCreateChanRequest,
		ServerView: ChannelIdle,
	}
}

func (ch *Channel) statePair() StatePair {
	return StatePair{Client: ch.ClientView, Server: ch.ServerView}
}

// advance updates both views for a command with the given id, sent or
// received by who. Returns a RemoteProtocolError if who is the peer and
// the transition is illegal for their view, or a LocalProtocolError if
// who is us.
func (ch *Channel) advance(cmd Command, who Role) error {
	ourRole := ch.circuit.ourRole
	id := cmd.CommandID()

	// channelTransition's "isOurs" check is relative to the role that owns
	// the view being advanced, so the client view is always evaluated
	// against CLIENT and the server view against SERVER, regardless of
	// which role this engine instance plays.
	newClient, errClient := channelTransition(ch.ClientView, who, CLIENT, id)
	newServerView, errServerView := channelTransition(ch.ServerView, who, SERVER, id)

	if who == ourRole {
		if ourRole == CLIENT && errClient != nil {
			return &LocalProtocolError{Command: cmd, State: ch.statePair(), Reason: errClient.Error()}
		}
		if ourRole == SERVER && errServerView != nil {
			return &LocalProtocolError{Command: cmd, State: ch.statePair(), Reason: errServerView.Error()}
		}
	} else {
		if ourRole == CLIENT && errServerView != nil {
			return &RemoteProtocolError{Command: cmd, State: ch.statePair(), Reason: errServerView.Error()}
		}
		if ourRole == SERVER && errClient != nil {
			return &RemoteProtocolError{Command: cmd, State: ch.statePair(), Reason: errClient.Error()}
		}
	}

	ch.ClientView = newClient
	ch.ServerView = newServerView
	return nil
}

// close forces both views to CLOSED, e.g. on circuit death.
func (ch *Channel) close() {
	ch.ClientView = ChannelClosed
	ch.ServerView = ChannelClosed
}

// Create builds the CreateChanRequest (client role) to open ch.
func (ch *Channel) Create(version uint16) (*CreateChanRequest, error) {
	return NewCreateChanRequest(ch.Name, ch.CID, version)
}

// Read builds a ReadNotifyRequest for ch using the caller-supplied ioid;
// it does not allocate one (see VirtualCircuit.NewIOID).
func (ch *Channel) Read(dataType Type, dataCount uint32, ioid uint32) (*ReadNotifyRequest, error) {
	if ch.ClientView != ChannelConnected {
		return nil, &LocalProtocolError{State: ch.statePair(), Reason: "channel not CONNECTED"}
	}
	return &ReadNotifyRequest{SID: ch.SID, DataType: dataType, DataCount: dataCount, IOID: ioid}, nil
}

// Write builds a WriteNotifyRequest for ch with payload already encoded
// by the caller via EncodePayload.
func (ch *Channel) Write(dataType Type, dataCount uint32, ioid uint32, payload []byte) (*WriteNotifyRequest, error) {
	if ch.ClientView != ChannelConnected {
		return nil, &LocalProtocolError{State: ch.statePair(), Reason: "channel not CONNECTED"}
	}
	return &WriteNotifyRequest{SID: ch.SID, DataType: dataType, DataCount: dataCount, IOID: ioid, payload: payload}, nil
}

// Subscribe builds an EventAddRequest for ch.
func (ch *Channel) Subscribe(dataType Type, dataCount uint32, subID uint32, low, high, to float32, mask uint16) (*EventAddRequest, error) {
	if ch.ClientView != ChannelConnected {
		return nil, &LocalProtocolError{State: ch.statePair(), Reason: "channel not CONNECTED"}
	}
	return &EventAddRequest{SID: ch.SID, DataType: dataType, DataCount: dataCount, SubscriptionID: subID, Low: low, High: high, To: to, Mask: mask}, nil
}

// Unsubscribe builds an EventCancelRequest for an active subscription.
func (ch *Channel) Unsubscribe(dataType Type, subID uint32) *EventCancelRequest {
	return &EventCancelRequest{SID: ch.SID, DataType: dataType, SubscriptionID: subID}
}

// Disconnect builds the ClearChannelRequest (client) or
// ServerDisconnResponse (server) that tears ch down.
func (ch *Channel) Disconnect() Command {
	if ch.circuit.ourRole == CLIENT {
		return &ClearChannelRequest{SID: ch.SID, CID: ch.CID}
	}
	return &ServerDisconnResponse{CID: ch.CID}
}

// Clear is an alias for Disconnect, matching the external API shape
// named in spec §6 ("clear() (alias for client disconnect)").
func (ch *Channel) Clear() Command { return ch.Disconnect() }
