package ca

import (
	"fmt"

	"github.com/epics-base/go-ca/pkg/calog"
)

// pendingIO tracks an outstanding ReadNotify/WriteNotify so a response can
// be correlated and validated.
type pendingIO struct {
	channel  *Channel
	dataType Type
	write    bool
}

// subscription tracks an active EventAdd so late responses can be
// validated and delivered repeatedly until cancellation.
type subscription struct {
	channel   *Channel
	dataType  Type
	dataCount uint32
	cancelled bool
}

// VirtualCircuit is the per-peer TCP command flow (spec §3/§4.5/§6): a
// logical connection between one client and one server at a fixed
// priority. It is a pure state machine — Send/Recv/ProcessCommand never
// touch a socket.
type VirtualCircuit struct {
	ourRole     Role
	peerAddress string
	priority    uint8
	version     uint16

	hostName string
	userName string

	state CircuitState

	channels    map[uint32]*Channel // by cid
	channelsSID map[uint32]*Channel // by sid

	ioids         map[uint32]*pendingIO
	subscriptions map[uint32]*subscription

	cidAlloc *idAllocator
	ioidAlloc *idAllocator
	subAlloc  *idAllocator

	recvBuf []byte
}

// NewVirtualCircuit constructs a circuit for ourRole talking to peerAddress
// at priority (0..99, client-only significance).
func NewVirtualCircuit(ourRole Role, peerAddress string, priority uint8) *VirtualCircuit {
	initial := CircuitSendVersionRequest
	if ourRole == SERVER {
		initial = CircuitIdle
	}
	return &VirtualCircuit{
		ourRole:       ourRole,
		peerAddress:   peerAddress,
		priority:      priority,
		state:         initial,
		channels:      make(map[uint32]*Channel),
		channelsSID:   make(map[uint32]*Channel),
		ioids:         make(map[uint32]*pendingIO),
		subscriptions: make(map[uint32]*subscription),
		cidAlloc:      newIDAllocator(),
		ioidAlloc:     newIDAllocator(),
		subAlloc:      newIDAllocator(),
	}
}

func (c *VirtualCircuit) State() CircuitState { return c.state }
func (c *VirtualCircuit) Version() uint16     { return c.version }

func (c *VirtualCircuit) NewChannelID() (uint32, bool) { return c.cidAlloc.Next() }
func (c *VirtualCircuit) NewIOID() (uint32, bool)       { return c.ioidAlloc.Next() }
func (c *VirtualCircuit) NewSubscriptionID() (uint32, bool) { return c.subAlloc.Next() }

// NewChannel registers a new client-side channel under a freshly
// allocated cid.
func (c *VirtualCircuit) NewChannel(name string) (*Channel, error) {
	cid, ok := c.NewChannelID()
	if !ok {
		return nil, fmt.Errorf("no channel ids available")
	}
	ch := newChannel(c, name, cid)
	c.channels[cid] = ch
	return ch, nil
}

func (c *VirtualCircuit) Channel(cid uint32) (*Channel, bool) {
	ch, ok := c.channels[cid]
	return ch, ok
}

func (c *VirtualCircuit) ChannelBySID(sid uint32) (*Channel, bool) {
	ch, ok := c.channelsSID[sid]
	return ch, ok
}

// Send validates cmd against local state, advances state, and returns the
// serialized bytes to transmit. Multiple commands may be passed to bundle
// them atomically into one buffer (e.g. a datagram requiring a fixed
// command sequence); each still advances state independently.
func (c *VirtualCircuit) Send(cmds ...Command) ([]byte, error) {
	var buf []byte
	for _, cmd := range cmds {
		if err := c.checkSend(cmd); err != nil {
			return nil, err
		}
		if err := c.applySend(cmd); err != nil {
			return nil, err
		}
		buf = Send(buf, cmd)
	}
	return buf, nil
}

func (c *VirtualCircuit) checkSend(cmd Command) error {
	if c.state == CircuitDisconnected {
		return &LocalProtocolError{Command: cmd, State: StatePair{Client: c.state, Server: c.state}, Reason: "circuit is disconnected"}
	}
	if c.ourRole == CLIENT && connectedChannelCommands[cmd.CommandID()] {
		if ch := c.channelForCommand(cmd); ch != nil && ch.ClientView != ChannelConnected {
			return &LocalProtocolError{Command: cmd, State: ch.statePair(), Reason: "channel not CONNECTED"}
		}
	}
	return nil
}

func (c *VirtualCircuit) channelForCommand(cmd Command) *Channel {
	switch v := cmd.(type) {
	case *ReadNotifyRequest:
		ch, _ := c.ChannelBySID(v.SID)
		return ch
	case *WriteNotifyRequest:
		ch, _ := c.ChannelBySID(v.SID)
		return ch
	case *EventAddRequest:
		ch, _ := c.ChannelBySID(v.SID)
		return ch
	case *ClearChannelRequest:
		ch, _ := c.ChannelBySID(v.SID)
		return ch
	}
	return nil
}

func (c *VirtualCircuit) applySend(cmd Command) error {
	return c.process(cmd, c.ourRole)
}

// Recv appends data to the internal receive buffer and parses as many
// complete commands as are available. bytesNeeded > 0 on the final
// element indicates a short read; the caller should read more and call
// Recv again with the new bytes. Passing a zero-length data once the I/O
// host has observed peer close yields a single DisconnectedCircuit
// sentinel if the receive buffer is otherwise empty (spec §7).
func (c *VirtualCircuit) Recv(data []byte) ([]Command, int) {
	if len(data) == 0 && len(c.recvBuf) == 0 {
		return []Command{DisconnectedCircuit{}}, 0
	}

	c.recvBuf = append(c.recvBuf, data...)

	var out []Command
	for {
		remaining, cmd, needed, err := ReadFromBytestream(c.recvBuf, c.ourRole.Other())
		if needed > 0 {
			return out, needed
		}
		c.recvBuf = remaining
		if err != nil {
			// A malformed command is fatal for the stream (spec §7); the
			// caller is expected to disconnect after seeing this.
			out = append(out, nil)
			return out, 0
		}
		out = append(out, cmd)
		if len(c.recvBuf) == 0 {
			return out, 0
		}
	}
}

// ProcessCommand advances the peer's state for a command already parsed
// by Recv and populates derived caches (cid<->sid mapping, ioid/
// subscription bookkeeping).
func (c *VirtualCircuit) ProcessCommand(cmd Command) error {
	return c.process(cmd, c.ourRole.Other())
}

func (c *VirtualCircuit) process(cmd Command, who Role) error {
	newState, err := circuitTransition(c.state, who, c.ourRole, cmd.CommandID())
	if err != nil {
		if who == c.ourRole {
			return &LocalProtocolError{Command: cmd, State: StatePair{Client: c.state, Server: c.state}, Reason: err.Error()}
		}
		return &RemoteProtocolError{Command: cmd, State: StatePair{Client: c.state, Server: c.state}, Reason: err.Error()}
	}
	c.state = newState

	switch v := cmd.(type) {
	case *VersionRequest:
		if who != c.ourRole {
			c.version = v.Version
		}
	case *VersionResponse:
		c.version = v.Version
	case *HostNameRequest:
		if who != c.ourRole {
			c.hostName = v.Name
		}
	case *ClientNameRequest:
		if who != c.ourRole {
			c.userName = v.Name
		}
	case *CreateChanRequest:
		if who == c.ourRole {
			// We are sending our own CreateChanRequest; the channel was
			// already registered by NewChannel, so just advance its view.
			if ch, ok := c.channels[v.CID]; ok {
				if err := ch.advance(cmd, who); err != nil {
					return err
				}
			}
			break
		}
		// Peer (as client) is asking us (as server) to create a channel.
		ch, ok := c.channels[v.CID]
		if !ok {
			ch = newChannel(c, v.Name, v.CID)
			c.channels[v.CID] = ch
		}
		if err := ch.advance(cmd, who); err != nil {
			return err
		}
	case *CreateChanResponse:
		ch, ok := c.channels[v.CID]
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: "CreateChanResponse for unknown cid"}
		}
		ch.SID = v.SID
		ch.NativeDataType = v.NativeDataType
		ch.NativeDataCount = v.NativeDataCount
		c.channelsSID[v.SID] = ch
		if err := ch.advance(cmd, who); err != nil {
			return err
		}
	case *AccessRightsResponse:
		ch, ok := c.channels[v.CID]
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: "AccessRightsResponse for unknown cid"}
		}
		ch.AccessRights = v.AccessRights
		if err := ch.advance(cmd, who); err != nil {
			return err
		}
	case *CreateChFailResponse:
		ch, ok := c.channels[v.CID]
		if ok {
			if err := ch.advance(cmd, who); err != nil {
				return err
			}
		}
	case *ClearChannelRequest:
		ch, ok := c.channelsSID[v.SID]
		if !ok {
			ch, ok = c.channels[v.CID]
		}
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: "ClearChannelRequest for unknown channel"}
		}
		if err := ch.advance(cmd, who); err != nil {
			return err
		}
	case *ClearChannelResponse:
		ch, ok := c.channelsSID[v.SID]
		if !ok {
			ch, ok = c.channels[v.CID]
		}
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: "ClearChannelResponse for unknown channel"}
		}
		if err := ch.advance(cmd, who); err != nil {
			return err
		}
		c.releaseChannel(ch)
	case *ServerDisconnResponse:
		ch, ok := c.channels[v.CID]
		if ok {
			if err := ch.advance(cmd, who); err != nil {
				return err
			}
			c.releaseChannel(ch)
		}

	case *ReadNotifyRequest:
		// Tracked regardless of direction: the sender correlates its own
		// outstanding request, the receiver correlates the response it
		// must still send back.
		c.ioids[v.IOID] = &pendingIO{dataType: v.DataType}
	case *ReadNotifyResponse:
		pending, ok := c.ioids[v.IOID]
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: fmt.Sprintf("ReadNotifyResponse for unknown ioid %d", v.IOID)}
		}
		delete(c.ioids, v.IOID)
		c.ioidAlloc.Release(v.IOID)
		_ = pending

	case *WriteNotifyRequest:
		c.ioids[v.IOID] = &pendingIO{dataType: v.DataType, write: true}
	case *WriteNotifyResponse:
		_, ok := c.ioids[v.IOID]
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: fmt.Sprintf("WriteNotifyResponse for unknown ioid %d", v.IOID)}
		}
		delete(c.ioids, v.IOID)
		c.ioidAlloc.Release(v.IOID)

	case *EventAddRequest:
		ch, _ := c.ChannelBySID(v.SID)
		c.subscriptions[v.SubscriptionID] = &subscription{channel: ch, dataType: v.DataType, dataCount: v.DataCount}
	case *EventAddResponse:
		sub, ok := c.subscriptions[v.SubscriptionID]
		if !ok {
			return &RemoteProtocolError{Command: cmd, Reason: fmt.Sprintf("EventAddResponse for unknown subscription %d", v.SubscriptionID)}
		}
		if sub.cancelled {
			calog.Warn("subscription %d: dropping stale update after cancellation", v.SubscriptionID)
			// Stale response after an accepted cancellation: silent drop
			// per spec §9 "subscription re-delivery".
			return nil
		}
		if sub.dataType != v.DataType || sub.dataCount != v.DataCount {
			return &RemoteProtocolError{Command: cmd, Reason: "EventAddResponse data_type/data_count does not match the original EventAddRequest"}
		}

	case *EventCancelRequest:
		if sub, ok := c.subscriptions[v.SubscriptionID]; ok {
			sub.cancelled = true
		}
	case *EventCancelResponse:
		if sub, ok := c.subscriptions[v.SubscriptionID]; ok {
			sub.cancelled = true
			delete(c.subscriptions, v.SubscriptionID)
			c.subAlloc.Release(v.SubscriptionID)
		}
	}

	return nil
}

func (c *VirtualCircuit) releaseChannel(ch *Channel) {
	delete(c.channels, ch.CID)
	delete(c.channelsSID, ch.SID)
	c.cidAlloc.Release(ch.CID)
}

// Disconnect atomically transitions the circuit to DISCONNECTED and every
// attached channel to CLOSED, releasing all pending ioids and
// subscription ids. No callback fires from inside Disconnect (spec §5).
func (c *VirtualCircuit) Disconnect() {
	c.state = CircuitDisconnected
	for _, ch := range c.channels {
		ch.close()
	}
	c.channels = make(map[uint32]*Channel)
	c.channelsSID = make(map[uint32]*Channel)
	c.ioids = make(map[uint32]*pendingIO)
	c.subscriptions = make(map[uint32]*subscription)
	c.ioidAlloc.ReleaseAll()
	c.subAlloc.ReleaseAll()
	c.cidAlloc.ReleaseAll()
}
