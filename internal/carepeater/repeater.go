// Package carepeater implements the pure transform at the heart of the CA
// Repeater (spec §4.6, original_source caproto/asyncio/repeater.py): a
// UDP fan-out proxy that lets clients that cannot receive broadcasts
// reliably still see server beacons. The core never holds a socket —
// Ingest takes a received datagram and returns the datagrams the host
// must send and to whom.
package carepeater

import (
	"github.com/epics-base/go-ca/internal/ca"
)

// Outbound pairs a datagram with the address the host should send it to.
type Outbound struct {
	Addr    string
	Payload []byte
}

// Repeater tracks the set of locally registered clients and forwards
// every subsequent datagram (beacons, mainly) to all of them.
type Repeater struct {
	broadcaster *ca.Broadcaster
	subscribers map[string]bool // addr -> registered
	order       []string        // registration order, for deterministic fan-out
}

func New() *Repeater {
	return &Repeater{
		broadcaster: ca.NewBroadcaster(ca.SERVER),
		subscribers: make(map[string]bool),
	}
}

// Ingest processes one datagram received from addr (the "source port" in
// the original's terms — the repeater only ever binds one socket, so
// addr is really "the registering client's full address"). It returns the
// datagrams that must now be sent.
//
// Per the original design: a RepeaterRegisterRequest from a new address
// gets a RepeaterConfirmResponse and is added to the subscriber set, with
// an (empty, i.e. zero-length) datagram sent to every previously known
// subscriber so their NAT/firewall state stays warm. Anything else
// (a server beacon arriving on the repeater's port) is fanned out
// verbatim to every subscriber except, per the original, the source
// itself when the source is also a subscriber.
func (r *Repeater) Ingest(data []byte, addr string) []Outbound {
	cmds, err := ca.ReadDatagram(data, ca.CLIENT)
	if err != nil || len(cmds) == 0 {
		return r.forward(data, addr)
	}

	for _, cmd := range cmds {
		if _, ok := cmd.(*ca.RepeaterRegisterRequest); ok {
			return r.register(addr)
		}
	}
	return r.forward(data, addr)
}

func (r *Repeater) register(addr string) []Outbound {
	if r.subscribers[addr] {
		return nil
	}

	var out []Outbound
	confirm := &ca.RepeaterConfirmResponse{}
	out = append(out, Outbound{Addr: addr, Payload: r.broadcaster.Send(confirm)})

	for _, existing := range r.order {
		out = append(out, Outbound{Addr: existing, Payload: nil})
	}

	r.subscribers[addr] = true
	r.order = append(r.order, addr)
	return out
}

func (r *Repeater) forward(data []byte, from string) []Outbound {
	var out []Outbound
	for _, addr := range r.order {
		if addr == from {
			continue
		}
		out = append(out, Outbound{Addr: addr, Payload: data})
	}
	return out
}

// Subscribers reports the currently registered client addresses, in
// registration order.
func (r *Repeater) Subscribers() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
