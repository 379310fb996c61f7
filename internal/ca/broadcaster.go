package ca

import (
	"fmt"

	"github.com/epics-base/go-ca/pkg/calog"
)

// DefaultBeaconPeriod is the ceiling geometric beacon backoff converges to
// absent an EPICS_CAS_BEACON_PERIOD override (spec §4.6).
const DefaultBeaconPeriod = 15.0

// MinBeaconPeriod is the floor the backoff starts at.
const MinBeaconPeriod = 0.02

// NextBeaconPeriod doubles period (starting at MinBeaconPeriod) up to max.
func NextBeaconPeriod(period, max float64) float64 {
	if period <= 0 {
		period = MinBeaconPeriod
	}
	next := period * 2
	if next > max {
		return max
	}
	return next
}

// pendingSearch is one outstanding name resolution, keyed by search cid.
type pendingSearch struct {
	name string
}

// ServerIdentity is the caller-facing event raised when a Beacon implies a
// server's identity may have changed (spec §9 Open Question #1: a tcp_port
// change and a beacon_id reset are both folded into this single event,
// leaving the "restart vs relocation" judgment to the caller).
type ServerIdentity struct {
	HostIP     uint32
	ServerPort uint16
	BeaconID   uint32
	Changed    bool // false on the first beacon seen from this host_ip
}

type beaconRecord struct {
	serverPort uint16
	beaconID   uint32
	seen       bool
}

// Broadcaster is the process-wide UDP engine (spec §4.6): repeater
// registration, search request/response correlation, and beacon
// ingestion. Like VirtualCircuit it is pure — recv/process_commands never
// touch a socket.
type Broadcaster struct {
	ourRole Role

	registered bool
	searches   map[uint32]pendingSearch

	beacons map[uint32]*beaconRecord // by host_ip

	cidAlloc *idAllocator

	recvBufs map[string][]byte // per-source reassembly, keyed by address string
}

func NewBroadcaster(ourRole Role) *Broadcaster {
	return &Broadcaster{
		ourRole:  ourRole,
		searches: make(map[uint32]pendingSearch),
		beacons:  make(map[uint32]*beaconRecord),
		cidAlloc: newIDAllocator(),
		recvBufs: make(map[string][]byte),
	}
}

func (b *Broadcaster) Registered() bool { return b.registered }

// Register builds the RepeaterRegisterRequest a client resends until
// RepeaterConfirmResponse arrives; the caller supplies its own IP since
// the core does no socket work.
func (b *Broadcaster) Register(clientIP uint32) *RepeaterRegisterRequest {
	return &RepeaterRegisterRequest{ClientIP: clientIP}
}

// Search allocates a search cid and builds the VersionRequest+SearchRequest
// pair that must be sent bundled in one datagram (spec §4.6).
func (b *Broadcaster) Search(name string, version uint16) (*VersionRequest, *SearchRequest, error) {
	cid, ok := b.cidAlloc.Next()
	if !ok {
		return nil, nil, fmt.Errorf("no search ids available")
	}
	req, err := NewSearchRequest(name, cid, version)
	if err != nil {
		b.cidAlloc.Release(cid)
		return nil, nil, err
	}
	b.searches[cid] = pendingSearch{name: name}
	return &VersionRequest{Version: version}, req, nil
}

// Send serializes a bundle of commands into a single datagram, the unit
// the search protocol requires for VersionRequest+SearchRequest (spec
// §4.6 "bundled... in the same datagram").
func (b *Broadcaster) Send(cmds ...Command) []byte {
	var buf []byte
	for _, cmd := range cmds {
		buf = Send(buf, cmd)
	}
	return buf
}

// Recv parses every command in a datagram from source. Datagrams are
// atomic per spec §4.4; a truncated trailing command is an error, not a
// short-read condition.
func (b *Broadcaster) Recv(data []byte, source string) ([]Command, error) {
	return ReadDatagram(data, b.ourRole.Other())
}

// SearchResult is what the caller learns once a SearchResponse correlates
// with an outstanding request.
type SearchResult struct {
	Name          string
	ServerAddress string // empty when IP == 0xFFFFFFFF; caller substitutes the datagram source
	Port          uint16
	IP            uint32
}

// ProcessCommands advances Broadcaster state for a batch of commands
// already parsed by Recv, returning any newly resolved searches and any
// beacon-driven identity-change events. Commands unrelated to this
// engine's bookkeeping (e.g. a bare VersionResponse with no accompanying
// SearchResponse) are silently ignored.
func (b *Broadcaster) ProcessCommands(cmds []Command, sourceIP uint32) ([]SearchResult, []ServerIdentity) {
	var results []SearchResult
	var identities []ServerIdentity

	for _, cmd := range cmds {
		switch v := cmd.(type) {
		case *RepeaterConfirmResponse:
			b.registered = true

		case *SearchResponse:
			pending, ok := b.searches[v.CID]
			if !ok {
				// Duplicate or stale response for a cid no longer
				// outstanding: silently dropped per spec §4.6/§8.
				calog.Warn("search: dropping response for unknown cid %d", v.CID)
				continue
			}
			delete(b.searches, v.CID)
			b.cidAlloc.Release(v.CID)

			ip := v.IP
			addr := ""
			if ip != 0xFFFFFFFF {
				addr = ipToString(ip)
			}
			results = append(results, SearchResult{Name: pending.name, ServerAddress: addr, Port: v.Port, IP: ip})

		case *Beacon:
			rec, ok := b.beacons[v.HostIP]
			if !ok {
				rec = &beaconRecord{serverPort: v.ServerPort, beaconID: v.BeaconID, seen: true}
				b.beacons[v.HostIP] = rec
				identities = append(identities, ServerIdentity{HostIP: v.HostIP, ServerPort: v.ServerPort, BeaconID: v.BeaconID, Changed: false})
				continue
			}
			changed := rec.serverPort != v.ServerPort || v.BeaconID < rec.beaconID
			rec.serverPort = v.ServerPort
			rec.beaconID = v.BeaconID
			if changed {
				identities = append(identities, ServerIdentity{HostIP: v.HostIP, ServerPort: v.ServerPort, BeaconID: v.BeaconID, Changed: true})
			}
		}
	}

	return results, identities
}

func ipToString(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}
