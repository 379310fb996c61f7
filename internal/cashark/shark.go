// Package cashark drives the role-blind CA codec (internal/ca's InferCommand
// family) over packets read from a pcap capture, the Go equivalent of
// caproto's sync/shark.py.
package cashark

import (
	"fmt"
	"io"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/epics-base/go-ca/internal/ca"
	"github.com/epics-base/go-ca/pkg/calog"
)

// Observation is one decoded CA command pulled from a capture, with the
// packet metadata a caller needs to make sense of it.
type Observation struct {
	Timestamp int64
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Transport string // "tcp" or "udp"
	Command   ca.Command
}

// streamKey identifies one direction of one TCP flow, for the banned-set
// and per-flow reassembly buffer the original tracks.
type streamKey struct {
	ip   string
	port uint16
}

// Shark replays a pcap file and yields every CA command it can decode,
// banning (src_ip, src_port) pairs that produce a framing error the same
// way caproto's shark() does (spec §7 "the bad datagram is dropped; the
// source address may be banned for the session").
type Shark struct {
	banned map[streamKey]bool
	tcpBuf map[streamKey][]byte
}

func New() *Shark {
	return &Shark{
		banned: make(map[streamKey]bool),
		tcpBuf: make(map[streamKey][]byte),
	}
}

// Run reads every packet in r (an open pcap file) and calls emit for each
// decoded command, in capture order.
func (s *Shark) Run(r io.Reader, emit func(Observation)) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("open pcap: %w", err)
	}

	for {
		data, ci, err := reader.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read packet: %w", err)
		}

		pkt := gopacket.NewPacket(data, reader.LinkType(), gopacket.Lazy)
		ipLayer := pkt.Layer(layers.LayerTypeIPv4)
		if ipLayer == nil {
			continue
		}
		ip, _ := ipLayer.(*layers.IPv4)

		if tcp, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
			s.handleTCP(ip, tcp, ci.Timestamp.UnixNano(), emit)
			continue
		}
		if udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
			s.handleUDP(ip, udp, ci.Timestamp.UnixNano(), emit)
			continue
		}
	}
}

func (s *Shark) handleTCP(ip *layers.IPv4, tcp *layers.TCP, ts int64, emit func(Observation)) {
	key := streamKey{ip: ip.SrcIP.String(), port: uint16(tcp.SrcPort)}
	if s.banned[key] {
		return
	}

	buf := append(s.tcpBuf[key], tcp.Payload...)
	for {
		remaining, cmd, needed, err := ca.InferFromBytestream(buf)
		if err != nil {
			calog.Warn("shark: banning %s:%d after a framing error: %v", key.ip, key.port, err)
			s.banned[key] = true
			delete(s.tcpBuf, key)
			return
		}
		if needed > 0 {
			break
		}
		emit(Observation{
			Timestamp: ts, SrcIP: ip.SrcIP, DstIP: ip.DstIP,
			SrcPort: uint16(tcp.SrcPort), DstPort: uint16(tcp.DstPort),
			Transport: "tcp", Command: cmd,
		})
		buf = remaining
		if len(buf) == 0 {
			break
		}
	}
	s.tcpBuf[key] = buf
}

func (s *Shark) handleUDP(ip *layers.IPv4, udp *layers.UDP, ts int64, emit func(Observation)) {
	key := streamKey{ip: ip.SrcIP.String(), port: uint16(udp.SrcPort)}
	if s.banned[key] {
		return
	}

	cmds, err := ca.InferDatagram(udp.Payload)
	if err != nil {
		calog.Warn("shark: banning %s:%d after a framing error: %v", key.ip, key.port, err)
		s.banned[key] = true
		return
	}
	for _, cmd := range cmds {
		emit(Observation{
			Timestamp: ts, SrcIP: ip.SrcIP, DstIP: ip.DstIP,
			SrcPort: uint16(udp.SrcPort), DstPort: uint16(udp.DstPort),
			Transport: "udp", Command: cmd,
		})
	}
}
