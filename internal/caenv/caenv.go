// Package caenv parses the EPICS-standard environment variables that
// configure address discovery (spec §4.7) and resolves the broadcast
// interface list used by EPICS_CA_AUTO_ADDR_LIST / EPICS_CAS_BEACON_AUTO_ADDR_LIST.
package caenv

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/ipv4"
)

const (
	DefaultRepeaterPort = 5065
	DefaultServerPort   = 5064
	DefaultBeaconPeriod = 15.0
)

// Config is the resolved view of the environment, the shape an I/O host
// reads once at startup before constructing Broadcasters and Virtual
// Circuits.
type Config struct {
	AddrList         []string
	AutoAddrList     bool
	RepeaterPort     int
	ServerPort       int
	MaxArrayBytes    int
	CASIntfAddrList  []string
	BeaconAddrList   []string
	BeaconAutoAddr   bool
	BeaconPeriod     float64
	IgnoreAddrList   []string

	Warnings []string
}

// Load reads the process environment and returns a Config, mirroring the
// variables enumerated in spec §4.7. It never fails outright; malformed
// integers fall back to protocol defaults and are recorded as warnings.
func Load() *Config {
	c := &Config{
		RepeaterPort: DefaultRepeaterPort,
		ServerPort:   DefaultServerPort,
		BeaconPeriod: DefaultBeaconPeriod,
	}

	c.AddrList = splitList(os.Getenv("EPICS_CA_ADDR_LIST"))
	c.AutoAddrList = yesNo(os.Getenv("EPICS_CA_AUTO_ADDR_LIST"), true)
	c.RepeaterPort = c.intVar("EPICS_CA_REPEATER_PORT", DefaultRepeaterPort)
	c.ServerPort = c.intVar("EPICS_CA_SERVER_PORT", DefaultServerPort)
	c.MaxArrayBytes = c.intVar("EPICS_CA_MAX_ARRAY_BYTES", 0)

	c.CASIntfAddrList = splitList(os.Getenv("EPICS_CAS_INTF_ADDR_LIST"))
	c.BeaconAddrList = splitList(os.Getenv("EPICS_CAS_BEACON_ADDR_LIST"))
	c.BeaconAutoAddr = yesNo(os.Getenv("EPICS_CAS_BEACON_AUTO_ADDR_LIST"), true)
	c.BeaconPeriod = c.floatVar("EPICS_CAS_BEACON_PERIOD", DefaultBeaconPeriod)
	c.IgnoreAddrList = splitList(os.Getenv("EPICS_CAS_IGNORE_ADDR_LIST"))

	if len(c.AddrList) > 0 && c.AutoAddrList {
		c.Warnings = append(c.Warnings, "EPICS_CA_ADDR_LIST is set but EPICS_CA_AUTO_ADDR_LIST is not NO; "+
			"the default auto-list behavior may make the explicit list misleading")
	}

	return c
}

func (c *Config) intVar(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not an integer, using default %d", name, v, def))
		return def
	}
	return n
}

func (c *Config) floatVar(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a number, using default %v", name, v, def))
		return def
	}
	return f
}

func splitList(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	out = append(out, fields...)
	return out
}

func yesNo(s string, def bool) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES":
		return true
	case "NO":
		return false
	default:
		return def
	}
}

// BroadcastInterfaces enumerates local IPv4 interfaces' broadcast
// addresses, for EPICS_CA_AUTO_ADDR_LIST="YES" expansion (spec §4.7: "if
// YES, append all broadcast interfaces"). This is pure: it only inspects
// already-up interfaces, it never opens a socket.
func BroadcastInterfaces() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			out = append(out, broadcastAddress(ip4, ipNet.Mask))
		}
	}
	return out, nil
}

// JoinBeaconGroup wraps an already-bound UDP connection with
// golang.org/x/net/ipv4's PacketConn so the I/O host can pin outgoing
// beacon/search datagrams to a specific local interface — the multi-homed
// fanout EPICS_CAS_BEACON_ADDR_LIST and EPICS_CA_ADDR_LIST describe. The
// core itself never calls this; it belongs to the host, not the engine.
func JoinBeaconGroup(conn *net.UDPConn, iface *net.Interface) (*ipv4.PacketConn, error) {
	pc := ipv4.NewPacketConn(conn)
	if iface != nil {
		if err := pc.SetMulticastInterface(iface); err != nil {
			return nil, err
		}
	}
	if err := pc.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		return nil, err
	}
	return pc, nil
}

func broadcastAddress(ip net.IP, mask net.IPMask) net.IP {
	bcast := make(net.IP, len(ip))
	for i := range ip {
		bcast[i] = ip[i] | ^mask[i]
	}
	return bcast
}
