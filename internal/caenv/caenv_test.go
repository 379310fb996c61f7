package caenv

import (
	"net"
	"testing"
)

func TestLoadDefaultsWithNoEnvironmentSet(t *testing.T) {
	c := Load()
	if c.RepeaterPort != DefaultRepeaterPort {
		t.Errorf("RepeaterPort = %d, want default %d", c.RepeaterPort, DefaultRepeaterPort)
	}
	if c.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want default %d", c.ServerPort, DefaultServerPort)
	}
	if c.BeaconPeriod != DefaultBeaconPeriod {
		t.Errorf("BeaconPeriod = %v, want default %v", c.BeaconPeriod, DefaultBeaconPeriod)
	}
	if !c.AutoAddrList {
		t.Error("expected EPICS_CA_AUTO_ADDR_LIST to default to true (YES)")
	}
}

func TestLoadHonorsExplicitOverrides(t *testing.T) {
	t.Setenv("EPICS_CA_ADDR_LIST", "10.0.0.1 10.0.0.2")
	t.Setenv("EPICS_CA_AUTO_ADDR_LIST", "NO")
	t.Setenv("EPICS_CA_REPEATER_PORT", "6065")
	t.Setenv("EPICS_CA_SERVER_PORT", "6064")
	t.Setenv("EPICS_CAS_BEACON_PERIOD", "5.5")

	c := Load()
	if len(c.AddrList) != 2 || c.AddrList[0] != "10.0.0.1" || c.AddrList[1] != "10.0.0.2" {
		t.Errorf("unexpected AddrList: %v", c.AddrList)
	}
	if c.AutoAddrList {
		t.Error("expected AutoAddrList false when EPICS_CA_AUTO_ADDR_LIST=NO")
	}
	if c.RepeaterPort != 6065 || c.ServerPort != 6064 {
		t.Errorf("unexpected ports: repeater=%d server=%d", c.RepeaterPort, c.ServerPort)
	}
	if c.BeaconPeriod != 5.5 {
		t.Errorf("BeaconPeriod = %v, want 5.5", c.BeaconPeriod)
	}
	if len(c.Warnings) != 0 {
		t.Errorf("expected no warnings for well-formed overrides, got %v", c.Warnings)
	}
}

func TestLoadMalformedIntegerFallsBackAndWarns(t *testing.T) {
	t.Setenv("EPICS_CA_REPEATER_PORT", "not-a-number")
	c := Load()
	if c.RepeaterPort != DefaultRepeaterPort {
		t.Errorf("expected fallback to default port, got %d", c.RepeaterPort)
	}
	if len(c.Warnings) == 0 {
		t.Error("expected a warning about the malformed integer")
	}
}

func TestLoadMalformedFloatFallsBackAndWarns(t *testing.T) {
	t.Setenv("EPICS_CAS_BEACON_PERIOD", "soon")
	c := Load()
	if c.BeaconPeriod != DefaultBeaconPeriod {
		t.Errorf("expected fallback to default beacon period, got %v", c.BeaconPeriod)
	}
	if len(c.Warnings) == 0 {
		t.Error("expected a warning about the malformed float")
	}
}

func TestLoadWarnsOnAddrListWithoutExplicitAutoFlag(t *testing.T) {
	t.Setenv("EPICS_CA_ADDR_LIST", "10.0.0.1")
	c := Load()
	if len(c.Warnings) == 0 {
		t.Error("expected a warning when an explicit addr list is set without an explicit auto-addr-list choice")
	}
}

func TestBroadcastAddressComputesHostBitsSet(t *testing.T) {
	ip := net.IPv4(10, 0, 0, 5).To4()
	mask := net.CIDRMask(24, 32)
	got := broadcastAddress(ip, mask)
	want := net.IPv4(10, 0, 0, 255).To4()
	if !got.Equal(want) {
		t.Errorf("broadcastAddress = %v, want %v", got, want)
	}
}

func TestBroadcastInterfacesDoesNotError(t *testing.T) {
	if _, err := BroadcastInterfaces(); err != nil {
		t.Errorf("BroadcastInterfaces returned an error: %v", err)
	}
}

func TestJoinBeaconGroupWrapsConnWithoutError(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Skipf("no loopback UDP socket available in this sandbox: %v", err)
	}
	defer conn.Close()

	pc, err := JoinBeaconGroup(conn, nil)
	if err != nil {
		t.Fatalf("JoinBeaconGroup: %v", err)
	}
	if pc == nil {
		t.Fatal("expected a non-nil ipv4.PacketConn")
	}
}
