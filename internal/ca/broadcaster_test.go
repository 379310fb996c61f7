package ca

import "testing"

func TestNextBeaconPeriodDoublesUpToMax(t *testing.T) {
	p := NextBeaconPeriod(0, DefaultBeaconPeriod)
	if p != MinBeaconPeriod*2 {
		t.Fatalf("expected first doubling from the floor, got %v", p)
	}
	for i := 0; i < 20; i++ {
		p = NextBeaconPeriod(p, DefaultBeaconPeriod)
	}
	if p != DefaultBeaconPeriod {
		t.Errorf("expected convergence to the ceiling, got %v", p)
	}
}

func TestSearchAndConnectScenario(t *testing.T) {
	b := NewBroadcaster(CLIENT)

	versionReq, searchReq, err := b.Search("pv1", 13)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	buf := b.Send(versionReq, searchReq)
	if len(buf) == 0 {
		t.Fatal("expected a non-empty datagram")
	}

	serverIP := uint32(0xAABBCCDD)
	resp := NewSearchResponse(searchReq.CID, 5064, serverIP, 13)
	reply := Send(nil, resp)

	cmds, err := b.Recv(reply, "server:5064")
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	results, identities := b.ProcessCommands(cmds, serverIP)
	if len(identities) != 0 {
		t.Errorf("expected no identity events from a SearchResponse, got %v", identities)
	}
	if len(results) != 1 {
		t.Fatalf("expected one search result, got %d", len(results))
	}
	if results[0].Name != "pv1" || results[0].Port != 5064 {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].ServerAddress != ipToString(serverIP) {
		t.Errorf("got address %q, want %q", results[0].ServerAddress, ipToString(serverIP))
	}
}

func TestSearchResponseUsesDatagramSourceWhenIPIsSentinel(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	_, searchReq, err := b.Search("pv2", 13)
	if err != nil {
		t.Fatal(err)
	}
	resp := NewSearchResponse(searchReq.CID, 5064, 0xFFFFFFFF, 13)
	reply := Send(nil, resp)

	cmds, err := b.Recv(reply, "server:5064")
	if err != nil {
		t.Fatal(err)
	}
	results, _ := b.ProcessCommands(cmds, 0)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].ServerAddress != "" {
		t.Errorf("expected empty ServerAddress for the sentinel IP, got %q", results[0].ServerAddress)
	}
}

func TestSearchResponseDuplicateIsSilentlyDropped(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	_, searchReq, err := b.Search("pv1", 13)
	if err != nil {
		t.Fatal(err)
	}
	resp := NewSearchResponse(searchReq.CID, 5064, 0x01020304, 13)
	reply := Send(nil, resp)

	cmds, err := b.Recv(reply, "server:5064")
	if err != nil {
		t.Fatal(err)
	}
	results, _ := b.ProcessCommands(cmds, 0)
	if len(results) != 1 {
		t.Fatalf("expected the first response to resolve, got %d results", len(results))
	}

	// A second, duplicate response for the same (now-retired) cid must be
	// silently dropped rather than resolved twice.
	cmds, err = b.Recv(reply, "server:5064")
	if err != nil {
		t.Fatal(err)
	}
	results, _ = b.ProcessCommands(cmds, 0)
	if len(results) != 0 {
		t.Errorf("expected the duplicate response to be dropped, got %d results", len(results))
	}
}

func TestBeaconFirstSeenRaisesUnchangedIdentity(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	beacon := &Beacon{Version: 13, ServerPort: 5064, BeaconID: 1, HostIP: 0x0A000001}

	_, identities := b.ProcessCommands([]Command{beacon}, beacon.HostIP)
	if len(identities) != 1 {
		t.Fatalf("expected one identity event for a never-seen host, got %d", len(identities))
	}
	if identities[0].Changed {
		t.Error("expected the first beacon seen from a host to report Changed=false")
	}
}

func TestBeaconPortChangeRaisesChangedIdentity(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	first := &Beacon{Version: 13, ServerPort: 5064, BeaconID: 1, HostIP: 0x0A000001}
	b.ProcessCommands([]Command{first}, first.HostIP)

	second := &Beacon{Version: 13, ServerPort: 5065, BeaconID: 2, HostIP: 0x0A000001}
	_, identities := b.ProcessCommands([]Command{second}, second.HostIP)
	if len(identities) != 1 || !identities[0].Changed {
		t.Fatalf("expected a changed identity event on port change, got %v", identities)
	}
}

func TestBeaconIDResetRaisesChangedIdentity(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	first := &Beacon{Version: 13, ServerPort: 5064, BeaconID: 100, HostIP: 0x0A000001}
	b.ProcessCommands([]Command{first}, first.HostIP)

	restarted := &Beacon{Version: 13, ServerPort: 5064, BeaconID: 1, HostIP: 0x0A000001}
	_, identities := b.ProcessCommands([]Command{restarted}, restarted.HostIP)
	if len(identities) != 1 || !identities[0].Changed {
		t.Fatalf("expected a changed identity event on beacon_id reset, got %v", identities)
	}
}

func TestBeaconSteadyStreamRaisesNoIdentityEvents(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	b.ProcessCommands([]Command{&Beacon{Version: 13, ServerPort: 5064, BeaconID: 1, HostIP: 0x0A000001}}, 0)

	_, identities := b.ProcessCommands([]Command{&Beacon{Version: 13, ServerPort: 5064, BeaconID: 2, HostIP: 0x0A000001}}, 0)
	if len(identities) != 0 {
		t.Errorf("expected no identity event for a routine beacon increment, got %v", identities)
	}
}

func TestRepeaterConfirmResponseSetsRegistered(t *testing.T) {
	b := NewBroadcaster(CLIENT)
	if b.Registered() {
		t.Fatal("expected a fresh broadcaster to be unregistered")
	}
	b.ProcessCommands([]Command{&RepeaterConfirmResponse{RepeaterIP: 0x7F000001}}, 0)
	if !b.Registered() {
		t.Error("expected RepeaterConfirmResponse to mark the broadcaster registered")
	}
}
