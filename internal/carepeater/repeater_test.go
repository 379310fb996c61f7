package carepeater

import (
	"testing"

	"github.com/epics-base/go-ca/internal/ca"
)

func registerDatagram(clientIP uint32) []byte {
	b := ca.NewBroadcaster(ca.CLIENT)
	return b.Send(&ca.RepeaterRegisterRequest{ClientIP: clientIP})
}

func TestRegisterNewClientGetsConfirmOnly(t *testing.T) {
	r := New()
	out := r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound datagram for the first subscriber, got %d", len(out))
	}
	if out[0].Addr != "127.0.0.1:55001" {
		t.Errorf("unexpected confirm destination: %+v", out[0])
	}
	cmds, err := ca.ReadDatagram(out[0].Payload, ca.SERVER)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected one command in the confirm datagram, got %d", len(cmds))
	}
	if _, ok := cmds[0].(*ca.RepeaterConfirmResponse); !ok {
		t.Fatalf("expected *RepeaterConfirmResponse, got %T", cmds[0])
	}
	if subs := r.Subscribers(); len(subs) != 1 || subs[0] != "127.0.0.1:55001" {
		t.Errorf("unexpected subscriber set: %v", subs)
	}
}

func TestRegisterSecondClientAlsoWarmsTheFirst(t *testing.T) {
	r := New()
	r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")

	out := r.Ingest(registerDatagram(0x7F000002), "127.0.0.1:55002")
	if len(out) != 2 {
		t.Fatalf("expected a confirm to the new client plus a keepalive to the existing one, got %d", len(out))
	}
	if out[0].Addr != "127.0.0.1:55002" {
		t.Errorf("expected the confirm to go to the new registrant first, got %+v", out[0])
	}
	if out[1].Addr != "127.0.0.1:55001" || out[1].Payload != nil {
		t.Errorf("expected a zero-length keepalive datagram to the first subscriber, got %+v", out[1])
	}
}

func TestDuplicateRegistrationIsIgnored(t *testing.T) {
	r := New()
	r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")
	out := r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")
	if len(out) != 0 {
		t.Errorf("expected a re-registration from an already known address to produce nothing, got %d", len(out))
	}
	if subs := r.Subscribers(); len(subs) != 1 {
		t.Errorf("expected the subscriber set to stay at size 1, got %v", subs)
	}
}

func TestNonRegisterDatagramFansOutToEveryoneButSource(t *testing.T) {
	r := New()
	r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")
	r.Ingest(registerDatagram(0x7F000002), "127.0.0.1:55002")
	r.Ingest(registerDatagram(0x7F000003), "127.0.0.1:55003")

	beacon := ca.Send(nil, &ca.Beacon{Version: 13, ServerPort: 5064, BeaconID: 1, HostIP: 0x0A000001})
	out := r.Ingest(beacon, "127.0.0.1:55002")

	if len(out) != 2 {
		t.Fatalf("expected fan-out to the two other subscribers, got %d", len(out))
	}
	seen := map[string]bool{}
	for _, o := range out {
		seen[o.Addr] = true
		if string(o.Payload) != string(beacon) {
			t.Errorf("expected the beacon bytes to be forwarded verbatim")
		}
	}
	if seen["127.0.0.1:55002"] {
		t.Error("expected the source address to be excluded from fan-out")
	}
	if !seen["127.0.0.1:55001"] || !seen["127.0.0.1:55003"] {
		t.Errorf("expected both other subscribers to receive the beacon, got %v", out)
	}
}

func TestUnparseableDatagramIsStillForwarded(t *testing.T) {
	r := New()
	r.Ingest(registerDatagram(0x7F000001), "127.0.0.1:55001")
	garbage := []byte{1, 2, 3}
	out := r.Ingest(garbage, "127.0.0.1:55099")
	if len(out) != 1 || out[0].Addr != "127.0.0.1:55001" {
		t.Fatalf("expected garbage to still be forwarded to known subscribers, got %+v", out)
	}
}
