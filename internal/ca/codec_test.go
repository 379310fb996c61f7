package ca

import (
	"bytes"
	"testing"
)

func TestSendParseRoundTripClientCommands(t *testing.T) {
	cases := []Command{
		&VersionRequest{Priority: 0, Version: 13},
		&HostNameRequest{Name: "host", payload: putPaddedString(nil, "host")},
		&ClientNameRequest{Name: "user", payload: putPaddedString(nil, "user")},
		&ReadNotifyRequest{SID: 42, DataType: DBR_DOUBLE, DataCount: 1, IOID: 0},
		&ReadRequest{SID: 42, DataType: DBR_DOUBLE, DataCount: 1},
		&ClearChannelRequest{SID: 42, CID: 0},
	}
	mustCreateChan, err := NewCreateChanRequest("pv1", 0, 13)
	if err != nil {
		t.Fatal(err)
	}
	cases = append(cases, mustCreateChan)

	for _, cmd := range cases {
		buf := Send(nil, cmd)
		h, wireLen, ok := PeekHeader(buf)
		if !ok {
			t.Fatalf("%s: PeekHeader failed", cmd.CommandName())
		}
		payload := buf[wireLen:]
		parsed, err := ParseCommand(h, payload, CLIENT)
		if err != nil {
			t.Fatalf("%s: ParseCommand: %v", cmd.CommandName(), err)
		}
		reserialized := Send(nil, parsed)
		if !bytes.Equal(reserialized, buf) {
			t.Errorf("%s: re-serialized bytes differ:\n got  %v\n want %v", cmd.CommandName(), reserialized, buf)
		}
	}
}

func TestSendParseRoundTripServerCommands(t *testing.T) {
	cases := []Command{
		&VersionResponse{Version: 13},
		&AccessRightsResponse{CID: 0, AccessRights: 3},
		&CreateChanResponse{CID: 0, SID: 42, NativeDataType: DBR_DOUBLE, NativeDataCount: 1},
		&ClearChannelResponse{SID: 42, CID: 0},
		NewReadNotifyResponse(DBR_DOUBLE, 1, 0, 0, mustEncode(t, DBR_DOUBLE, float64(3.14))),
		&CreateChFailResponse{CID: 0},
	}

	for _, cmd := range cases {
		buf := Send(nil, cmd)
		h, wireLen, ok := PeekHeader(buf)
		if !ok {
			t.Fatalf("%s: PeekHeader failed", cmd.CommandName())
		}
		payload := buf[wireLen:]
		parsed, err := ParseCommand(h, payload, SERVER)
		if err != nil {
			t.Fatalf("%s: ParseCommand: %v", cmd.CommandName(), err)
		}
		reserialized := Send(nil, parsed)
		if !bytes.Equal(reserialized, buf) {
			t.Errorf("%s: re-serialized bytes differ:\n got  %v\n want %v", cmd.CommandName(), reserialized, buf)
		}
	}
}

func mustEncode(t *testing.T, typ Type, v interface{}) []byte {
	t.Helper()
	b, err := EncodePayload(typ, v, ControlMetadata{})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	return b
}

func TestReadFromBytestreamShortRead(t *testing.T) {
	full := Send(nil, &VersionRequest{Priority: 0, Version: 13})

	_, _, needed, err := ReadFromBytestream(full[:HeaderSize-1], CLIENT)
	if err != nil {
		t.Fatalf("unexpected error on short header: %v", err)
	}
	if needed <= 0 {
		t.Fatalf("expected bytes_needed > 0 for a short header, got %d", needed)
	}

	remaining, cmd, needed, err := ReadFromBytestream(full, CLIENT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if needed != 0 {
		t.Fatalf("expected no deficit for a complete buffer, got %d", needed)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected buffer fully consumed, got %d bytes left", len(remaining))
	}
	if _, ok := cmd.(*VersionRequest); !ok {
		t.Fatalf("expected *VersionRequest, got %T", cmd)
	}
}

func TestReadFromBytestreamMultipleCommandsConcatenated(t *testing.T) {
	var buf []byte
	buf = Send(buf, &VersionRequest{Priority: 0, Version: 13})
	buf = Send(buf, &HostNameRequest{Name: "host", payload: putPaddedString(nil, "host")})

	remaining, cmd1, needed, err := ReadFromBytestream(buf, CLIENT)
	if err != nil || needed != 0 {
		t.Fatalf("first command: err=%v needed=%d", err, needed)
	}
	if _, ok := cmd1.(*VersionRequest); !ok {
		t.Fatalf("expected *VersionRequest first, got %T", cmd1)
	}

	remaining, cmd2, needed, err := ReadFromBytestream(remaining, CLIENT)
	if err != nil || needed != 0 {
		t.Fatalf("second command: err=%v needed=%d", err, needed)
	}
	if _, ok := cmd2.(*HostNameRequest); !ok {
		t.Fatalf("expected *HostNameRequest second, got %T", cmd2)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected stream fully drained, got %d bytes left", len(remaining))
	}
}

func TestReadDatagramTruncatedIsError(t *testing.T) {
	full := Send(nil, &SearchResponse{CID: 0, Port: 5064, IP: 0xFFFFFFFF, Version: 13})
	_, err := ReadDatagram(full[:len(full)-1], SERVER)
	if err == nil {
		t.Fatal("expected ReadDatagram to error on a truncated trailing command")
	}
}

func TestExtendedHeaderLargePayloadRoundTrip(t *testing.T) {
	count := 20000
	vals := make([]int32, count)
	for i := range vals {
		vals[i] = int32(i)
	}
	payload, err := EncodePayload(DBR_LONG, vals, ControlMetadata{})
	if err != nil {
		t.Fatal(err)
	}
	resp := NewReadNotifyResponse(DBR_LONG, uint32(count), 0, 0, payload)

	buf := Send(nil, resp)
	h, wireLen, ok := PeekHeader(buf)
	if !ok {
		t.Fatal("PeekHeader failed")
	}
	if wireLen != ExtendedHeaderSize {
		t.Fatalf("expected extended header for %d bytes of payload, got wireLen=%d", len(payload), wireLen)
	}
	if h.PayloadSize != uint32(len(payload)) || h.DataCount != uint32(count) {
		t.Fatalf("header fields wrong after extension: payload_size=%d data_count=%d", h.PayloadSize, h.DataCount)
	}

	parsed, err := ParseCommand(h, buf[wireLen:], SERVER)
	if err != nil {
		t.Fatal(err)
	}
	reserialized := Send(nil, parsed)
	if !bytes.Equal(reserialized, buf) {
		t.Error("extended-header command did not round trip byte-for-byte")
	}
}
