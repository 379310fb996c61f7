package ca

import "math"

// NeedData is a marker value for "buf does not yet hold a complete
// command". ReadFromBytestream does not return it: it reports that case
// as a nil command with bytesNeeded > 0 (a lower bound — more may still
// be required once the header itself can be parsed).
const NeedData = -1

// BytesNeededForCommand peeks at the head of buf and reports whether a
// full command is present. If not, it returns the number of additional
// bytes required (which may itself be a lower bound if even the header
// isn't fully buffered yet).
func BytesNeededForCommand(buf []byte) (hdr Header, wireLen int, bytesNeeded int) {
	h, wireLen, ok := PeekHeader(buf)
	if !ok {
		if len(buf) >= HeaderSize {
			// The standard header announces an extended header that is
			// not fully buffered yet.
			return Header{}, 0, ExtendedHeaderSize - len(buf)
		}
		return Header{}, 0, HeaderSize - len(buf)
	}
	total := wireLen + int(h.PayloadSize)
	if len(buf) < total {
		return h, wireLen, total - len(buf)
	}
	return h, wireLen, 0
}

// ReadFromBytestream parses one command from the head of buf. On success
// it returns the unconsumed remainder of buf and the parsed command. On a
// short read it returns buf unchanged, a nil command, and the number of
// additional bytes needed.
func ReadFromBytestream(buf []byte, theirRole Role) (remaining []byte, cmd Command, bytesNeeded int, err error) {
	h, wireLen, needed := BytesNeededForCommand(buf)
	if needed > 0 {
		return buf, nil, needed, nil
	}
	if wireLen == 0 {
		return buf, nil, HeaderSize, nil
	}

	total := wireLen + int(h.PayloadSize)
	payload := buf[wireLen:total]
	cmd, err = ParseCommand(h, payload, theirRole)
	return buf[total:], cmd, 0, err
}

// ReadDatagram parses every command concatenated in a single UDP
// datagram. Datagrams are atomic: a short trailing command is a
// ValidationError, never a NEED_DATA condition.
func ReadDatagram(data []byte, theirRole Role) ([]Command, error) {
	var out []Command
	buf := data
	for len(buf) > 0 {
		h, wireLen, needed := BytesNeededForCommand(buf)
		if needed > 0 {
			return out, &ValidationError{Reason: "truncated command in datagram"}
		}
		total := wireLen + int(h.PayloadSize)
		cmd, err := ParseCommand(h, buf[wireLen:total], theirRole)
		if err != nil {
			return out, err
		}
		out = append(out, cmd)
		buf = buf[total:]
	}
	return out, nil
}

// Send serializes cmd, appending its bytes to buf.
func Send(buf []byte, cmd Command) []byte {
	h := cmd.Header()
	buf = h.AppendTo(buf)
	if cmd.HasPayload() {
		buf = append(buf, cmd.Payload()...)
	}
	return buf
}

// ParseCommand builds the typed Command for a header+payload pair. For
// command IDs shared by a request and a response (Version, Search,
// CreateChan, ClearChannel, EventAdd/EventCancel, Read/ReadNotify,
// WriteNotify), theirRole picks the branch: a message from a SERVER
// peer is a response, a message from a CLIENT peer is a request — except
// Echo, which is bidirectional and is reported as whichever theirRole
// implies (a peer acting as CLIENT sends EchoRequest, SERVER sends
// EchoResponse, matching ordinary request/response convention even though
// either role may originate one).
func ParseCommand(h Header, payload []byte, theirRole Role) (Command, error) {
	fromServer := theirRole == SERVER

	switch h.Command {
	case cmdVersion:
		if fromServer {
			return &VersionResponse{Version: uint16(h.DataCount)}, nil
		}
		return &VersionRequest{Priority: h.DataType, Version: uint16(h.DataCount)}, nil

	case cmdSearch:
		if fromServer {
			r := &SearchResponse{CID: h.Parameter1, Port: h.DataType}
			if len(payload) >= 8 {
				r.IP = beU32(payload[0:4])
				r.Version = beU16(payload[4:6])
			} else {
				r.IP = 0xFFFFFFFF
			}
			return r, nil
		}
		name := getPaddedString(payload)
		return &SearchRequest{Name: name, CID: h.Parameter1, Version: uint16(h.DataCount), ReplyRequired: h.DataType != 10, payload: payload}, nil

	case cmdNotFound:
		return &NotFoundResponse{CID: h.Parameter2, Version: uint16(h.DataCount)}, nil

	case cmdRepeaterRegister:
		return &RepeaterRegisterRequest{ClientIP: h.Parameter1}, nil

	case cmdRepeaterConfirm:
		return &RepeaterConfirmResponse{RepeaterIP: h.Parameter1}, nil

	case cmdBeacon:
		return &Beacon{Version: h.DataType, ServerPort: uint16(h.DataCount), BeaconID: h.Parameter1, HostIP: h.Parameter2}, nil

	case cmdHostName:
		return &HostNameRequest{Name: getPaddedString(payload), payload: payload}, nil

	case cmdClientName:
		return &ClientNameRequest{Name: getPaddedString(payload), payload: payload}, nil

	case cmdAccessRights:
		return &AccessRightsResponse{CID: h.Parameter1, AccessRights: h.Parameter2}, nil

	case cmdCreateChan:
		if fromServer {
			return &CreateChanResponse{CID: h.Parameter1, SID: h.Parameter2, NativeDataType: Type(h.DataType), NativeDataCount: h.DataCount}, nil
		}
		return &CreateChanRequest{Name: getPaddedString(payload), CID: h.Parameter1, Version: uint16(h.Parameter2), payload: payload}, nil

	case cmdCreateChFail:
		return &CreateChFailResponse{CID: h.Parameter1}, nil

	case cmdServerDisconn:
		return &ServerDisconnResponse{CID: h.Parameter1}, nil

	case cmdClearChannel:
		if fromServer {
			return &ClearChannelResponse{SID: h.Parameter1, CID: h.Parameter2}, nil
		}
		return &ClearChannelRequest{SID: h.Parameter1, CID: h.Parameter2}, nil

	case cmdReadNotify:
		if fromServer {
			return NewReadNotifyResponse(Type(h.DataType), h.DataCount, h.Parameter1, h.Parameter2, payload), nil
		}
		return &ReadNotifyRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, IOID: h.Parameter2}, nil

	case cmdRead:
		if fromServer {
			return &ReadResponse{DataType: Type(h.DataType), DataCount: h.DataCount, payload: payload}, nil
		}
		return &ReadRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount}, nil

	case cmdWrite:
		return &WriteRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, payload: payload}, nil

	case cmdWriteNotify:
		if fromServer {
			return &WriteNotifyResponse{DataType: Type(h.DataType), DataCount: h.DataCount, Status: h.Parameter1, IOID: h.Parameter2}, nil
		}
		return &WriteNotifyRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, IOID: h.Parameter2, payload: payload}, nil

	case cmdEventAdd:
		if fromServer {
			return NewEventAddResponse(Type(h.DataType), h.DataCount, h.Parameter1, h.Parameter2, payload), nil
		}
		req := &EventAddRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, SubscriptionID: h.Parameter2}
		if len(payload) >= 16 {
			req.Low = beF32(payload[0:4])
			req.High = beF32(payload[4:8])
			req.To = beF32(payload[8:12])
			req.Mask = beU16(payload[12:14])
		}
		return req, nil

	case cmdEventCancel:
		// Disambiguated by payload shape per spec §9: a request echoes the
		// EventAdd filter payload (non-empty in the real protocol's fixed
		// layout), a response carries none. Role breaks the remaining tie.
		if len(payload) == 0 {
			if fromServer {
				return &EventCancelResponse{DataType: Type(h.DataType), SubscriptionID: h.Parameter2}, nil
			}
			return &EventCancelRequest{SID: h.Parameter1, DataType: Type(h.DataType), SubscriptionID: h.Parameter2}, nil
		}
		return &EventCancelRequest{SID: h.Parameter1, DataType: Type(h.DataType), SubscriptionID: h.Parameter2}, nil

	case cmdEventsOff:
		return &EventsOffRequest{}, nil
	case cmdEventsOn:
		return &EventsOnRequest{}, nil
	case cmdReadSync:
		return &ReadSyncRequest{}, nil

	case cmdEcho:
		if fromServer {
			return &EchoResponse{}, nil
		}
		return &EchoRequest{}, nil

	case cmdError:
		var originalCmdID uint16
		var msg string
		if len(payload) >= 16 {
			originalCmdID = beU16(payload[0:2])
			msg = getPaddedString(payload[16:])
		}
		return &ErrorResponse{CID: h.Parameter1, Status: h.Parameter2, OriginalCmdID: originalCmdID, Message: msg, payload: payload}, nil
	}

	return nil, &ValidationError{Reason: "unknown command id"}
}

func beU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func beF32(b []byte) float32 {
	return math.Float32frombits(beU32(b))
}
