package ca

// InferCommand parses one command from a header+payload pair with no role
// context at all (spec §4.4 "shark-style read mode"), for an observer that
// knows neither endpoint's role. It mirrors ParseCommand's dispatch but
// replaces the role-based request/response branch with payload-shape
// inference, following the original's sync/shark.py sniffer table exactly.
func InferCommand(h Header, payload []byte) (Command, error) {
	switch h.Command {
	case cmdVersion:
		if h.Parameter1 == 0 {
			return &VersionRequest{Priority: h.DataType, Version: uint16(h.DataCount)}, nil
		}
		return &VersionResponse{Version: uint16(h.DataCount)}, nil

	case cmdSearch:
		if len(payload) == 0 || (len(payload) == 8 && h.DataCount == 0) {
			r := &SearchResponse{CID: h.Parameter1, Port: h.DataType, IP: 0xFFFFFFFF}
			if len(payload) == 8 {
				r.IP = beU32(payload[0:4])
				r.Version = beU16(payload[4:6])
			}
			return r, nil
		}
		return &SearchRequest{Name: getPaddedString(payload), CID: h.Parameter1, Version: uint16(h.DataCount), payload: payload}, nil

	case cmdEventAdd, cmdEventCancel:
		// Adapted from sniff_event_add_or_cancel_header: command 2 is
		// always treated as a cancel request; command 1 with a fully
		// empty payload is the (inconsistently encoded) cancel response;
		// a 16-byte payload is reported as an add request without
		// inspecting parameter1; anything else is an add response.
		if h.Command == cmdEventCancel {
			return &EventCancelRequest{SID: h.Parameter1, DataType: Type(h.DataType), SubscriptionID: h.Parameter2}, nil
		}
		if len(payload) == 0 && h.DataCount == 0 {
			return &EventCancelResponse{DataType: Type(h.DataType), SubscriptionID: h.Parameter2}, nil
		}
		if len(payload) == 16 {
			req := &EventAddRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, SubscriptionID: h.Parameter2}
			req.Low = beF32(payload[0:4])
			req.High = beF32(payload[4:8])
			req.To = beF32(payload[8:12])
			req.Mask = beU16(payload[12:14])
			return req, nil // EventAddRequestOrResponse in the original: probably a request
		}
		return NewEventAddResponse(Type(h.DataType), h.DataCount, h.Parameter1, h.Parameter2, payload), nil

	case cmdCreateChan:
		if len(payload) == 0 {
			return &CreateChanResponse{CID: h.Parameter1, SID: h.Parameter2, NativeDataType: Type(h.DataType), NativeDataCount: h.DataCount}, nil
		}
		return &CreateChanRequest{Name: getPaddedString(payload), CID: h.Parameter1, Version: uint16(h.Parameter2), payload: payload}, nil

	case cmdRead:
		if len(payload) == 0 {
			return &ReadRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount}, nil
		}
		return &ReadResponse{DataType: Type(h.DataType), DataCount: h.DataCount, payload: payload}, nil

	case cmdReadNotify:
		if len(payload) == 0 {
			return &ReadNotifyRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, IOID: h.Parameter2}, nil
		}
		return NewReadNotifyResponse(Type(h.DataType), h.DataCount, h.Parameter1, h.Parameter2, payload), nil

	case cmdWriteNotify:
		if len(payload) == 0 {
			return &WriteNotifyResponse{DataType: Type(h.DataType), DataCount: h.DataCount, Status: h.Parameter1, IOID: h.Parameter2}, nil
		}
		return &WriteNotifyRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, IOID: h.Parameter2, payload: payload}, nil

	case cmdClearChannel:
		// Ambiguous either way (ClearChannelRequestOrResponse in the
		// original); report as a request, the more common direction to
		// observe for this zero-payload command.
		return &ClearChannelRequest{SID: h.Parameter1, CID: h.Parameter2}, nil

	case cmdEcho:
		// Ambiguous either way; report as a request.
		return &EchoRequest{}, nil
	}

	// one_way_commands: always exactly one direction regardless of payload shape.
	switch h.Command {
	case cmdAccessRights:
		return &AccessRightsResponse{CID: h.Parameter1, AccessRights: h.Parameter2}, nil
	case cmdClientName:
		return &ClientNameRequest{Name: getPaddedString(payload), payload: payload}, nil
	case cmdHostName:
		return &HostNameRequest{Name: getPaddedString(payload), payload: payload}, nil
	case cmdCreateChFail:
		return &CreateChFailResponse{CID: h.Parameter1}, nil
	case cmdNotFound:
		return &NotFoundResponse{CID: h.Parameter2, Version: uint16(h.DataCount)}, nil
	case cmdReadSync:
		return &ReadSyncRequest{}, nil
	case cmdBeacon:
		return &Beacon{Version: h.DataType, ServerPort: uint16(h.DataCount), BeaconID: h.Parameter1, HostIP: h.Parameter2}, nil
	case cmdWrite:
		return &WriteRequest{SID: h.Parameter1, DataType: Type(h.DataType), DataCount: h.DataCount, payload: payload}, nil
	case cmdServerDisconn:
		return &ServerDisconnResponse{CID: h.Parameter1}, nil
	case cmdRepeaterConfirm:
		return &RepeaterConfirmResponse{RepeaterIP: h.Parameter1}, nil
	case cmdRepeaterRegister:
		return &RepeaterRegisterRequest{ClientIP: h.Parameter1}, nil
	case cmdEventsOff:
		return &EventsOffRequest{}, nil
	case cmdEventsOn:
		return &EventsOnRequest{}, nil
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

// InferFromBytestream is read_from_bytestream without role context, for a
// TCP stream observed by a shark-style observer.
func InferFromBytestream(buf []byte) (remaining []byte, cmd Command, bytesNeeded int, err error) {
	h, wireLen, needed := BytesNeededForCommand(buf)
	if needed > 0 {
		return buf, nil, needed, nil
	}
	if wireLen == 0 {
		return buf, nil, HeaderSize, nil
	}
	total := wireLen + int(h.PayloadSize)
	payload := buf[wireLen:total]
	cmd, err = InferCommand(h, payload)
	return buf[total:], cmd, 0, err
}

// InferDatagram is read_datagram without role context, for a UDP
// observer.
func InferDatagram(data []byte) ([]Command, error) {
	var out []Command
	buf := data
	for len(buf) > 0 {
		h, wireLen, needed := BytesNeededForCommand(buf)
		if needed > 0 {
			return out, &ValidationError{Reason: "truncated command in datagram"}
		}
		total := wireLen + int(h.PayloadSize)
		cmd, err := InferCommand(h, buf[wireLen:total])
		if err != nil {
			return out, err
		}
		out = append(out, cmd)
		buf = buf[total:]
	}
	return out, nil
}
