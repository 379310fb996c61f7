package ca

import "math"

// Direction distinguishes a request (always client-originated unless
// stated otherwise) from a response.
type Direction int

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	if d == Request {
		return "request"
	}
	return "response"
}

// Command IDs, per spec §4.3/§6.
const (
	cmdVersion        uint16 = 0
	cmdEventAdd       uint16 = 1
	cmdEventCancel    uint16 = 2
	cmdRead           uint16 = 3
	cmdWrite          uint16 = 4
	cmdSearch         uint16 = 6
	cmdEventsOff      uint16 = 8
	cmdEventsOn       uint16 = 9
	cmdReadSync       uint16 = 10
	cmdError          uint16 = 11
	cmdClearChannel   uint16 = 12
	cmdBeacon         uint16 = 13
	cmdNotFound       uint16 = 14
	cmdReadNotify     uint16 = 15
	cmdRepeaterConfirm uint16 = 17
	cmdCreateChan     uint16 = 18
	cmdWriteNotify    uint16 = 19
	cmdClientName     uint16 = 20
	cmdHostName       uint16 = 21
	cmdAccessRights   uint16 = 22
	cmdEcho           uint16 = 23
	cmdRepeaterRegister uint16 = 24
	cmdCreateChFail   uint16 = 26
	cmdServerDisconn  uint16 = 27
)

// Command is implemented by every CA command value. HasPayload reports
// whether a wire payload (possibly zero bytes, e.g. an empty array)
// follows the header.
type Command interface {
	CommandName() string
	CommandID() uint16
	Direction() Direction
	HasPayload() bool
	Header() Header
	Payload() []byte
	isCommand()
}

type baseCommand struct{}

func (baseCommand) isCommand() {}

// --- Version -----------------------------------------------------------

type VersionRequest struct {
	baseCommand
	Priority uint16 // 0..99
	Version  uint16
}

func NewVersionRequest(priority, version uint16) (*VersionRequest, error) {
	if priority > 99 {
		return nil, &CaprotoValueError{Reason: "priority must be 0..99"}
	}
	return &VersionRequest{Priority: priority, Version: version}, nil
}

func (c *VersionRequest) CommandName() string { return "VersionRequest" }
func (c *VersionRequest) CommandID() uint16    { return cmdVersion }
func (c *VersionRequest) Direction() Direction { return Request }
func (c *VersionRequest) HasPayload() bool     { return false }
func (c *VersionRequest) Payload() []byte      { return nil }
func (c *VersionRequest) Header() Header {
	return Header{Command: cmdVersion, DataType: c.Priority, DataCount: uint32(c.Version)}
}

type VersionResponse struct {
	baseCommand
	Version uint16
}

func NewVersionResponse(version uint16) *VersionResponse { return &VersionResponse{Version: version} }

func (c *VersionResponse) CommandName() string { return "VersionResponse" }
func (c *VersionResponse) CommandID() uint16    { return cmdVersion }
func (c *VersionResponse) Direction() Direction { return Response }
func (c *VersionResponse) HasPayload() bool     { return false }
func (c *VersionResponse) Payload() []byte      { return nil }
func (c *VersionResponse) Header() Header {
	return Header{Command: cmdVersion, DataCount: uint32(c.Version)}
}

// --- Search --------------------------------------------------------------

type SearchRequest struct {
	baseCommand
	Name          string
	CID           uint32
	ReplyRequired bool // encoded in the header's data_type: true as 5, false as 10
	Version       uint16
	payload       []byte
}

func NewSearchRequest(name string, cid uint32, version uint16) (*SearchRequest, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &SearchRequest{Name: name, CID: cid, Version: version, payload: putPaddedString(nil, name)}, nil
}

func (c *SearchRequest) CommandName() string { return "SearchRequest" }
func (c *SearchRequest) CommandID() uint16    { return cmdSearch }
func (c *SearchRequest) Direction() Direction { return Request }
func (c *SearchRequest) HasPayload() bool     { return true }
func (c *SearchRequest) Payload() []byte      { return c.payload }
func (c *SearchRequest) Header() Header {
	reply := uint16(5) // "doReply"; 10 means "don't reply" in the real wire encoding
	if !c.ReplyRequired {
		reply = 10
	}
	return Header{
		Command: cmdSearch, DataType: reply, DataCount: uint16AsDataCount(c.Version),
		PayloadSize: uint32(len(c.payload)), Parameter1: c.CID, Parameter2: c.CID,
	}
}

func uint16AsDataCount(v uint16) uint32 { return uint32(v) }

// SearchResponse carries the server's TCP port and either its IP or the
// sentinel meaning "use the datagram source address" (spec §6).
type SearchResponse struct {
	baseCommand
	CID     uint32
	Port    uint16
	IP      uint32 // 0xFFFFFFFF => use source address
	Version uint16
}

func NewSearchResponse(cid uint32, port uint16, ip uint32, version uint16) *SearchResponse {
	return &SearchResponse{CID: cid, Port: port, IP: ip, Version: version}
}

func (c *SearchResponse) CommandName() string { return "SearchResponse" }
func (c *SearchResponse) CommandID() uint16    { return cmdSearch }
func (c *SearchResponse) Direction() Direction { return Response }
func (c *SearchResponse) HasPayload() bool     { return true }
func (c *SearchResponse) Payload() []byte {
	if c.IP == 0xFFFFFFFF {
		return nil
	}
	buf := make([]byte, 8)
	putU32(buf[0:4], c.IP)
	putU16(buf[4:6], c.Version)
	return buf
}
func (c *SearchResponse) Header() Header {
	return Header{
		Command: cmdSearch, DataType: c.Port, DataCount: 0,
		PayloadSize: uint32(len(c.Payload())), Parameter1: c.CID, Parameter2: c.CID,
	}
}

type NotFoundResponse struct {
	baseCommand
	CID     uint32
	Version uint16
}

func (c *NotFoundResponse) CommandName() string { return "NotFoundResponse" }
func (c *NotFoundResponse) CommandID() uint16    { return cmdNotFound }
func (c *NotFoundResponse) Direction() Direction { return Response }
func (c *NotFoundResponse) HasPayload() bool     { return false }
func (c *NotFoundResponse) Payload() []byte      { return nil }
func (c *NotFoundResponse) Header() Header {
	return Header{Command: cmdNotFound, DataCount: uint32(c.Version), Parameter2: c.CID}
}

// --- Repeater ------------------------------------------------------------

type RepeaterRegisterRequest struct {
	baseCommand
	ClientIP uint32
}

func (c *RepeaterRegisterRequest) CommandName() string { return "RepeaterRegisterRequest" }
func (c *RepeaterRegisterRequest) CommandID() uint16    { return cmdRepeaterRegister }
func (c *RepeaterRegisterRequest) Direction() Direction { return Request }
func (c *RepeaterRegisterRequest) HasPayload() bool     { return false }
func (c *RepeaterRegisterRequest) Payload() []byte      { return nil }
func (c *RepeaterRegisterRequest) Header() Header {
	return Header{Command: cmdRepeaterRegister, Parameter1: c.ClientIP}
}

type RepeaterConfirmResponse struct {
	baseCommand
	RepeaterIP uint32
}

func (c *RepeaterConfirmResponse) CommandName() string { return "RepeaterConfirmResponse" }
func (c *RepeaterConfirmResponse) CommandID() uint16    { return cmdRepeaterConfirm }
func (c *RepeaterConfirmResponse) Direction() Direction { return Response }
func (c *RepeaterConfirmResponse) HasPayload() bool     { return false }
func (c *RepeaterConfirmResponse) Payload() []byte      { return nil }
func (c *RepeaterConfirmResponse) Header() Header {
	return Header{Command: cmdRepeaterConfirm, Parameter1: c.RepeaterIP}
}

// Beacon is the server's periodic liveness announcement.
type Beacon struct {
	baseCommand
	Version  uint16
	ServerPort uint16
	BeaconID uint32
	HostIP   uint32
}

func (c *Beacon) CommandName() string { return "Beacon" }
func (c *Beacon) CommandID() uint16    { return cmdBeacon }
func (c *Beacon) Direction() Direction { return Response }
func (c *Beacon) HasPayload() bool     { return false }
func (c *Beacon) Payload() []byte      { return nil }
func (c *Beacon) Header() Header {
	return Header{
		Command: cmdBeacon, DataType: c.Version, DataCount: uint32(c.ServerPort),
		Parameter1: c.BeaconID, Parameter2: c.HostIP,
	}
}

// --- Circuit setup ---------------------------------------------------------

type HostNameRequest struct {
	baseCommand
	Name    string
	payload []byte
}

func NewHostNameRequest(name string) *HostNameRequest {
	return &HostNameRequest{Name: name, payload: putPaddedString(nil, name)}
}

func (c *HostNameRequest) CommandName() string { return "HostNameRequest" }
func (c *HostNameRequest) CommandID() uint16    { return cmdHostName }
func (c *HostNameRequest) Direction() Direction { return Request }
func (c *HostNameRequest) HasPayload() bool     { return true }
func (c *HostNameRequest) Payload() []byte      { return c.payload }
func (c *HostNameRequest) Header() Header {
	return Header{Command: cmdHostName, PayloadSize: uint32(len(c.payload))}
}

type ClientNameRequest struct {
	baseCommand
	Name    string
	payload []byte
}

func NewClientNameRequest(name string) *ClientNameRequest {
	return &ClientNameRequest{Name: name, payload: putPaddedString(nil, name)}
}

func (c *ClientNameRequest) CommandName() string { return "ClientNameRequest" }
func (c *ClientNameRequest) CommandID() uint16    { return cmdClientName }
func (c *ClientNameRequest) Direction() Direction { return Request }
func (c *ClientNameRequest) HasPayload() bool     { return true }
func (c *ClientNameRequest) Payload() []byte      { return c.payload }
func (c *ClientNameRequest) Header() Header {
	return Header{Command: cmdClientName, PayloadSize: uint32(len(c.payload))}
}

type AccessRightsResponse struct {
	baseCommand
	CID          uint32
	AccessRights uint32 // bit0 read, bit1 write
}

func (c *AccessRightsResponse) CommandName() string { return "AccessRightsResponse" }
func (c *AccessRightsResponse) CommandID() uint16    { return cmdAccessRights }
func (c *AccessRightsResponse) Direction() Direction { return Response }
func (c *AccessRightsResponse) HasPayload() bool     { return false }
func (c *AccessRightsResponse) Payload() []byte      { return nil }
func (c *AccessRightsResponse) Header() Header {
	return Header{Command: cmdAccessRights, Parameter1: c.CID, Parameter2: c.AccessRights}
}

type CreateChanRequest struct {
	baseCommand
	Name    string
	CID     uint32
	Version uint16
	payload []byte
}

func NewCreateChanRequest(name string, cid uint32, version uint16) (*CreateChanRequest, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &CreateChanRequest{Name: name, CID: cid, Version: version, payload: putPaddedString(nil, name)}, nil
}

func (c *CreateChanRequest) CommandName() string { return "CreateChanRequest" }
func (c *CreateChanRequest) CommandID() uint16    { return cmdCreateChan }
func (c *CreateChanRequest) Direction() Direction { return Request }
func (c *CreateChanRequest) HasPayload() bool     { return true }
func (c *CreateChanRequest) Payload() []byte      { return c.payload }
func (c *CreateChanRequest) Header() Header {
	return Header{
		Command: cmdCreateChan, PayloadSize: uint32(len(c.payload)),
		Parameter1: c.CID, Parameter2: uint32(c.Version),
	}
}

type CreateChanResponse struct {
	baseCommand
	CID            uint32
	SID            uint32
	NativeDataType Type
	NativeDataCount uint32
}

func (c *CreateChanResponse) CommandName() string { return "CreateChanResponse" }
func (c *CreateChanResponse) CommandID() uint16    { return cmdCreateChan }
func (c *CreateChanResponse) Direction() Direction { return Response }
func (c *CreateChanResponse) HasPayload() bool     { return false }
func (c *CreateChanResponse) Payload() []byte      { return nil }
func (c *CreateChanResponse) Header() Header {
	return Header{
		Command: cmdCreateChan, DataType: uint16(c.NativeDataType), DataCount: c.NativeDataCount,
		Parameter1: c.CID, Parameter2: c.SID,
	}
}

type CreateChFailResponse struct {
	baseCommand
	CID uint32
}

func (c *CreateChFailResponse) CommandName() string { return "CreateChFailResponse" }
func (c *CreateChFailResponse) CommandID() uint16    { return cmdCreateChFail }
func (c *CreateChFailResponse) Direction() Direction { return Response }
func (c *CreateChFailResponse) HasPayload() bool     { return false }
func (c *CreateChFailResponse) Payload() []byte      { return nil }
func (c *CreateChFailResponse) Header() Header {
	return Header{Command: cmdCreateChFail, Parameter1: c.CID}
}

type ServerDisconnResponse struct {
	baseCommand
	CID uint32
}

func (c *ServerDisconnResponse) CommandName() string { return "ServerDisconnResponse" }
func (c *ServerDisconnResponse) CommandID() uint16    { return cmdServerDisconn }
func (c *ServerDisconnResponse) Direction() Direction { return Response }
func (c *ServerDisconnResponse) HasPayload() bool     { return false }
func (c *ServerDisconnResponse) Payload() []byte      { return nil }
func (c *ServerDisconnResponse) Header() Header {
	return Header{Command: cmdServerDisconn, Parameter1: c.CID}
}

type ClearChannelRequest struct {
	baseCommand
	SID uint32
	CID uint32
}

func (c *ClearChannelRequest) CommandName() string { return "ClearChannelRequest" }
func (c *ClearChannelRequest) CommandID() uint16    { return cmdClearChannel }
func (c *ClearChannelRequest) Direction() Direction { return Request }
func (c *ClearChannelRequest) HasPayload() bool     { return false }
func (c *ClearChannelRequest) Payload() []byte      { return nil }
func (c *ClearChannelRequest) Header() Header {
	return Header{Command: cmdClearChannel, Parameter1: c.SID, Parameter2: c.CID}
}

type ClearChannelResponse struct {
	baseCommand
	SID uint32
	CID uint32
}

func (c *ClearChannelResponse) CommandName() string { return "ClearChannelResponse" }
func (c *ClearChannelResponse) CommandID() uint16    { return cmdClearChannel }
func (c *ClearChannelResponse) Direction() Direction { return Response }
func (c *ClearChannelResponse) HasPayload() bool     { return false }
func (c *ClearChannelResponse) Payload() []byte      { return nil }
func (c *ClearChannelResponse) Header() Header {
	return Header{Command: cmdClearChannel, Parameter1: c.SID, Parameter2: c.CID}
}

// --- Reads/writes ----------------------------------------------------------

type ReadNotifyRequest struct {
	baseCommand
	SID       uint32
	DataType  Type
	DataCount uint32
	IOID      uint32
}

func (c *ReadNotifyRequest) CommandName() string { return "ReadNotifyRequest" }
func (c *ReadNotifyRequest) CommandID() uint16    { return cmdReadNotify }
func (c *ReadNotifyRequest) Direction() Direction { return Request }
func (c *ReadNotifyRequest) HasPayload() bool     { return false }
func (c *ReadNotifyRequest) Payload() []byte      { return nil }
func (c *ReadNotifyRequest) Header() Header {
	return Header{
		Command: cmdReadNotify, DataType: uint16(c.DataType), DataCount: c.DataCount,
		Parameter1: c.SID, Parameter2: c.IOID,
	}
}

type ReadNotifyResponse struct {
	baseCommand
	DataType Type
	DataCount uint32
	Status   uint32
	IOID     uint32
	payload  []byte
}

func NewReadNotifyResponse(dataType Type, count uint32, status uint32, ioid uint32, payload []byte) *ReadNotifyResponse {
	return &ReadNotifyResponse{DataType: dataType, DataCount: count, Status: status, IOID: ioid, payload: payload}
}

func (c *ReadNotifyResponse) CommandName() string { return "ReadNotifyResponse" }
func (c *ReadNotifyResponse) CommandID() uint16    { return cmdReadNotify }
func (c *ReadNotifyResponse) Direction() Direction { return Response }
func (c *ReadNotifyResponse) HasPayload() bool     { return true }
func (c *ReadNotifyResponse) Payload() []byte      { return c.payload }
func (c *ReadNotifyResponse) Header() Header {
	return Header{
		Command: cmdReadNotify, DataType: uint16(c.DataType), DataCount: c.DataCount,
		PayloadSize: uint32(len(c.payload)), Parameter1: c.Status, Parameter2: c.IOID,
	}
}

// ReadRequest/ReadResponse are the deprecated unacknowledged read pair,
// retained for completeness; ReadNotify is preferred by modern clients.
type ReadRequest struct {
	baseCommand
	SID       uint32
	DataType  Type
	DataCount uint32
}

func (c *ReadRequest) CommandName() string { return "ReadRequest" }
func (c *ReadRequest) CommandID() uint16    { return cmdRead }
func (c *ReadRequest) Direction() Direction { return Request }
func (c *ReadRequest) HasPayload() bool     { return false }
func (c *ReadRequest) Payload() []byte      { return nil }
func (c *ReadRequest) Header() Header {
	return Header{Command: cmdRead, DataType: uint16(c.DataType), DataCount: c.DataCount, Parameter1: c.SID}
}

type ReadResponse struct {
	baseCommand
	DataType  Type
	DataCount uint32
	payload   []byte
}

func (c *ReadResponse) CommandName() string { return "ReadResponse" }
func (c *ReadResponse) CommandID() uint16    { return cmdRead }
func (c *ReadResponse) Direction() Direction { return Response }
func (c *ReadResponse) HasPayload() bool     { return true }
func (c *ReadResponse) Payload() []byte      { return c.payload }
func (c *ReadResponse) Header() Header {
	return Header{Command: cmdRead, DataType: uint16(c.DataType), DataCount: c.DataCount, PayloadSize: uint32(len(c.payload))}
}

type WriteRequest struct {
	baseCommand
	SID       uint32
	DataType  Type
	DataCount uint32
	payload   []byte
}

func (c *WriteRequest) CommandName() string { return "WriteRequest" }
func (c *WriteRequest) CommandID() uint16    { return cmdWrite }
func (c *WriteRequest) Direction() Direction { return Request }
func (c *WriteRequest) HasPayload() bool     { return true }
func (c *WriteRequest) Payload() []byte      { return c.payload }
func (c *WriteRequest) Header() Header {
	return Header{
		Command: cmdWrite, DataType: uint16(c.DataType), DataCount: c.DataCount,
		PayloadSize: uint32(len(c.payload)), Parameter1: c.SID,
	}
}

type WriteNotifyRequest struct {
	baseCommand
	SID       uint32
	DataType  Type
	DataCount uint32
	IOID      uint32
	payload   []byte
}

func (c *WriteNotifyRequest) CommandName() string { return "WriteNotifyRequest" }
func (c *WriteNotifyRequest) CommandID() uint16    { return cmdWriteNotify }
func (c *WriteNotifyRequest) Direction() Direction { return Request }
func (c *WriteNotifyRequest) HasPayload() bool     { return true }
func (c *WriteNotifyRequest) Payload() []byte      { return c.payload }
func (c *WriteNotifyRequest) Header() Header {
	return Header{
		Command: cmdWriteNotify, DataType: uint16(c.DataType), DataCount: c.DataCount,
		PayloadSize: uint32(len(c.payload)), Parameter1: c.SID, Parameter2: c.IOID,
	}
}

type WriteNotifyResponse struct {
	baseCommand
	DataType  Type
	DataCount uint32
	Status    uint32
	IOID      uint32
}

func (c *WriteNotifyResponse) CommandName() string { return "WriteNotifyResponse" }
func (c *WriteNotifyResponse) CommandID() uint16    { return cmdWriteNotify }
func (c *WriteNotifyResponse) Direction() Direction { return Response }
func (c *WriteNotifyResponse) HasPayload() bool     { return false }
func (c *WriteNotifyResponse) Payload() []byte      { return nil }
func (c *WriteNotifyResponse) Header() Header {
	return Header{
		Command: cmdWriteNotify, DataType: uint16(c.DataType), DataCount: c.DataCount,
		Parameter1: c.Status, Parameter2: c.IOID,
	}
}

// --- Subscriptions -----------------------------------------------------

type EventAddRequest struct {
	baseCommand
	SID            uint32
	DataType       Type
	DataCount      uint32
	SubscriptionID uint32
	Low, High, To  float32
	Mask           uint16
}

func (c *EventAddRequest) CommandName() string { return "EventAddRequest" }
func (c *EventAddRequest) CommandID() uint16    { return cmdEventAdd }
func (c *EventAddRequest) Direction() Direction { return Request }
func (c *EventAddRequest) HasPayload() bool     { return true }
func (c *EventAddRequest) Payload() []byte {
	buf := make([]byte, 16)
	putF32(buf[0:4], c.Low)
	putF32(buf[4:8], c.High)
	putF32(buf[8:12], c.To)
	putU16(buf[12:14], c.Mask)
	return buf
}
func (c *EventAddRequest) Header() Header {
	return Header{
		Command: cmdEventAdd, DataType: uint16(c.DataType), DataCount: c.DataCount,
		PayloadSize: 16, Parameter1: c.SID, Parameter2: c.SubscriptionID,
	}
}

type EventAddResponse struct {
	baseCommand
	DataType       Type
	DataCount      uint32
	Status         uint32
	SubscriptionID uint32
	payload        []byte
}

func NewEventAddResponse(dataType Type, count uint32, status, subID uint32, payload []byte) *EventAddResponse {
	return &EventAddResponse{DataType: dataType, DataCount: count, Status: status, SubscriptionID: subID, payload: payload}
}

func (c *EventAddResponse) CommandName() string { return "EventAddResponse" }
func (c *EventAddResponse) CommandID() uint16    { return cmdEventAdd }
func (c *EventAddResponse) Direction() Direction { return Response }
func (c *EventAddResponse) HasPayload() bool     { return true }
func (c *EventAddResponse) Payload() []byte      { return c.payload }
func (c *EventAddResponse) Header() Header {
	return Header{
		Command: cmdEventAdd, DataType: uint16(c.DataType), DataCount: c.DataCount,
		PayloadSize: uint32(len(c.payload)), Parameter1: c.Status, Parameter2: c.SubscriptionID,
	}
}

// EventCancelRequest and EventCancelResponse share command ID 2 and neither
// carries a payload as built here; ParseCommand treats a non-empty payload
// as a request and otherwise picks by the peer's role.
type EventCancelRequest struct {
	baseCommand
	SID            uint32
	DataType       Type
	SubscriptionID uint32
}

func (c *EventCancelRequest) CommandName() string { return "EventCancelRequest" }
func (c *EventCancelRequest) CommandID() uint16    { return cmdEventCancel }
func (c *EventCancelRequest) Direction() Direction { return Request }
func (c *EventCancelRequest) HasPayload() bool     { return false }
func (c *EventCancelRequest) Payload() []byte      { return nil }
func (c *EventCancelRequest) Header() Header {
	return Header{
		Command: cmdEventCancel, DataType: uint16(c.DataType), DataCount: 0,
		Parameter1: c.SID, Parameter2: c.SubscriptionID,
	}
}

type EventCancelResponse struct {
	baseCommand
	DataType       Type
	SubscriptionID uint32
}

func (c *EventCancelResponse) CommandName() string { return "EventCancelResponse" }
func (c *EventCancelResponse) CommandID() uint16    { return cmdEventCancel }
func (c *EventCancelResponse) Direction() Direction { return Response }
func (c *EventCancelResponse) HasPayload() bool     { return false }
func (c *EventCancelResponse) Payload() []byte      { return nil }
func (c *EventCancelResponse) Header() Header {
	return Header{Command: cmdEventCancel, DataType: uint16(c.DataType), Parameter2: c.SubscriptionID}
}

type EventsOffRequest struct{ baseCommand }

func (c *EventsOffRequest) CommandName() string { return "EventsOffRequest" }
func (c *EventsOffRequest) CommandID() uint16    { return cmdEventsOff }
func (c *EventsOffRequest) Direction() Direction { return Request }
func (c *EventsOffRequest) HasPayload() bool     { return false }
func (c *EventsOffRequest) Payload() []byte      { return nil }
func (c *EventsOffRequest) Header() Header       { return Header{Command: cmdEventsOff} }

type EventsOnRequest struct{ baseCommand }

func (c *EventsOnRequest) CommandName() string { return "EventsOnRequest" }
func (c *EventsOnRequest) CommandID() uint16    { return cmdEventsOn }
func (c *EventsOnRequest) Direction() Direction { return Request }
func (c *EventsOnRequest) HasPayload() bool     { return false }
func (c *EventsOnRequest) Payload() []byte      { return nil }
func (c *EventsOnRequest) Header() Header       { return Header{Command: cmdEventsOn} }

type ReadSyncRequest struct{ baseCommand }

func (c *ReadSyncRequest) CommandName() string { return "ReadSyncRequest" }
func (c *ReadSyncRequest) CommandID() uint16    { return cmdReadSync }
func (c *ReadSyncRequest) Direction() Direction { return Request }
func (c *ReadSyncRequest) HasPayload() bool     { return false }
func (c *ReadSyncRequest) Payload() []byte      { return nil }
func (c *ReadSyncRequest) Header() Header       { return Header{Command: cmdReadSync} }

// --- Misc ------------------------------------------------------------------

// EchoRequest/EchoResponse may originate from either role (spec §4.3).
type EchoRequest struct{ baseCommand }

func (c *EchoRequest) CommandName() string { return "EchoRequest" }
func (c *EchoRequest) CommandID() uint16    { return cmdEcho }
func (c *EchoRequest) Direction() Direction { return Request }
func (c *EchoRequest) HasPayload() bool     { return false }
func (c *EchoRequest) Payload() []byte      { return nil }
func (c *EchoRequest) Header() Header       { return Header{Command: cmdEcho} }

type EchoResponse struct{ baseCommand }

func (c *EchoResponse) CommandName() string { return "EchoResponse" }
func (c *EchoResponse) CommandID() uint16    { return cmdEcho }
func (c *EchoResponse) Direction() Direction { return Response }
func (c *EchoResponse) HasPayload() bool     { return false }
func (c *EchoResponse) Payload() []byte      { return nil }
func (c *EchoResponse) Header() Header       { return Header{Command: cmdEcho} }

// ErrorResponse reports that a RemoteProtocolError was observed for the
// command named by CID; the offending command's header follows as
// payload metadata per the real protocol, simplified here to the fields
// the core needs.
type ErrorResponse struct {
	baseCommand
	CID           uint32
	Status        uint32
	OriginalCmdID uint16
	Message       string
	payload       []byte
}

func NewErrorResponse(cid uint32, status uint32, originalCmdID uint16, message string) *ErrorResponse {
	buf := make([]byte, 16)
	putU16(buf[0:2], originalCmdID)
	buf = append(buf, putPaddedString(nil, message)...)
	return &ErrorResponse{CID: cid, Status: status, OriginalCmdID: originalCmdID, Message: message, payload: buf}
}

func (c *ErrorResponse) CommandName() string { return "ErrorResponse" }
func (c *ErrorResponse) CommandID() uint16    { return cmdError }
func (c *ErrorResponse) Direction() Direction { return Response }
func (c *ErrorResponse) HasPayload() bool     { return true }
func (c *ErrorResponse) Payload() []byte      { return c.payload }
func (c *ErrorResponse) Header() Header {
	return Header{Command: cmdError, PayloadSize: uint32(len(c.payload)), Parameter1: c.CID, Parameter2: c.Status}
}

func putU16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
func putF32(b []byte, v float32) {
	putU32(b, math.Float32bits(v))
}
