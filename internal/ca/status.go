package ca

import "fmt"

// Severity classifies a StatusCode's outcome. The low bit (Severity & 1)
// is the success bit: SUCCESS and INFO both report success.
type Severity int

const (
	SeverityWarning Severity = 0
	SeveritySuccess Severity = 1
	SeverityError   Severity = 2
	SeverityInfo    Severity = 3
	SeveritySevere  Severity = 4
	SeverityFatal   Severity = SeverityError | SeveritySevere
)

func (s Severity) Success() bool { return s&1 == 1 }

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeveritySuccess:
		return "SUCCESS"
	case SeverityError:
		return "ERROR"
	case SeverityInfo:
		return "INFO"
	case SeveritySevere:
		return "SEVERE"
	case SeverityFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// StatusCode is one entry of the closed ECA_* status/severity table. Code
// is the bare status number; CodeWithSeverity is the packed wire value
// per spec §4.2: (code<<3)&0xFFF8 | severity&0x0007.
type StatusCode struct {
	Name             string
	Code             int
	Severity         Severity
	CodeWithSeverity uint32
	Description      string
	Defunct          bool
}

func packStatus(code int, sev Severity) uint32 {
	return (uint32(code)<<3)&0xFFF8 | uint32(sev)&0x0007
}

func status(name string, code int, sev Severity, desc string, defunct bool) StatusCode {
	return StatusCode{
		Name:             name,
		Code:             code,
		Severity:         sev,
		CodeWithSeverity: packStatus(code, sev),
		Description:      desc,
		Defunct:          defunct,
	}
}

// The closed ECA_* status table, ported from caproto's _status.py. Codes
// marked Defunct are retained because an old server talking to a current
// client may still emit them.
var (
	ECA_NORMAL         = status("ECA_NORMAL", 0, SeveritySuccess, "Normal successful completion", false)
	ECA_MAXIOC         = status("ECA_MAXIOC", 1, SeverityError, "Maximum simultaneous IOC connections exceeded", true)
	ECA_UKNHOST        = status("ECA_UKNHOST", 2, SeverityError, "Unknown internet host", true)
	ECA_UKNSERV        = status("ECA_UKNSERV", 3, SeverityError, "Unknown internet service", true)
	ECA_SOCK           = status("ECA_SOCK", 4, SeverityError, "Unable to allocate a new socket", true)
	ECA_CONN           = status("ECA_CONN", 5, SeverityWarning, "Unable to connect to internet host or service", true)
	ECA_ALLOCMEM       = status("ECA_ALLOCMEM", 6, SeverityWarning, "Unable to allocate additional dynamic memory", false)
	ECA_UKNCHAN        = status("ECA_UKNCHAN", 7, SeverityWarning, "Unknown IO channel", true)
	ECA_UKNFIELD       = status("ECA_UKNFIELD", 8, SeverityWarning, "Record field specified inappropriate for channel specified", true)
	ECA_TOLARGE        = status("ECA_TOLARGE", 9, SeverityWarning, "The requested data transfer is greater than available memory or EPICS_CA_MAX_ARRAY_BYTES", false)
	ECA_TIMEOUT        = status("ECA_TIMEOUT", 10, SeverityWarning, "User specified timeout on IO operation expired", false)
	ECA_NOSUPPORT      = status("ECA_NOSUPPORT", 11, SeverityWarning, "Sorry, that feature is planned but not supported at this time", true)
	ECA_STRTOBIG       = status("ECA_STRTOBIG", 12, SeverityWarning, "The supplied string is unusually large", true)
	ECA_DISCONNCHID    = status("ECA_DISCONNCHID", 13, SeverityError, "The request was ignored because the specified channel is disconnected", true)
	ECA_BADTYPE        = status("ECA_BADTYPE", 14, SeverityError, "The data type specifed is invalid", false)
	ECA_CHIDNOTFND     = status("ECA_CHIDNOTFND", 15, SeverityInfo, "Remote Channel not found", true)
	ECA_CHIDRETRY      = status("ECA_CHIDRETRY", 16, SeverityInfo, "Unable to locate all user specified channels", true)
	ECA_INTERNAL       = status("ECA_INTERNAL", 17, SeverityFatal, "Channel Access Internal Failure", false)
	ECA_DBLCLFAIL      = status("ECA_DBLCLFAIL", 18, SeverityWarning, "The requested local DB operation failed", true)
	ECA_GETFAIL        = status("ECA_GETFAIL", 19, SeverityWarning, "Channel read request failed", false)
	ECA_PUTFAIL        = status("ECA_PUTFAIL", 20, SeverityWarning, "Channel write request failed", false)
	ECA_ADDFAIL        = status("ECA_ADDFAIL", 21, SeverityWarning, "Channel subscription request failed", true)
	ECA_BADCOUNT       = status("ECA_BADCOUNT", 22, SeverityWarning, "Invalid element count requested", false)
	ECA_BADSTR         = status("ECA_BADSTR", 23, SeverityError, "Invalid string", false)
	ECA_DISCONN        = status("ECA_DISCONN", 24, SeverityWarning, "Virtual circuit disconnect", false)
	ECA_DBLCHNL        = status("ECA_DBLCHNL", 25, SeverityWarning, "Identical process variable name on multiple servers", false)
	ECA_EVDISALLOW     = status("ECA_EVDISALLOW", 26, SeverityError, "Request inappropriate within subscription (monitor) update callback", false)
	ECA_BUILDGET       = status("ECA_BUILDGET", 27, SeverityWarning, "Database value get for that channel failed during channel search", true)
	ECA_NEEDSFP        = status("ECA_NEEDSFP", 28, SeverityWarning, "Unable to initialize without the vxWorks VX_FP_TASK option set", true)
	ECA_OVEVFAIL       = status("ECA_OVEVFAIL", 29, SeverityWarning, "Event queue overflow has prevented first pass event after event add", true)
	ECA_BADMONID       = status("ECA_BADMONID", 30, SeverityError, "Bad event subscription (monitor) identifier", false)
	ECA_NEWADDR        = status("ECA_NEWADDR", 31, SeverityWarning, "Remote channel has new network address", true)
	ECA_NEWCONN        = status("ECA_NEWCONN", 32, SeverityInfo, "New or resumed network connection", true)
	ECA_NOCACTX        = status("ECA_NOCACTX", 33, SeverityWarning, "Specified task isnt a member of a CA context", true)
	ECA_DEFUNCT        = status("ECA_DEFUNCT", 34, SeverityFatal, "Attempt to use defunct CA feature failed", true)
	ECA_EMPTYSTR       = status("ECA_EMPTYSTR", 35, SeverityWarning, "The supplied string is empty", true)
	ECA_NOREPEATER     = status("ECA_NOREPEATER", 36, SeverityWarning, "Unable to spawn the CA repeater thread; auto reconnect will fail", true)
	ECA_NOCHANMSG      = status("ECA_NOCHANMSG", 37, SeverityWarning, "No channel id match for search reply; search reply ignored", true)
	ECA_DLCKREST       = status("ECA_DLCKREST", 38, SeverityWarning, "Reseting dead connection; will try to reconnect", true)
	ECA_SERVBEHIND     = status("ECA_SERVBEHIND", 39, SeverityWarning, "Server (IOC) has fallen behind or is not responding; still waiting", true)
	ECA_NOCAST         = status("ECA_NOCAST", 40, SeverityWarning, "No internet interface with broadcast available", true)
	ECA_BADMASK        = status("ECA_BADMASK", 41, SeverityError, "Invalid event selection mask", false)
	ECA_IODONE         = status("ECA_IODONE", 42, SeverityInfo, "IO operations have completed", false)
	ECA_IOINPROGRESS   = status("ECA_IOINPROGRESS", 43, SeverityInfo, "IO operations are in progress", false)
	ECA_BADSYNCGRP     = status("ECA_BADSYNCGRP", 44, SeverityError, "Invalid synchronous group identifier", false)
	ECA_PUTCBINPROG    = status("ECA_PUTCBINPROG", 45, SeverityError, "Put callback timed out", false)
	ECA_NORDACCESS     = status("ECA_NORDACCESS", 46, SeverityWarning, "Read access denied", false)
	ECA_NOWTACCESS     = status("ECA_NOWTACCESS", 47, SeverityWarning, "Write access denied", false)
	ECA_ANACHRONISM    = status("ECA_ANACHRONISM", 48, SeverityError, "Requested feature is no longer supported", false)
	ECA_NOSEARCHADDR   = status("ECA_NOSEARCHADDR", 49, SeverityWarning, "Empty PV search address list", false)
	ECA_NOCONVERT      = status("ECA_NOCONVERT", 50, SeverityWarning, "No reasonable data conversion between client and server types", false)
	ECA_BADCHID        = status("ECA_BADCHID", 51, SeverityError, "Invalid channel identifier", false)
	ECA_BADFUNCPTR     = status("ECA_BADFUNCPTR", 52, SeverityError, "Invalid function pointer", false)
	ECA_ISATTACHED     = status("ECA_ISATTACHED", 53, SeverityWarning, "Thread is already attached to a client context", false)
	ECA_UNAVAILINSERV  = status("ECA_UNAVAILINSERV", 54, SeverityWarning, "Not supported by attached service", false)
	ECA_CHANDESTROY    = status("ECA_CHANDESTROY", 55, SeverityWarning, "User destroyed channel", false)
	ECA_BADPRIORITY    = status("ECA_BADPRIORITY", 56, SeverityError, "Invalid channel priority", false)
	ECA_NOTTHREADED    = status("ECA_NOTTHREADED", 57, SeverityError, "Preemptive callback not enabled - additional threads may not join context", false)
	ECA_16KARRAYCLIENT = status("ECA_16KARRAYCLIENT", 58, SeverityWarning, "Client's protocol revision does not support transfers exceeding 16k bytes", false)
	ECA_CONNSEQTMO     = status("ECA_CONNSEQTMO", 59, SeverityWarning, "Virtual circuit connection sequence aborted", false)
	ECA_UNRESPTMO      = status("ECA_UNRESPTMO", 60, SeverityWarning, "Virtual circuit unresponsive", false)
)

var statusByCodeWithSeverity map[uint32]StatusCode

func init() {
	all := []StatusCode{
		ECA_NORMAL, ECA_MAXIOC, ECA_UKNHOST, ECA_UKNSERV, ECA_SOCK, ECA_CONN,
		ECA_ALLOCMEM, ECA_UKNCHAN, ECA_UKNFIELD, ECA_TOLARGE, ECA_TIMEOUT,
		ECA_NOSUPPORT, ECA_STRTOBIG, ECA_DISCONNCHID, ECA_BADTYPE, ECA_CHIDNOTFND,
		ECA_CHIDRETRY, ECA_INTERNAL, ECA_DBLCLFAIL, ECA_GETFAIL, ECA_PUTFAIL,
		ECA_ADDFAIL, ECA_BADCOUNT, ECA_BADSTR, ECA_DISCONN, ECA_DBLCHNL,
		ECA_EVDISALLOW, ECA_BUILDGET, ECA_NEEDSFP, ECA_OVEVFAIL, ECA_BADMONID,
		ECA_NEWADDR, ECA_NEWCONN, ECA_NOCACTX, ECA_DEFUNCT, ECA_EMPTYSTR,
		ECA_NOREPEATER, ECA_NOCHANMSG, ECA_DLCKREST, ECA_SERVBEHIND, ECA_NOCAST,
		ECA_BADMASK, ECA_IODONE, ECA_IOINPROGRESS, ECA_BADSYNCGRP, ECA_PUTCBINPROG,
		ECA_NORDACCESS, ECA_NOWTACCESS, ECA_ANACHRONISM, ECA_NOSEARCHADDR, ECA_NOCONVERT,
		ECA_BADCHID, ECA_BADFUNCPTR, ECA_ISATTACHED, ECA_UNAVAILINSERV, ECA_CHANDESTROY,
		ECA_BADPRIORITY, ECA_NOTTHREADED, ECA_16KARRAYCLIENT, ECA_CONNSEQTMO, ECA_UNRESPTMO,
	}
	statusByCodeWithSeverity = make(map[uint32]StatusCode, len(all))
	for _, s := range all {
		statusByCodeWithSeverity[s.CodeWithSeverity] = s
	}
}

// StatusFromWire looks up the StatusCode matching a wire-packed
// code_with_severity value, as carried in a response header's Parameter1
// (ReadNotify, WriteNotify, EventAdd) or Parameter2 (ErrorResponse).
func StatusFromWire(codeWithSeverity uint32) (StatusCode, bool) {
	s, ok := statusByCodeWithSeverity[codeWithSeverity]
	return s, ok
}
