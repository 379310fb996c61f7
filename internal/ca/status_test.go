package ca

import "testing"

func TestPackStatusMatchesWireFormula(t *testing.T) {
	cases := []struct {
		code int
		sev  Severity
		want uint32
	}{
		{0, SeveritySuccess, 1},
		{1, SeverityError, (1 << 3) | 2},
		{7, SeverityWarning, 7 << 3},
		{10, SeverityInfo, (10 << 3) | 3},
	}
	for _, c := range cases {
		if got := packStatus(c.code, c.sev); got != c.want {
			t.Errorf("packStatus(%d, %v) = %d, want %d", c.code, c.sev, got, c.want)
		}
	}
}

func TestSeveritySuccessBit(t *testing.T) {
	if !SeveritySuccess.Success() {
		t.Error("SeveritySuccess should report success")
	}
	if !SeverityInfo.Success() {
		t.Error("SeverityInfo should report success (low bit set)")
	}
	if SeverityError.Success() {
		t.Error("SeverityError should not report success")
	}
	if SeverityWarning.Success() {
		t.Error("SeverityWarning should not report success")
	}
}

func TestStatusFromWireRoundTrip(t *testing.T) {
	s, ok := StatusFromWire(ECA_NORMAL.CodeWithSeverity)
	if !ok {
		t.Fatal("expected ECA_NORMAL to be found by its wire value")
	}
	if s.Name != "ECA_NORMAL" {
		t.Errorf("got %s, want ECA_NORMAL", s.Name)
	}

	if _, ok := StatusFromWire(0xDEADBEEF); ok {
		t.Error("expected an unrecognized wire value to miss")
	}
}

func TestEveryStatusCodeHasAUniqueWireValue(t *testing.T) {
	seen := make(map[uint32]string)
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
	for _, s := range all {
		if prev, dup := seen[s.CodeWithSeverity]; dup {
			t.Errorf("%s and %s collide on wire value %d", s.Name, prev, s.CodeWithSeverity)
		}
		seen[s.CodeWithSeverity] = s.Name
	}
}
