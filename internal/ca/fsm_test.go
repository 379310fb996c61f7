package ca

import "testing"

func TestCircuitTransitionClientHandshake(t *testing.T) {
	state := CircuitSendVersionRequest
	state, err := circuitTransition(state, CLIENT, CLIENT, cmdVersion)
	if err != nil || state != CircuitAwaitingVersionResponse {
		t.Fatalf("sending VersionRequest: state=%v err=%v", state, err)
	}
	state, err = circuitTransition(state, SERVER, CLIENT, cmdVersion)
	if err != nil || state != CircuitConnected {
		t.Fatalf("receiving VersionResponse: state=%v err=%v", state, err)
	}
}

func TestCircuitTransitionServerHandshake(t *testing.T) {
	state := CircuitIdle
	state, err := circuitTransition(state, CLIENT, SERVER, cmdVersion)
	if err != nil || state != CircuitSendVersionResponse {
		t.Fatalf("receiving VersionRequest: state=%v err=%v", state, err)
	}
	state, err = circuitTransition(state, SERVER, SERVER, cmdVersion)
	if err != nil || state != CircuitConnected {
		t.Fatalf("sending VersionResponse: state=%v err=%v", state, err)
	}
}

func TestCircuitTransitionRejectsOutOfOrderCommand(t *testing.T) {
	_, err := circuitTransition(CircuitSendVersionRequest, CLIENT, CLIENT, cmdCreateChan)
	if err == nil {
		t.Fatal("expected an error sending CreateChanRequest before the version handshake completes")
	}
}

func TestCircuitTransitionDisconnectedIsTerminal(t *testing.T) {
	_, err := circuitTransition(CircuitDisconnected, CLIENT, CLIENT, cmdVersion)
	if err == nil {
		t.Fatal("expected disconnected circuit to reject any command")
	}
}

func TestCircuitTransitionConnectedAcceptsOrdinaryCommands(t *testing.T) {
	state, err := circuitTransition(CircuitConnected, CLIENT, CLIENT, cmdReadNotify)
	if err != nil || state != CircuitConnected {
		t.Fatalf("state=%v err=%v", state, err)
	}
}

func TestChannelTransitionClientCreateChanHappyPath(t *testing.T) {
	state := ChannelSendCreateChanRequest
	state, err := channelTransition(state, CLIENT, CLIENT, cmdCreateChan)
	if err != nil || state != ChannelAwaitCreateChanResponse {
		t.Fatalf("sending CreateChanRequest: state=%v err=%v", state, err)
	}
	state, err = channelTransition(state, SERVER, CLIENT, cmdCreateChan)
	if err != nil || state != ChannelConnected {
		t.Fatalf("receiving CreateChanResponse: state=%v err=%v", state, err)
	}
}

func TestChannelTransitionCreateChanFailure(t *testing.T) {
	state, err := channelTransition(ChannelAwaitCreateChanResponse, SERVER, CLIENT, cmdCreateChFail)
	if err != nil || state != ChannelFailed {
		t.Fatalf("state=%v err=%v", state, err)
	}
	if _, err := channelTransition(state, CLIENT, CLIENT, cmdReadNotify); err == nil {
		t.Fatal("expected a failed channel to reject further commands")
	}
}

func TestChannelTransitionConnectedToClearToClosed(t *testing.T) {
	state := ChannelConnected
	state, err := channelTransition(state, CLIENT, CLIENT, cmdClearChannel)
	if err != nil || state != ChannelMustClose {
		t.Fatalf("sending ClearChannelRequest: state=%v err=%v", state, err)
	}
	state, err = channelTransition(state, SERVER, CLIENT, cmdClearChannel)
	if err != nil || state != ChannelClosed {
		t.Fatalf("receiving ClearChannelResponse: state=%v err=%v", state, err)
	}
	if _, err := channelTransition(state, CLIENT, CLIENT, cmdReadNotify); err == nil {
		t.Fatal("expected a closed channel to reject further commands")
	}
}

func TestChannelTransitionServerDisconnClosesImmediately(t *testing.T) {
	state, err := channelTransition(ChannelConnected, SERVER, CLIENT, cmdServerDisconn)
	if err != nil || state != ChannelClosed {
		t.Fatalf("state=%v err=%v", state, err)
	}
}

func TestConnectedChannelCommandsTableCoversReadWriteSubscribe(t *testing.T) {
	for _, cmd := range []uint16{cmdReadNotify, cmdWriteNotify, cmdEventAdd, cmdClearChannel, cmdWrite, cmdRead} {
		if !connectedChannelCommands[cmd] {
			t.Errorf("expected command %d to require a CONNECTED channel", cmd)
		}
	}
	if connectedChannelCommands[cmdEcho] {
		t.Error("EchoRequest should not require a CONNECTED channel")
	}
}
