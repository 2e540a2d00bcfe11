package xbee

import (
	"bytes"
	"testing"
)

func TestATCommandRoundTrip(t *testing.T) {
	req := ATCommandRequest{FrameID: 1, Command: "D0"}
	var got ATCommandRequest
	if err := got.Parse(req.Format()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != req {
		t.Errorf("got %+v, want %+v", got, req)
	}

	resp := ATCommandResponse{FrameID: 1, Command: "D0", Status: ATStatusOK, Result: "ok"}
	var gotResp ATCommandResponse
	if err := gotResp.Parse(resp.Format()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if gotResp != resp {
		t.Errorf("got %+v, want %+v", gotResp, resp)
	}
}

func TestZBTransmitRequestDefaultsToBroadcast(t *testing.T) {
	req := NewZBTransmitRequest(5, []byte("payload"))
	if req.DstAddr64 != BroadcastAddr64 || req.DstAddr16 != BroadcastAddr16 {
		t.Fatalf("expected broadcast addresses, got %+v", req)
	}

	var got ZBTransmitRequest
	if err := got.Parse(req.Format()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(got.Data, req.Data) || got.DstAddr64 != req.DstAddr64 || got.DstAddr16 != req.DstAddr16 {
		t.Errorf("got %+v, want %+v", got, req)
	}
}

func TestZBTransmitStatusRoundTrip(t *testing.T) {
	status := ZBTransmitStatus{FrameID: 2, DstAddr16: 0x1234, RetryCount: 1, DeliveryStatus: DeliveryStatusSuccess}
	var got ZBTransmitStatus
	if err := got.Parse(status.Format()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != status {
		t.Errorf("got %+v, want %+v", got, status)
	}
}

func TestZBReceivePacketRoundTrip(t *testing.T) {
	pkt := ZBReceivePacket{SrcAddr64: 0xABCD, SrcAddr16: 0x1122, Data: []byte("hello")}
	var got ZBReceivePacket
	if err := got.Parse(pkt.Format()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.SrcAddr64 != pkt.SrcAddr64 || got.SrcAddr16 != pkt.SrcAddr16 || !bytes.Equal(got.Data, pkt.Data) {
		t.Errorf("got %+v, want %+v", got, pkt)
	}
}

func TestParseWrongTypeRejected(t *testing.T) {
	var req ATCommandRequest
	status := ZBTransmitStatus{}
	if err := req.Parse(status.Format()); err != ErrWrongType {
		t.Fatalf("err = %v, want ErrWrongType", err)
	}
}
