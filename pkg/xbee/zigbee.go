package xbee

import "encoding/binary"

// ZBTransmitRequest sends data to a remote ZigBee node, or to every
// node on the PAN when DstAddr64/DstAddr16 hold the broadcast
// addresses that NewZBTransmitRequest sets. A zero-value request is
// addressed to 0, not to broadcast.
type ZBTransmitRequest struct {
	FrameID     uint8
	DstAddr64   uint64 // BroadcastAddr64 via NewZBTransmitRequest
	DstAddr16   uint16 // BroadcastAddr16 via NewZBTransmitRequest
	BcastRadius uint8
	Options     uint8
	Data        []byte
}

// NewZBTransmitRequest returns a ZBTransmitRequest addressed to the
// broadcast address, matching the radio's own defaults.
func NewZBTransmitRequest(frameID uint8, data []byte) ZBTransmitRequest {
	return ZBTransmitRequest{
		FrameID:   frameID,
		DstAddr64: BroadcastAddr64,
		DstAddr16: BroadcastAddr16,
		Data:      data,
	}
}

// FrameType implements Payload.
func (ZBTransmitRequest) FrameType() byte { return ZBTransmitRequestType }

// Format implements Payload.
func (r ZBTransmitRequest) Format() []byte {
	buf := make([]byte, 14+len(r.Data))
	buf[0] = ZBTransmitRequestType
	buf[1] = r.FrameID
	binary.BigEndian.PutUint64(buf[2:10], r.DstAddr64)
	binary.BigEndian.PutUint16(buf[10:12], r.DstAddr16)
	buf[12] = r.BcastRadius
	buf[13] = r.Options
	copy(buf[14:], r.Data)
	return buf
}

// Parse implements Payload.
func (r *ZBTransmitRequest) Parse(buf []byte) error {
	if len(buf) < 14 {
		return ErrShortPayload
	}
	if buf[0] != ZBTransmitRequestType {
		return ErrWrongType
	}
	r.FrameID = buf[1]
	r.DstAddr64 = binary.BigEndian.Uint64(buf[2:10])
	r.DstAddr16 = binary.BigEndian.Uint16(buf[10:12])
	r.BcastRadius = buf[12]
	r.Options = buf[13]
	r.Data = append([]byte(nil), buf[14:]...)
	return nil
}

// ZigBee delivery status codes (ZBTransmitStatus.DeliveryStatus).
const (
	DeliveryStatusSuccess        = 0x00
	DeliveryStatusMACFailure     = 0x01
	DeliveryStatusNoAck          = 0x21
	DeliveryStatusNetworkACKFail = 0x22
)

// ZBTransmitStatus reports the outcome of a previous ZBTransmitRequest.
type ZBTransmitStatus struct {
	FrameID         uint8
	DstAddr16       uint16
	RetryCount      uint8
	DeliveryStatus  uint8
	DiscoveryStatus uint8
}

// FrameType implements Payload.
func (ZBTransmitStatus) FrameType() byte { return ZBTransmitStatusType }

// Format implements Payload.
func (s ZBTransmitStatus) Format() []byte {
	buf := make([]byte, 6)
	buf[0] = ZBTransmitStatusType
	buf[1] = s.FrameID
	binary.BigEndian.PutUint16(buf[2:4], s.DstAddr16)
	buf[4] = s.RetryCount
	buf[5] = s.DeliveryStatus
	return append(buf, s.DiscoveryStatus)
}

// Parse implements Payload.
func (s *ZBTransmitStatus) Parse(buf []byte) error {
	if len(buf) < 7 {
		return ErrShortPayload
	}
	if buf[0] != ZBTransmitStatusType {
		return ErrWrongType
	}
	s.FrameID = buf[1]
	s.DstAddr16 = binary.BigEndian.Uint16(buf[2:4])
	s.RetryCount = buf[4]
	s.DeliveryStatus = buf[5]
	s.DiscoveryStatus = buf[6]
	return nil
}

// ZBReceivePacket is delivered by the radio when a remote node sends
// data addressed to this device. Unlike the request/status frames it
// carries no frame ID since it is never acknowledged.
type ZBReceivePacket struct {
	SrcAddr64 uint64
	SrcAddr16 uint16
	Options   uint8
	Data      []byte
}

// FrameType implements Payload.
func (ZBReceivePacket) FrameType() byte { return ZBReceivePacketType }

// Format implements Payload.
func (p ZBReceivePacket) Format() []byte {
	buf := make([]byte, 12+len(p.Data))
	buf[0] = ZBReceivePacketType
	binary.BigEndian.PutUint64(buf[1:9], p.SrcAddr64)
	binary.BigEndian.PutUint16(buf[9:11], p.SrcAddr16)
	buf[11] = p.Options
	copy(buf[12:], p.Data)
	return buf
}

// Parse implements Payload.
func (p *ZBReceivePacket) Parse(buf []byte) error {
	if len(buf) < 12 {
		return ErrShortPayload
	}
	if buf[0] != ZBReceivePacketType {
		return ErrWrongType
	}
	p.SrcAddr64 = binary.BigEndian.Uint64(buf[1:9])
	p.SrcAddr16 = binary.BigEndian.Uint16(buf[9:11])
	p.Options = buf[11]
	p.Data = append([]byte(nil), buf[12:]...)
	return nil
}

var (
	_ Payload = &ZBTransmitRequest{}
	_ Payload = &ZBTransmitStatus{}
	_ Payload = &ZBReceivePacket{}
)
