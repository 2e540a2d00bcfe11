package xbee

// ATCommandRequest asks the local radio to run an AT command.
type ATCommandRequest struct {
	FrameID uint8
	Command string
}

// FrameType implements Payload.
func (ATCommandRequest) FrameType() byte { return ATCommandRequestType }

// Format implements Payload.
func (r ATCommandRequest) Format() []byte {
	buf := make([]byte, 2+len(r.Command))
	buf[0] = ATCommandRequestType
	buf[1] = r.FrameID
	copy(buf[2:], r.Command)
	return buf
}

// Parse implements Payload.
func (r *ATCommandRequest) Parse(buf []byte) error {
	if len(buf) < 2 {
		return ErrShortPayload
	}
	if buf[0] != ATCommandRequestType {
		return ErrWrongType
	}
	r.FrameID = buf[1]
	r.Command = string(buf[2:])
	return nil
}

// ATCommandResponse reports the result of a previously issued AT command.
type ATCommandResponse struct {
	FrameID uint8
	Command string // always exactly two characters
	Status  uint8
	Result  string
}

// AT command status codes.
const (
	ATStatusOK             = 0x00
	ATStatusError          = 0x01
	ATStatusInvalidCommand = 0x02
	ATStatusInvalidParam   = 0x03
)

// FrameType implements Payload.
func (ATCommandResponse) FrameType() byte { return ATCommandResponseType }

// Format implements Payload.
func (r ATCommandResponse) Format() []byte {
	buf := make([]byte, 5+len(r.Result))
	buf[0] = ATCommandResponseType
	buf[1] = r.FrameID
	copy(buf[2:4], r.Command)
	buf[4] = r.Status
	copy(buf[5:], r.Result)
	return buf
}

// Parse implements Payload.
func (r *ATCommandResponse) Parse(buf []byte) error {
	if len(buf) < 5 {
		return ErrShortPayload
	}
	if buf[0] != ATCommandResponseType {
		return ErrWrongType
	}
	r.FrameID = buf[1]
	r.Command = string(buf[2:4])
	r.Status = buf[4]
	r.Result = string(buf[5:])
	return nil
}

var (
	_ Payload = &ATCommandRequest{}
	_ Payload = &ATCommandResponse{}
)
