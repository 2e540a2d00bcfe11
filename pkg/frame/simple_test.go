package frame

import (
	"bytes"
	"testing"
)

func TestSimpleCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		intent  int
		payload []byte
	}{
		{"empty", 0, nil},
		{"short", 7, []byte("hi")},
		{"max length", 1, bytes.Repeat([]byte{0x42}, simpleMaxLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SimpleCodec{}
			encoded, err := c.Format(tt.intent, tt.payload)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}

			payload, intent, consumed, result := c.Parse(encoded)
			if result != Success {
				t.Fatalf("Parse result = %v, want Success", result)
			}
			if consumed != len(encoded) {
				t.Errorf("consumed = %d, want %d", consumed, len(encoded))
			}
			if intent != tt.intent {
				t.Errorf("intent = %d, want %d", intent, tt.intent)
			}
			if !bytes.Equal(payload, tt.payload) && !(len(payload) == 0 && len(tt.payload) == 0) {
				t.Errorf("payload = %v, want %v", payload, tt.payload)
			}
		})
	}
}

func TestSimpleCodecPayloadTooLarge(t *testing.T) {
	c := SimpleCodec{}
	_, err := c.Format(0, make([]byte, simpleMaxLen+1))
	if err != ErrPayloadTooLarge {
		t.Fatalf("Format err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestSimpleCodecIncomplete(t *testing.T) {
	c := SimpleCodec{}
	full, _ := c.Format(3, []byte("payload"))

	for i := 0; i < len(full); i++ {
		_, _, _, result := c.Parse(full[:i])
		if result != Incomplete {
			t.Fatalf("Parse(%d bytes) result = %v, want Incomplete", i, result)
		}
	}
}

func TestSimpleCodecBadChecksumResyncsOneByte(t *testing.T) {
	c := SimpleCodec{}
	full, _ := c.Format(3, []byte("payload"))
	corrupt := append([]byte(nil), full...)
	corrupt[len(corrupt)-1] ^= 0xFF // flip the checksum byte

	_, _, consumed, result := c.Parse(corrupt)
	if result != BadChecksum {
		t.Fatalf("Parse result = %v, want BadChecksum", result)
	}
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}
}

func TestSimpleCodecResyncRecoversFollowingFrames(t *testing.T) {
	c := SimpleCodec{}
	first, _ := c.Format(1, []byte("one"))
	corrupt, _ := c.Format(2, []byte("two"))
	corrupt[len(corrupt)-1] ^= 0xFF
	second, _ := c.Format(3, []byte("three"))

	stream := append(append(append([]byte(nil), first...), corrupt...), second...)

	var results []ParseResult
	var intents []int
	for len(stream) > 0 {
		_, intent, consumed, result := c.Parse(stream)
		if result == Incomplete {
			break
		}
		results = append(results, result)
		if result == Success {
			intents = append(intents, intent)
		}
		stream = stream[consumed:]
	}

	if len(results) < 3 || results[0] != Success || results[len(results)-1] != Success {
		t.Fatalf("result sequence = %v", results)
	}
	var badCount int
	for _, r := range results[1 : len(results)-1] {
		if r != BadChecksum {
			t.Fatalf("result sequence = %v", results)
		}
		badCount++
	}
	if badCount == 0 {
		t.Fatalf("corrupted frame never reported: %v", results)
	}
	if len(intents) != 2 || intents[0] != 1 || intents[1] != 3 {
		t.Fatalf("recovered intents = %v, want [1 3]", intents)
	}
}

func TestSimpleCodecSkipsNoiseBeforeSignature(t *testing.T) {
	c := SimpleCodec{}
	full, _ := c.Format(1, []byte("x"))
	noisy := append([]byte{0x01, 0x02, 0x03}, full...)

	_, _, consumed, result := c.Parse(noisy)
	if result != Success {
		t.Fatalf("Parse result = %v, want Success", result)
	}
	if consumed != len(noisy) {
		t.Errorf("consumed = %d, want %d", consumed, len(noisy))
	}
}
