package journal

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Serializer turns entries into bucket values and back.
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

// GobSerializer implements Serializer with encoding/gob.
type GobSerializer struct{}

func (s *GobSerializer) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer) Deserialize(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// CBORSerializer implements Serializer with CBOR. Times keep nanoseconds.
type CBORSerializer struct {
	enc cbor.EncMode
}

func NewCBORSerializer() (*CBORSerializer, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}
	return &CBORSerializer{enc: enc}, nil
}

func (s *CBORSerializer) Serialize(v interface{}) ([]byte, error) {
	return s.enc.Marshal(v)
}

func (s *CBORSerializer) Deserialize(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
