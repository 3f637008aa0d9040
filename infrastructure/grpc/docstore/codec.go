package docstore

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// CodecName is the content-subtype the document service speaks.
const CodecName = "structpb"

// Message is implemented by every request, response and stream message of
// the service. Documents hold free-form fields, so each message travels as a
// protobuf Struct rather than a fixed schema.
type Message interface {
	ToStruct() (*structpb.Struct, error)
}

type decodable interface {
	FromStruct(s *structpb.Struct) error
}

type structCodec struct{}

func (structCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("docstore codec: cannot marshal %T", v)
	}
	s, err := m.ToStruct()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (structCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(decodable)
	if !ok {
		return fmt.Errorf("docstore codec: cannot unmarshal into %T", v)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	return m.FromStruct(&s)
}

func (structCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(structCodec{})
}
