package log_v1

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire schema for the log.v1 messages. The types below hand-implement the
// protobuf encoding through the protowire primitives so the on-wire bytes
// stay compatible with:
//
//	message Record          { bytes value = 1; uint64 offset = 2; }
//	message ProduceRequest  { Record record = 1; }
//	message ProduceResponse { uint64 offset = 1; }
//	message ConsumeRequest  { uint64 offset = 1; }
//	message ConsumeResponse { Record record = 2; }
//
// Every message satisfies encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler, which is the contract the gRPC codec in
// service.go and the storage engine's segment codec both rely on.

type Record struct {
	Value  []byte
	Offset uint64
}

func (r *Record) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, len(r.Value)+2*protowire.SizeVarint(r.Offset)+2)
	if len(r.Value) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Value)
	}
	if r.Offset != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, r.Offset)
	}
	return b, nil
}

func (r *Record) UnmarshalBinary(data []byte) error {
	*r = Record{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Value = append([]byte(nil), v...)
			data = data[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Offset = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

type ProduceRequest struct {
	Record *Record
}

func (m *ProduceRequest) MarshalBinary() ([]byte, error) {
	var b []byte
	if m.Record != nil {
		p, err := m.Record.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, p)
	}
	return b, nil
}

func (m *ProduceRequest) UnmarshalBinary(data []byte) error {
	*m = ProduceRequest{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 && typ == protowire.BytesType {
			m.Record = new(Record)
			return m.Record.UnmarshalBinary(v)
		}
		return nil
	})
}

type ProduceResponse struct {
	Offset uint64
}

func (m *ProduceResponse) MarshalBinary() ([]byte, error) {
	return appendOffset(nil, m.Offset), nil
}

func (m *ProduceResponse) UnmarshalBinary(data []byte) error {
	off, err := consumeOffset(data)
	*m = ProduceResponse{Offset: off}
	return err
}

type ConsumeRequest struct {
	Offset uint64
}

func (m *ConsumeRequest) MarshalBinary() ([]byte, error) {
	return appendOffset(nil, m.Offset), nil
}

func (m *ConsumeRequest) UnmarshalBinary(data []byte) error {
	off, err := consumeOffset(data)
	*m = ConsumeRequest{Offset: off}
	return err
}

type ConsumeResponse struct {
	Record *Record
}

func (m *ConsumeResponse) MarshalBinary() ([]byte, error) {
	var b []byte
	if m.Record != nil {
		p, err := m.Record.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, p)
	}
	return b, nil
}

func (m *ConsumeResponse) UnmarshalBinary(data []byte) error {
	*m = ConsumeResponse{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 2 && typ == protowire.BytesType {
			m.Record = new(Record)
			return m.Record.UnmarshalBinary(v)
		}
		return nil
	})
}

// appendOffset encodes a single uint64 field 1, omitted when zero.
func appendOffset(b []byte, off uint64) []byte {
	if off == 0 {
		return b
	}
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	return protowire.AppendVarint(b, off)
}

// consumeOffset decodes a message whose only known field is a uint64 at
// field 1; unknown fields are skipped.
func consumeOffset(data []byte) (uint64, error) {
	var off uint64
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 && typ == protowire.VarintType {
			u, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			off = u
		}
		return nil
	})
	return off, err
}

// consumeFields walks every field in data and hands the raw field bytes of
// BytesType and VarintType fields to fn: the value bytes for BytesType
// fields, the encoded varint bytes for VarintType fields. Fields of other
// wire types are skipped without calling fn.
func consumeFields(data []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		var v []byte
		switch typ {
		case protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v = b
			data = data[n:]
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v = data[:n]
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}
