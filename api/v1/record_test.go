package log_v1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecordRoundTrip(t *testing.T) {
	want := &Record{
		Value:  []byte("hello world"),
		Offset: 42,
	}

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	got := &Record{}
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)

	// a zero record encodes to nothing and decodes back to zero
	empty := &Record{}
	b, err = empty.MarshalBinary()
	require.NoError(t, err)
	require.Empty(t, b)

	got = &Record{Value: []byte("stale"), Offset: 7}
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, empty, got)
}

func TestRequestRoundTrip(t *testing.T) {
	req := &ProduceRequest{
		Record: &Record{Value: []byte{1, 2, 3}, Offset: 9},
	}

	b, err := req.MarshalBinary()
	require.NoError(t, err)

	gotReq := &ProduceRequest{}
	require.NoError(t, gotReq.UnmarshalBinary(b))
	require.Equal(t, req, gotReq)

	res := &ConsumeResponse{
		Record: &Record{Value: []byte("payload")},
	}

	b, err = res.MarshalBinary()
	require.NoError(t, err)

	gotRes := &ConsumeResponse{}
	require.NoError(t, gotRes.UnmarshalBinary(b))
	require.Equal(t, res, gotRes)
}

func TestErrOffsetOutOfRange(t *testing.T) {
	err := ErrOffsetOutOfRange{Offset: 17}

	require.True(t, strings.Contains(err.Error(), "out of range"))
	require.Equal(t, codes.OutOfRange, status.Code(err))
}
