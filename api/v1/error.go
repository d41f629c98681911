package log_v1

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

type ErrOffsetOutOfRange struct {
	Offset uint64
}

// GRPCStatus returns the error as a grpc.Status: an OutOfRange status whose
// description names the offending offset, with a localized message attached
// for human consumption.
func (e ErrOffsetOutOfRange) GRPCStatus() *status.Status {
	st := status.New(
		codes.OutOfRange,
		fmt.Sprintf("offset %d out of range", e.Offset),
	)

	msg := fmt.Sprintf(
		"The requested offset is outside the log's range: %d",
		e.Offset,
	)

	d := &errdetails.LocalizedMessage{
		Locale:  "en-US",
		Message: msg,
	}
	std, err := st.WithDetails(d)
	if err != nil {
		return st
	}

	return std
}

// Error implements the error interface. It returns the result of calling
// GRPCStatus().Err().Error().
func (e ErrOffsetOutOfRange) Error() string {
	return e.GRPCStatus().Err().Error()
}
