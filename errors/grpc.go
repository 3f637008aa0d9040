package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError turns a store error into a gRPC status for the wire.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrProjectMismatch):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrSubscriptionClosed):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrInvalidDraft):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError is the client side of MapToGRPCError: known codes come back
// as the sentinel they were built from.
func FromGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrProjectMismatch, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrSubscriptionClosed, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidDraft, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}
