package server

import (
	"chat-wall/errors"
	"chat-wall/infrastructure/grpc/docstore"
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ProjectInterceptor rejects unary calls that don't target the project the store serves.
func ProjectInterceptor(project string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := checkProject(ctx, project); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// ProjectStreamInterceptor is ProjectInterceptor for the Listen stream.
func ProjectStreamInterceptor(project string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkProject(ss.Context(), project); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkProject(ctx context.Context, project string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get(docstore.ProjectHeader)
	if len(values) == 0 {
		return status.Error(codes.Unauthenticated, "project id is missing")
	}
	if values[0] != project {
		return errors.MapToGRPCError(fmt.Errorf("%w: %q", errors.ErrProjectMismatch, values[0]))
	}
	return nil
}

// UnaryLoggingInterceptor logs every unary call with its duration and status code.
func UnaryLoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("gRPC call", "method", info.FullMethod, "code", status.Code(err).String(), "in", time.Since(start))
		return resp, err
	}
}
