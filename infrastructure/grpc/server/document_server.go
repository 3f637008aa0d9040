package server

import (
	"chat-wall/contract"
	"chat-wall/domain/document"
	"chat-wall/errors"
	"chat-wall/infrastructure/grpc/docstore"
	"context"
	"log/slog"
)

// DocumentServer exposes a document store over gRPC.
// Project scoping is enforced by ProjectInterceptor before any call lands here.
type DocumentServer struct {
	store contract.DocumentStore
	log   *slog.Logger
}

func NewDocumentServer(store contract.DocumentStore, log *slog.Logger) *DocumentServer {
	return &DocumentServer{store: store, log: log}
}

func (s *DocumentServer) Insert(ctx context.Context, req *docstore.InsertRequest) (*docstore.DocumentResponse, error) {
	doc, err := s.store.Insert(ctx, req.Collection, req.Fields)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &docstore.DocumentResponse{Document: doc}, nil
}

func (s *DocumentServer) List(ctx context.Context, req *docstore.ListRequest) (*docstore.ListResponse, error) {
	docs, err := s.store.List(ctx, req.Collection)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &docstore.ListResponse{Documents: docs}, nil
}

func (s *DocumentServer) Merge(ctx context.Context, req *docstore.MergeRequest) (*docstore.DocumentResponse, error) {
	doc, err := s.store.Merge(ctx, req.Collection, req.ID, req.Fields)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &docstore.DocumentResponse{Document: doc}, nil
}

func (s *DocumentServer) Delete(ctx context.Context, req *docstore.DeleteRequest) (*docstore.DeleteResponse, error) {
	if err := s.store.Delete(ctx, req.Collection, req.ID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &docstore.DeleteResponse{}, nil
}

// Listen streams the snapshot then every change of the collection.
// It blocks until the client goes away or the store closes the feed.
func (s *DocumentServer) Listen(req *docstore.ListenRequest, stream docstore.DocumentService_ListenServer) error {
	ctx := stream.Context()
	s.log.Debug("Listen opened", "collection", req.Collection)

	err := s.store.Listen(ctx, req.Collection, func(batch document.Batch) error {
		return stream.Send(&batch)
	})
	if err != nil {
		s.log.Warn("Listen closed", "collection", req.Collection, "error", err)
		return errors.MapToGRPCError(err)
	}
	s.log.Debug("Client disconnected", "collection", req.Collection)
	return nil
}
