package client

import (
	"chat-wall/domain/document"
	"chat-wall/errors"
	"chat-wall/infrastructure/grpc/docstore"
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// DocumentClient is the remote document store, reached over gRPC.
// Every call carries the project id the client was built for.
type DocumentClient struct {
	client  docstore.DocumentServiceClient
	project string
	log     *slog.Logger
}

func NewDocumentClient(conn grpc.ClientConnInterface, project string, log *slog.Logger) *DocumentClient {
	return &DocumentClient{client: docstore.NewDocumentServiceClient(conn), project: project, log: log}
}

func (c *DocumentClient) Insert(ctx context.Context, collection string, fields document.Fields) (document.Document, error) {
	resp, err := c.client.Insert(c.scoped(ctx), &docstore.InsertRequest{Collection: collection, Fields: fields})
	if err != nil {
		return document.Document{}, errors.FromGRPCError(err)
	}
	return resp.Document, nil
}

func (c *DocumentClient) List(ctx context.Context, collection string) ([]document.Document, error) {
	resp, err := c.client.List(c.scoped(ctx), &docstore.ListRequest{Collection: collection})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Documents, nil
}

func (c *DocumentClient) Merge(ctx context.Context, collection, id string, fields document.Fields) (document.Document, error) {
	resp, err := c.client.Merge(c.scoped(ctx), &docstore.MergeRequest{Collection: collection, ID: id, Fields: fields})
	if err != nil {
		return document.Document{}, errors.FromGRPCError(err)
	}
	return resp.Document, nil
}

func (c *DocumentClient) Delete(ctx context.Context, collection, id string) error {
	_, err := c.client.Delete(c.scoped(ctx), &docstore.DeleteRequest{Collection: collection, ID: id})
	return errors.FromGRPCError(err)
}

// Listen opens the server stream and hands every batch to listener.
// It returns nil once ctx is done, ErrSubscriptionClosed if the server ended the stream.
func (c *DocumentClient) Listen(ctx context.Context, collection string, listener document.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.client.Listen(c.scoped(ctx), &docstore.ListenRequest{Collection: collection})
	if err != nil {
		return errors.FromGRPCError(err)
	}
	for {
		batch, err := stream.Recv()
		if ctx.Err() != nil {
			return nil
		}
		if stderrors.Is(err, io.EOF) {
			return errors.ErrSubscriptionClosed
		}
		if err != nil {
			return errors.FromGRPCError(err)
		}
		if err = listener(*batch); err != nil {
			return err
		}
	}
}

func (c *DocumentClient) scoped(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, docstore.ProjectHeader, c.project)
}
