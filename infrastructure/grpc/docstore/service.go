// Package docstore describes the DocumentService exposed by the docstore
// binary. Messages travel as protobuf Structs through the codec of this package.
package docstore

import (
	"chat-wall/domain/document"
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "docstore.v1.DocumentService"

	DocumentService_Insert_FullMethodName = "/docstore.v1.DocumentService/Insert"
	DocumentService_List_FullMethodName   = "/docstore.v1.DocumentService/List"
	DocumentService_Merge_FullMethodName  = "/docstore.v1.DocumentService/Merge"
	DocumentService_Delete_FullMethodName = "/docstore.v1.DocumentService/Delete"
	DocumentService_Listen_FullMethodName = "/docstore.v1.DocumentService/Listen"

	// ProjectHeader carries the project id every call is scoped to.
	ProjectHeader = "x-project-id"
)

type DocumentService_ListenServer = grpc.ServerStreamingServer[document.Batch]
type DocumentService_ListenClient = grpc.ServerStreamingClient[document.Batch]

type DocumentServiceServer interface {
	Insert(context.Context, *InsertRequest) (*DocumentResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Merge(context.Context, *MergeRequest) (*DocumentResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	Listen(*ListenRequest, DocumentService_ListenServer) error
}

func RegisterDocumentServiceServer(s grpc.ServiceRegistrar, srv DocumentServiceServer) {
	s.RegisterService(&DocumentService_ServiceDesc, srv)
}

var DocumentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Insert",
			Handler:    unaryHandler(DocumentService_Insert_FullMethodName, DocumentServiceServer.Insert),
		},
		{
			MethodName: "List",
			Handler:    unaryHandler(DocumentService_List_FullMethodName, DocumentServiceServer.List),
		},
		{
			MethodName: "Merge",
			Handler:    unaryHandler(DocumentService_Merge_FullMethodName, DocumentServiceServer.Merge),
		},
		{
			MethodName: "Delete",
			Handler:    unaryHandler(DocumentService_Delete_FullMethodName, DocumentServiceServer.Delete),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Listen",
			Handler:       listenHandler,
			ServerStreams: true,
		},
	},
	Metadata: "docstore/v1/document_service",
}

func unaryHandler[Req, Resp any](fullMethod string,
	call func(DocumentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DocumentServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func listenHandler(srv any, stream grpc.ServerStream) error {
	in := new(ListenRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DocumentServiceServer).Listen(in, &grpc.GenericServerStream[ListenRequest, document.Batch]{ServerStream: stream})
}

type DocumentServiceClient interface {
	Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*DocumentResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Merge(ctx context.Context, in *MergeRequest, opts ...grpc.CallOption) (*DocumentResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	Listen(ctx context.Context, in *ListenRequest, opts ...grpc.CallOption) (DocumentService_ListenClient, error)
}

type documentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentServiceClient(cc grpc.ClientConnInterface) DocumentServiceClient {
	return &documentServiceClient{cc}
}

func (c *documentServiceClient) Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*DocumentResponse, error) {
	out := new(DocumentResponse)
	if err := c.cc.Invoke(ctx, DocumentService_Insert_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	if err := c.cc.Invoke(ctx, DocumentService_List_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentServiceClient) Merge(ctx context.Context, in *MergeRequest, opts ...grpc.CallOption) (*DocumentResponse, error) {
	out := new(DocumentResponse)
	if err := c.cc.Invoke(ctx, DocumentService_Merge_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	out := new(DeleteResponse)
	if err := c.cc.Invoke(ctx, DocumentService_Delete_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentServiceClient) Listen(ctx context.Context, in *ListenRequest, opts ...grpc.CallOption) (DocumentService_ListenClient, error) {
	stream, err := c.cc.NewStream(ctx, &DocumentService_ServiceDesc.Streams[0], DocumentService_Listen_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ListenRequest, document.Batch]{ClientStream: stream}
	if err = x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err = x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
