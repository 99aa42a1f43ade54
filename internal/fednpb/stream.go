package fednpb

import "google.golang.org/grpc"

// genericClientStream adapts a grpc.ClientStream to a typed Send/Recv
// pair, the same shape protoc-gen-go-grpc emits for streaming methods.
type genericClientStream[Req any, Resp any] struct {
	grpc.ClientStream
}

func (s *genericClientStream[Req, Resp]) Send(m *Req) error {
	return s.ClientStream.SendMsg(m)
}

func (s *genericClientStream[Req, Resp]) Recv() (*Resp, error) {
	m := new(Resp)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *genericClientStream[Req, Resp]) CloseAndRecv() (*Resp, error) {
	if err := s.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(Resp)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Combiner_TaskStreamClient is the server-streaming response from
// Combiner.TaskStream.
type Combiner_TaskStreamClient interface {
	Recv() (*TaskRequest, error)
	grpc.ClientStream
}

// ModelService_DownloadClient is the server-streaming response from
// ModelService.Download.
type ModelService_DownloadClient interface {
	Recv() (*ModelResponse, error)
	grpc.ClientStream
}

// ModelService_UploadClient is the client-streaming request side of
// ModelService.Upload.
type ModelService_UploadClient interface {
	Send(*ModelRequest) error
	CloseAndRecv() (*ModelResponse, error)
	grpc.ClientStream
}
