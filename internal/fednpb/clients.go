package fednpb

import (
	"context"

	"google.golang.org/grpc"
)

// ConnectorClient is the Connector service: heartbeats and user metrics.
type ConnectorClient interface {
	SendHeartbeat(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Response, error)
	SendModelMetric(ctx context.Context, in *ModelMetric, opts ...grpc.CallOption) (*Response, error)
}

// CombinerClient is the Combiner service: the task stream and the three
// result-submission RPCs.
type CombinerClient interface {
	TaskStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_TaskStreamClient, error)
	SendModelUpdate(ctx context.Context, in *ModelUpdate, opts ...grpc.CallOption) (*Response, error)
	SendModelValidation(ctx context.Context, in *ModelValidation, opts ...grpc.CallOption) (*Response, error)
	SendModelPrediction(ctx context.Context, in *ModelPrediction, opts ...grpc.CallOption) (*Response, error)
}

// ModelServiceClient is the binary model-artifact transfer service.
type ModelServiceClient interface {
	Download(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (ModelService_DownloadClient, error)
	Upload(ctx context.Context, opts ...grpc.CallOption) (ModelService_UploadClient, error)
}

type connectorClient struct{ cc *grpc.ClientConn }

// NewConnectorClient builds a ConnectorClient over an already-constructed
// channel (see internal/channel).
func NewConnectorClient(cc *grpc.ClientConn) ConnectorClient { return &connectorClient{cc} }

func (c *connectorClient) SendHeartbeat(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Connector/SendHeartbeat", in, out, callOpts(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) SendModelMetric(ctx context.Context, in *ModelMetric, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Connector/SendModelMetric", in, out, callOpts(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

type combinerClient struct{ cc *grpc.ClientConn }

// NewCombinerClient builds a CombinerClient over an already-constructed
// channel.
func NewCombinerClient(cc *grpc.ClientConn) CombinerClient { return &combinerClient{cc} }

var combinerTaskStreamDesc = &grpc.StreamDesc{
	StreamName:    "TaskStream",
	ServerStreams: true,
}

func (c *combinerClient) TaskStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_TaskStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, combinerTaskStreamDesc, "/fedn.Combiner/TaskStream", callOpts(opts...)...)
	if err != nil {
		return nil, err
	}
	cs := &genericClientStream[ClientAvailableMessage, TaskRequest]{stream}
	if err := cs.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := cs.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *combinerClient) SendModelUpdate(ctx context.Context, in *ModelUpdate, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Combiner/SendModelUpdate", in, out, callOpts(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *combinerClient) SendModelValidation(ctx context.Context, in *ModelValidation, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Combiner/SendModelValidation", in, out, callOpts(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *combinerClient) SendModelPrediction(ctx context.Context, in *ModelPrediction, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Combiner/SendModelPrediction", in, out, callOpts(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

type modelServiceClient struct{ cc *grpc.ClientConn }

// NewModelServiceClient builds a ModelServiceClient over an
// already-constructed channel.
func NewModelServiceClient(cc *grpc.ClientConn) ModelServiceClient { return &modelServiceClient{cc} }

var modelServiceDownloadDesc = &grpc.StreamDesc{
	StreamName:    "Download",
	ServerStreams: true,
}

var modelServiceUploadDesc = &grpc.StreamDesc{
	StreamName:    "Upload",
	ClientStreams: true,
}

func (c *modelServiceClient) Download(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (ModelService_DownloadClient, error) {
	stream, err := c.cc.NewStream(ctx, modelServiceDownloadDesc, "/fedn.ModelService/Download", callOpts(opts...)...)
	if err != nil {
		return nil, err
	}
	cs := &genericClientStream[ModelRequest, ModelResponse]{stream}
	if err := cs.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := cs.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *modelServiceClient) Upload(ctx context.Context, opts ...grpc.CallOption) (ModelService_UploadClient, error) {
	stream, err := c.cc.NewStream(ctx, modelServiceUploadDesc, "/fedn.ModelService/Upload", callOpts(opts...)...)
	if err != nil {
		return nil, err
	}
	return &genericClientStream[ModelRequest, ModelResponse]{stream}, nil
}
