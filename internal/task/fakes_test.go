package task

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/scaleoutsystems/fedn-go-client/internal/fednpb"
)

// fakeClientStream satisfies grpc.ClientStream with no-ops so fakes below
// only need to implement the methods the engine actually calls.
type fakeClientStream struct{}

func (fakeClientStream) Header() (metadata.MD, error) { return nil, nil }
func (fakeClientStream) Trailer() metadata.MD          { return nil }
func (fakeClientStream) CloseSend() error              { return nil }
func (fakeClientStream) Context() context.Context      { return context.Background() }
func (fakeClientStream) SendMsg(m any) error            { return nil }
func (fakeClientStream) RecvMsg(m any) error            { return nil }

var _ grpc.ClientStream = fakeClientStream{}

// fakeDownloadStream replays a fixed sequence of ModelResponse frames.
type fakeDownloadStream struct {
	fakeClientStream
	frames []*fednpb.ModelResponse
	i      int
}

func (f *fakeDownloadStream) Recv() (*fednpb.ModelResponse, error) {
	if f.i >= len(f.frames) {
		return nil, io.EOF
	}
	r := f.frames[f.i]
	f.i++
	return r, nil
}

// fakeUploadStream records every sent frame and returns a fixed response.
type fakeUploadStream struct {
	fakeClientStream
	sent    []*fednpb.ModelRequest
	resp    *fednpb.ModelResponse
	sendErr error
}

func (f *fakeUploadStream) Send(m *fednpb.ModelRequest) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeUploadStream) CloseAndRecv() (*fednpb.ModelResponse, error) {
	return f.resp, nil
}

// fakeTaskStream replays a fixed sequence of TaskRequest directives, then
// returns the configured err, or errEOFStream when none is set.
type fakeTaskStream struct {
	fakeClientStream
	reqs []*fednpb.TaskRequest
	i    int
	err  error
}

func (f *fakeTaskStream) Recv() (*fednpb.TaskRequest, error) {
	if f.i < len(f.reqs) {
		r := f.reqs[f.i]
		f.i++
		return r, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, errEOFStream
}

type fakeConnector struct {
	heartbeats []*fednpb.Heartbeat
	metrics    []*fednpb.ModelMetric
	failHeartbeat bool
	failMetric    bool
}

func (f *fakeConnector) SendHeartbeat(_ context.Context, in *fednpb.Heartbeat, _ ...grpc.CallOption) (*fednpb.Response, error) {
	if f.failHeartbeat {
		return nil, errRPC
	}
	f.heartbeats = append(f.heartbeats, in)
	return &fednpb.Response{Status: "OK"}, nil
}

func (f *fakeConnector) SendModelMetric(_ context.Context, in *fednpb.ModelMetric, _ ...grpc.CallOption) (*fednpb.Response, error) {
	if f.failMetric {
		return nil, errRPC
	}
	f.metrics = append(f.metrics, in)
	return &fednpb.Response{Status: "OK"}, nil
}

type fakeCombiner struct {
	taskStream *fakeTaskStream
	updates    []*fednpb.ModelUpdate
	validations []*fednpb.ModelValidation
	predictions []*fednpb.ModelPrediction
	failReport  bool
}

func (f *fakeCombiner) TaskStream(context.Context, *fednpb.ClientAvailableMessage, ...grpc.CallOption) (fednpb.Combiner_TaskStreamClient, error) {
	return f.taskStream, nil
}

func (f *fakeCombiner) SendModelUpdate(_ context.Context, in *fednpb.ModelUpdate, _ ...grpc.CallOption) (*fednpb.Response, error) {
	if f.failReport {
		return nil, errRPC
	}
	f.updates = append(f.updates, in)
	return &fednpb.Response{Status: "OK"}, nil
}

func (f *fakeCombiner) SendModelValidation(_ context.Context, in *fednpb.ModelValidation, _ ...grpc.CallOption) (*fednpb.Response, error) {
	if f.failReport {
		return nil, errRPC
	}
	f.validations = append(f.validations, in)
	return &fednpb.Response{Status: "OK"}, nil
}

func (f *fakeCombiner) SendModelPrediction(_ context.Context, in *fednpb.ModelPrediction, _ ...grpc.CallOption) (*fednpb.Response, error) {
	if f.failReport {
		return nil, errRPC
	}
	f.predictions = append(f.predictions, in)
	return &fednpb.Response{Status: "OK"}, nil
}

type fakeModelService struct {
	downloadFrames []*fednpb.ModelResponse
	uploadResp     *fednpb.ModelResponse
	uploadSendErr  error
	lastUpload     *fakeUploadStream
}

func (f *fakeModelService) Download(context.Context, *fednpb.ModelRequest, ...grpc.CallOption) (fednpb.ModelService_DownloadClient, error) {
	return &fakeDownloadStream{frames: f.downloadFrames}, nil
}

func (f *fakeModelService) Upload(context.Context, ...grpc.CallOption) (fednpb.ModelService_UploadClient, error) {
	s := &fakeUploadStream{resp: f.uploadResp, sendErr: f.uploadSendErr}
	f.lastUpload = s
	return s, nil
}

var errRPC = &rpcError{"rpc failed"}
var errEOFStream = &rpcError{"EOF"}

type rpcError struct{ msg string }

func (e *rpcError) Error() string { return e.msg }
