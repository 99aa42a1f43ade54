package fednpb

import "google.golang.org/protobuf/types/known/timestamppb"

// Role identifies what kind of peer a Client message describes.
type Role int32

const (
	RoleClient Role = 0
)

// Client (the "sender" sub-message) identifies the caller on every RPC.
type Client struct {
	Name     string
	Role     Role
	ClientId string
}

// TaskType is the directive kind carried by a TaskRequest. Values outside
// the named constants are valid on the wire (a newer combiner may send a
// task type this client doesn't know) and must be treated as TaskUnknown
// by anything that switches on them — see internal/task's dispatch.
type TaskType int32

const (
	TaskUpdate TaskType = iota
	TaskValidate
	TaskPredict
)

// TransferStatus is the per-frame status on a Download/Upload stream.
type TransferStatus int32

const (
	StatusInProgress TransferStatus = iota
	StatusOK
	StatusFailed
)

// Heartbeat is sent periodically by the client to the combiner.
type Heartbeat struct {
	Sender *Client
}

// Response is the generic unary acknowledgement most RPCs return.
type Response struct {
	Status string
}

// MetricKV is one key/value pair inside a ModelMetric.
type MetricKV struct {
	Key   string
	Value float64
}

// ModelMetric reports user-emitted metrics, tagged with the logging
// context active at emission time.
type ModelMetric struct {
	Sender    *Client
	ModelId   string
	RoundId   string
	SessionId string
	Step      int64
	Metrics   []*MetricKV
}

// ClientAvailableMessage opens the task stream, announcing the client.
type ClientAvailableMessage struct {
	Sender *Client
}

// TaskRequest is one inbound task directive.
type TaskRequest struct {
	TaskId    string
	Type      TaskType
	ModelId   string
	SessionId string
	Data      string
}

// ModelRequest is one frame in either direction of a model transfer.
// Sender is populated by the client on every Download request frame and
// only on the first frame of an Upload (spec.md §6).
type ModelRequest struct {
	Id     string
	Sender *Client
	Status TransferStatus
	Data   []byte
}

// ModelResponse is one frame from ModelService.Download, or the single
// response closing an Upload.
type ModelResponse struct {
	Id      string
	Status  TransferStatus
	Data    []byte
	Message string
}

// ModelUpdate reports a completed UPDATE task.
type ModelUpdate struct {
	Sender        *Client
	ModelId       string
	ModelUpdateId string
	// Timestamp is "2006-01-02 15:04:05" — kept as a free-form string for
	// wire compatibility with the original implementation (spec.md §9).
	Timestamp string
	Meta      string
	Config    string
}

// ModelValidation reports a completed VALIDATE task.
type ModelValidation struct {
	Sender    *Client
	ModelId   string
	Data      string
	SessionId string
	Meta      string
	Timestamp *timestamppb.Timestamp
}

// ModelPrediction reports a completed PREDICT task.
type ModelPrediction struct {
	Sender       *Client
	ModelId      string
	Data         string
	PredictionId string
	Meta         string
	Timestamp    *timestamppb.Timestamp
}
