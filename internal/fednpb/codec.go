package fednpb

import (
	json "github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// wireCodec lets grpc-go marshal the plain structs in this package. They
// are not generated from a .proto file and do not implement proto.Message,
// so grpc-go's default "proto" codec would reject every one of them with
// a type-assertion failure at the first RPC. Every call in clients.go
// forces this codec explicitly via callOpts rather than relying on
// dial-wide registration, so the channel's other dial options are free to
// stay codec-agnostic.
type wireCodec struct{}

func (wireCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (wireCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (wireCodec) Name() string { return "fednjson" }

var _ encoding.Codec = wireCodec{}

// callOpts forces wireCodec onto every Invoke/NewStream call in this
// package, ahead of whatever the caller supplied.
func callOpts(opts ...grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(wireCodec{})}, opts...)
}
