package grpcserver

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
)

// The wire types are plain structs carried by a JSON codec. There is no
// generated pb package; the service is registered through a hand-rolled
// grpc.ServiceDesc instead, which keeps the wire contract in one
// reviewable file.

type RegisterRequest struct {
	Name     string `json:"name"`
	Severity int    `json:"severity"`
	Note     string `json:"note,omitempty"`
}

type RegisterResponse struct {
	Status  string        `json:"status"`
	Error   string        `json:"error,omitempty"`
	Patient *PatientEntry `json:"patient,omitempty"`
}

type Empty struct{}

// PatientResponse carries "entity or none" results. Found=false is the
// routine empty case, never an RPC error.
type PatientResponse struct {
	Found   bool          `json:"found"`
	Patient *PatientEntry `json:"patient,omitempty"`
}

type SnapshotResponse struct {
	Patients []*PatientEntry `json:"patients"`
}

type CountsResponse struct {
	Counts map[int]int `json:"counts"`
}

type PatientEntry struct {
	Id            uint64 `json:"id"`
	Name          string `json:"name"`
	Severity      int    `json:"severity"`
	SeverityLabel string `json:"severity_label"`
	ArrivedAt     int64  `json:"arrived_at"`
	Note          string `json:"note"`
}

// TriageServer mirrors the seven engine operations one-to-one.
type TriageServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	PeekNext(context.Context, *Empty) (*PatientResponse, error)
	Serve(context.Context, *Empty) (*PatientResponse, error)
	UndoLastServe(context.Context, *Empty) (*PatientResponse, error)
	WaitingSnapshot(context.Context, *Empty) (*SnapshotResponse, error)
	Counts(context.Context, *Empty) (*CountsResponse, error)
	ServedHistory(context.Context, *Empty) (*SnapshotResponse, error)
}

const serviceName = "triage.TriageService"

// JSONCodec lets the plain structs above cross the wire. Servers must be
// built with grpc.ForceServerCodec(JSONCodec{}); clients pass
// grpc.CallContentSubtype(JSONCodec{}.Name()).
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
func (JSONCodec) Name() string                    { return "json" }

// ServiceDesc registers TriageServer implementations with a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TriageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: registerHandler},
		{MethodName: "PeekNext", Handler: peekNextHandler},
		{MethodName: "Serve", Handler: serveHandler},
		{MethodName: "UndoLastServe", Handler: undoLastServeHandler},
		{MethodName: "WaitingSnapshot", Handler: waitingSnapshotHandler},
		{MethodName: "Counts", Handler: countsHandler},
		{MethodName: "ServedHistory", Handler: servedHistoryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "triage/v1",
}

func unary[Req any, Resp any](
	method string,
	call func(TriageServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	full := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TriageServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TriageServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	registerHandler = unary("Register",
		func(s TriageServer, ctx context.Context, in *RegisterRequest) (*RegisterResponse, error) {
			return s.Register(ctx, in)
		})
	peekNextHandler = unary("PeekNext",
		func(s TriageServer, ctx context.Context, in *Empty) (*PatientResponse, error) {
			return s.PeekNext(ctx, in)
		})
	serveHandler = unary("Serve",
		func(s TriageServer, ctx context.Context, in *Empty) (*PatientResponse, error) {
			return s.Serve(ctx, in)
		})
	undoLastServeHandler = unary("UndoLastServe",
		func(s TriageServer, ctx context.Context, in *Empty) (*PatientResponse, error) {
			return s.UndoLastServe(ctx, in)
		})
	waitingSnapshotHandler = unary("WaitingSnapshot",
		func(s TriageServer, ctx context.Context, in *Empty) (*SnapshotResponse, error) {
			return s.WaitingSnapshot(ctx, in)
		})
	countsHandler = unary("Counts",
		func(s TriageServer, ctx context.Context, in *Empty) (*CountsResponse, error) {
			return s.Counts(ctx, in)
		})
	servedHistoryHandler = unary("ServedHistory",
		func(s TriageServer, ctx context.Context, in *Empty) (*SnapshotResponse, error) {
			return s.ServedHistory(ctx, in)
		})
)
