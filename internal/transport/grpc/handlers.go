package grpc

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/search"
	"github.com/example/tp3s/internal/endpoint"
	"github.com/example/tp3s/internal/instance"
	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

// Solve implements the Solve RPC. The request carries "instance" in the
// instance file format, an optional "name", an optional "config" with
// solver fields and an optional "record" flag.
func (s *Server) Solve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	svcReq, err := solveRequestFromProto(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.endpoints.Solve(ctx, svcReq)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return solveResponseToProto(resp.(*service.SolveResponse))
}

// Relax implements the Relax RPC. It takes the same request as Solve.
func (s *Server) Relax(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	svcReq, err := solveRequestFromProto(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.endpoints.Relax(ctx, svcReq)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return relaxationToProto(resp.(*search.Relaxation))
}

// GetRun implements the GetRun RPC.
func (s *Server) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.endpoints.GetRun(ctx, req.GetFields()["id"].GetStringValue())
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return structpb.NewStruct(runToMap(resp.(*storage.Run), true))
}

// ListRuns implements the ListRuns RPC.
func (s *Server) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	opts := &storage.ListOptions{
		InstanceName: fields["instance_name"].GetStringValue(),
		Limit:        int(fields["limit"].GetNumberValue()),
		Offset:       int(fields["offset"].GetNumberValue()),
	}
	for _, v := range fields["statuses"].GetListValue().GetValues() {
		opts.Statuses = append(opts.Statuses, storage.RunStatus(v.GetStringValue()))
	}

	resp, err := s.endpoints.ListRuns(ctx, opts)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	runs := resp.([]*storage.Run)
	list := make([]any, 0, len(runs))
	for _, r := range runs {
		list = append(list, runToMap(r, false))
	}
	return structpb.NewStruct(map[string]any{"runs": list})
}

func solveRequestFromProto(req *structpb.Struct) (*service.SolveRequest, error) {
	data, err := req.MarshalJSON()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "request: %v", err)
	}

	doc := gjson.ParseBytes(data)
	raw := doc.Get("instance")
	if !raw.IsObject() {
		return nil, status.Error(codes.InvalidArgument, "instance is required")
	}
	name := doc.Get("name").String()
	if name == "" {
		name = "request"
	}
	inst, err := instance.Parse(name, []byte(raw.Raw))
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}

	svcReq := &service.SolveRequest{
		Instance: inst,
		Record:   doc.Get("record").Bool(),
	}
	if cfgRaw := doc.Get("config"); cfgRaw.Exists() {
		cfg := domain.DefaultConfig()
		if err := json.Unmarshal([]byte(cfgRaw.Raw), &cfg); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "config: %v", err)
		}
		svcReq.Config = &cfg
	}
	return svcReq, nil
}

func solveResponseToProto(resp *service.SolveResponse) (*structpb.Struct, error) {
	res := resp.Result
	stats, err := toMap(res.Stats)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "stats: %v", err)
	}
	return structpb.NewStruct(map[string]any{
		"run_id":    resp.RunID,
		"objective": objectiveValue(res.Objective),
		"complete":  res.Complete,
		"columns":   columnsToList(res.Columns),
		"stats":     stats,
	})
}

func relaxationToProto(r *search.Relaxation) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"bound":      r.Bound,
		"iterations": r.Iterations,
		"capped":     r.Capped,
		"pool_size":  r.PoolSize,
		"columns":    columnsToList(r.Columns),
	})
}

func columnsToList(cols []domain.ColumnWeight) []any {
	out := make([]any, 0, len(cols))
	for _, cw := range cols {
		out = append(out, map[string]any{
			"release":  cw.Column.Release,
			"sequence": intsToList(cw.Column.Sequence),
			"cost":     cw.Column.Cost,
			"weight":   cw.Weight,
		})
	}
	return out
}

func runToMap(r *storage.Run, withColumns bool) map[string]any {
	m := map[string]any{
		"id":            r.ID,
		"instance_name": r.InstanceName,
		"status":        string(r.Status),
		"objective":     nil,
		"error":         r.Error,
		"nodes":         r.Stats.NodesProcessed,
		"created_at":    r.CreatedAt.UTC().Format(time.RFC3339),
		"finished_at":   r.FinishedAt.UTC().Format(time.RFC3339),
	}
	if r.Objective != nil {
		m["objective"] = *r.Objective
	}
	if withColumns {
		cols := make([]any, 0, len(r.Columns))
		for _, c := range r.Columns {
			cols = append(cols, map[string]any{
				"release":  c.Release,
				"sequence": intsToList(c.Sequence),
				"cost":     c.Cost,
				"weight":   c.Weight,
			})
		}
		m["columns"] = cols
	}
	return m
}

func objectiveValue(v float64) any {
	if math.IsInf(v, 0) {
		return nil
	}
	return v
}

func intsToList(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
