package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/storage"
)

// Client calls a remote Solver service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial connects to a Solver server without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes the connection when the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Solve sends an instance in the instance file format.
func (c *Client) Solve(ctx context.Context, name string, instanceJSON []byte, cfg *domain.SolverConfig, record bool) (*structpb.Struct, error) {
	req, err := solveRequest(name, instanceJSON, cfg, record)
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "Solve", req)
}

// Relax runs root column generation remotely.
func (c *Client) Relax(ctx context.Context, name string, instanceJSON []byte, cfg *domain.SolverConfig) (*structpb.Struct, error) {
	req, err := solveRequest(name, instanceJSON, cfg, false)
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "Relax", req)
}

// GetRun fetches a recorded run with its columns.
func (c *Client) GetRun(ctx context.Context, id string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "GetRun", req)
}

// ListRuns lists recorded runs.
func (c *Client) ListRuns(ctx context.Context, opts storage.ListOptions) (*structpb.Struct, error) {
	statuses := make([]any, len(opts.Statuses))
	for i, s := range opts.Statuses {
		statuses[i] = string(s)
	}
	req, err := structpb.NewStruct(map[string]any{
		"instance_name": opts.InstanceName,
		"statuses":      statuses,
		"limit":         opts.Limit,
		"offset":        opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "ListRuns", req)
}

func solveRequest(name string, instanceJSON []byte, cfg *domain.SolverConfig, record bool) (*structpb.Struct, error) {
	var inst map[string]any
	if err := json.Unmarshal(instanceJSON, &inst); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInstance, err)
	}
	m := map[string]any{
		"name":     name,
		"instance": inst,
		"record":   record,
	}
	if cfg != nil {
		cm, err := toMap(cfg)
		if err != nil {
			return nil, err
		}
		m["config"] = cm
	}
	return structpb.NewStruct(m)
}
