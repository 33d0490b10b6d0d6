// Package client wraps the raw gRPC stubs of the sensegate LookupService in a
// small Go API. It is used by sensegate-ctl and by any Go program that needs
// glosses, examples or gloss-related sense keys from a running agent.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	v1 "github.com/Pew-X/sensegate/api/v1"
)

// Description is the combined view of one id returned by Describe.
type Description struct {
	ID      string   `json:"id"`
	Found   bool     `json:"found"`
	Gloss   string   `json:"gloss"`
	Example string   `json:"example"`
	Related []string `json:"related"`
}

// Client talks to one sensegate agent.
type Client struct {
	conn   *grpc.ClientConn
	lookup v1.LookupServiceClient
	health healthpb.HealthClient
}

// Dial connects to the agent at addr over plaintext gRPC. The connection is
// established lazily on the first call.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent at %s: %w", addr, err)
	}
	return New(conn), nil
}

// New wraps an existing connection. Close closes conn.
func New(conn *grpc.ClientConn) *Client {
	return &Client{
		conn:   conn,
		lookup: v1.NewLookupServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
	}
}

// Gloss returns the glosses of id joined into one string.
func (c *Client) Gloss(ctx context.Context, id string) (string, error) {
	resp, err := c.lookup.GetGloss(ctx, wrapperspb.String(id))
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}

// Example returns the usage examples of id joined into one string.
func (c *Client) Example(ctx context.Context, id string) (string, error) {
	resp, err := c.lookup.GetExample(ctx, wrapperspb.String(id))
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}

// Related returns the gloss-related sense keys of id in server order.
func (c *Client) Related(ctx context.Context, id string) ([]string, error) {
	resp, err := c.lookup.GetGlossRelatedIds(ctx, wrapperspb.String(id))
	if err != nil {
		return nil, err
	}
	return listStrings(resp), nil
}

// Describe returns gloss, example and related keys of id in one call.
func (c *Client) Describe(ctx context.Context, id string) (Description, error) {
	resp, err := c.lookup.Describe(ctx, wrapperspb.String(id))
	if err != nil {
		return Description{}, err
	}

	fields := resp.GetFields()
	return Description{
		ID:      fields["id"].GetStringValue(),
		Found:   fields["found"].GetBoolValue(),
		Gloss:   fields["gloss"].GetStringValue(),
		Example: fields["example"].GetStringValue(),
		Related: listStrings(fields["related"].GetListValue()),
	}, nil
}

// Health reports the serving status of the lookup service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: v1.ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Metrics returns the agent's counters as a plain map.
func (c *Client) Metrics(ctx context.Context) (map[string]any, error) {
	resp, err := c.lookup.GetMetrics(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func listStrings(list *structpb.ListValue) []string {
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}
