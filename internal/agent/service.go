package agent

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pew-X/sensegate/internal/knowledge"
	"github.com/Pew-X/sensegate/internal/lookup"
)

// Operation names used in metrics and logs.
const (
	opGloss    = "gloss"
	opExample  = "example"
	opRelated  = "related"
	opDescribe = "describe"
)

// Implementation of LookupServiceServer interface

// GetGloss returns the glosses of a synset as one string.
func (a *Agent) GetGloss(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	var text string
	err := a.observe(ctx, opGloss, func(ctx context.Context) (err error) {
		text, err = a.lookup.Gloss(ctx, req.GetValue())
		return err
	})
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(text), nil
}

// GetExample returns the usage examples of a synset as one string.
func (a *Agent) GetExample(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	var text string
	err := a.observe(ctx, opExample, func(ctx context.Context) (err error) {
		text, err = a.lookup.Example(ctx, req.GetValue())
		return err
	})
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(text), nil
}

// GetGlossRelatedIds returns the sense keys related to a synset through its gloss.
func (a *Agent) GetGlossRelatedIds(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	var keys []string
	err := a.observe(ctx, opRelated, func(ctx context.Context) (err error) {
		keys, err = a.lookup.Related(ctx, req.GetValue())
		return err
	})
	if err != nil {
		return nil, err
	}
	return stringList(keys), nil
}

// Describe returns every field for one id together with an explicit found flag.
func (a *Agent) Describe(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	var d lookup.Description
	err := a.observe(ctx, opDescribe, func(ctx context.Context) (err error) {
		d, err = a.lookup.Describe(ctx, req.GetValue())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":      structpb.NewStringValue(d.ID),
		"found":   structpb.NewBoolValue(d.Found),
		"gloss":   structpb.NewStringValue(d.Gloss),
		"example": structpb.NewStringValue(d.Example),
		"related": structpb.NewListValue(stringList(d.Related)),
	}}, nil
}

// GetMetrics returns agent counters and health.
func (a *Agent) GetMetrics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshot := a.metrics.GetMetrics()
	health := a.metrics.GetHealthStatus()
	probe := a.prober.GetStats()

	operations := make(map[string]any, len(snapshot.Operations))
	for op, n := range snapshot.Operations {
		operations[op] = n
	}

	out, err := structpb.NewStruct(map[string]any{
		"version":             snapshot.Version,
		"backend":             a.config.Backend,
		"backend_opened":      a.handle.Opened(),
		"backend_up":          snapshot.BackendUp,
		"status":              health.Status,
		"message":             health.Message,
		"uptime_seconds":      snapshot.UptimeSeconds,
		"lookup_rate_per_min": snapshot.LookupRatePerMin,
		"total_lookups":       snapshot.TotalLookups,
		"total_errors":        snapshot.TotalErrors,
		"memory_usage_bytes":  snapshot.MemoryUsageBytes,
		"goroutines":          snapshot.Goroutines,
		"operations":          operations,
		"probe_enabled":       probe.Enabled,
		"probe_interval":      probe.IntervalSeconds,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode metrics: %v", err)
	}
	return out, nil
}

// Helper methods

// observe runs one lookup under the configured timeout, records it and
// converts its error to a gRPC status.
func (a *Agent) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if a.config.LookupTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.config.LookupTimeout)
			defer cancel()
		}
	}

	start := time.Now()
	err := fn(ctx)
	a.metrics.RecordLookup(op, time.Since(start), err)
	if err != nil {
		return toStatus(err)
	}
	return nil
}

// toStatus maps lookup errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, knowledge.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func stringList(values []string) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStringValue(v))
	}
	return list
}
