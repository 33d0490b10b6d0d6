package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

// loggingInterceptor tags each call with a request id and logs its outcome.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID := incomingRequestID(ctx)
	start := time.Now()

	resp, err := handler(ctx, req)

	if hdrErr := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); hdrErr != nil {
		log.WithError(hdrErr).Debug("Could not set request id header")
	}

	entry := log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     info.FullMethod,
		"duration":   time.Since(start),
		"code":       status.Code(err).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Call failed")
	} else {
		entry.Debug("Call served")
	}
	return resp, err
}

// incomingRequestID reuses the caller's request id or mints a new one.
func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}
