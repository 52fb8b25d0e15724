package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"bistro/api/wire"
	"bistro/metrics"
	"bistro/service"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Options are the server options the service runs with: a bounded
// stream worker pool and the interceptor chain.
type Options struct {
	Workers              uint32
	MaxConcurrentStreams uint32
	Log                  *zap.Logger
	Metrics              *metrics.Metrics
}

func ServerOptions(o Options) []grpc.ServerOption {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(log),
			AccessLogInterceptor(log, o.Metrics),
			TokenInterceptor(),
			StatusInterceptor(log),
		),
	}
	if o.Workers > 0 {
		opts = append(opts, grpc.NumStreamWorkers(o.Workers))
	}
	if o.MaxConcurrentStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(o.MaxConcurrentStreams))
	}
	return opts
}

// TokenInterceptor moves the authtoken metadata value onto the context.
func TokenInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(wire.MetadataToken); len(vals) > 0 {
				ctx = service.WithToken(ctx, vals[0])
			}
		}
		return handler(ctx, req)
	}
}

// StatusInterceptor converts service errors into gRPC statuses. Internal
// causes are logged and never sent to the caller.
func StatusInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		st := toStatus(err)
		if st.Code() == codes.Internal {
			log.Error("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
		}
		return nil, st.Err()
	}
}

// AccessLogInterceptor logs every call and records its latency.
func AccessLogInterceptor(log *zap.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		took := time.Since(start)
		code := status.Code(err)

		m.ObserveRPC(info.FullMethod, code.String(), took)
		log.Debug("[gRPC]",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", code),
			zap.Duration("took", took),
		)
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into codes.Internal.
func RecoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("rpc panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func toStatus(err error) *status.Status {
	if st, ok := status.FromError(err); ok {
		return st
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	msg := service.PublicMessage(err)
	switch service.KindOf(err) {
	case service.KindUnauthenticated:
		return status.New(codes.Unauthenticated, msg)
	case service.KindPermissionDenied:
		return status.New(codes.PermissionDenied, msg)
	case service.KindNotFound:
		return status.New(codes.NotFound, msg)
	case service.KindInvalidArgument:
		return status.New(codes.InvalidArgument, msg)
	case service.KindThrottled:
		return status.New(codes.ResourceExhausted, msg)
	default:
		return status.New(codes.Internal, "internal error")
	}
}
