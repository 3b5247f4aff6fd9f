// Package grpcx maps business results and errors onto gRPC statuses.
//
// A failed step surfaces as a status whose gRPC code is derived from the
// business code, with an errdetails.ErrorInfo detail carrying the original
// code and message so clients can recover them.
package grpcx

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	gcodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	gstatus "google.golang.org/grpc/status"

	"bizflow/internal/biz"
	"bizflow/internal/biz/code"
)

// Domain is the ErrorInfo domain of every status built here.
const Domain = "bizflow"

// Metadata keys of the ErrorInfo detail.
const (
	MetaCode    = "code"
	MetaMessage = "message"
)

// Code projects a business code onto a gRPC code.
func Code(c int) gcodes.Code {
	switch {
	case c == code.SuccessCode:
		return gcodes.OK
	case c == code.Validation.Code:
		return gcodes.InvalidArgument
	case c >= 40400 && c <= 40499:
		return gcodes.NotFound
	case c >= 40900 && c <= 40999:
		return gcodes.AlreadyExists
	case code.IsInfrastructure(c):
		return gcodes.Unavailable
	default:
		return gcodes.Internal
	}
}

// Status builds the gRPC status for a business code and message.
func Status(c int, message string) *gstatus.Status {
	base := gstatus.New(Code(c), message)
	if c == code.SuccessCode {
		return base
	}
	info := &errdetails.ErrorInfo{
		Reason: strconv.Itoa(c),
		Domain: Domain,
		Metadata: map[string]string{
			MetaCode:    strconv.Itoa(c),
			MetaMessage: message,
		},
	}
	if with, err := base.WithDetails(info); err == nil {
		return with
	}
	return base
}

// FromResult returns nil for a successful result and the status error
// otherwise.
func FromResult(st biz.Status) error {
	if st == nil {
		return Status(code.BizEmpty.Code, code.BizEmpty.Bind("").Message).Err()
	}
	if st.IsSuccess() {
		return nil
	}
	return Status(st.Code(), st.Message()).Err()
}

// ToStatusError converts err into a gRPC status error. Errors that already
// carry a gRPC status pass through unchanged; anything else is classified
// the way the step guard classifies faults.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := gstatus.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return gstatus.Error(gcodes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return gstatus.Error(gcodes.DeadlineExceeded, err.Error())
	}
	res := biz.FaultResult[any](err)
	return Status(res.Code(), res.Message()).Err()
}

// BizCode extracts the business code and message from a status error built
// by this package.
func BizCode(err error) (int, string, bool) {
	st, ok := gstatus.FromError(err)
	if !ok || st == nil {
		return 0, "", false
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		c, err := strconv.Atoi(info.GetMetadata()[MetaCode])
		if err != nil {
			return 0, "", false
		}
		return c, info.GetMetadata()[MetaMessage], true
	}
	return 0, "", false
}

// UnaryServerInterceptor converts handler errors and raised *biz.Error
// panics into statuses. Other panics become Internal.
func UnaryServerInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			resp = nil
			if be, ok := rec.(*biz.Error); ok {
				err = Status(be.Code(), be.Message()).Err()
				return
			}
			log.ErrorContext(ctx, "grpc panic", slog.String("method", info.FullMethod), slog.Any("panic", rec))
			err = Status(code.Fail.Code, code.Fail.Bind("internal error").Message).Err()
		}()

		resp, err = handler(ctx, req)
		if err != nil {
			err = ToStatusError(err)
			log.DebugContext(ctx, "grpc call failed", slog.String("method", info.FullMethod), slog.String("code", gstatus.Code(err).String()))
		}
		return resp, err
	}
}

// NewServer builds a gRPC server with the interceptor installed and the
// standard health service registered. The returned health server starts in
// SERVING state for the empty service name.
func NewServer(log *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log))}, opts...)
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}
