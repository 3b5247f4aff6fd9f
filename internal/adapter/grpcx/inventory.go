package grpcx

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"bizflow/internal/biz"
	"bizflow/internal/inventory"
	"bizflow/internal/shared"
)

// InventoryServiceName is the full gRPC name of the inventory service.
const InventoryServiceName = "bizflow.inventory.v1.Inventory"

// InventoryServer is the inventory service API. Requests are
// google.protobuf.Struct documents shaped like the HTTP request bodies;
// replies carry the success envelope. Failures are status errors with an
// ErrorInfo detail.
type InventoryServer interface {
	Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	List(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Adjust(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterInventory serves svc on srv under InventoryServiceName.
func RegisterInventory(srv grpc.ServiceRegistrar, svc *inventory.Service) {
	srv.RegisterService(&inventoryDesc, &inventoryServer{svc: svc})
}

var inventoryDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Get", InventoryServer.Get),
		unary("List", InventoryServer.List),
		unary("Create", InventoryServer.Create),
		unary("Adjust", InventoryServer.Adjust),
		unary("Delete", InventoryServer.Delete),
	},
	Streams: []grpc.StreamDesc{},
}

type method func(InventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	full := "/" + InventoryServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return ic(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

type inventoryServer struct {
	svc *inventory.Service
}

func (s *inventoryServer) Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var ref inventory.ItemRef
	if err := decode(in, &ref); err != nil {
		return nil, err
	}
	return reply(s.svc.Get(ctx, biz.Wrap(inventory.BizType, &ref)))
}

func (s *inventoryServer) List(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var q inventory.ItemQuery
	if err := decode(in, &q); err != nil {
		return nil, err
	}
	res := s.svc.List(ctx, biz.Wrap(inventory.BizType, &q))
	if err := FromResult(res); err != nil {
		return nil, err
	}
	return encode(biz.ToListEnvelope(res))
}

func (s *inventoryServer) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var item inventory.NewItem
	if err := decode(in, &item); err != nil {
		return nil, err
	}
	return reply(s.svc.Create(ctx, biz.Wrap(inventory.BizType, &item)))
}

func (s *inventoryServer) Adjust(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var adj inventory.Adjustment
	if err := decode(in, &adj); err != nil {
		return nil, err
	}
	return reply(s.svc.Adjust(ctx, biz.Wrap(inventory.BizType, &adj)))
}

func (s *inventoryServer) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var ref inventory.ItemRef
	if err := decode(in, &ref); err != nil {
		return nil, err
	}
	return reply(s.svc.Delete(ctx, biz.Wrap(inventory.BizType, &ref)))
}

func reply[T any](res *biz.Result[T]) (*structpb.Struct, error) {
	if err := FromResult(res); err != nil {
		return nil, err
	}
	return encode(res.ToEnvelope())
}

// decode reads a Struct request into the payload v through its JSON form.
func decode(in *structpb.Struct, v any) error {
	b, err := protojson.Marshal(in)
	if err == nil {
		err = json.Unmarshal(b, v)
	}
	if err != nil {
		return shared.Validationf("decode request: %v", err)
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
