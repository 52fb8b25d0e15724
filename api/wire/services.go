package wire

import (
	"context"

	"google.golang.org/grpc"
)

// Fully-qualified method names.
const (
	AuthService_Authenticate_FullMethodName = "/restaurant.AuthService/Authenticate"
	AuthService_Logout_FullMethodName       = "/restaurant.AuthService/Logout"
	MenuService_GetMenu_FullMethodName      = "/restaurant.MenuService/GetMenu"
	MenuService_UpdateMenu_FullMethodName   = "/restaurant.MenuService/UpdateMenu"
	OrderService_SubmitOrder_FullMethodName = "/restaurant.OrderService/SubmitOrder"
	OrderService_ListOrders_FullMethodName  = "/restaurant.OrderService/ListOrders"
)

// MetadataToken is the request metadata key carrying the session token.
const MetadataToken = "authtoken"

// -------------------- Server interfaces --------------------

type AuthServiceServer interface {
	Authenticate(context.Context, *AuthRequest) (*AuthResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
}

type MenuServiceServer interface {
	GetMenu(context.Context, *MenuGetRequest) (*MenuGetResponse, error)
	UpdateMenu(context.Context, *MenuUpdateRequest) (*MenuUpdateResponse, error)
}

type OrderServiceServer interface {
	SubmitOrder(context.Context, *OrderSubmitRequest) (*OrderSubmitResponse, error)
	ListOrders(context.Context, *OrderListRequest) (*OrderListResponse, error)
}

// -------------------- Registration --------------------

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func RegisterMenuServiceServer(s grpc.ServiceRegistrar, srv MenuServiceServer) {
	s.RegisterService(&MenuService_ServiceDesc, srv)
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderService_ServiceDesc, srv)
}

// -------------------- Descriptors --------------------

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "restaurant.AuthService",
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Authenticate",
			Handler: unary(AuthService_Authenticate_FullMethodName, func(srv any, ctx context.Context, in *AuthRequest) (*AuthResponse, error) {
				return srv.(AuthServiceServer).Authenticate(ctx, in)
			}),
		},
		{
			MethodName: "Logout",
			Handler: unary(AuthService_Logout_FullMethodName, func(srv any, ctx context.Context, in *LogoutRequest) (*LogoutResponse, error) {
				return srv.(AuthServiceServer).Logout(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "restaurant.proto",
}

var MenuService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "restaurant.MenuService",
	HandlerType: (*MenuServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetMenu",
			Handler: unary(MenuService_GetMenu_FullMethodName, func(srv any, ctx context.Context, in *MenuGetRequest) (*MenuGetResponse, error) {
				return srv.(MenuServiceServer).GetMenu(ctx, in)
			}),
		},
		{
			MethodName: "UpdateMenu",
			Handler: unary(MenuService_UpdateMenu_FullMethodName, func(srv any, ctx context.Context, in *MenuUpdateRequest) (*MenuUpdateResponse, error) {
				return srv.(MenuServiceServer).UpdateMenu(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "restaurant.proto",
}

var OrderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "restaurant.OrderService",
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitOrder",
			Handler: unary(OrderService_SubmitOrder_FullMethodName, func(srv any, ctx context.Context, in *OrderSubmitRequest) (*OrderSubmitResponse, error) {
				return srv.(OrderServiceServer).SubmitOrder(ctx, in)
			}),
		},
		{
			MethodName: "ListOrders",
			Handler: unary(OrderService_ListOrders_FullMethodName, func(srv any, ctx context.Context, in *OrderListRequest) (*OrderListResponse, error) {
				return srv.(OrderServiceServer).ListOrders(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "restaurant.proto",
}

// unary builds a method handler that decodes Req, runs the interceptor
// chain and calls fn.
func unary[Req, Resp any](fullMethod string, fn func(srv any, ctx context.Context, in *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
