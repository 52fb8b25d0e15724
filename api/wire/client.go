package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// WithToken attaches a session token to outgoing calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataToken, token)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -------------------- Auth --------------------

type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Authenticate(ctx context.Context, in *AuthRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AuthService_Authenticate_FullMethodName, in, opts)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, AuthService_Logout_FullMethodName, in, opts)
}

// -------------------- Menu --------------------

type MenuServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMenuServiceClient(cc grpc.ClientConnInterface) *MenuServiceClient {
	return &MenuServiceClient{cc: cc}
}

func (c *MenuServiceClient) GetMenu(ctx context.Context, in *MenuGetRequest, opts ...grpc.CallOption) (*MenuGetResponse, error) {
	return invoke[MenuGetResponse](ctx, c.cc, MenuService_GetMenu_FullMethodName, in, opts)
}

func (c *MenuServiceClient) UpdateMenu(ctx context.Context, in *MenuUpdateRequest, opts ...grpc.CallOption) (*MenuUpdateResponse, error) {
	return invoke[MenuUpdateResponse](ctx, c.cc, MenuService_UpdateMenu_FullMethodName, in, opts)
}

// -------------------- Orders --------------------

type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) SubmitOrder(ctx context.Context, in *OrderSubmitRequest, opts ...grpc.CallOption) (*OrderSubmitResponse, error) {
	return invoke[OrderSubmitResponse](ctx, c.cc, OrderService_SubmitOrder_FullMethodName, in, opts)
}

func (c *OrderServiceClient) ListOrders(ctx context.Context, in *OrderListRequest, opts ...grpc.CallOption) (*OrderListResponse, error) {
	return invoke[OrderListResponse](ctx, c.cc, OrderService_ListOrders_FullMethodName, in, opts)
}
