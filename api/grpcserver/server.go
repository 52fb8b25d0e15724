package grpcserver

import (
	"context"
	"time"

	"bistro/api/wire"
	"bistro/domain/menu"
	"bistro/domain/order"
	"bistro/service"

	"google.golang.org/grpc"
)

// Server adapts the Auth, Menu and Order services to gRPC.
type Server struct {
	auth   *service.AuthService
	menu   *service.MenuService
	orders *service.OrderService
}

func NewServer(auth *service.AuthService, menus *service.MenuService, orders *service.OrderService) *Server {
	return &Server{auth: auth, menu: menus, orders: orders}
}

// Register exposes all three services on s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	wire.RegisterAuthServiceServer(r, s)
	wire.RegisterMenuServiceServer(r, s)
	wire.RegisterOrderServiceServer(r, s)
}

// -------------------- Auth --------------------

func (s *Server) Authenticate(ctx context.Context, req *wire.AuthRequest) (*wire.AuthResponse, error) {
	sess, err := s.auth.Authenticate(ctx, req.UserID, req.Password)
	if err != nil {
		return nil, err
	}
	return &wire.AuthResponse{AuthToken: sess.Token, Role: sess.Role.String()}, nil
}

func (s *Server) Logout(ctx context.Context, _ *wire.LogoutRequest) (*wire.LogoutResponse, error) {
	s.auth.Logout(ctx, service.TokenFrom(ctx))
	return &wire.LogoutResponse{OK: true}, nil
}

// -------------------- Menu --------------------

func (s *Server) GetMenu(ctx context.Context, _ *wire.MenuGetRequest) (*wire.MenuGetResponse, error) {
	return &wire.MenuGetResponse{Menu: fromMenu(s.menu.GetMenu(ctx))}, nil
}

func (s *Server) UpdateMenu(ctx context.Context, req *wire.MenuUpdateRequest) (*wire.MenuUpdateResponse, error) {
	res, err := s.menu.UpdateMenu(ctx, req.Operation, req.Category, toItem(req.Item))
	if err != nil {
		return nil, err
	}
	return &wire.MenuUpdateResponse{OK: res.OK, Error: res.Error}, nil
}

// -------------------- Orders --------------------

func (s *Server) SubmitOrder(ctx context.Context, req *wire.OrderSubmitRequest) (*wire.OrderSubmitResponse, error) {
	o, err := s.orders.SubmitOrder(ctx, toSubmitRequest(req))
	if err != nil {
		return nil, err
	}
	return &wire.OrderSubmitResponse{OrderID: o.ID, Bill: fromBill(o.Bill)}, nil
}

func (s *Server) ListOrders(ctx context.Context, _ *wire.OrderListRequest) (*wire.OrderListResponse, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	resp := &wire.OrderListResponse{Orders: make([]wire.OrderEntry, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, fromOrder(o))
	}
	return resp, nil
}

// -------------------- Converters --------------------

func fromMenu(m menu.Menu) wire.Menu {
	out := wire.Menu{Categories: make([]wire.MenuCategory, 0, len(m.Categories))}
	for _, c := range m.Categories {
		wc := wire.MenuCategory{Name: c.Name.String(), Items: make([]wire.MenuItem, 0, len(c.Items))}
		for _, it := range c.Items {
			wc.Items = append(wc.Items, wire.MenuItem{ItemID: it.ID, Name: it.Name, PriceCents: it.PriceCents})
		}
		out.Categories = append(out.Categories, wc)
	}
	return out
}

func toItem(it wire.MenuItem) menu.Item {
	return menu.Item{ID: it.ItemID, Name: it.Name, PriceCents: it.PriceCents}
}

func toSubmitRequest(req *wire.OrderSubmitRequest) service.SubmitRequest {
	out := service.SubmitRequest{
		Type:      req.Type,
		RequestID: req.RequestID,
		Lines:     make([]order.Line, 0, len(req.Lines)),
	}
	if req.TakeOut != nil {
		out.TakeOut = &order.TakeOutInfo{CustomerName: req.TakeOut.CustomerName}
	}
	for _, l := range req.Lines {
		out.Lines = append(out.Lines, order.Line{ItemID: l.ItemID, Qty: l.Qty})
	}
	return out
}

func fromBill(b order.Bill) wire.Bill {
	out := wire.Bill{Lines: make([]wire.BillLine, 0, len(b.Lines)), SubtotalCents: b.SubtotalCents}
	for _, l := range b.Lines {
		out.Lines = append(out.Lines, wire.BillLine{ItemID: l.ItemID, Qty: l.Qty, LineTotalCents: l.LineTotalCents})
	}
	return out
}

func fromOrder(o order.Order) wire.OrderEntry {
	e := wire.OrderEntry{
		OrderID:   o.ID,
		Type:      o.Type.String(),
		RequestID: o.RequestID,
		Bill:      fromBill(o.Bill),
	}
	if o.TakeOut != nil {
		e.TakeOut = &wire.TakeOutInfo{CustomerName: o.TakeOut.CustomerName}
	}
	if !o.CreatedAt.IsZero() {
		e.CreatedAt = o.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return e
}
