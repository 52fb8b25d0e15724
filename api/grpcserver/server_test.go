package grpcserver

import (
	"context"
	"net"
	"sync"
	"testing"

	"bistro/api/wire"
	"bistro/catalog"
	"bistro/domain/menu"
	"bistro/domain/user"
	"bistro/infra/sequence"
	"bistro/infra/storage/filestore"
	"bistro/infra/users"
	"bistro/metrics"
	"bistro/service"
	"bistro/session"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type clients struct {
	auth   *wire.AuthServiceClient
	menu   *wire.MenuServiceClient
	orders *wire.OrderServiceClient
}

func startServer(t *testing.T) clients {
	t.Helper()
	log := zaptest.NewLogger(t)

	seed := menu.Empty()
	for _, add := range []struct {
		cat  menu.CategoryName
		item menu.Item
	}{
		{menu.Mains, menu.Item{ID: "m1", Name: "Burger", PriceCents: 1000}},
		{menu.Desserts, menu.Item{ID: "d1", Name: "Brownie", PriceCents: 500}},
	} {
		var err error
		if seed, err = seed.Apply(menu.OpAdd, add.cat, add.item); err != nil {
			t.Fatal(err)
		}
	}

	backend, err := filestore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := catalog.Open(context.Background(), backend, seed, log)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := users.FromUsers(
		user.User{ID: "manager1", Password: "pass123", Role: user.RoleManager},
		user.User{ID: "server1", Password: "pass123", Role: user.RoleServer},
	)
	if err != nil {
		t.Fatal(err)
	}

	sessions := session.NewRegistry()
	m := metrics.New()
	auth := service.NewAuthService(dir, sessions, service.WithAuthLogger(log), service.WithAuthMetrics(m))
	menuSvc := service.NewMenuService(store, sessions, m, log)
	orderSvc := service.NewOrderService(store, sequence.New(0), sessions, service.WithOrderLogger(log))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(ServerOptions(Options{Workers: 4, MaxConcurrentStreams: 64, Log: log, Metrics: m})...)
	NewServer(auth, menuSvc, orderSvc).Register(srv)
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		store.Close()
	})
	return clients{
		auth:   wire.NewAuthServiceClient(conn),
		menu:   wire.NewMenuServiceClient(conn),
		orders: wire.NewOrderServiceClient(conn),
	}
}

func login(t *testing.T, c clients, userID string) context.Context {
	t.Helper()
	res, err := c.auth.Authenticate(context.Background(), &wire.AuthRequest{UserID: userID, Password: "pass123"})
	if err != nil {
		t.Fatal(err)
	}
	return wire.WithToken(context.Background(), res.AuthToken)
}

func wantCode(t *testing.T, err error, code codes.Code, msg string) {
	t.Helper()
	st, _ := status.FromError(err)
	if st.Code() != code {
		t.Fatalf("code = %v (%v), want %v", st.Code(), err, code)
	}
	if msg != "" && st.Message() != msg {
		t.Fatalf("message = %q, want %q", st.Message(), msg)
	}
}

// Mirrors the demo client: login, read, add, read, order, logout.
func TestClientFlow(t *testing.T) {
	c := startServer(t)

	res, err := c.auth.Authenticate(context.Background(), &wire.AuthRequest{UserID: "manager1", Password: "pass123"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Role != wire.RoleManager || res.AuthToken == "" {
		t.Fatalf("auth = %+v", res)
	}
	ctx := wire.WithToken(context.Background(), res.AuthToken)

	m, err := c.menu.GetMenu(ctx, &wire.MenuGetRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Menu.Categories) != 4 || m.Menu.Categories[1].Name != "MAINS" {
		t.Fatalf("menu = %+v", m.Menu)
	}

	upd, err := c.menu.UpdateMenu(ctx, &wire.MenuUpdateRequest{
		Operation: "ADD",
		Category:  "MAINS",
		Item:      wire.MenuItem{ItemID: "m2", Name: "Chicken Sandwich", PriceCents: 1399},
	})
	if err != nil || !upd.OK {
		t.Fatalf("UpdateMenu = %+v, %v", upd, err)
	}

	m, _ = c.menu.GetMenu(ctx, &wire.MenuGetRequest{})
	if items := m.Menu.Categories[1].Items; len(items) != 2 || items[1].ItemID != "m2" {
		t.Fatalf("mains = %+v", items)
	}

	o, err := c.orders.SubmitOrder(ctx, &wire.OrderSubmitRequest{
		Type:      wire.OrderTakeOut,
		RequestID: "req1",
		TakeOut:   &wire.TakeOutInfo{CustomerName: "John"},
		Lines:     []wire.OrderLine{{ItemID: "m1", Qty: 2}, {ItemID: "d1", Qty: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.OrderID != "o_00000001" || o.Bill.SubtotalCents != 2500 || len(o.Bill.Lines) != 2 {
		t.Fatalf("order = %+v", o)
	}

	list, err := c.orders.ListOrders(ctx, &wire.OrderListRequest{})
	if err != nil || len(list.Orders) != 1 || list.Orders[0].TakeOut.CustomerName != "John" {
		t.Fatalf("ListOrders = %+v, %v", list, err)
	}

	lo, err := c.auth.Logout(ctx, &wire.LogoutRequest{})
	if err != nil || !lo.OK {
		t.Fatalf("Logout = %+v, %v", lo, err)
	}
	_, err = c.menu.UpdateMenu(ctx, &wire.MenuUpdateRequest{Operation: "DELETE", Category: "MAINS", Item: wire.MenuItem{ItemID: "m2"}})
	wantCode(t, err, codes.PermissionDenied, "Manager role required")
}

func TestStatusMapping(t *testing.T) {
	c := startServer(t)

	_, err := c.auth.Authenticate(context.Background(), &wire.AuthRequest{UserID: "ghost", Password: "x"})
	wantCode(t, err, codes.Unauthenticated, "Invalid credentials")

	_, err = c.menu.UpdateMenu(login(t, c, "server1"), &wire.MenuUpdateRequest{Operation: "ADD", Category: "MAINS"})
	wantCode(t, err, codes.PermissionDenied, "Manager role required")

	_, err = c.orders.SubmitOrder(context.Background(), &wire.OrderSubmitRequest{
		Type:  wire.OrderDineIn,
		Lines: []wire.OrderLine{{ItemID: "nope", Qty: 1}},
	})
	wantCode(t, err, codes.NotFound, "Unknown itemID: nope")

	_, err = c.orders.SubmitOrder(context.Background(), &wire.OrderSubmitRequest{
		Type:  wire.OrderDineIn,
		Lines: []wire.OrderLine{{ItemID: "m1", Qty: -1}},
	})
	wantCode(t, err, codes.InvalidArgument, "")

	upd, err := c.menu.UpdateMenu(login(t, c, "manager1"), &wire.MenuUpdateRequest{
		Operation: "ADD",
		Category:  "MAINS",
		Item:      wire.MenuItem{ItemID: "m1", Name: "Dup"},
	})
	if err != nil || upd.OK || upd.Error != "itemID already exists" {
		t.Fatalf("duplicate add = %+v, %v", upd, err)
	}

	// Logout with no token still succeeds.
	if lo, err := c.auth.Logout(context.Background(), &wire.LogoutRequest{}); err != nil || !lo.OK {
		t.Fatalf("anonymous Logout = %+v, %v", lo, err)
	}
}

func TestConcurrentAddsOverRPC(t *testing.T) {
	c := startServer(t)
	ctx := login(t, c, "manager1")
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10", "a11", "a12"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := c.menu.UpdateMenu(ctx, &wire.MenuUpdateRequest{
				Operation: "ADD",
				Category:  "APPETIZERS",
				Item:      wire.MenuItem{ItemID: id, Name: id, PriceCents: 250},
			})
			if err != nil || !res.OK {
				t.Errorf("add %s: %+v %v", id, res, err)
			}
		}(id)
	}
	wg.Wait()

	m, err := c.menu.GetMenu(ctx, &wire.MenuGetRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(m.Menu.Categories[0].Items); got != len(ids) {
		t.Fatalf("appetizers = %d, want %d", got, len(ids))
	}
}

func TestToStatusHidesInternalCause(t *testing.T) {
	st := toStatus(&service.Error{Kind: service.KindInternal, Msg: "append order", Err: context.DeadlineExceeded})
	if st.Code() != codes.DeadlineExceeded {
		t.Errorf("deadline code = %v", st.Code())
	}
	st = toStatus(&service.Error{Kind: service.KindInternal, Msg: "append order", Err: net.ErrClosed})
	if st.Code() != codes.Internal || st.Message() != "internal error" {
		t.Errorf("status = %v", st)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := RecoveryInterceptor(zaptest.NewLogger(t))
	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(context.Context, any) (any, error) { panic("boom") })
	wantCode(t, err, codes.Internal, "internal error")
}
