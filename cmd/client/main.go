// Command client runs the demo flow against a server: log in, read the
// menu, add an item, order, log out.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bistro/api/wire"
)

func main() {
	var (
		addr     = pflag.String("addr", "localhost:50051", "server address")
		userID   = pflag.StringP("user", "u", "manager1", "user id")
		password = pflag.StringP("password", "p", "pass123", "password")
		timeout  = pflag.Duration("timeout", 10*time.Second, "overall deadline")
	)
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *addr, *userID, *password); err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, userID, password string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	auth := wire.NewAuthServiceClient(conn)
	menus := wire.NewMenuServiceClient(conn)
	orders := wire.NewOrderServiceClient(conn)

	res, err := auth.Authenticate(ctx, &wire.AuthRequest{UserID: userID, Password: password})
	if err != nil {
		return err
	}
	fmt.Println("Authenticated role:", res.Role, "token:", res.AuthToken)
	ctx = wire.WithToken(ctx, res.AuthToken)

	if err := printMenu(ctx, menus, "Menu:"); err != nil {
		return err
	}

	upd, err := menus.UpdateMenu(ctx, &wire.MenuUpdateRequest{
		Operation: "ADD",
		Category:  "MAINS",
		Item:      wire.MenuItem{ItemID: "m2", Name: "Chicken Sandwich", PriceCents: 1399},
	})
	if err != nil {
		return err
	}
	fmt.Println("UpdateMenu ok:", upd.OK, "err:", upd.Error)

	if err := printMenu(ctx, menus, "Updated Menu:"); err != nil {
		return err
	}

	o, err := orders.SubmitOrder(ctx, &wire.OrderSubmitRequest{
		Type:      wire.OrderTakeOut,
		RequestID: "req1",
		TakeOut:   &wire.TakeOutInfo{CustomerName: "John"},
		Lines:     []wire.OrderLine{{ItemID: "m1", Qty: 2}, {ItemID: "d1", Qty: 1}},
	})
	if err != nil {
		return err
	}
	fmt.Println("OrderID:", o.OrderID, "Subtotal cents:", o.Bill.SubtotalCents)

	lo, err := auth.Logout(ctx, &wire.LogoutRequest{})
	if err != nil {
		return err
	}
	fmt.Println("Logout ok:", lo.OK)
	return nil
}

func printMenu(ctx context.Context, c *wire.MenuServiceClient, title string) error {
	m, err := c.GetMenu(ctx, &wire.MenuGetRequest{})
	if err != nil {
		return err
	}
	fmt.Println(title)
	for _, cat := range m.Menu.Categories {
		fmt.Println("Category:", cat.Name)
		for _, it := range cat.Items {
			fmt.Printf("  ItemID: %s, Name: %s, Price cents: %d\n", it.ItemID, it.Name, it.PriceCents)
		}
	}
	return nil
}
