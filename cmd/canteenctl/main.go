// Command canteenctl is the operator tool for the canteen API: it seeds the
// menu, lists orders and drives order statuses.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/canteen/internal/client"
	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/ordering"
)

const usage = `usage: canteenctl [-backend-url URL] <command> [flags]

commands:
  seed    -file menu.json          create or update dishes from a file
  orders  -limit N                 print recent orders
  status  -id N -status S          set an order's status
  watch   -id N -interval 2s       follow an order until it is completed
`

func main() {
	global := flag.NewFlagSet("canteenctl", flag.ExitOnError)
	backendURL := global.String("backend-url", "", "canteen API base URL (or CANTEEN_BACKEND_URL env)")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	if *backendURL == "" {
		*backendURL = os.Getenv("CANTEEN_BACKEND_URL")
	}
	if *backendURL == "" {
		*backendURL = client.DefaultBaseURL
	}
	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, *backendURL, global.Arg(0), global.Args()[1:]); err != nil {
		slog.Error("command failed", slog.String("command", global.Arg(0)), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, backendURL, command string, args []string) error {
	api, err := client.New(backendURL)
	if err != nil {
		return errors.Wrap(err, "create client")
	}

	switch command {
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ContinueOnError)
		file := fs.String("file", "menu.json", "path to the menu JSON file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return seed(ctx, api, *file)
	case "orders":
		fs := flag.NewFlagSet("orders", flag.ContinueOnError)
		limit := fs.Int("limit", client.DefaultOrderLimit, "number of orders to show")
		if err := fs.Parse(args); err != nil {
			return err
		}
		orders, err := api.ListOrders(ctx, *limit)
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
		return printOrders(out, orders)
	case "status":
		fs := flag.NewFlagSet("status", flag.ContinueOnError)
		id := fs.Int64("id", 0, "order ID")
		raw := fs.String("status", "", "new status: pending, accepted, cooking or completed")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id <= 0 {
			return errors.New("-id is required")
		}
		status, err := order.ParseStatus(*raw)
		if err != nil {
			return err
		}
		o, err := api.UpdateOrderStatus(ctx, *id, status)
		if err != nil {
			return errors.Wrapf(err, "update order %d", *id)
		}
		slog.Info("order updated", slog.Int64("id", o.ID), slog.String("status", o.Status.String()))
		return nil
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		id := fs.Int64("id", 0, "order ID")
		interval := fs.Duration("interval", 2*time.Second, "poll interval")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id <= 0 {
			return errors.New("-id is required")
		}
		_, err := ordering.NewService(api).Watch(ctx, *id, *interval, func(o *order.Order) {
			fmt.Fprintf(out, "%s order %d is %s\n", time.Now().Format(time.TimeOnly), o.ID, o.Status)
		})
		return err
	default:
		return errors.Errorf("unknown command %q", command)
	}
}
