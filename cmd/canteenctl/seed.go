package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/wire"
)

// seedConcurrency bounds parallel create and update calls.
const seedConcurrency = 4

// dishWriter is the part of the client used for seeding.
type dishWriter interface {
	ListDishes(ctx context.Context, f dish.Filter) ([]dish.Dish, error)
	CreateDish(ctx context.Context, in dish.Input) (*dish.Dish, error)
	UpdateDish(ctx context.Context, id int64, upd dish.Update) (*dish.Dish, error)
}

// seed upserts the dishes of file by name: existing dishes are overwritten,
// the rest are created.
func seed(ctx context.Context, api dishWriter, file string) error {
	slog.Info("reading menu file", slog.String("path", file))

	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}
	inputs, err := wire.DecodeDishInputs(jx.DecodeBytes(data))
	if err != nil {
		return errors.Wrap(err, "parse menu file")
	}

	existing, err := api.ListDishes(ctx, dish.Filter{})
	if err != nil {
		return errors.Wrap(err, "list dishes")
	}
	byName := make(map[string]int64, len(existing))
	for _, d := range existing {
		byName[d.Name] = d.ID
	}

	slog.Info("upserting dishes", slog.Int("count", len(inputs)), slog.Int("existing", len(existing)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for _, in := range inputs {
		g.Go(func() error {
			if id, ok := byName[in.Name]; ok {
				if _, err := api.UpdateDish(gctx, id, dish.UpdateFrom(in)); err != nil {
					return errors.Wrapf(err, "update dish %q", in.Name)
				}
				slog.Info("updated dish", slog.Int64("id", id), slog.String("name", in.Name))
				return nil
			}
			d, err := api.CreateDish(gctx, in)
			if err != nil {
				return errors.Wrapf(err, "create dish %q", in.Name)
			}
			slog.Info("created dish", slog.Int64("id", d.ID), slog.String("name", d.Name))
			return nil
		})
	}
	return g.Wait()
}

func printOrders(out io.Writer, orders []order.Order) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tITEMS\tNOTE")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			o.ID, o.OrderTime.Local().Format("2006-01-02 15:04"), o.Status, o.TotalItems, o.Note)
	}
	return tw.Flush()
}
