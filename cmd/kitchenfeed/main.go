// Command kitchenfeed prints a kitchen ticket for every submitted order
// published on the order topic.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"bistro/domain/order"
	"bistro/infra/kafka"
	"bistro/infra/logging"
)

func main() {
	var (
		brokers = pflag.String("brokers", "localhost:9092", "comma separated Kafka brokers")
		topic   = pflag.String("topic", "bistro.orders", "order topic")
		group   = pflag.String("group", "kitchenfeed", "consumer group")
		level   = pflag.String("log-level", "info", "log level")
	)
	pflag.Parse()

	log, err := logging.NewLogger("kitchenfeed", *level, false)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := kafka.NewConsumer(strings.Split(*brokers, ","), *topic, *group)
	defer c.Close()

	log.Info("waiting for orders", zap.String("topic", *topic))
	err = c.Run(ctx, func(_, value []byte) error {
		ev, err := order.UnmarshalEvent(value)
		if err != nil {
			// Unreadable events are skipped.
			log.Warn("bad event", zap.Error(err))
			return nil
		}
		logTicket(log, ev)
		return nil
	})
	if err != nil {
		log.Fatal("feed stopped", zap.Error(err))
	}
}

func logTicket(log *zap.Logger, ev order.Event) {
	r := ev.Order
	fields := []zap.Field{
		zap.String("order", r.OrderID),
		zap.String("type", r.Type),
		zap.Int64("subtotal_cents", r.SubtotalCents),
	}
	if r.TakeOut != nil {
		fields = append(fields, zap.String("customer", r.TakeOut.CustomerName))
	}
	items := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		items = append(items, l.ItemID+" x"+strconv.FormatInt(l.Qty, 10))
	}
	fields = append(fields, zap.Strings("items", items))
	log.Info("ticket", fields...)
}
