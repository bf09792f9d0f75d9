package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fabric"
	"github.com/dmitrymomot/fabric/core/config"
	"github.com/dmitrymomot/fabric/core/logger"
	"github.com/dmitrymomot/fabric/core/workqueue"
)

type order struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Total float64 `json:"total"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg fabric.Config
	config.MustLoad(&cfg)

	log := logger.New(logger.WithProduction("fabricdemo"))
	if cfg.Debug {
		log = logger.New(logger.WithDevelopment("fabricdemo"))
	}

	hub := fabric.NewFromConfig(cfg, fabric.WithLogger(log))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(hub.Run(ctx))

	// Every created order gets a welcome email on the work queue.
	hub.Subscribe("orders:*:created", func(_ context.Context, msg fabric.Message) any {
		fmt.Printf("%s order %s, total %.2f\n",
			color.GreenString("created"), msg.Capture(0), msg.Lookup("total").Float())
		hub.Enqueue("emails:welcome", msg.Lookup("email").String())
		return nil
	})

	// Audit listener sees every order event, any depth.
	hub.Subscribe("orders:#", func(_ context.Context, msg fabric.Message) any {
		fmt.Printf("%s %s\n", color.CyanString("audit"), msg.Topic)
		return nil
	})

	// Pricing service answers quotes.
	hub.Subscribe("pricing:quote", func(ctx context.Context, msg fabric.Message) any {
		hub.Reply(ctx, msg, msg.Lookup("total").Float()*1.2)
		return nil
	})

	send := func(_ context.Context, d fabric.Delivery) error {
		fmt.Printf("%s %s email to %v (attempt %d)\n",
			color.YellowString("sent"), d.Captures[0], d.Item.Payload, d.Attempt)
		return nil
	}
	mailer, err := hub.NewWorker("emails:*", workqueue.Decorate(send,
		workqueue.Logging(log.With(logger.Component("mailer"))),
		workqueue.Timeout(cfg.LeaseTimeout/2),
		workqueue.Retry(2),
	))
	if err != nil {
		log.Error("Failed to create worker", logger.Component("mailer"), logger.Error(err))
		os.Exit(1)
	}
	eg.Go(mailer.Run(ctx))

	eg.Go(func() error {
		orders := []order{
			{ID: "1001", Email: "ada@example.com", Total: 42},
			{ID: "1002", Email: "linus@example.com", Total: 99.5},
		}
		for _, o := range orders {
			if err := hub.Publish(ctx, "orders:"+o.ID+":created", o); err != nil {
				return err
			}

			quoteCtx, cancel := context.WithTimeout(ctx, time.Second)
			quote, err := hub.Ask(quoteCtx, "pricing:quote", o)
			cancel()
			if err != nil {
				return err
			}
			fmt.Printf("%s order %s with tax %.2f\n", color.MagentaString("quoted"), o.ID, quote)
		}

		if cfg.Debug {
			time.Sleep(cfg.PullInterval * 3)
			if err := hub.Dump(os.Stdout); err != nil {
				return err
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Error("Fabric stopped with error", logger.Component("fabric"), logger.Error(err))
		os.Exit(1)
	}

	stats := hub.Stats()
	log.Info("Fabric stopped",
		logger.Event("shutdown"),
		logger.Group("bus",
			logger.Count("published", int(stats.Bus.Published)),
			logger.Count("delivered", int(stats.Bus.Delivered))),
		logger.Group("queue",
			logger.Count("enqueued", int(stats.Queue.Enqueued)),
			logger.Count("handled", int(stats.Queue.Handled)),
			logger.Count("expired", int(stats.Queue.Expired))))
}
