package main

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/app/setup"
	"github.com/LavaJover/shvark-product-service/internal/pkg/await"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <payload>",
		Short: "Publish one payload to the configured topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := setup.EnsureTopic(ctx, a.cfg.KafkaService); err != nil {
				a.log.Warn("failed to ensure topic", "topic", a.cfg.KafkaService.Topic, "error", err)
			}

			msg, err := setup.InitMessaging(a.cfg, a.log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer msg.Close()

			return msg.Producer.SendMessage(ctx, args[0])
		},
	}
}

func newAwaitCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "await",
		Short: "Consume the topic until --count payloads are buffered, then print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			if interval <= 0 {
				interval = a.cfg.Await.Interval
			}
			if timeout <= 0 {
				timeout = a.cfg.Await.Timeout
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			msg, err := setup.InitMessaging(a.cfg, a.log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer msg.Close()

			if err := msg.Consumer.Start(ctx); err != nil {
				return err
			}

			payloads, err := msg.Inbox.AwaitMessages(ctx, count, await.WithInterval(interval), await.WithTimeout(timeout))
			for _, p := range payloads {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of payloads to wait for")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (defaults to await.interval)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (defaults to await.timeout)")
	return cmd
}
