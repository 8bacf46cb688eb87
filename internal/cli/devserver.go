package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SundayYogurt/visa_admin/infra/queue"
	"github.com/SundayYogurt/visa_admin/internal/api"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/spf13/cobra"
)

var errNoBroker = errors.New("KAFKA_BROKER is not set")

func newDevserverCommand(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the admin REST backend (Postgres when DATABASE_DSN is set, seeded memory otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if port != "" {
				cfg.ServerPort = port
			}
			return api.StartServer(cmd.Context(), cfg, a.log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default SERVER_PORT)")
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream review decisions from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if !cfg.KafkaEnabled() {
				return errNoBroker
			}

			feed := services.NewDecisionFeed(func(ev dto.ReviewDecisionEvent) {
				printDecision(a, ev)
			}, a.log)
			consumer := queue.NewKafkaConsumer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID,
				cfg.KafkaUsername, cfg.KafkaPassword, feed, a.log)
			defer consumer.Close()

			fmt.Fprintf(a.out, "Watching %s on %s. Ctrl-C to stop.\n", cfg.KafkaTopic, cfg.KafkaBroker)
			return consumer.Listen(cmd.Context())
		},
	}
}

func printDecision(a *app, ev dto.ReviewDecisionEvent) {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", ev.ApplicationID, ev.Status)
	if ev.DocumentID != nil {
		fmt.Fprintf(&b, " (document %d)", *ev.DocumentID)
	}
	if ev.Reason != nil && *ev.Reason != "" {
		fmt.Fprintf(&b, ": %s", *ev.Reason)
	}
	if ev.DecidedBy != "" {
		fmt.Fprintf(&b, " by %s", ev.DecidedBy)
	}
	fmt.Fprintf(&b, " at %s", ev.DecidedAt)

	if ev.Action == dto.DecisionRejected {
		a.notifier.Error(ev.Action, b.String())
		return
	}
	a.notifier.Success(ev.Action, b.String())
}
