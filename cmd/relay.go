package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/internal/relay"
	"github.com/grovetools/uptask/logging"
	"github.com/spf13/cobra"
)

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the event relay clients exchange task events through",
		Long: `Run the event relay. Clients join one room per open project and every
event is forwarded to the other members of that room. Point channel_url at
ws://<listen>/ws.`,
		Args: cobra.NoArgs,
	}
	listen := cmd.Flags().String("listen", "", "Address to listen on (defaults to relay.listen)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		addr := *listen
		if addr == "" {
			addr = cfg.Relay.Listen
		}

		srv := relay.New(logging.NewLogger("relay"))
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		return srv.ListenAndServe(addr)
	}
	return cmd
}
