package main

import (
	"fmt"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/completion"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var scope completion.Scope

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Run one completion pass and print how many appointments moved to DONE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := runtime.NewLogger(config.String("SERVICE_NAME", "booking-service"))
			store, _, err := openStore(cmd.Context(), logger, false)
			if err != nil {
				return err
			}
			defer store.Close()

			sweeper := completion.NewSweeper(store, logger, nil, completion.Config{
				BatchSize: config.Int("COMPLETION_BATCH_SIZE", 500),
			})
			n := sweeper.Sweep(cmd.Context(), scope)
			fmt.Fprintf(cmd.OutOrStdout(), "completed %d appointments\n", n)
			return nil
		},
	}
	c.Flags().StringVar(&scope.CustomerID, "customer", "", "only this customer's appointments")
	c.Flags().StringVar(&scope.ProviderID, "provider", "", "only this provider's appointments")
	return c
}
