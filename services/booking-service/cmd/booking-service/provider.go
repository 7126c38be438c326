package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/spf13/cobra"
)

func newProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage users",
	}
	cmd.AddCommand(newProviderCreateCmd())
	return cmd
}

func newProviderCreateCmd() *cobra.Command {
	var (
		name, email string
		customer    bool
		tokenTTL    time.Duration
		cfg         model.ProviderConfig
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a provider (or, with --customer, a customer)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := runtime.NewLogger(config.String("SERVICE_NAME", "booking-service"))
			store, _, err := openStore(cmd.Context(), logger, false)
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.CreateUser(cmd.Context(), model.User{
				Name:               strings.TrimSpace(name),
				Email:              strings.TrimSpace(email),
				IsProvider:         !customer,
				MaxBookingDays:     cfg.MaxBookingDays,
				CancelBookingHours: cfg.CancelBookingHours,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID, u.Email)

			if secret := config.String("JWT_SECRET", ""); secret != "" && tokenTTL > 0 {
				role := "provider"
				if customer {
					role = "customer"
				}
				token, err := auth.SignHS256(u.ID, role, tokenTTL, secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
			}
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&email, "email", "", "unique email")
	c.Flags().BoolVar(&customer, "customer", false, "create a customer instead of a provider")
	c.Flags().IntVar(&cfg.MaxBookingDays, "max-booking-days", model.DefaultMaxBookingDays, "how many days ahead customers may book")
	c.Flags().IntVar(&cfg.CancelBookingHours, "cancel-booking-hours", model.DefaultCancelBookingHours, "minimum hours before an appointment to cancel")
	c.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed bearer token when JWT_SECRET is set; 0 prints none")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	return c
}
