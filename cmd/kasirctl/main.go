package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/internal/service"
	"go-kasir-ws/pkg/config"
	"go-kasir-ws/pkg/database"
	"go-kasir-ws/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kasirctl",
	Short: "Operator tooling for the kasir POS backend",
	Long: `kasirctl works directly against the configured store (DB_DRIVER, DATABASE_URL, ...).
It is meant for maintenance tasks that should not go through the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	resetPasswordCmd.Flags().String("username", "admin", "Actor whose password is reset")
	resetPasswordCmd.Flags().String("password", "", "New password")
	_ = resetPasswordCmd.MarkFlagRequired("password")

	restockCmd.Flags().String("as", "admin", "Username recorded on the inventory log")
	restockCmd.Flags().String("notes", "restock via kasirctl", "Notes for the inventory log")

	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(restockCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(sweepCmd)
}

// env bundles what every subcommand needs.
type env struct {
	store *repository.Store
	log   zerolog.Logger
	close func()
}

func setup() (*env, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Env: "development", Level: cfg.Log.Level})

	store, closeFn, err := database.OpenStore(cfg.DB, logger.WithComponent(log, "database"))
	if err != nil {
		return nil, err
	}
	return &env{store: store, log: log, close: closeFn}, nil
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for an actor",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		actor, err := e.store.Actors.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("actor %s: %w", username, err)
		}
		if err := actor.SetPassword(password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := e.store.Actors.Update(ctx, actor); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		fmt.Printf("✓ Password for %s has been reset\n", username)
		return nil
	},
}

var restockCmd = &cobra.Command{
	Use:   "restock <barcode> <qty>",
	Short: "Add delivered units to a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("qty must be a number: %w", err)
		}
		as, _ := cmd.Flags().GetString("as")
		notes, _ := cmd.Flags().GetString("notes")

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		actor, err := e.store.Actors.FindByUsername(ctx, as)
		if err != nil {
			return fmt.Errorf("actor %s: %w", as, err)
		}

		// nobody is subscribed from the CLI; the next monitor sweep reconciles alert state
		inv := service.NewInventoryService(e.store, events.Discard{}, e.log)
		p, err := inv.Restock(ctx, args[0], qty, actor.ID, notes)
		if err != nil {
			return err
		}

		fmt.Printf("✓ %s (%s) stock is now %d\n", p.Name, p.Barcode, p.Stock)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check every product's stock against its inventory log",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		mismatches, err := service.Reconcile(cmd.Context(), e.store)
		if err != nil {
			return err
		}
		if len(mismatches) == 0 {
			fmt.Println("✓ All products reconcile")
			return nil
		}
		for _, m := range mismatches {
			fmt.Printf("✗ %s: stock %d, log says %d\n", m.Barcode, m.Stock, m.Expected)
		}
		return fmt.Errorf("%d product(s) out of balance", len(mismatches))
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one low-stock sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		if err := service.NewAlertService(e.store, events.Discard{}, e.log).Sweep(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Sweep complete")
		return nil
	},
}
