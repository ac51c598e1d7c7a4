package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafeshop/internal/config"
	"cafeshop/internal/infra/db"
	"cafeshop/internal/infra/importer"
	"cafeshop/internal/infra/payment"
	"cafeshop/internal/server"
	"cafeshop/internal/usecase"
	auth "cafeshop/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := openDB()
			if err != nil {
				return err
			}
			log.Info("migration finished")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or promote the ADMIN_EMAIL user to ADMIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := openDB()
			if err != nil {
				return err
			}
			if cfg.AdminEmail == "" {
				return fmt.Errorf("ADMIN_EMAIL is required")
			}
			app, err := server.Build(cfg, gdb, nil)
			if err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), cfg, app.SeedUser)
		},
	}
}

func syncPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-prices",
		Short: "Register every cafe with the payment gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := openDB()
			if err != nil {
				return err
			}
			if err := cfg.RequireGateway(); err != nil {
				return err
			}
			app, err := server.Build(cfg, gdb, newGateway(cfg))
			if err != nil {
				return err
			}
			n, err := app.Prices.SyncAll(cmd.Context())
			log.Infof("registered %d cafes with the gateway", n)
			return err
		},
	}
}

func importCmd() *cobra.Command {
	var actorEmail string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Bulk-create cafes from an .xlsx or .yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := openDB()
			if err != nil {
				return err
			}
			if actorEmail == "" {
				actorEmail = cfg.AdminEmail
			}
			if actorEmail == "" {
				return fmt.Errorf("--as or ADMIN_EMAIL is required")
			}

			app, err := server.Build(cfg, gdb, nil)
			if err != nil {
				return err
			}
			actor, err := app.Users.FindByEmail(cmd.Context(), actorEmail)
			if err != nil {
				return err
			}
			if actor == nil {
				return fmt.Errorf("no user with email %s", actorEmail)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			parsed, err := importer.Parse(args[0], f)
			if err != nil {
				return err
			}
			res, err := app.Cafes.Import(cmd.Context(), actor.ID, parsed.Rows)
			if err != nil {
				return err
			}
			for _, msg := range append(parsed.Invalid, res.Errors...) {
				log.Warnf("skipped %s", msg)
			}
			log.Infof("imported %d cafes, skipped %d", res.Created, res.Skipped+len(parsed.Invalid))
			return nil
		},
	}

	cmd.Flags().StringVar(&actorEmail, "as", "", "Email of the user recorded in the audit log (default ADMIN_EMAIL)")
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, gdb, err := openDB()
	if err != nil {
		return err
	}
	if err := cfg.RequireGateway(); err != nil {
		return err
	}

	app, err := server.Build(cfg, gdb, newGateway(cfg))
	if err != nil {
		return err
	}

	if cfg.AdminEmail != "" {
		if err := seedAdmin(ctx, cfg, app.SeedUser); err != nil {
			return err
		}
	}

	//1件の失敗で起動は止めない
	if cfg.PriceSyncOnStart {
		n, err := app.Prices.SyncAll(ctx)
		if err != nil {
			app.Echo.Logger.Warnf("price sync: %v", err)
		}
		app.Echo.Logger.Infof("price sync: %d cafes registered, %d prices cached", n, app.Prices.Len())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(app.Echo, cfg.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Echo.Shutdown(shutdownCtx)
}

func openDB() (config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	//DB接続
	gdb, err := db.Connect(cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return config.Config{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, gdb, nil
}

func newGateway(cfg config.Config) usecase.PaymentGateway {
	return payment.NewStripeGateway(payment.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		APIURL:    cfg.StripeAPIURL,
		Timeout:   cfg.GatewayTimeout,
	})
}

func seedAdmin(ctx context.Context, cfg config.Config, uc *auth.SeedAdminUsecase) error {
	u, created, err := uc.Execute(ctx, auth.SeedAdminInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Infof("admin user %s created", u.Email)
	} else {
		log.Infof("admin user %s ready", u.Email)
	}
	return nil
}
