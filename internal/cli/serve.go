package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimp/internal/database"
	"github.com/JonMunkholm/csvimp/internal/web"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.setup(cmd, true)
			if err != nil {
				return err
			}
			slog.Info("configuration loaded", "config", cfg.String())

			a, err := loadAtlas(cfg.Atlas.Path)
			if err != nil {
				return err
			}
			if err := a.Validate(); err != nil {
				return fmt.Errorf("atlas %s: %w", cfg.Atlas.Path, err)
			}
			slog.Info("atlas loaded", "path", cfg.Atlas.Path, "maps", len(a.Maps))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			server := web.NewServer(cfg, a, db)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}
