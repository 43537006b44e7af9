package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/lfmsh/bank/api"
	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/internal/background_tasks"
	"gitlab.com/lfmsh/bank/internal/config"
	"gitlab.com/lfmsh/bank/internal/logger"
	repositories_gorm "gitlab.com/lfmsh/bank/internal/repositories/gorm"
	"gitlab.com/lfmsh/bank/internal/tracing"
	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/storage"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development ledger API",
		Long: `Run the ledger API the CLI and the web front end talk to. Data lives in a
SQLite database, avatars under the media directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				config.SetConfig("server.listen", listen)
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				config.SetConfig("server.database_path", db)
			}
			if testMode, _ := cmd.Flags().GetBool("test-mode"); testMode {
				config.SetConfig("server.test_mode", true)
			}
			return serve(cmd.Context(), config.GetConfig().Server)
		},
	}

	cmd.Flags().String("listen", "", "address to listen on")
	cmd.Flags().String("db", "", "path of the SQLite database")
	cmd.Flags().Bool("test-mode", false, "seed the test accounts on start")

	return cmd
}

func serve(ctx context.Context, cfg config.Server) (err error) {
	log := logger.New("serve")

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("unable to initialize tracing: %w", err)
	}
	defer func() {
		err = multierr.Append(err, shutdownTracer(context.Background()))
	}()

	db, err := repositories_gorm.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, repositories_gorm.Close(db))
	}()
	store := repositories_gorm.NewStore(db)

	media := afero.NewOsFs()
	avatars, err := storage.NewFSAvatarStorage(media, cfg.MediaDir)
	if err != nil {
		return fmt.Errorf("unable to prepare media directory: %w", err)
	}
	badgeImages, err := storage.NewFSBadgeStorage(media, cfg.MediaDir)
	if err != nil {
		return fmt.Errorf("unable to prepare media directory: %w", err)
	}

	service := ledger.NewService(store, avatars, badgeImages, cfg.DefaultPassword)
	if cfg.TestMode {
		if err := service.SeedTestUsers(ctx); err != nil {
			return fmt.Errorf("unable to seed test users: %w", err)
		}
		log.Info("test users seeded")
	}

	tokens := auth.NewIssuer(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour)

	router := api.SetupRouter(api.NewHandler(service, tokens, avatars), cfg.CorsOrigins)
	server := api.NewServer(cfg.Listen, router)

	var scheduler *background_tasks.Scheduler
	if cfg.DailyTaxCron != "" {
		task, err := background_tasks.NewDailyTaxTask(cfg.DailyTaxCron, service)
		if err != nil {
			return err
		}
		scheduler = background_tasks.NewScheduler(1)
		scheduler.AddTask(task)
		log.Info("daily tax scheduled", zap.String("cron", cfg.DailyTaxCron))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	if scheduler != nil {
		g.Go(func() error {
			scheduler.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}
