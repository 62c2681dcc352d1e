package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/counselhub/counselhub.go/db"
	"github.com/counselhub/counselhub.go/lib"
	"github.com/counselhub/counselhub.go/lib/responses"
	"github.com/counselhub/counselhub.go/lib/service"
	"github.com/counselhub/counselhub.go/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		resp := responses.FromError(err)
		if resp.Code == responses.CodeServerError {
			// keep the detail on the terminal; FromError hides it for callers
			resp.Message = err.Error()
		}
		printJSON(os.Stderr, resp)
		responses.CaptureError(err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "counselhub",
		Short:         "Case, billing, trust and ledger records for a law practice",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	app := &app{envFile: &envFile}
	cmd.PersistentPreRun = func(c *cobra.Command, _ []string) {
		app.job = strings.ReplaceAll(c.CommandPath(), " ", "_")
	}
	cmd.AddCommand(
		migrateCmd(app),
		trustCmd(app),
		ledgerCmd(app),
		invoicesCmd(app),
	)
	return cmd
}

// app holds what every subcommand needs once the environment is loaded.
type app struct {
	envFile *string
	job     string

	config    *service.Config
	logger    zerolog.Logger
	db        *bun.DB
	publisher *rabbitmq.DefaultClient
	svc       *service.PracticeService
}

func (a *app) loadConfig() error {
	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(*a.envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s file\n", *a.envFile)
	}
	a.config = &service.Config{}
	if err := envconfig.Process("", a.config); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	a.logger = lib.Logger(a.config.LogFilePath, a.config.Level())

	// Setup exception tracking with Sentry if configured
	if a.config.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: a.config.SentryDSN}); err != nil {
			a.logger.Error().Err(err).Msg("sentry init error")
		}
	}
	return nil
}

// connect opens the database, waiting for it to accept connections.
func (a *app) connect(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	dbConn, err := db.Open(a.config)
	if err != nil {
		return fmt.Errorf("initializing db connection: %w", err)
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = time.Duration(a.config.DatabaseConnectTimeout) * time.Second
	err = backoff.RetryNotify(func() error {
		return dbConn.PingContext(ctx)
	}, backoff.WithContext(retry, ctx), func(err error, next time.Duration) {
		a.logger.Warn().Err(err).Dur("retry_in", next).Msg("database not ready")
	})
	if err != nil {
		dbConn.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.db = dbConn
	return nil
}

// start connects and builds the service, publishing records when RabbitMQ
// is configured.
func (a *app) start(ctx context.Context) error {
	if err := a.connect(ctx); err != nil {
		return err
	}

	var publisher service.RecordPublisher
	if a.config.RabbitMQUri != "" {
		client, err := rabbitmq.Dial(a.config.RabbitMQUri, a.logger,
			rabbitmq.WithRecordExchange(a.config.RabbitMQRecordExchange),
		)
		if err != nil {
			return fmt.Errorf("connecting to rabbitmq: %w", err)
		}
		a.publisher = client
		publisher = client
	}

	a.svc = service.NewPracticeService(a.config, a.db, a.logger, publisher)
	return nil
}

func (a *app) close() {
	if a.svc != nil && a.config.PrometheusPushgatewayUrl != "" {
		if err := a.svc.Metrics.Push(a.config.PrometheusPushgatewayUrl, a.job); err != nil {
			a.logger.Error().Err(err).Msg("pushing metrics")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("closing rabbitmq connection")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("closing database")
		}
	}
}

func printJSON(f *os.File, v interface{}) {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
