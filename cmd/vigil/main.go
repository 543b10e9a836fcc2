package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "vigil",
		Usage:   "content moderation daemon (keeps watch)",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the HTTP API",
			Value:   ":3899",
			EnvVars: []string{"VIGIL_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3898",
			EnvVars: []string{"VIGIL_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; when empty, counters/flags/cache are in-process",
			EnvVars: []string{"VIGIL_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "audit-db",
			Usage:   "sqlite path for the append-only audit log; when empty, the log is in-process",
			EnvVars: []string{"VIGIL_AUDIT_DB"},
		},
		&cli.StringFlag{
			Name:    "classifier-host",
			Usage:   "method, hostname, and port of the remote scoring API",
			EnvVars: []string{"VIGIL_CLASSIFIER_HOST"},
		},
		&cli.StringFlag{
			Name:    "classifier-token",
			Usage:   "API token for the remote scoring API",
			EnvVars: []string{"VIGIL_CLASSIFIER_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "classifier-rate-limit",
			Usage:   "max number of requests per second to the scoring API",
			Value:   20,
			EnvVars: []string{"VIGIL_CLASSIFIER_RATE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "classify-timeout",
			Usage:   "upper bound on one classification round trip",
			Value:   10 * time.Second,
			EnvVars: []string{"VIGIL_CLASSIFY_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "incoming webhook URL for queue alerts",
			EnvVars: []string{"VIGIL_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		shutdownOTEL := configOTEL("vigil")
		defer shutdownOTEL()

		srv, err := NewServer(Config{
			Logger:              logger,
			RedisURL:            cctx.String("redis-url"),
			AuditDBPath:         cctx.String("audit-db"),
			ClassifierHost:      cctx.String("classifier-host"),
			ClassifierToken:     cctx.String("classifier-token"),
			ClassifierRateLimit: cctx.Int("classifier-rate-limit"),
			ClassifyTimeout:     cctx.Duration("classify-timeout"),
			SlackWebhookURL:     cctx.String("slack-webhook-url"),
			Bind:                cctx.String("bind"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		return srv.RunAPI()
	},
}
