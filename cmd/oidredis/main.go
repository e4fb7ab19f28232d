package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	openidredis "github.com/oidkv/openid-redis"
	"github.com/oidkv/openid-redis/storage"
	"github.com/oidkv/openid-redis/userconfig"
)

// openStore loads the config file and connects the store. The returned KV
// is the caller's to close.
func openStore(path string) (*openidredis.Store, storage.KeyValue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open the application config file: %v", err)
	}
	defer f.Close()

	config, err := userconfig.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	checked, err := config.CheckAndSetDefaults()
	if err != nil {
		return nil, nil, err
	}

	kv, err := storage.NewRedisKV(&checked.Redis)
	if err != nil {
		return nil, nil, err
	}
	store, err := openidredis.New(kv, &checked.Store)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return store, kv, nil
}

func main() {
	// Log with filename and line number. This writes to stderr, so it
	// should be thread safe.
	log.Logger = log.With().Caller().Logger()

	cmd := &cli.Command{
		Name:  "oidredis",
		Usage: "operate an OpenID association and nonce store backed by Redis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "./config.yaml",
				Usage: "path to a YAML file containing your configuration",
			},
			&cli.StringFlag{
				Name:  "level",
				Value: "info",
				Usage: `log level: "info", "debug", or "warn"`,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			switch c.String("level") {
			case "debug":
				log.Logger = log.Logger.Level(zerolog.DebugLevel)
			case "warn":
				log.Logger = log.Logger.Level(zerolog.WarnLevel)
			default:
				log.Logger = log.Logger.Level(zerolog.InfoLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "ping",
				Usage: "verify the backing store is reachable",
				Action: func(ctx context.Context, c *cli.Command) error {
					_, kv, err := openStore(c.String("config"))
					if err != nil {
						return err
					}
					defer kv.Close()
					if err := kv.Ping(ctx); err != nil {
						return fmt.Errorf("the backing store is not reachable: %v", err)
					}
					log.Info().Msg("the backing store is reachable")
					return nil
				},
			},
			{
				Name:  "cleanup",
				Usage: "sweep stale nonce records; runs once unless -every is given",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "every",
						Usage: "keep running, sweeping at this interval",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					store, kv, err := openStore(c.String("config"))
					if err != nil {
						return err
					}
					defer kv.Close()

					sweep := func() error {
						n, err := store.CleanupNonces(ctx)
						if err != nil {
							return err
						}
						log.Info().Int("expired", n).Msg("swept stale nonces")
						return nil
					}

					every := c.Duration("every")
					if every == 0 {
						return sweep()
					}

					// Intercept interrupts so the interval mode exits
					// cleanly between sweeps.
					sigCh := make(chan os.Signal, 1)
					signal.Notify(sigCh, os.Interrupt)

					cadence := time.NewTicker(every)
					defer cadence.Stop()
					for {
						select {
						case <-cadence.C:
							if err := sweep(); err != nil {
								log.Error().Err(err).Msg("error sweeping stale nonces")
							}
						case <-sigCh:
							log.Info().Msg("interrupt: exiting")
							return nil
						case <-ctx.Done():
							return ctx.Err()
						}
					}
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
