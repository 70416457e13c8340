package main

import (
	"os"

	"marketplace/internal/config"
	"marketplace/internal/infra/db"
	"marketplace/internal/server"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "marketplace",
		Usage: "multi-seller order service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Action: migrateUp},
					{
						Name:   "down",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "steps", Value: 1}},
						Action: migrateDown,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("marketplace exited")
	}
}

func serve(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	logger := server.NewLogger(cfg)

	store, err := server.OpenStore(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	notifier, closer := server.NewNotifier(cfg, logger)
	if closer != nil {
		defer closer.Close()
	}

	app := server.NewApp(cfg, logger, store, notifier)
	e := server.NewEcho(cfg, logger, app)

	return server.Run(e, server.Addr(cfg.Port), logger)
}

func migrateUp(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.MigrateUp(gormDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func migrateDown(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	steps := c.Int("steps")
	if err := db.MigrateDown(gormDB, steps); err != nil {
		return err
	}
	log.WithField("steps", steps).Info("migrations rolled back")
	return nil
}
