package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ignite/newsletter/internal/bootstrap"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/migrations"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

const usage = `usage: migrate [-config config.yaml] <command>

commands:
  up       apply all pending migrations (default)
  down     roll back the most recent migration
  status   print the state of every migration
  version  print the current schema version
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil && !os.IsNotExist(err) {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg, _ = config.Load("")
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	log := bootstrap.Logger(cfg.Logging)

	ctx := context.Background()
	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch cmd {
	case "up":
		err = migrations.Up(ctx, db)
	case "down":
		err = migrations.Down(ctx, db)
	case "status":
		err = migrations.Status(ctx, db)
	case "version":
		var v int64
		if v, err = migrations.Version(ctx, db); err == nil {
			fmt.Println(v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
	log.Info("migration command completed", "command", cmd)
}
