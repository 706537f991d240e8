// migrate applies the embedded goose migrations.
//
//	go run ./cmd/migrate [-config path] up|down|status|redo|version
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"tiffin-backend/internal/platform/config"
	"tiffin-backend/internal/platform/db"
	"tiffin-backend/internal/platform/logger"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-config path] up|down|status|redo|version [args]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(cfg.Mode, cfg.LogLevel))

	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	command := flag.Arg(0)
	if err := db.Migrate(ctx, conn, command, flag.Args()[1:]...); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	slog.Info("migration done", "command", command, "database", cfg.DB.DBName)
}
