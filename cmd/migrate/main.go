// Comando migrate ejecuta las migraciones goose embebidas.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jhoicas/inventario-movimientos/pkg/config"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
	"github.com/jhoicas/inventario-movimientos/pkg/migrate"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "tiempo máximo de la migración")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: migrate [-timeout 2m] <up|down|status|version|redo|reset|up-to N|down-to N>")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	cfg, err := config.LoadForMigrations()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	db, err := sql.Open("pgx", cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir conexión a PostgreSQL")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := migrate.Run(ctx, db, command, args...); err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración fallida")
		cancel()
		db.Close()
		os.Exit(1)
	}
	log.Info().Str("command", command).Msg("migración completada")
}
