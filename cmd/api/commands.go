package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"crewops/internal/config"
	"crewops/internal/database"
	"crewops/internal/database/migration"
	"crewops/internal/http/middleware"
	"crewops/internal/logger"
	"crewops/internal/model"
	"crewops/internal/service"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending database migrations and exit",
	Action: func(cCtx *cli.Context) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.Location())
		if cfg.RepositoryDriver == "memory" {
			return errors.New("migrate requires REPOSITORY_DRIVER=postgres")
		}

		db, err := database.NewPostgres(cCtx.Context, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(cCtx.Context, db, log, cfg.Database.Host); err != nil {
			return err
		}
		log.WithField("steps", len(migration.Names())).Info("schema up to date")
		return nil
	},
}

var refreshStatusCommand = &cli.Command{
	Name:  "refresh-status",
	Usage: "Persist derived full-crew statuses (renewal_due, expired) once and exit",
	Action: func(cCtx *cli.Context) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.Location())

		repos, err := openRepositories(cCtx.Context, cfg, log)
		if err != nil {
			return err
		}
		defer repos.Close()

		contracts := service.NewContractService(repos.contracts, cfg.Lifecycle.RenewalWindow(), log)
		n, err := service.NewRenewalRefresher(contracts, 0, log).RunOnce(cCtx.Context)
		if err != nil {
			return err
		}
		log.WithField("updated", n).Info("derived statuses refreshed")
		return nil
	},
}

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Mint a bearer token for local testing",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "sub",
			Aliases:  []string{"s"},
			Usage:    "Actor id written to the sub claim",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "role",
			Aliases: []string{"r"},
			Usage:   "admin, shipowner or seafarer",
			Value:   string(model.RoleAdmin),
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "Token lifetime; defaults to JWT_TTL_HOURS",
		},
	},
	Action: func(cCtx *cli.Context) error {
		cfg := config.Load()
		if cfg.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET must be set to sign tokens")
		}

		role := model.Role(cCtx.String("role"))
		switch role {
		case model.RoleAdmin, model.RoleShipowner, model.RoleSeafarer:
		default:
			return fmt.Errorf("unknown role %q", role)
		}

		auth := cfg.Auth
		if ttl := cCtx.Duration("ttl"); ttl > 0 {
			auth.TokenTTL = ttl
		}

		tok, exp, err := middleware.GenerateToken(auth, model.Actor{ID: cCtx.String("sub"), Role: role}, time.Now())
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"sub": cCtx.String("sub"), "role": role, "expires_at": exp.Format(time.RFC3339)}).Debug("token issued")
		fmt.Println(tok)
		return nil
	},
}
