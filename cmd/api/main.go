package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// @title						Crew Operations API
// @version					1.0
// @description				Seafarer document verification, contract lifecycle and one-off crew staffing.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	app := &cli.App{
		Name:  "crewops",
		Usage: "Maritime crew staffing API",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			refreshStatusCommand,
			tokenCommand,
		},
		DefaultCommand: serveCommand.Name,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
