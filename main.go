package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  "marketplace",
		Usage: "multi-vendor delivery marketplace API",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and notification workers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "store",
						Value: storeMongo,
						Usage: "backing store: mongo or memory",
					},
				},
				Action: serve,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: createAdmin,
			},
			{
				Name:  "approve-deliveryman",
				Usage: "approve a registered delivery account by email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: approveDeliveryMan,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("marketplace stopped with an error")
	}
}
