package main

import (
	"os"
	"time"

	"bitbucket.org/parqueoasis/terminal/api"
	"bitbucket.org/parqueoasis/terminal/server"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// @title terminal backend API
// @version 0.1
// @description Relay between the point of sale and Stripe Terminal.

// @BasePath /
// @schemes http https

func main() {
	_ = godotenv.Load("dev.env")

	app := cli.NewApp()
	app.Name = "Terminal Backend"
	app.Usage = "relay between the point of sale frontend and Stripe Terminal"
	app.Version = "1.00"
	app.Compiled = time.Now()
	app.Commands = []cli.Command{
		{
			Name:  "terminal-up",
			Usage: "This command starts the terminal backend service",
			Action: func(c *cli.Context) error {
				StartServer(api.GetRoutes())
				return nil
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func StartServer(routes []*server.Route) {
	ctx := server.GetAppContext()
	ctx.CreateStripeIntegration()

	server.UpServer(routes, ctx)
}
