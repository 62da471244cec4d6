package config

import (
	"bitbucket.org/parqueoasis/terminal/payments"
	log "github.com/sirupsen/logrus"
)

const EnvironmentProduction = "production"

type Configuration struct {
	Port          int    `env:"PORT,default=4242"`
	Timeout       int    `env:"TIMEOUT,default=30"`
	Environment   string `env:"ENVIRONMENT,default=development"`
	AppName       string `env:"APP_NAME,default=terminal-backend"`
	StaticDir     string `env:"STATIC_DIR,default=./public"`
	ProductsLimit int64  `env:"PRODUCTS_LIMIT,default=100"`
	Stripe        stripeConf
}

type stripeConf struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	APIBase       string `env:"STRIPE_API_BASE"`
}

func (c Configuration) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// AppContext is shared read-only by every handler. A nil Gateway means the
// Stripe client could not be initialized at startup.
type AppContext struct {
	Config  Configuration
	Gateway payments.Gateway
}

func CreateStripeIntegration(conf stripeConf) (*payments.StripeGateway, error) {
	return payments.NewStripeGateway(payments.Config{
		SecretKey: conf.SecretKey,
		APIBase:   conf.APIBase,
		Logger:    log.WithField("component", "stripe"),
	})
}
