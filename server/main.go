package server

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	joonix "github.com/joonix/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func recoveryHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			middlewares.LoggerFromRequest(r).WithField("panic", err).Error("recovered from panic")
			middlewares.NewResponseWriter(w, r).Error(http.StatusInternalServerError, middlewares.Responses.InternalServerError)
			return
		}
	}()
	next(w, r)
}

type AppHandlerFunc func(*config.AppContext, *middlewares.ResponseWriter, *http.Request)

type AppHandler struct {
	Context     *config.AppContext
	HandlerFunc AppHandlerFunc
}

func (a *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.HandlerFunc(a.Context, middlewares.NewResponseWriter(w, r), r)
}

// Route describes one endpoint. RequiresGateway guards the handler with the
// Stripe availability check; RawBody keeps the request bytes untouched.
type Route struct {
	Path            string
	Handler         AppHandlerFunc
	Methods         []string
	RequiresGateway bool
	RawBody         bool
}

func NewRouter(ctx *config.AppContext, routes []*Route) *mux.Router {
	router := mux.NewRouter()
	for _, r := range routes {
		mode := middlewares.BodyParsed
		if r.RawBody {
			mode = middlewares.BodyRaw
		}

		chain := negroni.New()
		if r.RequiresGateway {
			chain.Use(middlewares.GatewayRequired(ctx))
		}
		chain.Use(middlewares.BodyParser(mode))
		chain.UseHandler(&AppHandler{Context: ctx, HandlerFunc: r.Handler})

		router.Handle(r.Path, chain).Methods(r.Methods...)
	}

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(ctx.Config.StaticDir)))
	return router
}

func GetAppContext() *ContextWrapper {
	log.SetFormatter(joonix.NewFormatter())
	var conf config.Configuration
	if err := envdecode.Decode(&conf); err != nil {
		log.WithError(err).Fatal("could not load the app configuration")
	}

	return &ContextWrapper{
		Context: &config.AppContext{
			Config: conf,
		},
	}
}

type ContextWrapper struct {
	Context *config.AppContext
}

// CreateStripeIntegration leaves the gateway unset when Stripe cannot be
// configured; gateway routes then answer 500 instead of the process exiting.
func (wrapper *ContextWrapper) CreateStripeIntegration() {
	gateway, err := config.CreateStripeIntegration(wrapper.Context.Config.Stripe)
	if err != nil {
		log.WithError(err).Error("stripe: integration disabled")
		return
	}
	wrapper.Context.Gateway = gateway

	if wrapper.Context.Config.Stripe.WebhookSecret == "" {
		log.Warn("stripe: STRIPE_WEBHOOK_SECRET is not set, webhooks will be rejected")
	}
}

func UpServer(routes []*Route, wrapper *ContextWrapper) {
	server := createServer(wrapper.Context, routes)

	log.Info("Environment " + wrapper.Context.Config.Environment)
	log.Info("Listening on " + server.Addr)

	log.Fatal(server.ListenAndServe())
}

// NewHandler builds the full middleware stack around the router.
func NewHandler(context *config.AppContext, routes []*Route) http.Handler {
	n := negroni.New()
	n.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "PUT", "PATCH", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
	}))
	n.UseFunc(middlewares.LoggerRequest)
	n.UseFunc(middlewares.Metrics)
	n.UseFunc(recoveryHandler)
	n.UseHandler(NewRouter(context, routes))
	return n
}

func createServer(context *config.AppContext, routes []*Route) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", context.Config.Port),
		ReadTimeout:  time.Duration(context.Config.Timeout) * time.Second,
		WriteTimeout: time.Duration(context.Config.Timeout) * time.Second,
		Handler:      NewHandler(context, routes),
	}
}
