// Command clowarden-server runs CLOWarden's always-on controller: the
// GitHub webhook receiver, the per-organization job engine, the hourly
// reconciliation scheduler, and the read-only audit/organizations API,
// wired the way prow/cmd/hook/main.go wires its config agent, plugin
// agent, webhook server and graceful shutdown together.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clowarden/clowarden/pkg/audit"
	"github.com/clowarden/clowarden/pkg/cfgserver"
	"github.com/clowarden/clowarden/pkg/feedback"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/httpapi"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/logutil"
	"github.com/clowarden/clowarden/pkg/secretutil"
	"github.com/clowarden/clowarden/pkg/service"
	"github.com/clowarden/clowarden/pkg/worker"
)

const defaultGracePeriod = 30 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "clowarden.yaml", "path to the server configuration file")
	flag.Parse()

	cfg, err := cfgserver.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("error loading configuration")
	}

	censorer := secretutil.NewCensorer()
	censorer.Refresh(cfg.Secrets()...)
	logrus.SetFormatter(logutil.NewFormatter(logutil.Format(cfg.LogFormat), censorer))

	gw, err := ghclient.NewAppClient(ghclient.AppConfig{
		AppID:      cfg.GitHubApp.AppID,
		PrivateKey: []byte(cfg.GitHubApp.PrivateKey),
	}, logrus.StandardLogger())
	if err != nil {
		logrus.WithError(err).Fatal("error building GitHub App client")
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("error connecting to database")
	}
	if err := db.AutoMigrate(&audit.Reconciliation{}, &audit.Change{}); err != nil {
		logrus.WithError(err).Fatal("error migrating database schema")
	}
	sink := audit.NewGormSink(db)

	renderer, err := feedback.NewRenderer()
	if err != nil {
		logrus.WithError(err).Fatal("error building comment renderer")
	}

	orgs := make(map[string]service.Org, len(cfg.Organizations))
	orgNames := make([]string, 0, len(cfg.Organizations))
	for _, o := range cfg.Organizations {
		permissionsPath, peoplePath := "permissions.yaml", "people.yaml"
		if o.Legacy.SheriffPermissionsPath != "" {
			permissionsPath = o.Legacy.SheriffPermissionsPath
		}
		if o.Legacy.CNCFPeoplePath != "" {
			peoplePath = o.Legacy.CNCFPeoplePath
		}
		orgs[o.Name] = service.Org{
			Name:            o.Name,
			InstallationID:  o.InstallationID,
			RepositoryOwner: o.Name,
			RepositoryName:  o.Repository,
			Branch:          o.Branch,
			PermissionsPath: permissionsPath,
			PeoplePath:      peoplePath,
		}
		orgNames = append(orgNames, o.Name)
	}

	processor := worker.NewProcessor(service.NewHandler(gw), gw, orgs, renderer, sink, logrus.StandardLogger())

	engine := jobs.NewEngine(processor, logrus.StandardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)

	scheduler := jobs.NewScheduler(engine, orgNames)
	scheduler.Start()

	router := &httpapi.Router{
		Webhook: &httpapi.WebhookServer{
			Orgs:           orgs,
			Engine:         engine,
			Notifier:       gw,
			Secret:         []byte(cfg.GitHubApp.WebhookSecret),
			SecretFallback: []byte(cfg.GitHubApp.WebhookSecretFallback),
			Log:            logrus.StandardLogger(),
		},
		Orgs:         orgs,
		Audit:        sink,
		BasicAuth:    cfg.BasicAuth,
		StaticAssets: cfg.StaticAssets,
		Log:          logrus.StandardLogger(),
	}

	httpServer := &http.Server{Addr: cfg.Addr, Handler: router.Handler()}

	go func() {
		logrus.WithField("addr", cfg.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("error serving HTTP")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	logrus.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultGracePeriod)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("error shutting down HTTP server")
	}

	scheduler.Stop()
	engine.Shutdown()
	fmt.Println("clowarden-server stopped")
}
