package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/httpapi"
	"github.com/martinricard/d2loadout-widget/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	Long:  `Run the HTTP backend serving /health, /api/search, /api/loadout and /api/status until SIGINT or SIGTERM.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	handler := httpapi.NewRouter(a.service, httpapi.Options{
		CORSOrigin:     a.cfg.Server.CORSOrigin,
		RequestTimeout: a.cfg.Server.RequestTimeout,
		AlwaysLink:     a.cfg.DIMLink.Enabled,
	}, a.logger.Named("http"))

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	a.logger.Info("starting d2loadout backend",
		zap.String("addr", srv.Addr),
		zap.String("version", httpapi.Version),
	)
	lc := server.NewLifecycle(a.logger)
	// Added first so it stops last, after in-flight requests have drained.
	lc.Add("telemetry", &server.FuncService{StopFn: a.close})
	lc.Add("http", server.NewHTTPService(srv, nil, a.cfg.Server.ShutdownTimeout, a.logger.Named("http")))
	return lc.Run(cmd.Context())
}
