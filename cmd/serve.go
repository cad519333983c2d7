package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoiana/soa-version1/kds"
	"github.com/anoiana/soa-version1/router"
	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, kitchen websockets and the daily shift scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// routerDependencies builds every service on top of the app wiring.
func (a *app) routerDependencies(hub *kds.Hub) router.Dependencies {
	shifts := services.NewShiftService(a.db, a.log, a.clock)
	tables := services.NewTableService(a.db, a.log, a.clock, shifts)
	payments := services.NewPaymentService(a.db, a.log, a.clock)

	deps := router.Dependencies{
		Log:            a.log,
		Tokens:         utils.NewTokenManager(a.cfg.JWTSecret, a.cfg.JWTTTL),
		Hub:            hub,
		Shifts:         shifts,
		Tables:         tables,
		Orders:         services.NewOrderService(a.db, a.log, a.clock, hub),
		Menu:           services.NewMenuService(a.db, a.log, a.clock, hub),
		Payments:       payments,
		Reports:        services.NewReportService(payments, tables, a.log),
		Dashboard:      services.NewDashboardService(a.db, a.clock),
		AllowedOrigins: a.cfg.AllowedOrigins,
		RateLimitRPS:   a.cfg.RateLimitRPS,
		RateLimitBurst: a.cfg.RateLimitBurst,
	}
	if a.cfg.IdentityProvider == "firebase" {
		deps.Identity = services.NewFirebaseIdentity(a.cfg.FirebaseAPIKey, a.log)
	} else {
		local := services.NewLocalIdentity(a.db, a.log)
		deps.Identity = local
		deps.Accounts = local
	}
	return deps
}

func (a *app) serve(ctx context.Context) error {
	gin.SetMode(a.cfg.GinMode)

	hub := kds.NewHub(a.log, a.cfg.NotifierBuffer)
	defer hub.Close()

	deps := a.routerDependencies(hub)

	if a.cfg.ShiftSchedulerEnabled {
		hour, minute, err := a.cfg.ScheduleTime()
		if err != nil {
			return err
		}
		scheduler := services.NewShiftScheduler(deps.Shifts, a.log, a.clock, hour, minute)
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// websocket clients are hijacked connections, closing the hub ends them
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
