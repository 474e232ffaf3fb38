package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/api"
	"github.com/spec-kit/volunteer-client/internal/auth"
	"github.com/spec-kit/volunteer-client/internal/config"
	"github.com/spec-kit/volunteer-client/internal/events"
	"github.com/spec-kit/volunteer-client/internal/notify"
	"github.com/spec-kit/volunteer-client/internal/observability"
	"github.com/spec-kit/volunteer-client/internal/realtime"
	"github.com/spec-kit/volunteer-client/internal/session"
)

func main() {
	var (
		loginUser = flag.String("login-user", "", "log in as a volunteer before monitoring (username)")
		loginOrg  = flag.String("login-org", "", "log in as an organisation before monitoring (email)")
		password  = flag.String("password", "", "password for -login-user / -login-org")
		logout    = flag.Bool("logout", false, "erase the stored session and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	tokens, err := auth.NewFileTokenStore(cfg.Session.TokenFile)
	if err != nil {
		logger.Fatal("failed to open token store", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	apiClient := api.NewClient(cfg.API, tokens, logger, metrics)
	bootstrapper := auth.NewBootstrapper(apiClient, logger)
	provider := session.NewProvider(tokens, bootstrapper, apiClient, logger)

	if *logout {
		provider.Logout()
		logger.Info("session cleared")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := establishSession(ctx, provider, logger, *loginUser, *loginOrg, *password)
	logger.Info("session settled",
		zap.String("role", string(state.Role)),
		zap.Bool("authenticated", state.Authenticated))

	cancelStates := provider.Subscribe(func(s session.State) {
		logger.Info("session state changed",
			zap.Bool("authenticated", s.Authenticated),
			zap.String("role", string(s.Role)))
	})
	defer cancelStates()

	dispatcher := events.NewInMemoryDispatcher()
	cancelAlerts := subscribeAlerts(dispatcher, logger)
	defer cancelAlerts()

	aggregator := notify.ForPrincipal(state.Principal(), notify.Options{
		API:          apiClient,
		Dispatcher:   dispatcher,
		Logger:       logger,
		PollInterval: cfg.Notifications.PollInterval(),
		NewStream: func(onMessage realtime.MessageHandler, onState realtime.StateHandler) notify.Stream {
			return realtime.New(realtime.Options{
				URL:           cfg.Realtime.NotificationsURL(),
				Tokens:        tokens,
				OnMessage:     onMessage,
				OnStateChange: onState,
				MaxAttempts:   cfg.Realtime.MaxReconnectAttempts,
				BaseDelay:     cfg.Realtime.ReconnectBaseDelay(),
				MaxDelay:      cfg.Realtime.ReconnectMaxDelay(),
				Logger:        logger,
				Metrics:       metrics,
			})
		},
	})
	if aggregator != nil {
		aggregator.Start(ctx)
		defer aggregator.Stop()
		logger.Info("notification monitoring started")
	} else {
		logger.Info("role does not subscribe to notifications, nothing to monitor",
			zap.String("role", string(state.Role)))
	}

	waitForShutdown(logger)

	requests, requestErrors, messages, latencies, reconnects := metrics.Snapshot()
	logger.Info("session totals",
		zap.Int64("requests", sumCounters(requests)),
		zap.Int64("request_errors", sumCounters(requestErrors)),
		zap.Int64("messages", sumCounters(messages)),
		zap.Duration("request_time", sumLatencies(latencies)),
		zap.Int64("reconnects", reconnects))
}

func sumCounters(counters map[string]int64) int64 {
	var total int64
	for _, v := range counters {
		total += v
	}
	return total
}

func sumLatencies(latencies map[string]time.Duration) time.Duration {
	var total time.Duration
	for _, v := range latencies {
		total += v
	}
	return total
}

// establishSession runs optional logins and initializes session state.
func establishSession(ctx context.Context, provider *session.Provider, logger *zap.Logger, loginUser, loginOrg, password string) session.State {
	switch {
	case loginUser != "":
		if err := provider.LoginUser(ctx, loginUser, password); err != nil {
			logger.Fatal("user login failed", zap.Error(err))
		}
	case loginOrg != "":
		if err := provider.LoginOrganisation(ctx, loginOrg, password); err != nil {
			logger.Fatal("organisation login failed", zap.Error(err))
		}
	default:
		return provider.Init(ctx)
	}
	return provider.Snapshot()
}

// subscribeAlerts wires the dispatcher into the process's alert sink. In a
// UI this would render toasts; the monitor logs them instead.
func subscribeAlerts(dispatcher events.Dispatcher, logger *zap.Logger) (cancel func()) {
	cancelAlert := dispatcher.Subscribe(events.EventAlert, func(_ context.Context, ev events.Event) {
		logger.Info("alert",
			zap.String("severity", string(ev.Severity)),
			zap.String("message", ev.Message))
	})
	cancelFailed := dispatcher.Subscribe(events.EventConnectionFailed, func(_ context.Context, _ events.Event) {
		logger.Warn("realtime connection unavailable, polling fallback active")
	})
	cancelRestored := dispatcher.Subscribe(events.EventConnectionRestored, func(_ context.Context, _ events.Event) {
		logger.Info("realtime connection restored")
	})

	return func() {
		cancelAlert()
		cancelFailed()
		cancelRestored()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
