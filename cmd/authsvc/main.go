package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfeller/gameauth/internal/infra/config"
	"github.com/mfeller/gameauth/internal/infra/logging"
	"github.com/mfeller/gameauth/internal/infra/transport/http"
	"github.com/mfeller/gameauth/internal/repo/account"
	"github.com/mfeller/gameauth/internal/svc/authsvc"
)

const (
	appName = "gameauth"
	svcName = "authsvc"
)

type Config struct {
	Log     logging.LoggerConfig                  `envPrefix:"LOG_"`
	Auth    authsvc.AuthConfig                    `envPrefix:"AUTH_"`
	HTTP    authsvc.HTTPTransportConfig           `envPrefix:"HTTP_"`
	Account account.SQLiteAccountRepositoryConfig `envPrefix:"ACCOUNT_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(&cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.authsvc")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	authSvc, err := authsvc.NewAuthService(
		account.SQLiteAccountRepositoryFactory(cfg.Account),
		cfg.Auth,
	)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close()

	httpTransport := authsvc.NewHTTPTransport(authSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
