package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shivanshkc/oidcflow/internal/config"
	"github.com/shivanshkc/oidcflow/internal/database"
	"github.com/shivanshkc/oidcflow/internal/registry"
	"github.com/shivanshkc/oidcflow/internal/utils/miscutils"
)

// newChecker sets up the configured registry, registers the redirect receiver in it and returns a
// checker for the receiver. The returned function releases the registry.
func newChecker(ctx context.Context, conf config.Config) (*registry.Checker, func(), error) {
	var reg registry.Registry
	closer := func() {}

	switch conf.Registry.Backend {
	case "", "memory":
		reg = registry.NewMemory()
	case "sql":
		if conf.Database.Migrate {
			if err := database.Migrate(ctx, conf.Database.DSN, conf.Database.PingTimeout); err != nil {
				return nil, nil, fmt.Errorf("error in database.Migrate call: %w", err)
			}
		}

		db, err := database.Open(ctx, conf.Database.DSN, conf.Database.PingTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("error in database.Open call: %w", err)
		}
		reg = registry.NewSQL(db)
		closer = func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close the database", "err", err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown registry backend: %s", conf.Registry.Backend)
	}

	redirect, err := miscutils.ParseRedirectURI(conf.Provider.RedirectURI)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("error in miscutils.ParseRedirectURI call: %w", err)
	}
	receiver := registry.Component{Name: conf.Registry.ComponentName, Package: conf.Registry.PackageName}

	err = reg.Register(ctx, registry.Registration{
		Component: receiver,
		Action:    registry.ActionView,
		Browsable: true,
		Scheme:    redirect.Scheme,
		Host:      redirect.Hostname(),
	})
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("error in registry.Register call: %w", err)
	}

	return registry.NewChecker(reg, receiver), closer, nil
}
