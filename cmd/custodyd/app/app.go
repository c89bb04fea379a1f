/*
Package app links together all the various components
to construct the custody escrow application.
*/
package app

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the authentication used by the token module:
// public key signatures and authorities derived by escrows.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, escrow.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery. Metrics may be nil.
func Chain(metrics *utils.Metrics) app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns the router dispatching the escrow messages. Escrow
// operations are authorized by signatures only, the token module
// accepts both signatures and derived authorities.
func Router() *app.Router {
	r := app.NewRouter()
	escrow.RegisterRoutes(r, sigs.Authenticate{}, cash.NewController(Authenticator()))
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/accounts", "/auth", "/escrows" and "/"
func QueryRouter() custody.QueryRouter {
	r := custody.NewQueryRouter()
	r.RegisterAll(
		escrow.RegisterQuery,
		cash.RegisterQuery,
		sigs.RegisterQuery,
		orm.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack(metrics *utils.Metrics) custody.Handler {
	return Chain(metrics).WithHandler(Router())
}

// Initializers returns the genesis loaders of all modules.
func Initializers() custody.Initializer {
	return app.ChainInitializers(cash.Initializer{})
}

// Application constructs the ABCI application described by cfg.
// Metrics are registered with reg unless it is nil.
func Application(cfg app.Config, logger log.Logger, reg prometheus.Registerer) (app.BaseApp, error) {
	var metrics *utils.Metrics
	if reg != nil {
		m, err := utils.NewMetrics(reg)
		if err != nil {
			return app.BaseApp{}, err
		}
		metrics = m
	}

	kv, err := app.CommitKVStore(cfg.DBPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store, err := app.NewStoreApp(cfg.Name, kv, QueryRouter(), context.Background())
	if err != nil {
		return app.BaseApp{}, err
	}
	store.WithInit(Initializers()).WithLogger(logger)
	if cfg.Genesis != "" {
		gen, err := app.LoadGenesis(cfg.Genesis)
		if err != nil {
			return app.BaseApp{}, err
		}
		if err := store.WithGenesis(gen); err != nil {
			return app.BaseApp{}, err
		}
	}
	return app.NewBaseApp(store, TxDecoder, Stack(metrics), cfg.Debug), nil
}
