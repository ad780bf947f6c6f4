// Copyright 2022 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/ziflex/lecho/v2"

	"github.com/optakt/account-indexer/api/rest"
	"github.com/optakt/account-indexer/codec/zbor"
	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/service/decoder"
	"github.com/optakt/account-indexer/service/index"
	"github.com/optakt/account-indexer/service/mapper"
	"github.com/optakt/account-indexer/service/metrics"
	"github.com/optakt/account-indexer/service/storage"
	"github.com/optakt/account-indexer/service/subscriber"
)

const (
	success        = 0
	failure        = 1
	invalidConfig  = 2
	storageFailure = 3
)

func main() {
	os.Exit(run())
}

func run() int {

	// Signal catching for clean shutdown.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	// Command line parameter initialization.
	var (
		flagWallet       string
		flagRPC          string
		flagWS           string
		flagIndex        string
		flagLevel        string
		flagPort         uint16
		flagMetrics      string
		flagWindow       uint
		flagWaitInterval time.Duration
	)
	pflag.StringVarP(&flagWallet, "wallet", "w", "", "base58 address of the account to index")
	pflag.StringVarP(&flagRPC, "rpc", "r", "https://api.mainnet-beta.solana.com", "HTTP address of the JSON-RPC endpoint")
	pflag.StringVarP(&flagWS, "ws", "s", "wss://api.mainnet-beta.solana.com", "websocket address of the subscription endpoint")
	pflag.StringVarP(&flagIndex, "index", "i", "index", "path to database directory for the activity index")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log output level")
	pflag.Uint16VarP(&flagPort, "port", "p", 8080, "port to serve the query API on")
	pflag.StringVarP(&flagMetrics, "metrics", "m", "", "address on which to expose metrics (no metrics are exposed when left empty)")
	pflag.UintVar(&flagWindow, "window", index.DefaultWindow, "number of recent events kept in the checkpoint window")
	pflag.DurationVar(&flagWaitInterval, "wait-interval", mapper.DefaultConfig.WaitInterval, "wait interval for polling the subscription for the next record")

	pflag.Parse()

	// Logger initialization.
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Error().Str("level", flagLevel).Err(err).Msg("could not parse log level")
		return invalidConfig
	}
	log = log.Level(level)
	elog := lecho.From(log)

	// The wallet address is the one parameter without a sensible default, so
	// its absence means the invocation cannot proceed.
	if flagWallet == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s --wallet <address> [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
		return invalidConfig
	}
	address, err := activity.ParseAddress(flagWallet)
	if err != nil {
		log.Error().Str("wallet", flagWallet).Err(err).Msg("could not parse wallet address")
		return invalidConfig
	}

	// First, we open the index database, which holds the events, the balance
	// projection and the checkpoint for the tracked account.
	db, err := badger.Open(activity.DefaultOptions(flagIndex))
	if err != nil {
		log.Error().Str("index", flagIndex).Err(err).Msg("could not open index database")
		return storageFailure
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Error().Err(err).Msg("could not close index database")
		}
	}()

	// Next, we initialize the index reader and writer. They use a common codec
	// and storage library to interact with the underlying database.
	codec := zbor.NewCodec()
	lib := storage.New(codec)
	read := index.NewReader(db, lib)
	write := index.NewWriter(db, lib,
		index.WithWindow(int(flagWindow)),
	)
	defer func() {
		err := write.Close()
		if err != nil {
			log.Error().Err(err).Msg("could not close index writer")
		}
	}()

	// The history client backfills past transactions over JSON-RPC, while the
	// subscriber streams new ones over the websocket subscription.
	history := subscriber.NewClient(flagRPC)
	source := subscriber.New(log, flagWS, address, history)

	// If metrics are enabled, the mapper should use the metrics writer.
	// Otherwise, it can use the regular one.
	writer := activity.Writer(write)
	metricsEnabled := flagMetrics != ""
	if metricsEnabled {
		writer = metrics.NewWriter(write)
	}

	// At this point, we can initialize the core business logic of the indexer,
	// with the mapper's finite state machine and transitions.
	decode := decoder.New(address)
	transitions := mapper.NewTransitions(log, address, source, history, decode, read, writer,
		mapper.WithWaitInterval(flagWaitInterval),
	)
	state := mapper.EmptyState()
	fsm := mapper.NewFSM(state,
		mapper.WithTransition(mapper.StatusInitialize, transitions.InitializeMapper),
		mapper.WithTransition(mapper.StatusResume, transitions.ResumeIndexing),
		mapper.WithTransition(mapper.StatusBackfill, transitions.BackfillHistory),
		mapper.WithTransition(mapper.StatusLive, transitions.ProcessRecord),
		mapper.WithTransition(mapper.StatusResync, transitions.Resynchronize),
	)

	// Next, we initialize the HTTP server that serves the query API on top of
	// the index database that is generated live by the mapper.
	controller := rest.NewController(read)
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Logger = elog
	server.Use(lecho.Middleware(lecho.Config{Logger: elog}))
	server.GET("/accounts/:address/balance", controller.GetBalance)
	server.GET("/accounts/:address/transfers", controller.GetTransfers)

	// This section launches the main executing components in their own
	// goroutine, so they can run concurrently. Afterwards, we wait for an
	// interrupt signal in order to proceed with the shutdown.
	done := make(chan struct{})
	failed := make(chan struct{})
	var fsmErr error
	go func() {
		log.Info().Msg("account subscriber starting")
		err := source.Run()
		if err != nil {
			log.Warn().Err(err).Msg("account subscriber failed")
		}
		log.Info().Msg("account subscriber stopped")
	}()
	go func() {
		start := time.Now()
		log.Info().Time("start", start).Str("wallet", address.String()).Msg("account indexer starting")
		err := fsm.Run()
		if err != nil {
			log.Warn().Err(err).Msg("account indexer failed")
			fsmErr = err
			close(failed)
		} else {
			close(done)
		}
		finish := time.Now()
		duration := finish.Sub(start)
		log.Info().Time("finish", finish).Str("duration", duration.Round(time.Second).String()).Msg("account indexer stopped")
	}()
	go func() {
		log.Info().Msg("query server starting")
		err := server.Start(fmt.Sprint(":", flagPort))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("query server failed")
		}
		log.Info().Msg("query server stopped")
	}()
	go func() {
		if !metricsEnabled {
			return
		}

		log.Info().Msg("metrics server starting")
		mserver := metrics.NewServer(log, flagMetrics)
		err := mserver.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("metrics server failed")
		}
		log.Info().Msg("metrics server stopped")
	}()

	// Here, we are waiting for a signal, or for one of the components to fail
	// or finish. In both cases, we proceed to shut down everything, while also
	// entering a goroutine that allows us to force shut down by sending
	// another signal.
	select {
	case <-sig:
		log.Info().Msg("account indexer stopping")
	case <-done:
		log.Info().Msg("account indexer done")
	case <-failed:
		log.Warn().Msg("account indexer aborted")
	}
	go func() {
		<-sig
		log.Warn().Msg("forcing exit")
		os.Exit(failure)
	}()

	// We first stop serving the query API, then the subscription, so that
	// there is nothing left to index, and lastly the mapper logic itself.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not shut down query server")
	}
	err = source.Stop(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not stop account subscriber")
	}
	err = fsm.Stop(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not stop account indexer")
		return failure
	}
	if fsmErr != nil {
		return failure
	}

	return success
}
