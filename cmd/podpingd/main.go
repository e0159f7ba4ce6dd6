/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/SilasVt/podpingd/hive/jsonrpc"
	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/config"
	"github.com/SilasVt/podpingd/internal/httpapi"
	"github.com/SilasVt/podpingd/internal/log"
	"github.com/SilasVt/podpingd/syncer"
	"github.com/SilasVt/podpingd/writer"
)

var logger = log.NewModuleLogger(log.ModuleMain)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to podpingd.toml",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "raise log verbosity to debug",
	}
)

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "podpingd"
	app.Usage = "tail Hive podping notifications into a configured sink"
	app.Flags = []cli.Flag{configFlag, debugFlag}
	app.Action = run
	return app
}

func main() {
	if err := buildApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	settings, err := config.Load(cliCtx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if cliCtx.Bool(debugFlag.Name) {
		settings.Debug = true
	}
	log.Init(settings.Debug)

	if !settings.Writer.Enabled && (settings.Scanner.StartBlock != nil || settings.Scanner.StartDatetime != nil) &&
		!settings.Writer.DisablePersistenceWarnings {
		logger.Warn("writer.enabled is false and a start hint is configured; the console writer never persists a watermark, so this start hint will be replayed on every run (§4.5)")
	}

	w, err := buildWriter(settings)
	if err != nil {
		logger.Crit("failed to build writer", "err", err)
		return err
	}

	rpc := jsonrpc.NewHTTPClient(settings.Scanner.RPCEndpoint)
	sc := scanner.New(rpc, settings.Scanner.BatchSize, settings.Scanner.BatchMode)

	sy := syncer.New(syncer.Config{
		RPC:           rpc,
		Writer:        w,
		Scanner:       sc,
		BatchMode:     settings.Scanner.BatchMode,
		StartBlock:    settings.Scanner.StartBlock,
		StartDatetime: settings.Scanner.StartDatetime,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpErrCh := make(chan error, 1)
	if settings.HTTP.Enabled {
		httpServer := httpapi.NewServer(settings.HTTP.Addr, sy)
		go func() { httpErrCh <- httpServer.ListenAndServe(ctx) }()
	}

	syncErrCh := make(chan error, 1)
	go func() { syncErrCh <- sy.Run(ctx) }()

	var runErr error
	select {
	case runErr = <-syncErrCh:
	case runErr = <-httpErrCh:
		if runErr == nil {
			// The admin server stops on the same signal; wait for the
			// Syncer's bounded writer drain before exiting.
			runErr = <-syncErrCh
		}
	}
	if runErr != nil {
		logger.Error("podpingd exiting on error", "err", runErr)
		return runErr
	}
	logger.Info("podpingd exiting cleanly")
	return nil
}

func buildWriter(settings config.Settings) (writer.Writer, error) {
	if !settings.Writer.Enabled {
		return writer.NewConsoleWriter(), nil
	}

	switch settings.Writer.Type {
	case config.WriterDisk:
		return writer.NewDiskWriter(settings.Writer.DiskPath), nil
	case config.WriterObjectStorage:
		creds, err := config.LoadCredentials()
		if err != nil {
			return nil, err
		}
		urlStyle := writer.URLStylePath
		if settings.Writer.ObjectStorageURLStyle == config.URLStyleVirtualHost {
			urlStyle = writer.URLStyleVirtualHost
		}
		return writer.NewObjectStorageWriter(writer.ObjectStorageConfig{
			BaseURL:    settings.Writer.ObjectStorageBaseURL,
			BucketName: settings.Writer.ObjectStorageBucketName,
			Region:     settings.Writer.ObjectStorageRegion,
			URLStyle:   urlStyle,
			AccessKey:  creds.AccessKeyID,
			SecretKey:  creds.SecretAccessKey,
			FailFast:   settings.Writer.ObjectStorageFailFast,
		})
	default:
		return nil, fmt.Errorf("writer.enabled is true but writer.type_ is unset or unrecognized: %q", settings.Writer.Type)
	}
}
