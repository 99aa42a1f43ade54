package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scaleoutsystems/fedn-go-client/internal/assign"
	"github.com/scaleoutsystems/fedn-go-client/internal/channel"
	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/scratch"
	"github.com/scaleoutsystems/fedn-go-client/internal/task"
	"github.com/scaleoutsystems/fedn-go-client/pkg/log"
	"github.com/scaleoutsystems/fedn-go-client/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve configuration, assign to a combiner and run the task engine",
	RunE:  runClient,
}

func init() {
	runCmd.Flags().String("scratch-dir", ".", "Working directory for scratch model/payload files")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the /metrics endpoint listens on")
	runCmd.Flags().Int("chunk-size", scratch.DefaultChunkSize, "Upload chunk size in bytes")
}

func runClient(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	scratchDir, _ := cmd.Flags().GetString("scratch-dir")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	kv, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}

	ctl, cmb, err := config.Resolve(kv)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	if cmb.Host == "" {
		log.Logger.Info().Msg("no combiner pinned, requesting assignment")
		cmb, err = assign.New().Assign(ctl, cmb)
		if err != nil {
			return fmt.Errorf("assign combiner: %w", err)
		}
	}
	log.Logger.Info().Str("host", cmb.Host).Str("proxy_host", cmb.ProxyHost).Msg("combiner resolved")

	conn, err := channel.Build(cmb)
	if err != nil {
		return fmt.Errorf("build channel: %w", err)
	}
	defer conn.Close()

	clientLog := log.WithClientID(ctl.ClientID)
	store := scratch.New(afero.NewOsFs(), scratchDir, scratch.WithLogger(clientLog.With().Str("component", "scratch").Logger()))

	engine := task.New(conn, store, ctl,
		task.WithLogger(clientLog.With().Str("component", "task").Logger()),
	)
	engine.SetChunkSize(chunkSize)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Logger.Error().Err(err).Msg("metrics server exited")
		}
	}()
	log.Logger.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Logger.Info().Msg("shutting down")
		cancel()
	}()

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("task engine: %w", err)
	}
	return nil
}
