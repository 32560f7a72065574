// Package cli provides the athena command line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// annotationNoServices marks commands that run without any wiring.
// annotationSettingsOnly marks commands that only read or write configuration.
const (
	annotationNoServices   = "athena/no-services"
	annotationSettingsOnly = "athena/settings-only"
)

// Services holds the driving ports and runtime handles used by the commands.
type Services struct {
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Scheduler driving.Scheduler

	// PolicyDir is the directory watched by the watch command.
	PolicyDir string

	// Metrics serves Prometheus metrics. Optional.
	Metrics http.Handler

	// Close releases adapters such as database handles. Optional.
	Close func() error
}

// SettingsOpener loads the settings service for a config file path.
// An empty path selects the default location.
type SettingsOpener func(configPath string) (driving.SettingsService, error)

// ServicesBuilder wires the services from validated settings.
type ServicesBuilder func(ctx context.Context, settings driving.SettingsService) (*Services, error)

var (
	openSettings  SettingsOpener
	buildServices ServicesBuilder

	settingsService  driving.SettingsService
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	schedulerService driving.Scheduler
	policyDir        string
	metricsHandler   http.Handler
	closeServices    func() error
)

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "athena",
	Short: "Policy retrieval for grounded answers",
	Long: `Athena ingests a directory of policy documents, embeds them and
retrieves cited context for questions about them.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.athena/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// SetBootstrap installs the functions that wire services on first use.
func SetBootstrap(open SettingsOpener, build ServicesBuilder) {
	openSettings = open
	buildServices = build
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if closeServices == nil {
			return
		}
		if err := closeServices(); err != nil {
			logger.Warn("closing services: %v", err)
		}
		closeServices = nil
	}()
	return rootCmd.ExecuteContext(ctx)
}

// prepareServices populates the package-level ports the command needs.
// Ports already set, as in tests, are left alone.
func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] != "" {
		return nil
	}

	if settingsService == nil {
		if openSettings == nil {
			return errors.New("settings not configured")
		}
		s, err := openSettings(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		settingsService = s
	}

	if cmd.Annotations[annotationSettingsOnly] != "" {
		return nil
	}
	if ingestService != nil || retrievalService != nil {
		return nil
	}
	if buildServices == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := buildServices(ctx, settingsService)
	if err != nil {
		return err
	}
	ingestService = svc.Ingest
	retrievalService = svc.Retrieval
	answerService = svc.Answer
	schedulerService = svc.Scheduler
	policyDir = svc.PolicyDir
	metricsHandler = svc.Metrics
	closeServices = svc.Close
	return nil
}

// commandContext returns the command's context or a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
