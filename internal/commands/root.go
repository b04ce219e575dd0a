package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/trustledger/internal/buildinfo"
	"github.com/cleared-dev/trustledger/internal/config"
	"github.com/cleared-dev/trustledger/internal/logger"
	"github.com/cleared-dev/trustledger/internal/pipeline"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	root        string
	configPath  string
	metricsFile string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "trustledger",
		Short:   "Bank extract reconciliation with a hash-chained audit trail",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.root, "root", ".", "workspace root directory")
	pf.StringVar(&g.configPath, "config", "", "config file (default <root>/"+config.FileName+")")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(&g),
		newReconcileCommand(&g),
		newAnchorCommand(&g),
		newVerifyCommand(&g),
		newRunAllCommand(&g),
		newStatusCommand(&g),
	)

	return rootCmd
}

// session is a loaded workspace ready to run pipeline steps.
type session struct {
	ctx         context.Context
	pipeline    *pipeline.Pipeline
	metricsFile string
}

func openSession(cmd *cobra.Command, g *globalFlags) (*session, error) {
	root, err := filepath.Abs(g.root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	cfgPath := g.configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.FileName)
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Options())
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log = log.With().Str("cmd", cmd.Name()).Logger()
	log.Debug().Str("root", root).Str("run_id", runID).Str("config", cfgPath).Msg("session opened")

	metricsFile := g.metricsFile
	if metricsFile == "" && cfg.Metrics.TextFile != "" {
		metricsFile = filepath.Join(root, cfg.Metrics.TextFile)
	}

	return &session{
		ctx:         logger.WithContext(cmd.Context(), log),
		pipeline:    pipeline.New(root, cfg, runID),
		metricsFile: metricsFile,
	}, nil
}

// close writes the metrics file when one is configured. err is the command
// result and takes precedence.
func (s *session) close(err error) error {
	if s.metricsFile == "" {
		return err
	}
	if werr := s.pipeline.Metrics.WriteTextFile(s.metricsFile); werr != nil && err == nil {
		return werr
	}
	return err
}

// withSession opens a session, runs fn and writes metrics.
func withSession(g *globalFlags, fn func(cmd *cobra.Command, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd, g)
		if err != nil {
			return err
		}
		return s.close(fn(cmd, s))
	}
}
