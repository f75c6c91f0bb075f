package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stone-age-io/asset-collector/internal/agent"
	"github.com/stone-age-io/asset-collector/internal/config"
)

var (
	version = "dev"
	cfgFile string
)

// Input errors exit with agent.ExitError's code (1)
const (
	exitOK      = 0
	exitStartup = 2
)

var rootCmd = &cobra.Command{
	Use:           "asset-collector",
	Short:         "Collect workstation hardware information and upload it to the asset server",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollector(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("asset-collector %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.GetDefaultConfigPath(),
		"config file (optional, defaults apply when missing)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err))
}

func runCollector(ctx context.Context) error {
	a, err := agent.New(cfgFile, version)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	return a.Run(ctx)
}

// exitCode maps the run result to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var exitErr *agent.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	// Config, logger or flag errors
	fmt.Fprintln(os.Stderr, err)
	return exitStartup
}
