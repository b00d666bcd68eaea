package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Haleralex/tokenforge-devserver/internal/browser"
	"github.com/Haleralex/tokenforge-devserver/internal/config"
	"github.com/Haleralex/tokenforge-devserver/internal/console"
	"github.com/Haleralex/tokenforge-devserver/internal/container"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

const (
	appName        = "devserver"
	defaultEnvFile = ".env"
	cleanupTimeout = 5 * time.Second
)

// newRootCmd creates the devserver command
func newRootCmd() *cobra.Command {
	return newRootCmdWithLauncher(nil)
}

// newRootCmdWithLauncher creates the command with a custom browser launcher.
// A nil launcher means the system default browser.
func newRootCmdWithLauncher(launcher browser.Launcher) *cobra.Command {
	var (
		configFile string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Serve the TokenForge front end locally with permissive CORS",
		Version: version,
		Long: `devserver serves a directory over HTTP with CORS headers on every
response and opens index.html in the default browser, so wallet
extensions such as MetaMask and Phantom can connect to the page.

Without arguments it serves the current directory on port 8000.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}

			cfg, err := config.Load(config.Options{
				ConfigFile: configFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := container.NewBuilder(cfg).
				WithConsole(console.New().WithWriter(cmd.OutOrStdout()))
			if launcher != nil {
				b = b.WithLauncher(launcher)
			}

			c, err := b.Build(ctx)
			if err != nil {
				return err
			}

			runErr := c.Run(ctx)

			cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
			defer cancel()
			if err := c.Shutdown(cleanupCtx); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a YAML config file (default: devserver.yaml if present)")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with DEVSERVER_* variables")
	flags.IntP("port", "p", 8000, "port to listen on")
	flags.String("host", "", "interface to bind (default: all interfaces)")
	flags.StringP("dir", "d", ".", "directory to serve")
	flags.Bool("no-browser", false, "do not open the browser on start")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

// loadEnvFile loads a dotenv file. The default file may be absent;
// an explicitly requested one must exist.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
