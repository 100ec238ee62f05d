package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cagefs/cagefs/pkg/config"
	"github.com/cagefs/cagefs/pkg/env"
	"github.com/cagefs/cagefs/pkg/gateway"
	"github.com/cagefs/cagefs/pkg/logging"
	"github.com/cagefs/cagefs/pkg/mcp"
	"github.com/cagefs/cagefs/pkg/sandbox"
	"github.com/cagefs/cagefs/pkg/tool"
	"github.com/cagefs/cagefs/pkg/version"
	"github.com/cagefs/cagefs/server"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "cagefs",
		Short: "Sandboxed filesystem MCP server",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(httpCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the configuration, builds the sandbox policy (creating
// the sandbox root if absent) and the tool registry. Any fault here is
// fatal: the server never starts with a broken policy.
func bootstrap() (*config.Config, *tool.Registry, *slog.Logger, error) {
	_ = env.LoadFromDir(".")

	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}

	policy, err := sandbox.NewPolicy(cfg.SandboxPath, cfg.MaxFileSize, cfg.AllowedExtensions, cfg.ReadOnly)
	if err != nil {
		return nil, nil, nil, err
	}
	registry := tool.NewRegistry(policy)
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	return cfg, registry, logger, nil
}

func serverInfo(cfg *config.Config) mcp.ServerInfo {
	return mcp.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, registry, logger, err := bootstrap()
			if err != nil {
				return err
			}
			srv := mcp.NewServer(registry, serverInfo(cfg))
			srv.SetLogger(logger)
			logger.Info("serving_stdio", "sandbox", cfg.SandboxPath, "read_only", cfg.ReadOnly)
			return srv.ServeStdio()
		},
	}
}

func gatewayCmd() *cobra.Command {
	var addr string
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve MCP over a TCP socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, registry, logger, err := bootstrap()
			if err != nil {
				return err
			}
			srv := mcp.NewServer(registry, serverInfo(cfg))
			srv.SetLogger(logger)

			if addr == "" {
				addr = cfg.Gateway.Address
			}
			gw := gateway.NewServer(addr, srv, gateway.AllowlistAuthorizer{Allowed: cfg.Gateway.AllowedAddrs})
			gw.SetLogger(logger)
			if maxSessions == 0 {
				maxSessions = cfg.Gateway.MaxSessions
			}
			if maxSessions > 0 {
				gw.SetMaxSessions(maxSessions)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := gw.Start(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "maximum concurrent sessions (overrides config)")
	return cmd
}

func httpCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the tool catalog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, registry, logger, err := bootstrap()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTP.Address
			}
			srv := server.New(server.Config{Address: addr, Token: cfg.HTTP.Token}, registry, serverInfo(cfg))
			logger.Info("serving_http", "addr", addr)
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, registry, _, err := bootstrap()
			if err != nil {
				return err
			}
			for _, t := range registry.List() {
				fmt.Printf("%-8s %s\n", t.Name(), t.Description())
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}
