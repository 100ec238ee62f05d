// cagefs-mcp is the minimal stdio binary for MCP host configurations:
// read the config, build the sandbox, serve until stdin closes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/cagefs/cagefs/pkg/config"
	"github.com/cagefs/cagefs/pkg/env"
	"github.com/cagefs/cagefs/pkg/logging"
	"github.com/cagefs/cagefs/pkg/mcp"
	"github.com/cagefs/cagefs/pkg/sandbox"
	"github.com/cagefs/cagefs/pkg/tool"
)

var cfgFile string

func main() {
	pflag.StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	pflag.Parse()

	_ = env.LoadFromDir(".")
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	policy, err := sandbox.NewPolicy(cfg.SandboxPath, cfg.MaxFileSize, cfg.AllowedExtensions, cfg.ReadOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := mcp.NewServer(tool.NewRegistry(policy), mcp.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
	})
	srv.SetLogger(logging.New(cfg.LogLevel, cfg.LogFormat))

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
