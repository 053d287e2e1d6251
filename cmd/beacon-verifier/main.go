// SPDX-License-Identifier: Apache-2.0

// Command beacon-verifier probes beacon data-service endpoints, lists their
// entity identifiers, and validates their responses against JSON Schema
// documents. It runs either as a one-shot CLI or as an MCP server over
// stdio.
package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iper-jkane/beacon-verifier/internal/extract"
	"github.com/iper-jkane/beacon-verifier/internal/probe"
	"github.com/iper-jkane/beacon-verifier/internal/tool"
)

const version = "0.1.0"

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "beacon-verifier",
	Short:   "Conformance checker for beacon data-service endpoints",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the conformance sweep described by a config manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context(), configPath, logger)
	},
}

var idsCmd = &cobra.Command{
	Use:   "ids ROOT_URL ENTITY_PATH",
	Short: "List the entity identifiers exposed by an endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := url.Parse(args[0])
		if err != nil {
			return fmt.Errorf("root URL %q: %w", args[0], err)
		}
		entity, err := url.Parse(args[1])
		if err != nil {
			return fmt.Errorf("entity path %q: %w", args[1], err)
		}

		ids, err := extract.New(nil, logger).IDs(cmd.Context(), root, entity)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe URL",
	Short: "Probe an endpoint and print its JSON response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := url.Parse(args[0])
		if err != nil {
			return fmt.Errorf("URL %q: %w", args[0], err)
		}

		document, err := probe.New(nil, logger).Probe(cmd.Context(), target)
		if err != nil {
			return err
		}
		rendered, err := json.MarshalIndent(document, "", "  ")
		if err != nil {
			return fmt.Errorf("rendering response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(rendered))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prober, extractor and validator as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(&mcp.Implementation{
			Name:    "beacon-verifier",
			Version: version,
		}, nil)
		mcp.AddTool(server, tool.MetadataProbeEndpoint, tool.ProbeEndpoint)
		mcp.AddTool(server, tool.MetadataListEntityIDs, tool.ListEntityIDs)
		mcp.AddTool(server, tool.MetadataValidateResponse, tool.ValidateResponse)

		logger.Info("serving MCP over stdio", zap.String("version", version))
		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	checkCmd.Flags().StringVarP(&configPath, "config", "c", "beacon-verifier.yaml", "path to the sweep manifest")
	rootCmd.AddCommand(checkCmd, idsCmd, probeCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
