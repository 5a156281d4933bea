// Package main provides the tsclabel command: a print service and CLI for TSPL label printers.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tomgalvin.uk/tsclabel/internal/config"
)

var (
	cfg       = config.Default()
	logLevel  string
	logFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tsclabel",
		Short: "Lay out and print labels on TSPL printers",
		Long: `tsclabel turns item lists into TSPL label jobs and sends them to a printer
over TCP, USB, Bluetooth LE or a file. It runs as an HTTP print service or one-shot CLI.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	if err := cfg.LoadEnv(nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// PRINTER_IP is honoured for deployments of the older service.
	if ip, ok := os.LookupEnv("PRINTER_IP"); ok && cfg.Device == "" {
		cfg.Device = ip
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	cfg.BindFlags(flags)

	rootCmd.AddCommand(
		serveCommand(),
		printCommand(),
		encodeCommand(),
		previewCommand(),
		presetsCommand(),
		testCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level: %s", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(logFormat) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", logFormat)
	}
	slog.SetDefault(slog.New(h))

	return cfg.Validate()
}
