// Package main provides the entry point for the Bitmask client.
// Bitmask runs the Encrypted Internet (OpenVPN) status panel and the
// local IMAP mail service on top of an encrypted document store.
//
// Features:
//   - Encrypted Internet toggle with tray and desktop notifications
//   - Local IMAP service relaying mail clients to the provider
//   - Periodic fetching of new mail into the encrypted store
//   - Secure credential storage using the system keyring
//   - Terminal UI and command-line interface
//
// Usage:
//
//	bitmask [options]
//
// Environment:
//
//	Encrypted Internet requires OpenVPN and pkexec to be installed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/yllada/bitmask-client/cli"
	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
	"github.com/yllada/bitmask-client/keymanager"
	"github.com/yllada/bitmask-client/services"
	"github.com/yllada/bitmask-client/tui"
	"github.com/yllada/bitmask-client/ui"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	// GUI/General flags
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")
	runTUI      = flag.Bool("tui", false, "Run the status panel in the terminal")

	// CLI flags
	showStatus  = flag.Bool("status", false, "Show the Encrypted Internet state")
	fetchMail   = flag.Bool("fetch", false, "Fetch new mail once and exit")
	listMail    = flag.Bool("list-mail", false, "List stored messages")
	listLimit   = flag.Int("limit", 20, "Number of messages to list")
	setPassword = flag.Bool("set-password", false, "Store the IMAP password for the configured account")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		os.Exit(0)
	}

	os.Exit(run())
}

// run starts the selected front end and returns the process exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
	}

	// Initialize logger with file output
	logLevel := common.ParseLogLevel(cfg.LogLevel)
	if *verbose {
		logLevel = common.LevelDebug
	}

	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  true,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	secretsDir, err := common.GetConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	keys, err := keymanager.New(keymanager.DefaultService, secretsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *showStatus || *fetchMail || *listMail || *setPassword {
		return runCLI(ctx, cli.New(cfg, keys))
	}

	if !checkOpenVPNInstalled() {
		common.LogWarn("OpenVPN is not installed, Encrypted Internet will be unavailable")
	}

	svc, err := services.OpenWithKeys(cfg, keys)
	if err != nil {
		common.LogError("Opening services: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := svc.Close(common.MailStopTimeout); err != nil {
			common.LogWarn("Closing services: %v", err)
		}
	}()

	if *runTUI {
		if err := tui.Run(ctx, svc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	common.LogInfo("Starting %s v%s", common.AppName, appVersion)
	app := ui.NewApplication(common.AppID, appVersion, svc)
	exitCode := app.Run(os.Args[:1])
	if exitCode != 0 {
		common.LogWarn("Application exited with code %d", exitCode)
	}
	return exitCode
}

// runCLI handles command-line interface operations and returns the exit code.
func runCLI(ctx context.Context, cliApp *cli.CLI) int {
	var cliErr error

	switch {
	case *setPassword:
		cliErr = cliApp.SetPassword()
	case *fetchMail:
		cliErr = cliApp.Fetch(ctx)
	case *listMail:
		cliErr = cliApp.ListMail(ctx, *listLimit)
	case *showStatus:
		cliErr = cliApp.Status(ctx)
	}

	if cliErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cliErr)
		return 1
	}
	return 0
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}

// checkOpenVPNInstalled verifies that OpenVPN is available on the system.
func checkOpenVPNInstalled() bool {
	_, err := exec.LookPath("openvpn")
	return err == nil
}
