package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/tgifai/reminder/internal/config"
)

var initHwd = &InitRunner{}

type InitRunner struct {
	scanner *bufio.Scanner
	// assume answers every prompt with its default.
	assume bool
}

var (
	cStep    = color.New(color.FgCyan, color.Bold)
	cWarn    = color.New(color.FgYellow)
	cSuccess = color.New(color.FgGreen)
	cError   = color.New(color.FgRed)
	cPrompt  = color.New(color.FgWhite, color.Bold)
	cDim     = color.New(color.FgHiBlack)
)

func (r *InitRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a config file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept every default without prompting",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.run,
	}
}

func (r *InitRunner) run(_ context.Context, cmd *cli.Command) error {
	r.scanner = bufio.NewScanner(os.Stdin)
	r.assume = cmd.Bool("yes")
	cfgPath := cmd.String("config")

	if _, err := os.Stat(cfgPath); err == nil && !cmd.Bool("force") {
		cWarn.Printf("  Config already exists at %s\n", cfgPath)
		if !r.confirm("  Overwrite existing config?", false) {
			fmt.Println("  Aborted.")
			return nil
		}
		fmt.Println()
	}

	cfg := &config.Config{}

	cStep.Println("  ── Schedule ──")
	cfg.Reminder.Timezone = r.promptDefault("  Timezone", localZone())
	cfg.Reminder.UniqueSession = r.confirm("  Keep a separate list for every group member?", false)
	fmt.Println()

	cStep.Println("  ── Delivery ──")
	cDim.Println("  Leave the webhook empty to write deliveries to the log.")
	cfg.Delivery.WebhookURL = r.promptDefault("  Webhook URL", "")
	if cfg.Delivery.WebhookURL != "" {
		cfg.Delivery.Token = r.promptDefault("  Webhook token", "")
	}
	fmt.Println()

	cStep.Println("  ── Language model (optional) ──")
	cDim.Println("  Without a model reminders are sent verbatim and tasks are not executed.")
	cfg.LLM.APIKey = r.promptDefault("  API key", "")
	if cfg.LLM.APIKey != "" {
		cfg.LLM.BaseURL = r.promptDefault("  Base URL", "https://api.openai.com/v1")
		cfg.LLM.Model = r.promptDefault("  Model", "gpt-4o-mini")
	}
	fmt.Println()

	if err := config.WriteFile(cfgPath, cfg); err != nil {
		cError.Printf("  ✗ %v\n", err)
		return err
	}
	cSuccess.Printf("  ✓ Config written to %s\n", cfgPath)
	cDim.Println("  Start the service with: reminder serve")
	return nil
}

func localZone() string {
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "Local"
}

func (r *InitRunner) readLine() (string, bool) {
	if r.assume || !r.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *InitRunner) promptDefault(label, def string) string {
	if def != "" {
		cPrompt.Printf("%s [%s]: ", label, def)
	} else {
		cPrompt.Printf("%s: ", label)
	}
	line, ok := r.readLine()
	if !ok {
		fmt.Println()
	}
	if line == "" {
		return def
	}
	return line
}

func (r *InitRunner) confirm(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	cPrompt.Printf("%s [%s]: ", label, hint)
	line, ok := r.readLine()
	if !ok {
		fmt.Println()
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
