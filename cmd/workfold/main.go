package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/workfold/workfold/internal/access"
	"github.com/workfold/workfold/internal/api"
	"github.com/workfold/workfold/internal/auth"
	"github.com/workfold/workfold/internal/config"
	"github.com/workfold/workfold/internal/events"
	"github.com/workfold/workfold/internal/foldercfg"
	"github.com/workfold/workfold/internal/forge"
	"github.com/workfold/workfold/internal/log"
	"github.com/workfold/workfold/internal/organize"
	"github.com/workfold/workfold/internal/storage"
	"github.com/workfold/workfold/internal/tui"
	"github.com/workfold/workfold/internal/workflows"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "token":
		return runTokenNoun(args)
	case "cache":
		return runCacheNoun(args)

	// --- PROJECT ACTIONS ---
	case "list":
		return runList(args)
	case "view":
		return runView(args)
	case "access":
		return runAccess(args)
	case "enable":
		return runSetEnabled(args, true)
	case "disable":
		return runSetEnabled(args, false)

	case "serve":
		return runServe(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`workfold - Workflow folder organizer for forge projects

Usage:
  workfold <command> [flags]

Project Commands:
  list OWNER/REPO     Print the grouped workflow view
  view OWNER/REPO     Browse workflow folders in a TUI
  access OWNER/REPO   Probe whether the current token can write to the project
  enable OWNER/REPO   Turn grouping on for a project
  disable OWNER/REPO  Turn grouping off for a project

Token Commands:
  token set TOKEN     Store the forge API token
  token status        Show where the active token comes from
  token clear         Remove the stored token

Cache Commands:
  cache clear [OWNER/REPO]  Drop cached folder configs (all, or one project)
  cache stats               Show cached config count

Service:
  serve               Run the local HTTP API in the foreground

General:
  version             Show version information
  help                Show this help message
`)
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := versionInfo{Version: strings.TrimSpace(version), Commit: strings.TrimSpace(gitCommit)}
	if info.Commit == "" || info.Commit == "unknown" {
		info.Commit = shortenCommit(readBuildSetting("vcs.revision"))
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("workfold %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	return 0
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

// parseProject splits an OWNER/REPO argument.
func parseProject(arg string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(arg), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected OWNER/REPO, got %q", arg)
	}
	return parts[0], parts[1], nil
}

// --- APP WIRING ---

// app bundles everything a command needs: loaded config, open database, and
// the fetch pipeline.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	client    *forge.Client
	settings  *storage.SettingsStore
	projects  *storage.ProjectStore
	limits    *storage.RateLimitStore
	cache     *foldercfg.Store
	fetcher   *foldercfg.Fetcher
	lister    *workflows.Lister
	prober    *access.Prober
	hub       *events.Hub
	organizer *organize.Organizer
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	if configPath == "" {
		if discovered, err := config.Discover(); err == nil {
			configPath = discovered
		}
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Setup(cfg.Service.LogLevel)

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		db:       db,
		settings: storage.NewSettingsStore(db),
		projects: storage.NewProjectStore(db),
		limits:   storage.NewRateLimitStore(db),
		cache:    foldercfg.NewStore(db),
		hub:      events.NewHub(256),
	}

	a.client = forge.New(forge.Config{
		APIBase: cfg.Forge.APIBase,
		RawBase: cfg.Forge.RawBase,
		WebBase: cfg.Forge.WebBase,
		Timeout: cfg.Forge.Timeout,
	})

	// Config token wins; otherwise fall back to the stored one.
	token := cfg.Forge.Token
	if token == "" {
		stored, err := a.settings.Token(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("read stored token: %w", err)
		}
		token = stored
	}
	if token != "" {
		a.client.SetToken(token)
	}

	a.fetcher = foldercfg.NewFetcher(a.client, a.cache, foldercfg.FetcherOptions{
		Branches:   cfg.Forge.Branches,
		ConfigPath: cfg.Forge.ConfigPath,
		TTL:        cfg.Cache.TTL,
	})
	a.lister = workflows.NewLister(a.client, a.client, workflows.ListerOptions{
		RateLimits: a.limits,
		Hub:        a.hub,
		LowWater:   cfg.Forge.RateLimitLowWater,
	})
	a.prober = access.NewProber(a.client)
	a.organizer = organize.New(a.fetcher, a.lister, a.prober, a.hub)

	return a, nil
}

func (a *app) close() {
	a.db.Close()
}

// --- TOKEN NOUN ---

func runTokenNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold token <set|status|clear>")
		return 1
	}
	if isHelpToken(args[0]) {
		fmt.Println("Usage: workfold token <set|status|clear>")
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "set":
		return runTokenSet(actionArgs)
	case "status":
		return runTokenStatus(actionArgs)
	case "clear":
		return runTokenClear(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown token action: %s\n", action)
		return 1
	}
}

func runTokenSet(args []string) int {
	fs := flag.NewFlagSet("token set", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold token set TOKEN")
		return 1
	}
	token := strings.TrimSpace(fs.Arg(0))
	if token == "" {
		fmt.Fprintln(os.Stderr, "token is empty")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := a.settings.SetToken(ctx, token); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store token: %v\n", err)
		return 1
	}
	fmt.Println("Token stored.")
	return 0
}

func runTokenStatus(args []string) int {
	fs := flag.NewFlagSet("token status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if a.cfg.Forge.Token != "" {
		fmt.Printf("Active token: config (%s)\n", maskToken(a.cfg.Forge.Token))
		return 0
	}
	stored, err := a.settings.Token(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read stored token: %v\n", err)
		return 1
	}
	if stored == "" {
		fmt.Println("No token configured. Requests run anonymously.")
		return 0
	}
	fmt.Printf("Active token: stored (%s)\n", maskToken(stored))
	return 0
}

func runTokenClear(args []string) int {
	fs := flag.NewFlagSet("token clear", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := a.settings.ClearToken(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to clear token: %v\n", err)
		return 1
	}
	fmt.Println("Token cleared.")
	return 0
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// --- CACHE NOUN ---

func runCacheNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold cache <clear|stats>")
		return 1
	}
	if isHelpToken(args[0]) {
		fmt.Println("Usage: workfold cache <clear|stats>")
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "clear":
		return runCacheClear(actionArgs)
	case "stats":
		return runCacheStats(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown cache action: %s\n", action)
		return 1
	}
}

func runCacheClear(args []string) int {
	fs := flag.NewFlagSet("cache clear", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if fs.NArg() == 0 {
		cleared, err := a.cache.ClearAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear cache: %v\n", err)
			return 1
		}
		a.hub.Publish(events.TypeCacheCleared, map[string]any{"scope": "all", "cleared": cleared})
		fmt.Printf("Cleared %d cached config(s).\n", cleared)
		return 0
	}

	owner, repo, err := parseProject(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := a.cache.Clear(ctx, owner, repo); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to clear cache: %v\n", err)
		return 1
	}
	a.hub.Publish(events.TypeCacheCleared, map[string]string{"owner": owner, "repo": repo})
	fmt.Printf("Cleared cached config for %s/%s.\n", owner, repo)
	return 0
}

func runCacheStats(args []string) int {
	fs := flag.NewFlagSet("cache stats", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	count, err := a.cache.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read cache: %v\n", err)
		return 1
	}
	fmt.Printf("Cached configs: %d\n", count)

	if rl, err := a.limits.Get(ctx, "core"); err == nil && rl != nil {
		fmt.Printf("API quota: %d/%d (resets %s)\n",
			rl.Remaining, rl.Ceiling, rl.ResetAt.Local().Format(time.Kitchen))
	}
	return 0
}

// --- PROJECT ACTIONS ---

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output the view as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold list OWNER/REPO [--json]")
		return 1
	}
	owner, repo, err := parseProject(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	enabled, err := a.projects.Enabled(ctx, owner, repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read project state: %v\n", err)
		return 1
	}

	view := buildView(ctx, a, owner, repo, enabled)

	if *jsonOut {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	printView(view, enabled)
	return 0
}

// buildView runs the pipeline. A disabled project skips the folder config
// entirely and shows the plain list.
func buildView(ctx context.Context, a *app, owner, repo string, enabled bool) *organize.View {
	if enabled {
		return a.organizer.Build(ctx, owner, repo)
	}
	flat := organize.New(disabledConfigs{}, a.lister, nil, a.hub)
	return flat.Build(ctx, owner, repo)
}

// disabledConfigs reports no config so the grouping stage passes everything
// through uncategorized.
type disabledConfigs struct{}

func (disabledConfigs) Fetch(context.Context, string, string) (*foldercfg.FetchResult, error) {
	return nil, foldercfg.ErrNoConfig
}

func printView(view *organize.View, enabled bool) {
	fmt.Printf("%s/%s", view.Owner, view.Repo)
	switch {
	case view.Degraded:
		fmt.Print("  [workflow data unavailable]")
	case view.Source != "":
		fmt.Printf("  [source: %s]", view.Source)
	}
	if !enabled {
		fmt.Print("  [grouping disabled]")
	}
	fmt.Println()

	if view.Grouping == nil || view.Grouping.Total() == 0 {
		fmt.Println("  no workflows")
		return
	}

	for _, folder := range view.Grouping.Folders {
		fmt.Printf("  %s/\n", folder.Name)
		for _, wf := range folder.Workflows {
			fmt.Printf("    %s  (%s)\n", wf.Name, wf.Filename)
		}
	}
	for _, wf := range view.Grouping.Uncategorized {
		fmt.Printf("  %s  (%s)\n", wf.Name, wf.Filename)
	}

	if view.OfferCreateConfig {
		fmt.Println()
		fmt.Println("  No folder config found. You appear to have write access;")
		fmt.Println("  add .github/workflow-folders.json to group these workflows.")
	}
}

func runView(args []string) int {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold view OWNER/REPO")
		return 1
	}
	owner, repo, err := parseProject(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	m := tui.NewBrowser(owner, repo, a.organizer, a.projects)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runAccess(args []string) int {
	fs := flag.NewFlagSet("access", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: workfold access OWNER/REPO")
		return 1
	}
	owner, repo, err := parseProject(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if a.prober.CheckWriteAccess(ctx, owner, repo) {
		fmt.Printf("%s/%s: write access\n", owner, repo)
	} else {
		fmt.Printf("%s/%s: no write access detected\n", owner, repo)
	}
	return 0
}

func runSetEnabled(args []string, enabled bool) int {
	name := "enable"
	if !enabled {
		name = "disable"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: workfold %s OWNER/REPO\n", name)
		return 1
	}
	owner, repo, err := parseProject(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := a.projects.SetEnabled(ctx, owner, repo, enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to update project state: %v\n", err)
		return 1
	}
	fmt.Printf("Grouping %sd for %s/%s.\n", name, owner, repo)
	return 0
}

// --- SERVE ---

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	logger := log.WithComponent("main")
	logger.Info("workfold starting", "version", version)

	if !a.cfg.API.Enabled {
		fmt.Fprintln(os.Stderr, "API is disabled. Set api.enabled: true (with auth) in the config.")
		return 1
	}

	tokens := make([]auth.TokenConfig, 0, len(a.cfg.API.Auth.Tokens))
	for _, t := range a.cfg.API.Auth.Tokens {
		tokens = append(tokens, auth.TokenConfig{Token: t.Token, Scopes: t.Scopes})
	}
	apiServer := api.New(api.Config{
		Listen: a.cfg.API.Listen,
		APIKey: a.cfg.API.Auth.APIKey,
		Tokens: tokens,
	}, a.organizer, a.cache, a.limits, a.hub, log.WithComponent("api"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	logger.Info("workfold running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("api server failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("workfold stopped")
	return 0
}
