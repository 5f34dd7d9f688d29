package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
	"github.com/mailarchive/hkreader/pkg/hkreader/hyperkitty"
	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

var version = "dev"

type CLI struct {
	Config  string `help:"Config file path" default:"~/.config/hkreader/config.yaml" type:"path"`
	JSON    bool   `help:"JSON output format"`
	Verbose bool   `help:"Verbose logging"`
	NoColor bool   `help:"Disable colored output"`

	TUI     struct{} `cmd:"" default:"1" help:"Launch the terminal UI (default)"`
	Version struct{} `cmd:"" help:"Show version"`

	Lists struct {
		Browse struct {
			Server string `help:"Hyperkitty server URL (overrides config)"`
		} `cmd:"" help:"List all mailing lists on a server"`

		Subscribe struct {
			Names  []string `arg:"" required:"" help:"List names (e.g. mailman-users@mailman3.org)"`
			Server string   `help:"Hyperkitty server URL (overrides config)"`
		} `cmd:"" help:"Subscribe to lists (persist them locally)"`

		Unsubscribe struct {
			Name string `arg:"" required:"" help:"List name"`
		} `cmd:"" help:"Unsubscribe from a list and drop its cache"`

		Subscribed struct{} `cmd:"" help:"Show subscribed lists"`
	} `cmd:"" help:"Mailing list operations"`

	Threads struct {
		List struct {
			ListName string `arg:"" required:"" help:"Subscribed list name"`
			Refresh  bool   `help:"Fetch new threads from the server"`
			Limit    int    `help:"Max threads" default:"50"`
		} `cmd:"" help:"List threads of a subscribed list"`

		Read struct {
			ListName string `arg:"" required:"" help:"Subscribed list name"`
			ThreadID string `arg:"" required:"" help:"Thread ID"`
			Refresh  bool   `help:"Refresh threads before resolving the ID"`
		} `cmd:"" help:"Read a thread's emails"`

		Export struct {
			ListName string `arg:"" required:"" help:"Subscribed list name"`
			ThreadID string `arg:"" required:"" help:"Thread ID"`
			Output   string `short:"o" help:"Output mbox file (- for stdout)" default:"-"`
		} `cmd:"" help:"Export a thread as mbox"`
	} `cmd:"" help:"Thread operations"`

	Sync struct{} `cmd:"" help:"Refresh threads for every subscribed list"`
}

// getManager wires config, store, and API client together. The
// returned cleanup closes the HTTP client.
func getManager(cli *CLI) (*archive.Manager, func(), error) {
	conf, err := loadConfig(cli.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureDatabaseDir(conf.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.Open(conf.Database)
	if err != nil {
		return nil, nil, err
	}
	client := hyperkitty.NewClient(
		hyperkitty.WithTimeout(conf.HTTPTimeout),
		hyperkitty.WithPageCap(conf.PageCap),
	)
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Debugf("closing HTTP client: %v", err)
		}
	}
	return archive.NewManager(client, st), cleanup, nil
}

// serverURL resolves the server for remote list commands: the flag
// wins, the config file is the fallback.
func serverURL(cli *CLI, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	conf, err := loadConfig(cli.Config)
	if err != nil {
		return "", err
	}
	return conf.Server, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hkreader"),
		kong.Description("Terminal reader for Hyperkitty mailing list archives"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	hyperkitty.Version = version
	log.SetLevel(log.WarnLevel)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if cli.NoColor {
		color.NoColor = true
	}

	out := newOutputWriter(cli.JSON, cli.NoColor, cli.Verbose)

	switch ctx.Command() {
	case "version":
		fmt.Printf("hkreader %s\n", version)

	case "tui":
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runTUI(mgr); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "lists browse":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		server, err := serverURL(&cli, cli.Lists.Browse.Server)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		if err := runListsBrowse(cmdCtx, mgr, server, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "lists subscribe <names>":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		server, err := serverURL(&cli, cli.Lists.Subscribe.Server)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		if err := runListsSubscribe(cmdCtx, mgr, server, cli.Lists.Subscribe.Names, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "lists unsubscribe <name>":
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runListsUnsubscribe(mgr, cli.Lists.Unsubscribe.Name, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "lists subscribed":
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runListsSubscribed(mgr, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "threads list <list-name>":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runThreadsList(cmdCtx, mgr, cli.Threads.List.ListName, cli.Threads.List.Refresh, cli.Threads.List.Limit, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "threads read <list-name> <thread-id>":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runThreadsRead(cmdCtx, mgr, cli.Threads.Read.ListName, cli.Threads.Read.ThreadID, cli.Threads.Read.Refresh, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "threads export <list-name> <thread-id>":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runThreadsExport(cmdCtx, mgr, cli.Threads.Export.ListName, cli.Threads.Export.ThreadID, cli.Threads.Export.Output, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "sync":
		cmdCtx := context.Background()
		mgr, cleanup, err := getManager(&cli)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}
		defer cleanup()

		if err := runSync(cmdCtx, mgr, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", ctx.Command())
		os.Exit(1)
	}
}
