package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/errors"
	"cueview/internal/mcp"
	"cueview/internal/ops"
	"cueview/internal/store"
	"cueview/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "cueview",
		Usage:   "Review model-generated tag annotations over a transcript dataset",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "SQLite transcript dataset path"},
			&cli.StringFlag{Name: "annotations", Aliases: []string{"a"}, Usage: "Annotation storage directory"},
		},
		Commands: []*cli.Command{
			serveCmd(cfg),
			mcpCmd(cfg),
			rowsCmd(cfg),
			fetchCmd(cfg),
			saveCmd(cfg),
			recordCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// effectiveConfig overlays global flags on the loaded config.
func effectiveConfig(c *cli.Context, cfg *config.Config) *config.Config {
	overlay := &config.Config{
		DatasetPath:    c.String("data"),
		AnnotationsDir: c.String("annotations"),
	}
	return config.Merge(cfg, overlay)
}

// openEnv opens the dataset source and the annotation store per config.
func openEnv(c *cli.Context, cfg *config.Config) (*dataset.Source, *store.Store, *config.Config, error) {
	eff := effectiveConfig(c, cfg)
	if eff.DatasetPath == "" {
		return nil, nil, nil, errors.NewInvalidRequest("no dataset configured; pass --data or set dataset_path in config.json")
	}
	src, err := dataset.Open(eff.DatasetPath, eff.ModelOrder)
	if err != nil {
		return nil, nil, nil, err
	}
	return src, store.New(eff.AnnotationsDir), eff, nil
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the review web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			src, st, eff, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}

			bind := eff.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := eff.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(src, st, eff, Version)
			return srv.Run(context.Background(), bind, port)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve review tools over MCP on stdio",
		Action: func(c *cli.Context) error {
			src, st, eff, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}
			return mcp.NewServer(src, st, eff, Version).Run()
		},
	}
}

// rowsCmd creates the rows command.
func rowsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "rows",
		Usage: "List rows with saved decision progress",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Annotator name"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model column (default: first known)"},
		},
		Action: func(c *cli.Context) error {
			src, st, eff, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Overview(src, st, eff, ops.OverviewInput{
				Username: c.String("user"),
				Model:    c.String("model"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch one row: tag stream, prior decisions and drift flags",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Annotator name"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model column (default: first known)"},
			&cli.IntFlag{Name: "row", Aliases: []string{"r"}, Required: true, Usage: "Zero-based row index"},
		},
		Action: func(c *cli.Context) error {
			src, st, eff, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Review(src, st, eff, ops.ReviewInput{
				Username: c.String("user"),
				Model:    c.String("model"),
				RowIndex: c.Int("row"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// saveCmd creates the save command.
func saveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save tag decisions and notes for one row",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Annotator name"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model column (default: first known)"},
			&cli.IntFlag{Name: "row", Aliases: []string{"r"}, Required: true, Usage: "Zero-based row index"},
			&cli.StringSliceFlag{Name: "decision", Usage: "Tag decision as <index>=<agree|disagree|unset>, repeatable"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Markdown notes for the row"},
		},
		Action: func(c *cli.Context) error {
			decisions, err := parseDecisions(c.StringSlice("decision"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			src, st, eff, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Save(src, st, eff, ops.SaveInput{
				Username:  c.String("user"),
				Model:     c.String("model"),
				RowIndex:  c.Int("row"),
				Decisions: decisions,
				Notes:     c.String("notes"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// recordCmd creates the record command.
func recordCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Print the saved annotation record for one row as stored",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Annotator name"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model column (default: first known)"},
			&cli.IntFlag{Name: "row", Aliases: []string{"r"}, Required: true, Usage: "Zero-based row index"},
		},
		Action: func(c *cli.Context) error {
			src, st, _, err := openEnv(c, cfg)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.FetchRecord(src, st, ops.RecordInput{
				Username: c.String("user"),
				Model:    c.String("model"),
				RowIndex: c.Int("row"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// parseDecisions converts repeated "<index>=<value>" flags to a decision map.
func parseDecisions(pairs []string) (map[int]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	decisions := make(map[int]string, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("decision %q must be <index>=<value>", pair)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("decision index %q is not a number", key)
		}
		decisions[idx] = strings.TrimSpace(val)
	}
	return decisions, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cErr, ok := err.(*errors.CueviewError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
