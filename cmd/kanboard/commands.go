package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/evanschultz/kanboard/internal/adapters/server"
	"github.com/evanschultz/kanboard/internal/adapters/server/common"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/config"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/tui"
	"github.com/evanschultz/kanboard/internal/watcher"
	"github.com/spf13/cobra"
)

// runTUI runs the interactive board until the user quits.
func runTUI(ctx context.Context, opts *rootOptions) error {
	return withEnvironment(ctx, opts, "tui", func(_ context.Context, env *environment) error {
		modelOpts := []tui.Option{
			tui.WithActivationDistance(env.cfg.Drag.ActivationDistance),
			tui.WithBoardConfig(tui.BoardConfig{
				ShowWIPWarnings: env.cfg.Board.ShowWIPWarnings,
				ShowLabels:      env.cfg.Board.ShowLabels,
				ShowDescription: env.cfg.Board.ShowDescription,
			}),
			tui.WithLogger(env.logger.For("board")),
		}

		if env.cfg.Watch.Enabled {
			w, err := watcher.New(env.cfg.Database.Path, watcherOptions(env.cfg.Watch, env.logger)...)
			if err != nil {
				return fmt.Errorf("create database watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				env.logger.Warn("database watcher unavailable", "path", w.Path(), "err", err)
			} else {
				defer w.Stop()
				env.logger.Info("database watcher started", "path", w.Path(), "polling", w.IsPolling())
				modelOpts = append(modelOpts, tui.WithWatcher(w))
			}
		}

		m := tui.NewModel(env.svc, modelOpts...)
		env.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// watcherOptions maps the [watch] table onto database watcher options.
func watcherOptions(cfg config.WatchConfig, logger *runtimeLogger) []watcher.Option {
	return []watcher.Option{
		watcher.WithDebounceDuration(cfg.Debounce()),
		watcher.WithPollInterval(cfg.PollInterval()),
		watcher.WithForcePoll(cfg.ForcePoll),
		watcher.WithOnError(func(err error) {
			logger.Warn("database watcher error", "err", err)
		}),
	}
}

// newServeCommand builds the HTTP and MCP serve command.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Long:  "serve exposes the board as a JSON API and a stateless MCP endpoint. Changes made here reach a running board through its database watcher.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withEnvironment(ctx, opts, "serve", func(ctx context.Context, env *environment) error {
				cfg := server.Config{
					HTTPBind:      firstNonEmpty(httpBind, env.cfg.Serve.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, env.cfg.Serve.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, env.cfg.Serve.MCPEndpoint),
					ServerName:    "kanboard",
					ServerVersion: version,
				}
				return server.Run(ctx, cfg, server.Dependencies{
					Board:  common.NewAppServiceAdapter(env.svc),
					Logger: env.logger.For("server"),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "listen address (defaults to serve.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST mount path (defaults to serve.api_endpoint)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP mount path (defaults to serve.mcp_endpoint)")
	return cmd
}

// newPathsCommand prints resolved runtime paths without touching storage.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

// newListCommand prints the board as columns of cards.
func newListCommand(opts *rootOptions) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnvironment(cmd.Context(), opts, "list", func(ctx context.Context, env *environment) error {
				state, err := common.NewAppServiceAdapter(env.svc).BoardState(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					encoded, err := json.MarshalIndent(state, "", "  ")
					if err != nil {
						return fmt.Errorf("encode board json: %w", err)
					}
					_, err = fmt.Fprintln(out, string(encoded))
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, col := range state.Columns {
					header := fmt.Sprintf("%s (%d)", col.Title, len(col.Cards))
					if col.WIPLimit > 0 {
						header = fmt.Sprintf("%s (%d/%d)", col.Title, len(col.Cards), col.WIPLimit)
					}
					_, _ = fmt.Fprintln(tw, header)
					for _, card := range col.Cards {
						_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", card.ID, card.Title, card.Priority)
					}
				}
				if len(state.Misplaced) > 0 {
					_, _ = fmt.Fprintf(tw, "unknown status: %s\n", strings.Join(state.Misplaced, ", "))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the board as JSON")
	return cmd
}

// newAddCommand creates a card from the command line.
func newAddCommand(opts *rootOptions) *cobra.Command {
	var (
		status      string
		description string
		priority    string
		labels      []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a card",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd.Context(), opts, "add", func(ctx context.Context, env *environment) error {
				card, err := env.svc.CreateCard(ctx, app.CreateCardInput{
					Status:      status,
					Title:       strings.Join(args, " "),
					Description: description,
					Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(priority))),
					Labels:      labels,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", card.ID, card.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "column id (defaults to the first column)")
	cmd.Flags().StringVar(&description, "description", "", "card description (markdown)")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, or high")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "card label (repeatable)")
	return cmd
}

// newMoveCommand changes a card's status, the same commit a drag performs.
func newMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <card-id> <status>",
		Short: "Move a card to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd.Context(), opts, "move", func(ctx context.Context, env *environment) error {
				card, err := env.svc.UpdateCardStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", card.ID, card.Status)
				return nil
			})
		},
	}
}

// newEditCommand edits a card's details. Only flags given on the command line
// change; everything else keeps its stored value.
func newEditCommand(opts *rootOptions) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		labels      []string
	)
	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Edit a card's title, description, priority, or labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := common.UpdateCardRequest{CardID: args[0]}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("priority") {
				req.Priority = &priority
			}
			if flags.Changed("label") {
				req.Labels = &labels
			}
			if req.Title == nil && req.Description == nil && req.Priority == nil && req.Labels == nil {
				return errors.New("nothing to edit: pass at least one of --title, --description, --priority, --label")
			}
			return withEnvironment(cmd.Context(), opts, "edit", func(ctx context.Context, env *environment) error {
				card, err := common.NewAppServiceAdapter(env.svc).UpdateCard(ctx, req)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", card.ID, card.Status, card.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description (markdown)")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, or high")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "replacement label (repeatable; --label= clears)")
	return cmd
}

// newDeleteCommand removes a card.
func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <card-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd.Context(), opts, "delete", func(ctx context.Context, env *environment) error {
				if err := common.NewAppServiceAdapter(env.svc).DeleteCard(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted\t%s\n", args[0])
				return nil
			})
		},
	}
}

// newExportCommand writes a JSON snapshot of the board.
func newExportCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnvironment(cmd.Context(), opts, "export", func(ctx context.Context, env *environment) error {
				snap, err := env.svc.ExportSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				encoded, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("encode snapshot json: %w", err)
				}
				encoded = append(encoded, '\n')

				if outPath == "-" {
					if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
						return fmt.Errorf("write snapshot to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCommand loads a JSON snapshot produced by export.
func newImportCommand(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return withEnvironment(cmd.Context(), opts, "import", func(ctx context.Context, env *environment) error {
				content, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				var snap app.Snapshot
				if err := json.Unmarshal(content, &snap); err != nil {
					return fmt.Errorf("decode snapshot json: %w", err)
				}
				if err := env.svc.ImportSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
