package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/mindprint/internal/api"
	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/config"
	"github.com/hpungsan/mindprint/internal/distill"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/rental"
	"github.com/hpungsan/mindprint/internal/store"
	"github.com/hpungsan/mindprint/internal/syncer"
)

// deps bundles the initialized services the CLI commands run against.
type deps struct {
	baseDir string
	cfg     *config.Config
	store   *store.Store
	rentals *rental.Service
	syncer  *syncer.Syncer
	userID  string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "mindprint",
		Usage:   "Privacy-safe memory distillation and rental",
		Version: Version,
		Commands: []*cli.Command{
			distillCmd(),
			listCmd(),
			syncCmd(d),
			pullCmd(d),
			rentCmd(d),
			revokeCmd(d),
			rentalsCmd(d),
			serveCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// distillCmd creates the distill command. It runs the pipeline locally
// without touching the persona store.
func distillCmd() *cli.Command {
	return &cli.Command{
		Name:      "distill",
		Usage:     "Distill memory files into a cognition document",
		ArgsUsage: "[workspace] [output-dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Directory to write cognition.md into (defaults to the workspace)"},
		},
		Action: func(c *cli.Context) error {
			workspace := workspaceArg(c)

			sources, err := distill.LoadSources(workspace)
			if err != nil {
				return outputError(err)
			}
			profile, err := distill.Distill(sources)
			if err != nil {
				return outputError(err)
			}

			destDir := workspace
			if c.NArg() > 1 {
				destDir = c.Args().Get(1)
			}
			if out := c.String("output"); out != "" {
				destDir = out
			}
			docPath, err := cognition.Write(profile, destDir)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"document_path": docPath,
				"bullet_count":  profile.BulletCount(),
			})
		},
	}
}

// listCmd creates the list command.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List existing cognition documents under a directory",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			infos, err := cognition.Inventory(workspaceArg(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"documents": infos})
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Distill the workspace and publish the profile to the persona store",
		ArgsUsage: "[workspace]",
		Action: func(c *cli.Context) error {
			result, err := d.syncer.Sync(c.Context, d.userID, workspaceArg(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// pullCmd creates the pull command.
func pullCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Pull a rented cognition profile into personas/<seller>/",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("token argument is required"))
			}
			result, err := d.syncer.Pull(c.Context, d.userID, c.Args().First(), d.baseDir)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// rentCmd creates the rent command.
func rentCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "rent",
		Usage:     "Issue a rental token for a seller's cognition profile",
		ArgsUsage: "<seller-user-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ttl-hours", Usage: "Token lifetime in hours (defaults to the configured TTL)"},
			&cli.BoolFlag{Name: "no-expiry", Usage: "Issue a token that never expires"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("seller-user-id argument is required"))
			}

			opts := rental.IssueOptions{NoExpiry: c.Bool("no-expiry")}
			if c.IsSet("ttl-hours") {
				ttl := time.Duration(c.Int("ttl-hours")) * time.Hour
				opts.TTL = &ttl
			}

			row, err := d.rentals.Issue(c.Context, c.Args().First(), opts)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(rentalView(row, time.Now().Unix()))
		},
	}
}

// revokeCmd creates the revoke command.
func revokeCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "Revoke a rental token (no-op if unknown or already revoked)",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("token argument is required"))
			}
			if err := d.rentals.Revoke(c.Context, c.Args().First()); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"status": "revoked"})
		},
	}
}

// rentalsCmd creates the rentals command.
func rentalsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "rentals",
		Usage:     "List issued rental tokens and their states",
		ArgsUsage: "[seller-user-id]",
		Action: func(c *cli.Context) error {
			sellerID := d.userID
			if c.NArg() > 0 {
				sellerID = c.Args().First()
			}

			rows, err := d.rentals.List(c.Context, sellerID)
			if err != nil {
				return outputError(err)
			}

			now := time.Now().Unix()
			views := make([]map[string]any, len(rows))
			for i, row := range rows {
				views[i] = rentalView(row, now)
			}
			return outputJSON(map[string]any{"rentals": views})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the rental marketplace HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8377", Usage: "Listen address"},
			&cli.StringFlag{Name: "auth-token", EnvVars: []string{"MINDPRINT_AUTH_TOKEN"}, Usage: "Bearer token required for issuing and revoking rentals"},
		},
		Action: func(c *cli.Context) error {
			srv := api.NewServer(d.store, d.rentals, c.String("auth-token"))
			addr := c.String("addr")
			log.Printf("mindprint API listening on %s", addr)
			return http.ListenAndServe(addr, srv.Routes())
		},
	}
}

// rentalView shapes a rental row for JSON output.
func rentalView(r *store.Rental, now int64) map[string]any {
	v := map[string]any{
		"token":          r.Token,
		"seller_user_id": r.SellerUserID,
		"created_at":     r.CreatedAt,
		"state":          rental.State(r, now),
	}
	if r.ExpiresAt != nil {
		v["expires_at"] = *r.ExpiresAt
	}
	return v
}

// workspaceArg returns the positional workspace argument, defaulting to the
// current directory.
func workspaceArg(c *cli.Context) string {
	if c.NArg() > 0 {
		return c.Args().First()
	}
	return "."
}

// outputJSON prints the result as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. Token errors render through the
// external code and message so the expired/revoked distinction stays
// internal.
func outputError(err error) error {
	if e, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", e.ExternalCode(), e.ExternalMessage()), 1)
	}
	return cli.Exit(err.Error(), 1)
}
