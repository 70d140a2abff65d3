package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/houseparty/houseparty/internal/database"
	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/livescore"
	"github.com/houseparty/houseparty/internal/migrations"
)

func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, driver, err := database.Open(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			if err := migrations.Run(db, driver.Dialect()); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			version, err := migrations.Version(db, driver.Dialect())
			if err != nil {
				return fmt.Errorf("reading version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", driver.Dialect(), version)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "database-url", "file:data/houseparty.db", "database to migrate (env: PARTYCTL_DATABASE_URL)")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List built-in game templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := houseparty.Templates()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tGAMES")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\n", info.Name, info.Games)
			}
			return tw.Flush()
		},
	}
}

func newLiveScoreCmd() *cobra.Command {
	var (
		source  string
		eventID string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "livescore",
		Short: "Fetch the live score once from the upstream scoreboard",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := livescore.NewESPN(source, timeout).Fetch(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&source, "url", livescore.DefaultScoreboardURL, "scoreboard URL (env: PARTYCTL_URL)")
	fs.StringVar(&eventID, "event", livescore.DefaultEventID, "event identifier (env: PARTYCTL_EVENT)")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout (env: PARTYCTL_TIMEOUT)")
	return cmd
}

func newQRCmd() *cobra.Command {
	var (
		publicURL string
		out       string
		size      int
	)

	cmd := &cobra.Command{
		Use:   "qr CODE",
		Short: "Write the join QR code of a party as PNG",
		Args:  cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			code := houseparty.NormalizeCode(args[0])
			link := strings.TrimRight(publicURL, "/") + "/join?code=" + url.QueryEscape(code)
			if out == "" {
				out = code + ".png"
			}
			if err := qrcode.WriteFile(link, qrcode.Medium, size, out); err != nil {
				return fmt.Errorf("writing qr code: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", link, out)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&publicURL, "public-url", "http://localhost:8080", "base URL guests open (env: PARTYCTL_PUBLIC_URL)")
	fs.StringVarP(&out, "out", "o", "", "output file, defaults to CODE.png (env: PARTYCTL_OUT)")
	fs.IntVar(&size, "size", 320, "image size in pixels (env: PARTYCTL_SIZE)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var w watcher

	cmd := &cobra.Command{
		Use:   "watch CODE",
		Short: "Poll the server and feed completed quarters into the party's squares grid",
		Args:  cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if w.hostID == "" {
				return fmt.Errorf("--host-id is required")
			}
			w.code = houseparty.NormalizeCode(args[0])
			w.out = cmd.OutOrStdout()
			return w.run(cmd.Context())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&w.server, "server", "http://localhost:8080", "House Party server URL (env: PARTYCTL_SERVER)")
	fs.StringVar(&w.hostID, "host-id", "", "guest id of the party host (env: PARTYCTL_HOST_ID)")
	fs.DurationVar(&w.interval, "interval", 30*time.Second, "poll interval (env: PARTYCTL_INTERVAL)")
	fs.BoolVar(&w.once, "once", false, "sync once and exit (env: PARTYCTL_ONCE)")
	return cmd
}
