package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"huahuacuna/internal/config"
	"huahuacuna/internal/database"
	"huahuacuna/internal/logging"
	"huahuacuna/internal/session"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and maintain persisted visitor sessions",
	Long: `Operator tool over the session storage used by the web server.

The backend is selected with SESSION_STORE (sql, redis or memory) and the
same DB_*, DATABASE_URL and REDIS_* variables the server reads.

Examples:
  sessions list
  sessions list --all
  sessions prune --dry-run
  sessions revoke 6f1c...`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logging.Setup(cfg.LogLevel)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE:  runList,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions that would be discarded at startup",
	Long: `Apply the startup restore rules to every persisted session and delete
the entries that fail them: missing keys, unreadable or expired tokens, and
corrupt user records.`,
	RunE: runPrune,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Delete one persisted session",
	Long: `Delete the persisted session with the given id. A running server keeps
its in-memory copy until it restarts or the visitor logs out.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevoke,
}

func init() {
	listCmd.Flags().Bool("all", false, "include entries that would be discarded at startup")
	pruneCmd.Flags().Bool("dry-run", false, "report what would be removed without deleting")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(revokeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects the configured backend. Callers must close the returned closer.
func openStore(ctx context.Context) (session.Storage, *session.Store, io.Closer, error) {
	storage, closer, err := session.OpenStorage(ctx, session.OpenOptions{
		Backend:  cfg.SessionStore,
		Database: database.Options{Type: cfg.DatabaseType, Path: cfg.DatabasePath, URL: cfg.DatabaseURL},
		Redis:    redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	sealer, err := session.NewSealer(cfg.SessionSecret)
	if err != nil {
		closer.Close()
		return nil, nil, nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return storage, session.NewStore(storage, sealer), closer, nil
}

func runList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	storage, store, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	return printEntries(ctx, cmd.OutOrStdout(), storage, store, all)
}

func runPrune(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	storage, store, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	return pruneSessions(ctx, cmd.OutOrStdout(), storage, store, dryRun)
}

func pruneSessions(ctx context.Context, out io.Writer, storage session.Storage, store *session.Store, dryRun bool) error {
	if dryRun {
		return printEntries(ctx, out, storage, store, true)
	}

	result, err := store.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	fmt.Fprintf(out, "Kept %d sessions, removed %d\n", result.Restored, result.Discarded)
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	storage, _, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := storage.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	log.Info().Str("session_id", args[0]).Msg("session revoked")
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s revoked\n", args[0])
	return nil
}

func printEntries(ctx context.Context, out io.Writer, storage session.Storage, store *session.Store, all bool) error {
	entries, err := storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tROLE\tEXPIRES\tSTATUS")
	valid := 0
	for _, entry := range entries {
		sess, err := store.Inspect(entry)
		if err != nil {
			if all {
				fmt.Fprintf(w, "%s\t-\t-\t-\tdiscard: %v\n", entry.ID, err)
			}
			continue
		}
		valid++
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\tvalid\n",
			entry.ID, sess.User.Email, sess.User.Role, sess.ExpiresAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d persisted sessions are valid\n", valid, len(entries))
	return nil
}
