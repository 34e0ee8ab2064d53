package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/config"
	"github.com/aretw0/ngena/internal/console"
	"github.com/aretw0/ngena/internal/presentation/graph"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/persistence/middleware"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clear stored conversations",
	Long: `Inspect the session and reply history of a user, or purge everything stored for
them. Personal data is masked unless --raw is given. Only useful with a shared store
backend such as redis.`,
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Inspect the session of a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]
		app, sessions, _ := openStores(cmd)
		defer app.Close()

		sess, found, err := sessions.Get(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", userID, err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("No session for '%s'.\n", userID)
			return
		}
		printJSON(sess)
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show the reply history of a user, oldest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]
		app, _, hist := openStores(cmd)
		defer app.Close()

		entries, err := hist.Entries(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading history '%s': %v\n", userID, err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Printf("No history for '%s'.\n", userID)
			return
		}
		printJSON(entries)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Purge the session, history and caches of one or more users",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, sessions, _ := openStores(cmd)
		defer app.Close()
		hasError := false

		for _, userID := range args {
			if err := sessions.Purge(cmd.Context(), userID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", userID, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", userID)
			}
		}

		if hasError {
			app.Close()
			os.Exit(1)
		}
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph <user-id>",
	Short: "Print the action table as a Mermaid flowchart highlighting a user's path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]
		app, sessions, hist := openStores(cmd)
		defer app.Close()

		sess, err := sessions.Load(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", userID, err)
			os.Exit(1)
		}
		entries, err := hist.Entries(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading history '%s': %v\n", userID, err)
			os.Exit(1)
		}

		overlay := &graph.Overlay{Current: sess.State}
		for _, e := range entries {
			overlay.Visited = append(overlay.Visited, e.State)
		}
		fmt.Print(graph.GenerateMermaid(app.Dispatcher().Table(), overlay))
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionGraphCmd)
	sessionCmd.PersistentFlags().Bool("raw", false, "Show personal data unmasked")
}

// openStores opens the configured stores. Reads are masked unless --raw is set.
func openStores(cmd *cobra.Command) (*ngena.App, *session.Store, *history.Stack) {
	app, cfg, err := openApp(cmd.Context(), cmd, ngena.WithTransport(console.New(nil)))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Store.Backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "Warning: store.backend is 'memory'; sessions of other processes are not visible.")
	}

	sessions := app.Dispatcher().Sessions()
	kv := sessions.KV()
	if raw, _ := cmd.Flags().GetBool("raw"); !raw {
		kv = middleware.Chain(kv, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	}
	return app, session.NewStore(kv, session.WithTTL(sessions.TTL())), history.New(kv, history.WithTTL(sessions.TTL()))
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
