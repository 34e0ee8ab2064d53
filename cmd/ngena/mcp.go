package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/console"
	"github.com/aretw0/ngena/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the dialog engine as an MCP Server, so agents can converse with the bot
and inspect sessions. Replies are captured instead of being sent to WhatsApp.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they don't corrupt JSON-RPC on Stdout.
		log.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, _, err := openApp(ctx, cmd, ngena.WithTransport(console.New(nil)))
		if err != nil {
			log.Fatalf("Error initializing ngena: %v", err)
		}
		defer app.Close()

		d := app.Dispatcher()
		srv := mcp.NewServer(app, d.Sessions(), d.History(), d.Table(),
			mcp.WithVersion(ngena.Version),
			mcp.WithLogger(app.Logger()),
		)

		switch transport {
		case "stdio":
			app.Logger().Info("Starting Ngena MCP Server (Stdio)")
			if err := srv.ServeStdio(); err != nil {
				app.Logger().Error("MCP Server execution failed", "error", err)
				app.Close()
				os.Exit(1)
			}
		case "sse":
			app.Logger().Info("Starting Ngena MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				app.Logger().Error("MCP Server execution failed", "error", err)
				app.Close()
				os.Exit(1)
			}
			app.Logger().Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
