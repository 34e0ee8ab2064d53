package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Runs the dialog engine against a console transport, one dispatch cycle per line.
Replies are printed the way WhatsApp would show them. Type "/file <url>" to upload a
document and "exit" to quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		headless, _ := cmd.Flags().GetBool("headless")
		plain, _ := cmd.Flags().GetBool("plain")

		interactive := !headless && term.IsTerminal(int(os.Stdout.Fd()))
		render := console.Plain
		if interactive && !plain {
			render = console.NewRenderer()
		}
		transport := console.New(os.Stdout, console.WithRenderer(render))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, _, err := openApp(ctx, cmd, ngena.WithTransport(transport))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if interactive {
			console.PrintBanner(os.Stdout, ngena.Version, userID)
		}

		r := &ngena.Runner{
			Input:       os.Stdin,
			Output:      os.Stdout,
			UserID:      userID,
			DisplayName: name,
			Headless:    !interactive,
		}
		if err := r.Run(ctx, app); err != nil && ctx.Err() == nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("user", "u", "263770000000", "Phone number to chat as")
	chatCmd.Flags().String("name", "", "WhatsApp profile name to send")
	chatCmd.Flags().Bool("headless", false, "Read from stdin without prompt or banner")
	chatCmd.Flags().Bool("plain", false, "Print replies without Markdown styling")
}
