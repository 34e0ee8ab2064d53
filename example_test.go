package ngena_test

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/config"
	"github.com/aretw0/ngena/internal/console"
)

// ExampleRunner drives the bot from a scripted conversation, printing replies the
// way a chat client would show them.
func ExampleRunner() {
	dir, err := os.MkdirTemp("", "ngena-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// 1. An in-memory session store and a throwaway SQLite record store.
	cfg := &config.Config{}
	cfg.Records.DSN = "file:" + filepath.Join(dir, "ngena.db")
	cfg.Records.Migrate = true
	if err := config.Normalize(cfg); err != nil {
		log.Fatal(err)
	}

	// 2. Replies go to the console instead of the WhatsApp Cloud API.
	ctx := context.Background()
	app, err := ngena.New(ctx, cfg, ngena.WithTransport(console.New(os.Stdout)))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	// 3. One dispatch cycle per line.
	r := &ngena.Runner{
		Input:    strings.NewReader("hi\nTariro\nexit\n"),
		Output:   os.Stdout,
		UserID:   "263771000001",
		Headless: true,
	}
	if err := r.Run(ctx, app); err != nil {
		log.Fatal(err)
	}

	// Output:
	// Welcome to *Ngena*. Let's sign you up to get started.
	//
	// What is your first name?
	// What is your last name?
	// Bye!
}
