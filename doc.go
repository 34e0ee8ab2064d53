/*
Package ngena wires the Ngena WhatsApp menu bot.

Every inbound webhook event is normalized into a domain.IncomingMessage and run through
one dispatch cycle: the user's session picks a row of the action table, the row's
validator decides the branch, and the reply is rendered into a single envelope for the
messaging API. Sessions, history and navigation controls live in a key-value store
(in memory or Redis); users, courses, payments and assignments live in a SQL database.

# Usage

	cfg, err := config.Load("ngena.yaml")
	if err != nil {
		log.Fatal(err)
	}

	app, err := ngena.New(ctx, cfg, ngena.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	out, err := app.HandleWebhook(ctx, payload)

The console transport and Runner allow the same engine to be driven from a terminal,
which is what the "ngena chat" command does.
*/
package ngena
