package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kmorand/attache/internal/config"
	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/errors"
	"github.com/kmorand/attache/internal/graph"
	"github.com/kmorand/attache/internal/sources"
	"github.com/kmorand/attache/internal/web"
)

// runtime wires the synthesizer, graph cache, and stores for one process.
// Both cache cells live here from process start to exit.
type runtime struct {
	cfg    *config.Config
	synth  *dossier.Synthesizer
	cache  *graph.Cache
	notes  *db.NotesStore
	layout *db.LayoutStore
}

// newRuntime constructs the full dependency graph from config.
func newRuntime(database *sql.DB, cfg *config.Config) *runtime {
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	notes := db.NewNotesStore(database)
	layout := db.NewLayoutStore(database)

	fetcher := sources.NewClient(cfg.ContextURL, timeout)
	synth := dossier.NewSynthesizer(fetcher, notes,
		time.Duration(cfg.DossierTTLMinutes)*time.Minute)

	graphClient := graph.NewClient(cfg.GraphURL, timeout)
	cache := graph.NewCache(graphClient, layout,
		time.Duration(cfg.GraphTTLSeconds)*time.Second)

	return &runtime{cfg: cfg, synth: synth, cache: cache, notes: notes, layout: layout}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "attache",
		Usage:   "Intelligence dossier & knowledge-graph cache",
		Version: Version,
		Commands: []*cli.Command{
			dossierCmd(rt),
			notesCmd(rt),
			graphCmd(rt),
			episodeCmd(rt),
			conversationCmd(rt),
			clearCmd(rt),
			healthCmd(rt),
			serveCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// dossierCmd creates the dossier command.
func dossierCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "dossier",
		Usage: "Generate the intelligence dossier",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Aliases: []string{"r"}, Usage: "Bypass the dossier cache"},
			&cli.BoolFlag{Name: "raw", Usage: "Print only the raw context string"},
		},
		Action: func(c *cli.Context) error {
			d := rt.synth.Generate(c.Context, c.Bool("refresh"))
			if c.Bool("raw") {
				fmt.Println(d.RawContext)
				return nil
			}
			return outputJSON(d)
		},
	}
}

// notesCmd creates the notes command with get/set subcommands.
func notesCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Read or replace the user dossier notes",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the current notes",
				Action: func(c *cli.Context) error {
					content, err := rt.notes.Get()
					if err != nil {
						return outputError(err)
					}
					fmt.Println(content)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Replace the notes (reads content from stdin)",
				Action: func(c *cli.Context) error {
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("notes content must be piped via stdin"))
					}
					content, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					if err := rt.notes.Set(content); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]bool{"saved": true})
				},
			},
		},
	}
}

// graphCmd creates the graph command.
func graphCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Fetch the knowledge-graph snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Aliases: []string{"r"}, Usage: "Bypass the graph cache"},
		},
		Action: func(c *cli.Context) error {
			data := rt.cache.Fetch(c.Context, c.Bool("refresh"))
			return outputJSON(data)
		},
	}
}

// episodeCmd creates the episode command.
func episodeCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "episode",
		Usage: "Ingest one episode into the knowledge graph (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: "attache", Usage: "Source label"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "message", Usage: "Episode type: message|text|json"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("episode content must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("episode content is required"))
			}

			result := rt.cache.AddEpisode(c.Context, content, c.String("source"), c.String("type"))
			if !result.Success {
				return outputError(errors.NewGraphWriteFailed("episode", fmt.Errorf("%s", result.Error)))
			}
			return outputJSON(result)
		},
	}
}

// conversationCmd creates the conversation command.
func conversationCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "conversation",
		Usage: "Ingest a conversation (reads JSON messages from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Usage: "Session id (generated when omitted)"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("messages JSON must be piped via stdin"))
			}
			raw, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			var messages []graph.Message
			if err := json.Unmarshal([]byte(raw), &messages); err != nil {
				return outputError(errors.NewInvalidRequest("messages must be a JSON array of {role, content}"))
			}
			if len(messages) == 0 {
				return outputError(errors.NewInvalidRequest("messages must not be empty"))
			}

			result := rt.cache.AddConversation(c.Context, messages, c.String("session"))
			if !result.Success {
				return outputError(errors.NewGraphWriteFailed("conversation", fmt.Errorf("%s", result.Error)))
			}
			return outputJSON(result)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Destroy the knowledge graph and persisted layout",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm the destructive clear"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to confirm the destructive clear"))
			}
			result := rt.cache.Clear(c.Context)
			if !result.Success {
				return outputError(errors.NewGraphWriteFailed("clear", fmt.Errorf("%s", result.Error)))
			}
			return outputJSON(result)
		},
	}
}

// healthCmd creates the health command.
func healthCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the graph service health",
		Action: func(c *cli.Context) error {
			status := rt.cache.CheckHealth(c.Context)
			if status.Status == "unreachable" {
				return outputError(errors.NewSourceUnavailable("graph", nil))
			}
			return outputJSON(status)
		},
	}
}

// serveCmd creates the serve command for the web surface.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web surface (dossier view + JSON API)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := rt.cfg.WebBind
			if c.String("bind") != "" {
				bind = c.String("bind")
			}
			port := rt.cfg.WebPort
			if c.Int("port") != 0 {
				port = c.Int("port")
			}

			rt.cache.StartHealthPolling(time.Duration(rt.cfg.HealthPollSeconds) * time.Second)
			defer rt.cache.StopHealthPolling()

			srv := web.NewServer(rt.synth, rt.cache, rt.notes, Version, bind, port)
			log.Printf("attache web surface listening on http://%s", srv.Addr)
			return srv.ListenAndServe()
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AttacheError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
