package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robertmeta/news-digest/config"
	"github.com/robertmeta/news-digest/delivery"
	"github.com/robertmeta/news-digest/digest"
	"github.com/robertmeta/news-digest/feed"
	"github.com/robertmeta/news-digest/logging"
	"github.com/robertmeta/news-digest/model"
	"github.com/robertmeta/news-digest/opml"
	"github.com/robertmeta/news-digest/render"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
)

// deps are the external capabilities of a run, swapped out in tests.
type deps struct {
	newTransport func(timeout time.Duration) feed.Transport
	newSender    func(cfg delivery.SMTPConfig) delivery.Sender
	newRunID     func() string
	now          func() time.Time
}

func defaultDeps() deps {
	return deps{
		newTransport: func(timeout time.Duration) feed.Transport {
			return feed.NewHTTPTransport(timeout)
		},
		newSender: func(cfg delivery.SMTPConfig) delivery.Sender {
			return delivery.NewSMTPSender(cfg)
		},
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

type runner struct {
	deps
	stdout io.Writer
	stderr io.Writer
}

func main() {
	app := newApp(os.Stdout, os.Stderr, defaultDeps())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp(stdout, stderr io.Writer, d deps) *cli.App {
	r := &runner{deps: d, stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "news-digest",
		Usage:     "Email a deduplicated digest of news headlines for a set of search queries",
		Version:   "0.1.0",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Read settings from a dotenv file (default: ./.env if present)",
				EnvVars: []string{"NEWS_DIGEST_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (overrides LOG_FORMAT)",
			},
		},
		Action: r.send,
		Commands: []*cli.Command{
			{
				Name:   "send",
				Usage:  "Compile the digest and email it (default)",
				Action: r.send,
			},
			{
				Name:  "preview",
				Usage: "Compile the digest and print it instead of sending",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text, html or json",
					},
				},
				Action: r.preview,
			},
			{
				Name:  "feeds",
				Usage: "Export the search feeds of the configured queries as OPML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: r.feeds,
			},
		},
	}
}

// setup loads the configuration and builds the run logger.
func (r *runner) setup(c *cli.Context) (*config.Config, *slog.Logger, string, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, "", err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}

	logger, err := logging.New(r.stderr, level, format)
	if err != nil {
		return nil, nil, "", err
	}

	runID := r.newRunID()
	logger = logger.With(slog.String("run_id", runID))
	slog.SetDefault(logger)

	return cfg, logger, runID, nil
}

func (r *runner) compile(c *cli.Context, cfg *config.Config, logger *slog.Logger, runID string) (*model.Digest, error) {
	queries, err := cfg.Queries()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	fetcher := feed.NewFetcher(r.newTransport(cfg.News.FetchTimeout), cfg.Search(), logger)
	compiler := digest.NewCompiler(fetcher, digest.Options{
		MaxPerQuery: cfg.News.MaxPerQuery,
		Subject:     cfg.Digest.Subject,
		Location:    loc,
		RunID:       runID,
		Now:         r.now,
		Logger:      logger,
	})

	return compiler.Compile(c.Context, queries), nil
}

func (r *runner) outputJSON(v interface{}) error {
	encoder := json.NewEncoder(r.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *runner) send(c *cli.Context) error {
	cfg, logger, runID, err := r.setup(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitGeneralError)
	}
	if err := cfg.ValidateDelivery(); err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitGeneralError)
	}

	d, err := r.compile(c, cfg, logger, runID)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to compile digest: %v", err), ExitGeneralError)
	}

	text, html, err := render.Render(d)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to render digest: %v", err), ExitGeneralError)
	}

	msg := delivery.Message{
		From:    cfg.Sender(),
		To:      cfg.Recipients(),
		Subject: d.Subject,
		Text:    text,
		HTML:    html,
		RunID:   runID,
	}

	if err := r.newSender(cfg.SMTPSettings()).Send(c.Context, msg); err != nil {
		logger.Error("digest_send_failed", slog.String("err", err.Error()))
		return cli.Exit(fmt.Sprintf("Failed to send digest: %v", err), ExitGeneralError)
	}

	logger.Info("digest_sent",
		slog.String("subject", d.Subject),
		slog.Int("recipients", len(msg.To)),
		slog.Int("total", d.Total),
	)

	return r.outputJSON(map[string]interface{}{
		"success":    true,
		"run_id":     runID,
		"subject":    d.Subject,
		"total":      d.Total,
		"recipients": len(msg.To),
	})
}

func (r *runner) preview(c *cli.Context) error {
	format := c.String("format")
	switch format {
	case "text", "html", "json":
	default:
		return cli.Exit(fmt.Sprintf("Invalid format %q (expected text, html or json)", format), ExitGeneralError)
	}

	cfg, logger, runID, err := r.setup(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitGeneralError)
	}

	d, err := r.compile(c, cfg, logger, runID)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to compile digest: %v", err), ExitGeneralError)
	}

	if format == "json" {
		return r.outputJSON(d)
	}

	text, html, err := render.Render(d)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to render digest: %v", err), ExitGeneralError)
	}

	body := text
	if format == "html" {
		body = html
	}
	_, err = io.WriteString(r.stdout, body)
	return err
}

func (r *runner) feeds(c *cli.Context) error {
	cfg, _, _, err := r.setup(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitGeneralError)
	}

	queries, err := cfg.Queries()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitGeneralError)
	}

	search := cfg.Search()
	subs := make([]opml.Subscription, 0, len(queries))
	for _, q := range queries {
		subs = append(subs, opml.Subscription{Query: q, URL: search.URL(q)})
	}

	// Determine output destination
	outputPath := c.String("output")
	writer := r.stdout

	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitGeneralError)
		}
		defer file.Close()
		writer = file
	}

	if err := opml.Generate(writer, cfg.Digest.Subject, subs, r.now()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitGeneralError)
	}

	if outputPath != "" {
		return r.outputJSON(map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"count":   len(subs),
		})
	}

	return nil
}
