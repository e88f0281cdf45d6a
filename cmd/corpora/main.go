// Copyright 2026 Corvid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/corvid-labs/corpora"
	"github.com/corvid-labs/corpora/ai"
	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/ingest"
)

func main() {
	app := &cli.App{
		Name:  "corpora",
		Usage: "Ingest team knowledge sources and keep a searchable vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory",
				Value:   "./data",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Ingest a knowledge source into the raw store",
				Subcommands: []*cli.Command{
					{
						Name:   "slack",
						Usage:  "Ingest a Slack channel or export directory",
						Action: ingestSlackCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "channel",
								Usage: "Channel ID to ingest via the Slack API",
							},
							&cli.StringFlag{
								Name:  "export",
								Usage: "Path to an unpacked Slack export directory",
							},
							&cli.StringFlag{
								Name:    "token",
								Usage:   "Slack bot token (defaults to $SLACK_TOKEN)",
								EnvVars: []string{"SLACK_TOKEN"},
							},
							&cli.IntFlag{
								Name:  "days",
								Usage: "How many days of history to fetch",
								Value: 30,
							},
						},
					},
					{
						Name:   "confluence",
						Usage:  "Ingest a Confluence space or single page",
						Action: ingestConfluenceCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "space",
								Usage: "Space key to ingest",
							},
							&cli.StringFlag{
								Name:  "page",
								Usage: "Single page ID to ingest",
							},
							&cli.StringFlag{
								Name:     "url",
								Usage:    "Confluence base URL",
								EnvVars:  []string{"CONFLUENCE_URL"},
								Required: true,
							},
							&cli.StringFlag{
								Name:    "user",
								Usage:   "Confluence user name",
								EnvVars: []string{"CONFLUENCE_USER"},
							},
							&cli.StringFlag{
								Name:    "token",
								Usage:   "Confluence API token",
								EnvVars: []string{"CONFLUENCE_TOKEN"},
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum pages to fetch from a space",
								Value: 500,
							},
						},
					},
					{
						Name:      "upload",
						Usage:     "Ingest local files (pdf, markdown, text)",
						ArgsUsage: "FILE [FILE...]",
						Action:    ingestUploadCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "uploaded-by",
								Usage: "Name recorded as the uploading principal",
							},
						},
					},
				},
			},
			{
				Name:  "index",
				Usage: "Manage the vector index",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Build the index from all raw data",
						Action: indexInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Discard an existing index first",
							},
							&cli.StringSliceFlag{
								Name:  "batch",
								Usage: "Restrict to a batch reference (source_type/batch_id), repeatable",
							},
						},
					},
					{
						Name:   "update",
						Usage:  "Add batches to the index",
						Action: indexUpdateCommand,
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:  "batch",
								Usage: "Batch reference (source_type/batch_id) to index, repeatable; default is everything not yet indexed",
							},
						},
					},
					{
						Name:   "rebuild",
						Usage:  "Rebuild the index from scratch",
						Action: indexRebuildCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "no-backup",
								Usage: "Skip backing up the old index",
							},
							&cli.StringSliceFlag{
								Name:  "batch",
								Usage: "Restrict to a batch reference (source_type/batch_id), repeatable",
							},
						},
					},
					{
						Name:   "info",
						Usage:  "Show the current index version record",
						Action: indexInfoCommand,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "Show past ingestion runs",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Filter by source type (chat, wiki, upload)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the vector index",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum hits to return",
						Value: 5,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openCorpus builds a Corpus from the app-level flags plus any source
// clients the command needs.
func openCorpus(c *cli.Context, opts ...corpora.CorpusOption) (*corpora.Corpus, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	opts = append(opts, corpora.WithAIConfig(aiConfig))
	return corpora.New(c.String("data"), opts...)
}

func ingestSlackCommand(c *cli.Context) error {
	channel := c.String("channel")
	export := c.String("export")
	if channel == "" && export == "" {
		return fmt.Errorf("either --channel or --export is required")
	}

	var opts []corpora.CorpusOption
	if channel != "" {
		token := c.String("token")
		if token == "" {
			return fmt.Errorf("--token (or $SLACK_TOKEN) is required for live channel ingestion")
		}
		opts = append(opts, corpora.WithChatClient(ingest.NewSlackClient(token)))
	}

	corpus, err := openCorpus(c, opts...)
	if err != nil {
		return err
	}
	defer corpus.Close()

	var record *core.IngestionRecord
	if export != "" {
		record, err = corpus.IngestChatExport(c.Context, export)
	} else {
		record, err = corpus.IngestChatChannel(c.Context, channel, c.Int("days"))
	}
	return reportRecord(record, err)
}

func ingestConfluenceCommand(c *cli.Context) error {
	space := c.String("space")
	page := c.String("page")
	if space == "" && page == "" {
		return fmt.Errorf("either --space or --page is required")
	}

	client := ingest.NewConfluenceClient(c.String("url"), c.String("user"), c.String("token"))
	corpus, err := openCorpus(c, corpora.WithWikiClient(client))
	if err != nil {
		return err
	}
	defer corpus.Close()

	var record *core.IngestionRecord
	if space != "" {
		record, err = corpus.IngestWikiSpace(c.Context, space, c.Int("limit"))
	} else {
		record, err = corpus.IngestWikiPage(c.Context, page)
	}
	return reportRecord(record, err)
}

func ingestUploadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file path is required")
	}

	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	record, err := corpus.IngestFiles(c.Context, c.Args().Slice(), c.String("uploaded-by"))
	return reportRecord(record, err)
}

func indexInitCommand(c *cli.Context) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	version, err := corpus.InitializeIndex(context.Background(), c.Bool("force"), c.StringSlice("batch")...)
	if err != nil {
		return err
	}
	printVersion(version)
	return nil
}

func indexUpdateCommand(c *cli.Context) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	version, err := corpus.UpdateIndex(context.Background(), c.StringSlice("batch")...)
	if err != nil {
		return err
	}
	printVersion(version)
	return nil
}

func indexRebuildCommand(c *cli.Context) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	version, err := corpus.RebuildIndex(context.Background(), !c.Bool("no-backup"), c.StringSlice("batch")...)
	if err != nil {
		return err
	}
	printVersion(version)
	return nil
}

func indexInfoCommand(c *cli.Context) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	version, err := corpus.IndexInfo()
	if err != nil {
		return err
	}
	printVersion(version)
	return nil
}

func historyCommand(c *cli.Context) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	records, err := corpus.History(core.SourceType(c.String("source")))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No ingestion runs recorded.")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%-55s %-10s ingested=%d failed=%d\n",
			record.IngestionID, record.Status, record.DocumentsIngested, record.DocumentsFailed)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}

	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	searcher, err := corpus.NewSearcher()
	if err != nil {
		return err
	}

	query := strings.Join(c.Args().Slice(), " ")
	results, err := searcher.FindSimilar(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		source := hit.Metadata["source"]
		fmt.Printf("%d: [%0.3f] %s\n%s\n\n", i+1, hit.Score, source, hit.Text)
	}
	return nil
}

func reportRecord(record *core.IngestionRecord, err error) error {
	if record != nil {
		fmt.Fprintf(os.Stderr, "Ingestion: %s\n", record.IngestionID)
		fmt.Fprintf(os.Stderr, "Status: %s\n", record.Status)
		fmt.Fprintf(os.Stderr, "Documents ingested: %d\n", record.DocumentsIngested)
		fmt.Fprintf(os.Stderr, "Documents failed: %d\n", record.DocumentsFailed)
		if record.ErrorMessage != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", record.ErrorMessage)
		}
	}
	return err
}

func printVersion(version *core.IndexVersion) {
	fmt.Printf("Version: %d\n", version.Version)
	fmt.Printf("Embedding model: %s\n", version.EmbeddingModel)
	fmt.Printf("Chunks indexed: %d\n", version.DocumentCount)
	fmt.Printf("Last operation: %s (%s)\n", version.LastOperation, version.LastUpdated.Format("2006-01-02 15:04:05"))
	fmt.Printf("Batches: %d\n", len(version.Batches))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
