// Copyright 2025 Poiesic Systems
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
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docchat"
	"github.com/poiesic/docchat/chat"
	"github.com/poiesic/docchat/config"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/queue"
)

func main() {
	app := &cli.App{
		Name:  "docchat",
		Usage: "Chat with the documents attached to a conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Run the ingestion worker, consuming upload jobs from the queue",
				Action: workerCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a document into a conversation",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "conversation",
						Aliases:  []string{"c"},
						Usage:    "Conversation ID to attach the document to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the document (pdf, txt, md)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "enqueue",
						Usage: "Enqueue the job instead of processing it inline",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question grounded in a conversation's documents",
				Action:    askCommand,
				ArgsUsage: "QUESTION",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "conversation",
						Aliases:  []string{"c"},
						Usage:    "Conversation ID to ask within",
						Required: true,
					},
				},
			},
			{
				Name:  "conversations",
				Usage: "Manage conversations",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a conversation",
						Action: createConversationCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Aliases:  []string{"n"},
								Usage:    "Conversation name",
								Required: true,
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List conversations, newest first",
						Action: listConversationsCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a conversation and everything attached to it",
						Action:    deleteConversationCommand,
						ArgsUsage: "CONVERSATION_ID",
					},
				},
			},
			{
				Name:   "messages",
				Usage:  "Print a conversation's messages in creation order",
				Action: messagesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "conversation",
						Aliases:  []string{"c"},
						Usage:    "Conversation ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of messages (0 for all)",
					},
				},
			},
			{
				Name:   "files",
				Usage:  "Print the file records ingested into a conversation",
				Action: filesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "conversation",
						Aliases:  []string{"c"},
						Usage:    "Conversation ID",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openApp() (*docchat.App, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	app, err := docchat.FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}

func workerCommand(c *cli.Context) error {
	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.RedisURI == "" {
		return fmt.Errorf("DOCCHAT_REDIS_URI is required to run a worker")
	}

	pipeline, err := app.NewIngestionPipeline(
		ingestion.WithPoolSize(cfg.WorkerCount),
		ingestion.WithChunking(cfg.SentencesPerChunk, cfg.OverlapSentences),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	srv, err := queue.NewAsynqServer(cfg.RedisURI, cfg.WorkerCount)
	if err != nil {
		return err
	}
	pipeline.RegisterHandlers(srv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("ingestion worker started", "workers", cfg.WorkerCount)
	return srv.Run(ctx)
}

func ingestCommand(c *cli.Context) error {
	path, err := filepath.Abs(c.String("file"))
	if err != nil {
		return err
	}

	job := &core.IngestionJob{
		Filename:       filepath.Base(path),
		SourceDir:      filepath.Dir(path),
		Path:           path,
		ConversationId: c.String("conversation"),
	}

	if c.Bool("enqueue") {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.RedisURI == "" {
			return fmt.Errorf("DOCCHAT_REDIS_URI is required to enqueue")
		}
		client, err := queue.NewAsynqClient(cfg.RedisURI)
		if err != nil {
			return err
		}
		defer client.Close()

		id, err := queue.EnqueueIngestion(c.Context, client, job)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as task %s\n", job.Filename, id)
		return nil
	}

	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	pipeline, err := app.NewIngestionPipeline(
		ingestion.WithChunking(cfg.SentencesPerChunk, cfg.OverlapSentences),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	start := time.Now()
	if err := pipeline.Consume(c.Context, job); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Printf("ingested %s in %s\n", job.Filename, time.Since(start).Round(time.Millisecond))
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	answer, err := engine.Ask(c.Context, c.String("conversation"), question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Content)
	if len(answer.Sources) > 0 {
		fmt.Printf("\n(%d source chunks)\n", len(answer.Sources))
	}
	return nil
}

func createConversationCommand(c *cli.Context) error {
	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	conv, err := engine.CreateConversation(c.Context, c.String("name"))
	if err != nil {
		return err
	}
	fmt.Println(conv.Id)
	return nil
}

func listConversationsCommand(c *cli.Context) error {
	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	conversations, err := engine.ListConversations(c.Context)
	if err != nil {
		return err
	}
	for _, conv := range conversations {
		fmt.Printf("%s  %s  %s\n", conv.Id, conv.CreatedAt.Format(time.RFC3339), conv.Name)
	}
	return nil
}

func deleteConversationCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a conversation ID is required")
	}

	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	if err := engine.DeleteConversation(c.Context, id); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}

func messagesCommand(c *cli.Context) error {
	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	messages, err := engine.ListMessages(c.Context, c.String("conversation"), c.Int("limit"))
	if err != nil {
		return err
	}
	for _, msg := range messages {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format(time.RFC3339), msg.Role, msg.Content)
	}
	return nil
}

func filesCommand(c *cli.Context) error {
	app, cfg, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	engine, err := app.NewEngine(chatOptions(cfg)...)
	if err != nil {
		return err
	}

	files, err := engine.ListFiles(c.Context, c.String("conversation"))
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("%s  %s  %s\n", f.Id, f.CreatedAt.Format(time.RFC3339), f.Filename)
	}
	return nil
}

func chatOptions(cfg *config.Config) []chat.Option {
	return []chat.Option{chat.WithTopK(cfg.TopK)}
}

func setupLogger(c *cli.Context) error {
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
