// Package main is the entry point for the notebridge synchronization
// daemon: it loads a notebook line file, attaches a language server
// subprocess, and keeps the human and shadow views in lockstep until
// signalled.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/notebridge/notebridge/internal/event"
	"github.com/notebridge/notebridge/internal/notebook"
	"github.com/notebridge/notebridge/internal/proxy"
	"github.com/notebridge/notebridge/internal/viewsync"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// ServerConfig describes the analysis backend subprocess.
type ServerConfig struct {
	Command    string
	Args       []string
	LanguageID string
}

// options collects the parsed command line.
type options struct {
	server   ServerConfig
	logLevel string
	path     string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	lines, err := readLines(opts.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	doc := notebook.NewDocument(opts.server.LanguageID, nil)
	doc.Reconcile(lines)

	queue := event.NewQueue()
	notifier := event.NewNotifier()
	views := viewsync.NewSynchronizer(doc, viewsync.WithNotifier(notifier))

	docID := uuid.NewString()
	session := proxy.NewSession(docID, views,
		proxy.WithDiagnosticsHandler(func(p proxy.PublishDiagnosticsParams) {
			logger.Info("diagnostics", "uri", p.URI, "count", len(p.Diagnostics))
		}),
		proxy.WithFocusHandler(func(uri proxy.DocumentURI, pos proxy.Position) {
			logger.Info("focus request", "uri", uri, "line", pos.Line)
		}),
	)

	registry := proxy.NewRegistry()
	registry.Bind(session)

	// Shadow pushes ride the deferred queue so a burst of view changes
	// becomes one didChange per drain cycle.
	notifier.Subscribe(func(changes []event.ViewChange) {
		queue.Schedule(func() {
			if err := session.SyncShadow(); err != nil {
				logger.Warn("shadow sync failed", "error", err)
			}
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var backend *exec.Cmd
	var transport *proxy.Transport
	if opts.server.Command != "" {
		backend, transport, err = startBackend(ctx, logger, opts.server)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start backend: %v\n", err)
			return 1
		}
		if err := session.Attach(transport); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to attach backend: %v\n", err)
			return 1
		}
		logger.Info("backend attached",
			"command", opts.server.Command, "language", opts.server.LanguageID, "shadow", session.ShadowURI())
	} else {
		logger.Info("no backend configured, running detached")
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	logger.Info("notebridge running", "doc", docID, "cells", doc.Len(), "version", version)

	for {
		select {
		case <-ticker.C:
			notifier.Flush()
			queue.Drain()
		case sig := <-signals:
			logger.Info("shutting down", "signal", sig.String())
			shutdown(session, transport, backend, logger)
			return 0
		}
	}
}

// startBackend launches the analysis server subprocess and completes
// the initialize handshake.
func startBackend(ctx context.Context, logger *slog.Logger, cfg ServerConfig) (*exec.Cmd, *proxy.Transport, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}

	tr := proxy.NewTransport(stdout, stdin, stdin)
	tr.Start(ctx)

	initDone := make(chan error, 1)
	_, err = tr.Call(proxy.MethodInitialize, map[string]any{
		"processId":    os.Getpid(),
		"rootUri":      nil,
		"capabilities": map[string]any{},
	}, func(result json.RawMessage, err error) {
		initDone <- err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}

	select {
	case err := <-initDone:
		if err != nil {
			return nil, nil, fmt.Errorf("initialize: %w", err)
		}
	case <-time.After(10 * time.Second):
		return nil, nil, fmt.Errorf("initialize: timed out")
	}

	if err := tr.Notify(proxy.MethodInitialized, struct{}{}); err != nil {
		return nil, nil, fmt.Errorf("initialized: %w", err)
	}

	logger.Debug("backend initialized", "command", cfg.Command)
	return cmd, tr, nil
}

// shutdown detaches the session and tears the backend down in protocol
// order: shutdown request, exit notification, then process wait.
func shutdown(session *proxy.Session, tr *proxy.Transport, backend *exec.Cmd, logger *slog.Logger) {
	if tr == nil {
		return
	}

	if err := session.Detach(); err != nil {
		logger.Warn("detach failed", "error", err)
	}

	done := make(chan struct{}, 1)
	_, err := tr.Call(proxy.MethodShutdown, nil, func(json.RawMessage, error) {
		done <- struct{}{}
	})
	if err == nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
	tr.Notify(proxy.MethodExit, nil)
	tr.Close()

	if backend != nil {
		waited := make(chan struct{})
		go func() {
			backend.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-time.After(3 * time.Second):
			backend.Process.Kill()
		}
	}
}

// readLines loads a notebook line file. A missing path starts an empty
// document.
func readLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func parseFlags() options {
	var opts options
	var server string
	var showVersion bool

	flag.StringVar(&server, "server", "", "Analysis server command, e.g. \"pyright-langserver --stdio\"")
	flag.StringVar(&opts.server.LanguageID, "language", "python", "Language identifier for the shadow document")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "notebridge - notebook to language-server synchronization bridge\n\n")
		fmt.Fprintf(os.Stderr, "Usage: notebridge [options] [notebook-file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  notebridge nb.py                                   Open without a backend\n")
		fmt.Fprintf(os.Stderr, "  notebridge -server \"pyright-langserver --stdio\" nb.py\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("notebridge %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if server != "" {
		parts := strings.Fields(server)
		opts.server.Command = parts[0]
		opts.server.Args = parts[1:]
	}
	opts.path = flag.Arg(0)
	return opts
}
