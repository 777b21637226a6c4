// Package main tails the progress stream of a running equilibrium
// server, printing one line per frame until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"espionage-duopoly-lab/internal/cli"
	"espionage-duopoly-lab/internal/stream"
)

func main() {
	cli.LoadEnvFile()

	url := flag.String("url", cli.EnvOr("WATCH_URL", "ws://localhost:8080/ws/progress"), "Progress stream endpoint")
	logLevel := flag.String("log-level", cli.EnvOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := stream.NewClient(ctx, *url, nil, log)
	if err != nil {
		log.Error("connecting to progress stream failed", "url", *url, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	log.Info("watching progress stream", "url", *url)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-client.Events():
			if !ok {
				return
			}
			printEvent(event)
		}
	}
}

func printEvent(event stream.Event) {
	data, _ := event.Data.(map[string]interface{})

	switch event.Type {
	case stream.EventProgress:
		if data != nil {
			fmt.Printf("%-8s %s  generation %v  I_1=%v  I_2=%v  joint surplus %v\n",
				event.Type, event.RunID,
				data["generation"], data["I_1"], data["I_2"], data["joint_surplus"])
			return
		}
	case stream.EventSolved:
		if investments, ok := data["investments"].(map[string]interface{}); ok {
			fmt.Printf("%-8s %s  I_1=%v  I_2=%v\n",
				event.Type, event.RunID, investments["I_1"], investments["I_2"])
			return
		}
	case stream.EventFailed:
		if data != nil {
			fmt.Printf("%-8s %s  %v\n", event.Type, event.RunID, data["error"])
			return
		}
	}
	fmt.Printf("%-8s %s  %v\n", event.Type, event.RunID, event.Data)
}
