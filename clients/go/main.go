// Cerebrus CLI - command line client for the Cerebrus drawing relay
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/GAURISHTODI/Cerebrus/clients/go/cerebrus"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := cerebrus.NewClient(os.Getenv("CEREBRUS_URL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "rooms":
		resp, err := client.Rooms(ctx)
		exitOnError(err)
		for _, r := range resp.Rooms {
			fmt.Printf("  %s  %d queued, last id %d, %d waiting\n", r.RoomID, r.Queued, r.LastID, r.Waiters)
		}

	case "draw":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: cerebrus draw <room> <path> [color] [thickness]")
			os.Exit(1)
		}
		stroke := cerebrus.DrawRequest{Path: os.Args[3]}
		if len(os.Args) > 4 {
			stroke.Color = os.Args[4]
		}
		if len(os.Args) > 5 {
			n, err := strconv.Atoi(os.Args[5])
			exitOnError(err)
			stroke.Thickness = n
		}
		resp, err := client.Draw(ctx, os.Args[2], stroke)
		exitOnError(err)
		fmt.Printf("Posted: %d\n", resp.MessageID)

	case "watch":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: cerebrus watch <room> [last_id]")
			os.Exit(1)
		}
		var last int64
		if len(os.Args) > 3 {
			n, err := strconv.ParseInt(os.Args[3], 10, 64)
			exitOnError(err)
			last = n
		}
		err := client.Follow(ctx, os.Args[2], last, func(m cerebrus.Message) error {
			fmt.Printf("[%d] %s (%s, %d)\n", m.ID, m.Path, m.Color, m.Thickness)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			exitOnError(err)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Cerebrus CLI - shared drawing rooms over HTTP long polling

Usage: cerebrus <command> [options]

Commands:
  draw <room> <path> [color] [thickness]   Post a stroke to a room
  watch <room> [last_id]                   Stream strokes from a room
  rooms                                    List live rooms
  health                                   Check server health

Environment:
  CEREBRUS_URL  Server URL (default: http://localhost:8000)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
