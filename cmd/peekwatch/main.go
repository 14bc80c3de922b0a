// peekwatch prints protection and peeking events from a running peekguard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-peekguard/pkg/hub"
	"github.com/teslashibe/go-peekguard/pkg/pipeline"
	"github.com/teslashibe/go-peekguard/pkg/protection"
)

func main() {
	server := flag.String("server", "localhost:8090", "peekguard host:port")
	results := flag.Bool("results", false, "Watch per-frame results instead of events")
	topics := flag.String("topics", "", "Comma-separated event types to receive (default all)")
	flag.Parse()

	var sub hub.Subscription
	if *topics != "" {
		sub.Topics = strings.Split(*topics, ",")
	}

	path := "/ws/events"
	if *results {
		path = "/ws/results"
	}
	url := fmt.Sprintf("ws://%s%s", *server, path)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("👀 Watching %s\n", url)
	for {
		err := watch(ctx, url, sub)
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "⚠️  %v, reconnecting in 2s\n", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func watch(ctx context.Context, url string, sub hub.Subscription) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer ws.Close()

	if len(sub.Topics) > 0 {
		if err := ws.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	// Unblock ReadMessage on shutdown
	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			fmt.Fprintf(os.Stderr, "bad message: %v\n", err)
			continue
		}
		fmt.Println(describe(env))
	}
}

func describe(env hub.Envelope) string {
	ts := env.Time.Local().Format("15:04:05")

	switch env.Type {
	case protection.VibrateMessage:
		return fmt.Sprintf("%s 📳 vibrate", ts)
	case protection.AlertMessage:
		return fmt.Sprintf("%s 🔔 alert", ts)
	}

	var e pipeline.Event
	if err := json.Unmarshal(env.Data, &e); err != nil {
		return fmt.Sprintf("%s %s %s", ts, env.Type, string(env.Data))
	}

	switch e.Type {
	case pipeline.ProtectionEvent:
		if e.Protection.Kind == protection.Activated {
			return fmt.Sprintf("%s 🛡️  protection on: %s / %s", ts, e.Protection.Action, e.Protection.Disguise)
		}
		return fmt.Sprintf("%s ✅ protection off", ts)
	case pipeline.PeekingEvent:
		return fmt.Sprintf("%s ⚠️  peeking: %d face(s), %.1fs, angle %.0f°",
			ts, e.Peeking.FaceCount, e.Peeking.DurationSeconds, e.Peeking.AngleFromCenter)
	case pipeline.ResultEvent:
		return fmt.Sprintf("%s faces=%d peeking=%v", ts, e.Result.FaceCount, e.Result.PeekingDetected)
	default:
		return fmt.Sprintf("%s %s", ts, env.Type)
	}
}
