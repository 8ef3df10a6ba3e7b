package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"chat-relay/client"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/ws"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	RelayURL string `env:"CHAT_RELAY_URL,default=ws://localhost:8080/ws"`
	Token    string `env:"CHAT_TOKEN"`
	Username string `env:"CHAT_USERNAME"`
	Room     string `env:"CHAT_ROOM,default=General"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects, claims an identity, joins the configured room, then mirrors
// stdin to the room until interrupted. Incoming traffic renders on stdout
// with each author's advertised color.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := client.Dial(dialCtx, config.RelayURL, config.Token)
	if err != nil {
		return exitRuntime, err
	}
	defer c.Close()

	// A handshake token already carries the identity; otherwise claim one.
	if config.Token == "" && config.Username != "" {
		if ack, err := c.SetUsername(config.Username); err != nil || !ack.OK {
			return exitRuntime, fmt.Errorf("username rejected: %s", ack.Error)
		}
	}
	if _, err := c.SetColor(""); err != nil {
		return exitRuntime, err
	}
	if ack, err := c.JoinRoom(config.Room); err != nil || !ack.OK {
		return exitRuntime, fmt.Errorf("could not join %q", config.Room)
	}
	color.Greenln(">>> Connected. Type and press Enter to chat (Ctrl+C to quit).")

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if ack, err := c.SendMessage(text); err != nil {
				color.Redln("send failed:", err)
			} else if !ack.OK {
				color.Redln("rejected:", ack.Error)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case envelope, ok := <-c.Events():
			if !ok {
				return exitRuntime, fmt.Errorf("connection lost")
			}
			render(envelope)
		}
	}
}

// render prints one server event. Unknown events are skipped so newer
// servers stay usable with an older client.
func render(envelope ws.Envelope) {
	switch envelope.Event {
	case "chat message":
		var m event.ChatMessage
		if json.Unmarshal(envelope.Data, &m) != nil {
			return
		}
		stamp := time.UnixMilli(m.Ts).Format(time.TimeOnly)
		author := m.User
		if hex := strings.TrimPrefix(m.Color, "#"); len(hex) == 6 {
			author = color.HEX(hex).Sprint(m.User)
		}
		fmt.Printf("[%s] %s: %s\n", stamp, author, m.Text)

	case "system":
		var s event.System
		if json.Unmarshal(envelope.Data, &s) != nil {
			return
		}
		color.Grayln("* " + s.Text)

	case "RoomUserCount":
		var rc event.RoomUserCount
		if json.Unmarshal(envelope.Data, &rc) != nil {
			return
		}
		color.Grayln(fmt.Sprintf("* #%s: %d online", rc.Room, rc.Count))

	case "typing":
		var t event.Typing
		if json.Unmarshal(envelope.Data, &t) != nil {
			return
		}
		color.Grayln(fmt.Sprintf("* %s is typing...", t.User))
	}
}
