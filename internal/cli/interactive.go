package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avunu/commchat/internal/domain"
)

// InteractiveCLI handles interactive command-line interface
type InteractiveCLI struct {
	handler *CommandHandler
	bus     domain.EventBus
	reader  *bufio.Reader
	writer  io.Writer
}

// NewInteractiveCLI creates a new interactive CLI
func NewInteractiveCLI(handler *CommandHandler, bus domain.EventBus) *InteractiveCLI {
	return &InteractiveCLI{
		handler: handler,
		bus:     bus,
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// Run starts the interactive CLI loop
func (cli *InteractiveCLI) Run(ctx context.Context) error {
	cli.printWelcome()

	// Surface notifications and unread changes while the user types
	eventChan := cli.bus.Subscribe([]domain.EventType{
		domain.EventTypeNotification,
		domain.EventTypeUnreadUpdated,
	})
	defer cli.bus.Unsubscribe(eventChan)

	go cli.handleEvents(eventChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cli.print("\n> ")
			line, err := cli.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if err := cli.processCommand(ctx, line); err != nil {
				if err.Error() == "quit" {
					cli.println("Goodbye!")
					return nil
				}
				cli.printf("Error: %s\n", err)
			}
		}
	}
}

func (cli *InteractiveCLI) printWelcome() {
	cli.println("===========================================")
	cli.println("  Communication Chat CLI")
	cli.println("===========================================")
	cli.println("Type /help for available commands")
	cli.println("")
}

func (cli *InteractiveCLI) processCommand(ctx context.Context, input string) error {
	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	// Check for quit command
	if m, ok := result.(map[string]bool); ok && m["quit"] {
		return fmt.Errorf("quit")
	}

	cli.displayResult(result)
	return nil
}

func (cli *InteractiveCLI) handleEvents(events <-chan domain.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case domain.NotificationEvent:
			cli.printf("\n[%s] %s\n> ", e.Severity, e.Text)
		case domain.UnreadUpdatedEvent:
			if e.Total > 0 {
				cli.printf("\n[unread: %d]\n> ", e.Total)
			}
		}
	}
}

func (cli *InteractiveCLI) displayResult(result interface{}) {
	switch r := result.(type) {
	case RoomList:
		if len(r.Rooms) == 0 {
			cli.println("No rooms.")
			return
		}
		for i, room := range r.Rooms {
			unread := ""
			if room.UnreadCount > 0 {
				unread = fmt.Sprintf(" (%d unread)", room.UnreadCount)
			}
			last := ""
			if room.LastMessage != nil {
				last = " - " + truncate(room.LastMessage.Content, 50)
			}
			cli.printf("%2d. [%s] %s%s%s\n", i+1, room.CommunicationMedium, room.RoomName, unread, last)
			cli.printf("      %s\n", room.RoomID)
		}
		if r.HasMore {
			cli.println("(more available - /more)")
		}
	case MessageList:
		if len(r.Messages) == 0 {
			cli.printf("No messages in %s.\n", r.RoomID)
			return
		}
		if r.HasOlder {
			cli.println("(older messages available - /older)")
		}
		for _, msg := range r.Messages {
			who := msg.Username
			if msg.SentOrReceived == domain.DirectionSent {
				who = "me"
			}
			cli.printf("[%s %s] %s: %s\n", msg.Date, msg.Timestamp, who, truncate(msg.Content, 200))
			for _, f := range msg.Files {
				cli.printf("    [attachment: %s]\n", f.Name)
			}
		}
	case SendOutcome:
		cli.printf("Sent (id: %s)\n", r.MessageID)
	case map[string]string:
		if help, ok := r["help"]; ok {
			cli.println(help)
			return
		}
		for k, v := range r {
			cli.printf("%s: %s\n", k, v)
		}
	case map[string]int:
		for k, v := range r {
			cli.printf("%s: %d\n", k, v)
		}
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			cli.printf("%+v\n", result)
			return
		}
		cli.println(string(data))
	}
}

// truncate shortens s to max runes, never splitting a multi-byte character.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func (cli *InteractiveCLI) print(args ...interface{})            { fmt.Fprint(cli.writer, args...) }
func (cli *InteractiveCLI) println(args ...interface{})          { fmt.Fprintln(cli.writer, args...) }
func (cli *InteractiveCLI) printf(f string, args ...interface{}) { fmt.Fprintf(cli.writer, f, args...) }
