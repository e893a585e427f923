package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/engine"
)

// CommandHandler handles CLI commands
type CommandHandler struct {
	session *engine.Session
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(session *engine.Session) *CommandHandler {
	return &CommandHandler{session: session}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command string (e.g., "/send Hello there")
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	return &Command{Name: name, Args: args}, nil
}

// Execute executes a command and returns the result
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "help", "h":
		return h.cmdHelp()
	case "rooms", "ls":
		return h.cmdRooms(ctx)
	case "more":
		return h.cmdMore(ctx)
	case "open", "o":
		return h.cmdOpen(ctx, cmd.Args)
	case "older":
		return h.cmdOlder(ctx)
	case "send":
		return h.cmdSend(ctx, cmd.Args)
	case "search":
		return h.cmdSearch(ctx, cmd.Args)
	case "medium":
		return h.cmdMedium(ctx, cmd.Args)
	case "seen":
		return h.cmdSeen(ctx, cmd.Args)
	case "archive":
		return h.cmdArchive(ctx, cmd.Args)
	case "delete":
		return h.cmdDelete(ctx, cmd.Args)
	case "unread":
		return h.cmdUnread(ctx)
	case "upload":
		return h.cmdUpload(ctx, cmd.Args)
	case "whoami":
		return h.cmdWhoami()
	case "quit", "exit", "q":
		return map[string]bool{"quit": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func (h *CommandHandler) cmdHelp() (interface{}, error) {
	help := `Available commands:

Rooms:
  /rooms, /ls              List conversation rooms
  /more                    Load the next page of rooms
  /search <query>          Filter rooms by search term
  /medium <medium>         Filter by medium: Email, SMS, Phone, All
  /unread                  Show total unread count

Messages:
  /open, /o <room_id|#>    Open a room (by id or list number)
  /older                   Load older messages in the open room
  /send <text>             Send a message to the open room
  /seen [room_id]          Mark a room seen (default: open room)
  /upload <path>           Upload a file attachment

Room actions:
  /archive <room_id|#>     Archive a room
  /delete <room_id|#>      Delete a room permanently

Other:
  /whoami                  Show the logged-in user
  /help, /h                Show this help
  /quit, /exit, /q         Exit`

	return map[string]string{"help": help}, nil
}

func (h *CommandHandler) cmdRooms(ctx context.Context) (interface{}, error) {
	if err := h.session.FetchRooms(ctx); err != nil {
		return nil, err
	}
	return RoomList{Rooms: h.session.Rooms(), HasMore: !h.session.RoomsLoaded()}, nil
}

func (h *CommandHandler) cmdMore(ctx context.Context) (interface{}, error) {
	if err := h.session.LoadMoreRooms(ctx); err != nil {
		return nil, err
	}
	return RoomList{Rooms: h.session.Rooms(), HasMore: !h.session.RoomsLoaded()}, nil
}

func (h *CommandHandler) cmdOpen(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /open <room_id|#>")
	}
	roomID, err := h.resolveRoomArg(args[0])
	if err != nil {
		return nil, err
	}
	if err := h.session.SelectRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return MessageList{RoomID: roomID, Messages: h.session.Messages(), HasOlder: !h.session.MessagesLoaded()}, nil
}

func (h *CommandHandler) cmdOlder(ctx context.Context) (interface{}, error) {
	open := h.session.OpenRoom()
	if open == nil {
		return nil, fmt.Errorf("no open room. Use /open first")
	}
	if err := h.session.LoadMoreMessages(ctx); err != nil {
		return nil, err
	}
	return MessageList{RoomID: open.RoomID, Messages: h.session.Messages(), HasOlder: !h.session.MessagesLoaded()}, nil
}

func (h *CommandHandler) cmdSend(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /send <text>")
	}
	if h.session.OpenRoom() == nil {
		return nil, fmt.Errorf("no open room. Use /open first")
	}
	content := strings.Join(args, " ")
	msg, err := h.session.Send(ctx, content, nil)
	if err != nil {
		return nil, err
	}
	return SendOutcome{MessageID: msg.ID}, nil
}

func (h *CommandHandler) cmdSearch(ctx context.Context, args []string) (interface{}, error) {
	query := strings.Join(args, " ")
	if err := h.session.ApplyFilters(ctx, query, h.session.Medium()); err != nil {
		return nil, err
	}
	return RoomList{Rooms: h.session.Rooms(), HasMore: !h.session.RoomsLoaded()}, nil
}

func (h *CommandHandler) cmdMedium(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /medium <Email|SMS|Phone|All>")
	}
	medium := domain.Medium(args[0])
	if medium != domain.MediumAll && !medium.Valid() {
		return nil, fmt.Errorf("invalid medium: %s", args[0])
	}
	if err := h.session.SetMedium(ctx, medium); err != nil {
		return nil, err
	}
	return RoomList{Rooms: h.session.Rooms(), HasMore: !h.session.RoomsLoaded()}, nil
}

func (h *CommandHandler) cmdSeen(ctx context.Context, args []string) (interface{}, error) {
	var roomID string
	if len(args) > 0 {
		var err error
		roomID, err = h.resolveRoomArg(args[0])
		if err != nil {
			return nil, err
		}
	} else {
		open := h.session.OpenRoom()
		if open == nil {
			return nil, fmt.Errorf("no open room. Use /seen <room_id>")
		}
		roomID = open.RoomID
	}
	if err := h.session.MarkSeen(ctx, roomID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "seen", "room": roomID}, nil
}

func (h *CommandHandler) cmdArchive(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /archive <room_id|#>")
	}
	roomID, err := h.resolveRoomArg(args[0])
	if err != nil {
		return nil, err
	}
	if err := h.session.Archive(ctx, roomID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "archived", "room": roomID}, nil
}

func (h *CommandHandler) cmdDelete(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /delete <room_id|#>")
	}
	roomID, err := h.resolveRoomArg(args[0])
	if err != nil {
		return nil, err
	}
	if err := h.session.Delete(ctx, roomID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "deleted", "room": roomID}, nil
}

func (h *CommandHandler) cmdUnread(ctx context.Context) (interface{}, error) {
	if err := h.session.RefreshUnread(ctx); err != nil {
		return nil, err
	}
	return map[string]int{"unread": h.session.UnreadCount()}, nil
}

func (h *CommandHandler) cmdUpload(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /upload <path>")
	}
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	file, err := h.session.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (h *CommandHandler) cmdWhoami() (interface{}, error) {
	user := h.session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("not initialized")
	}
	return *user, nil
}

// resolveRoomArg accepts either a room id or a 1-based index into the
// current room list.
func (h *CommandHandler) resolveRoomArg(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		rooms := h.session.Rooms()
		if n < 1 || n > len(rooms) {
			return "", fmt.Errorf("room number %d out of range (1-%d)", n, len(rooms))
		}
		return rooms[n-1].RoomID, nil
	}
	if _, err := domain.ParseRoomID(arg); err != nil {
		return "", err
	}
	return arg, nil
}
