package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/avunu/commchat/internal/engine"
)

type ServerConfig struct {
	Address string
}

// Server exposes the chat session as MCP tools over SSE so agents can read
// and act on the user's conversations.
type Server struct {
	mcpServer  *server.MCPServer
	sseServer  *server.SSEServer
	httpServer *http.Server
	session    *engine.Session
	config     ServerConfig
}

func NewServer(session *engine.Session, config ServerConfig) *Server {
	s := &Server{
		session: session,
		config:  config,
	}

	s.mcpServer = server.NewMCPServer(
		"commchat",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithKeepAliveInterval(30*time.Second),
	)

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("chat_list_rooms",
			mcp.WithDescription("List conversation rooms sorted by most recent activity"),
			mcp.WithString("search",
				mcp.Description("Optional search query to filter rooms"),
			),
			mcp.WithString("medium",
				mcp.Description("Filter by medium: Email, SMS, Phone, or All (default All)"),
			),
		),
		s.handleListRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_get_messages",
			mcp.WithDescription("Open a room and get its most recent messages"),
			mcp.WithString("room_id",
				mcp.Required(),
				mcp.Description("Room identifier (e.g. 'Email:user@example.com' or 'SMS:+15551234567')"),
			),
		),
		s.handleGetMessages,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_send_message",
			mcp.WithDescription("Send a message to a room"),
			mcp.WithString("room_id",
				mcp.Required(),
				mcp.Description("Room identifier to send to"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
			mcp.WithString("subject",
				mcp.Description("Optional email subject (email rooms only)"),
			),
			mcp.WithString("reply_to",
				mcp.Description("Optional id of the message being replied to"),
			),
		),
		s.handleSendMessage,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_mark_seen",
			mcp.WithDescription("Mark all messages in a room as seen"),
			mcp.WithString("room_id",
				mcp.Required(),
				mcp.Description("Room identifier"),
			),
		),
		s.handleMarkSeen,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_search_rooms",
			mcp.WithDescription("Search rooms by counterparty, content, or subject"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query text"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum results to return (default 10, max 50)"),
			),
		),
		s.handleSearchRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_unread_count",
			mcp.WithDescription("Get the total unread message count across all rooms"),
		),
		s.handleUnreadCount,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_archive_room",
			mcp.WithDescription("Archive a room (closes all its communications)"),
			mcp.WithString("room_id",
				mcp.Required(),
				mcp.Description("Room identifier"),
			),
		),
		s.handleArchiveRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_delete_room",
			mcp.WithDescription("Delete a room and all its communications. This cannot be undone."),
			mcp.WithString("room_id",
				mcp.Required(),
				mcp.Description("Room identifier"),
			),
		),
		s.handleDeleteRoom,
	)
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/sse", s.sseServer.SSEHandler())
	mux.Handle("/message", s.sseServer.MessageHandler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: mux,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
