// Package mcp exposes the dialog engine as Model Context Protocol tools, so an agent
// can hold a conversation with the bot and inspect what it stored.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/persistence/middleware"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MessageResponse is the result of one dispatch cycle.
type MessageResponse struct {
	CycleID  string          `json:"cycle_id" jsonschema_description:"Correlation id of the cycle"`
	Outcome  string          `json:"outcome" jsonschema_description:"Cycle outcome (valid, invalid, failed, dropped)"`
	State    string          `json:"state,omitempty" jsonschema_description:"State that handled the message"`
	Next     string          `json:"next,omitempty" jsonschema_description:"State the session moved to"`
	Valid    bool            `json:"valid" jsonschema_description:"Whether the validator accepted the message"`
	Envelope domain.Envelope `json:"envelope" jsonschema_description:"Rendered reply as sent to the messaging API"`
}

// Engine runs dispatch cycles.
type Engine interface {
	Handle(ctx context.Context, msg *domain.IncomingMessage) (dispatch.Outcome, error)
}

// Server exposes an Engine and its stores as an MCP server.
type Server struct {
	engine    Engine
	sessions  *session.Store
	history   *history.Stack
	table     actions.Table
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*config)

type config struct {
	version  string
	patterns []string
	logger   *slog.Logger
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(c *config) {
		c.version = strings.TrimSpace(v)
	}
}

// WithPIIPatterns replaces the keys masked in session and history reads.
func WithPIIPatterns(patterns []string) Option {
	return func(c *config) {
		c.patterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewServer creates a new MCP Server instance. Session and history reads go through a
// masking view of the dispatcher's stores.
func NewServer(engine Engine, sessions *session.Store, hist *history.Stack, table actions.Table, opts ...Option) *Server {
	cfg := config{version: "dev", patterns: middleware.DefaultPIIPatterns, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	masked := middleware.Chain(sessions.KV(), middleware.NewPIIMiddleware(cfg.patterns))
	s := &Server{
		engine:    engine,
		sessions:  session.NewStore(masked, session.WithTTL(sessions.TTL())),
		history:   history.New(masked),
		table:     table,
		logger:    cfg.logger,
		mcpServer: server.NewMCPServer("ngena-mcp", cfg.version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to the bot as a user and return the rendered reply."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Channel id of the user, e.g. a phone number")),
		mcp.WithString("body", mcp.Description("Message text or selected option id")),
		mcp.WithString("display_name", mcp.Description("Profile name of the user (optional)")),
		mcp.WithString("file_url", mcp.Description("URL of an uploaded document (optional)")),
		mcp.WithOutputSchema[MessageResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored session of a user. Personal data is masked."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Channel id of the user")),
	), s.handleGetSession)

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Get the reply history of a user, oldest first. Personal data is masked."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Channel id of the user")),
	), s.handleGetHistory)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MessageResponse, error) {
	userID, _ := args["user_id"].(string)
	if userID == "" {
		return MessageResponse{}, errors.New("user_id is required")
	}
	msg := &domain.IncomingMessage{UserID: userID}
	msg.Body, _ = args["body"].(string)
	msg.DisplayName, _ = args["display_name"].(string)
	if url, ok := args["file_url"].(string); ok && url != "" {
		msg.FileURL = url
		msg.FileName = url[strings.LastIndex(url, "/")+1:]
	}

	out, err := s.engine.Handle(ctx, msg)
	if err != nil {
		s.logger.Error("MCP send_message: Cycle failed", "error", err, "user_id", userID)
		return MessageResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}

	return MessageResponse{
		CycleID:  out.CycleID,
		Outcome:  out.Result(),
		State:    string(out.State),
		Next:     out.Next.String(),
		Valid:    out.Valid,
		Envelope: out.Envelope,
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	sess, found, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load session failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no session for %s", userID)), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	entries, err := s.history.Entries(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load history failed: %v", err)), nil
	}
	return jsonResult(entries)
}

func (s *Server) registerResources() {
	// EXPOSE: ngena://actions
	s.mcpServer.AddResource(mcp.NewResource("ngena://actions", "Action Table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.table)
		if err != nil {
			return nil, fmt.Errorf("failed to encode action table: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "ngena://actions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
