package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Search",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Search - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session owns a board of open cells and walls with a start (S) and an end (E).
Edit the board, then run A*, Dijkstra, BFS or DFS between start and end.
Coordinates are {x: row, y: column}, both 0-based.

AVAILABLE TOOLS:
- create_session: New session from a board preset
- generate_board: New session on a random board
- list_sessions: List sessions
- show_board: Render a session's board
- toggle_wall, set_start, set_end: Edit the board
- search: Run one algorithm and show the path
- compare: Run all four algorithms on the same board
- search_history: Past runs of a session
- list_boards, list_algorithms: What is available
- search_instructions: How to read boards and results`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellProperties() map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionProperty(),
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "Row of the cell (0-based)",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Column of the cell (0-based)",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new search session from a board preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_id": map[string]interface{}{
					"type":        "string",
					"description": "Board preset to use (optional, see list_boards)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_board",
		Description: "Create a new session on a randomly generated board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Number of rows (1-200)",
				},
				"cols": map[string]interface{}{
					"type":        "integer",
					"description": "Number of columns (1-200)",
				},
				"density": map[string]interface{}{
					"type":        "number",
					"description": "Fraction of cells that become walls (0-0.9)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Random seed for a reproducible board (optional)",
				},
			},
			Required: []string{"rows", "cols"},
		},
	}, c.handleGenerateBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Board editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "show_board",
		Description: "Render the board of a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleShowBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_wall",
		Description: "Toggle the wall at a cell. Start and end cannot become walls.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleToggleWall)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_start",
		Description: "Move the start cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleSetStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_end",
		Description: "Move the end cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleSetEnd)

	// Searching
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search",
		Description: "Search from start to end and show the path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"algorithm": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"astar", "dijkstra", "bfs", "dfs"},
					"description": "Algorithm to run (default astar)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "compare",
		Description: "Run every algorithm on the same board and compare path lengths and work done",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleCompare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_history",
		Description: "List past runs of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Runs per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSearchHistory)

	// Reference
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List available board presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_algorithms",
		Description: "List available search algorithms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListAlgorithms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_instructions",
		Description: "Explain the board legend, the algorithms and how to read results",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSearchInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func cellArg(args map[string]interface{}) (grid.Position, error) {
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return grid.Position{}, fmt.Errorf("x and y are required")
	}
	return grid.Position{X: x, Y: y}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	boardID, _ := args["board_id"].(string)

	body := map[string]string{}
	if boardID != "" {
		body["board_id"] = boardID
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created session: " + formatSessionInfo(&info)), nil
}

func (c *Client) handleGenerateBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	for _, key := range []string{"rows", "cols", "density", "seed"} {
		if v, ok := args[key].(float64); ok {
			body[key] = v
		}
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions/generate", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Generated session: " + formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sessions (%d):\n\n", response.Count)
	for i := range response.Sessions {
		b.WriteString("- " + formatSessionInfo(&response.Sessions[i]))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleShowBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var state service.BoardState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/board"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&state)), nil
}

func (c *Client) handleToggleWall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.editCell(ctx, request, "POST", "/walls/toggle")
}

func (c *Client) handleSetStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.editCell(ctx, request, "PUT", "/start")
}

func (c *Client) handleSetEnd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.editCell(ctx, request, "PUT", "/end")
}

func (c *Client) editCell(ctx context.Context, request mcp.CallToolRequest, method, suffix string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	pos, err := cellArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.BoardState
	if err := c.apiCall(ctx, method, sessionPath(sessionID, suffix), pos, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&state)), nil
}

func (c *Client) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	algorithm, _ := args["algorithm"].(string)

	var result service.SearchResult
	body := map[string]string{"algorithm": algorithmName(algorithm)}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/search"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSearchResult(&result)), nil
}

func (c *Client) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var result service.CompareResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/compare"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCompare(&result)), nil
}

func (c *Client) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Boards []board.Info `json:"boards"`
	}
	if err := c.apiCall(ctx, "GET", "/api/boards", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Boards:\n\n")
	for _, info := range response.Boards {
		fmt.Fprintf(&b, "• %s\n  %s\n  Grid: %dx%d", info.ID, info.Description, info.Rows, info.Cols)
		if info.WallDensity > 0 {
			fmt.Fprintf(&b, ", wall density %.2f", info.WallDensity)
		}
		if info.Builtin {
			b.WriteString(" (built-in)")
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListAlgorithms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Algorithms []service.AlgorithmInfo `json:"algorithms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/algorithms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Algorithms:\n\n")
	for _, a := range response.Algorithms {
		guarantee := "shortest path"
		if !a.ShortestPath {
			guarantee = "any path"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n\n", a.Name, guarantee, a.Description)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSearchInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Grid Search - Instructions

BOARD:
A board is a rectangle of cells. Moves go up, down, left and right, one cell at a
time, and every move costs 1. Walls cannot be entered.
Coordinates are {x, y} where x is the row and y the column, counted from 0 at the
top-left corner.

LEGEND:
• . - open cell
• # - wall
• S - start
• E - end
• * - cell on the found path
• o - cell expanded by the search
• + - cell still waiting in the frontier

ALGORITHMS:
• astar - expands the cell with the lowest cost so far plus Manhattan distance to
  the end. Shortest path, usually the fewest expansions.
• dijkstra - expands the cell with the lowest cost so far. Shortest path.
• bfs - expands cells in the order they were discovered. Shortest path on this
  board since every move costs the same.
• dfs - follows the most recently discovered cell. Finds a path, not necessarily
  the shortest.
Ties are broken by discovery order, so results are reproducible.

READING RESULTS:
• status - succeeded when the end was reached, exhausted when every reachable
  cell was expanded without reaching it
• path_length - number of moves from start to end
• expanded - cells taken off the frontier and explored
• steps - records produced, one per expansion plus the final one

WORKFLOW:
1. create_session or generate_board
2. show_board to see the layout
3. toggle_wall, set_start, set_end to edit it
4. search with one algorithm, or compare to run all four
5. search_history to review past runs`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("%s (Board: %s, %dx%d, %d walls, start (%d,%d), end (%d,%d))\n",
		info.ID, info.BoardName, info.Rows, info.Cols, info.WallCount,
		info.Start.X, info.Start.Y, info.End.X, info.End.Y)
}

func formatBoard(state *service.BoardState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %dx%d, %d walls\n", state.SessionID, state.Rows, state.Cols, len(state.Walls))
	fmt.Fprintf(&b, "Start: (%d,%d)  End: (%d,%d)\n", state.Start.X, state.Start.Y, state.End.X, state.End.Y)
	if len(state.Rendered) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(state.Rendered, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatSearchResult(result *service.SearchResult) string {
	var b strings.Builder
	res := result.Result
	if res.Found() {
		fmt.Fprintf(&b, "✓ %s found a path of length %d\n", res.Algorithm, res.PathLength)
	} else {
		fmt.Fprintf(&b, "✗ %s found no path (%s)\n", res.Algorithm, res.Status)
	}
	fmt.Fprintf(&b, "Expanded: %d  Steps: %d\n", res.Expanded, res.Steps)
	if len(res.Path) > 0 {
		b.WriteString("Path: " + formatPath(res.Path) + "\n")
	}
	if len(result.Rendered) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(result.Rendered, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatPath(path []grid.Position) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func formatCompare(result *service.CompareResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison for session %s:\n\n", result.SessionID)
	fmt.Fprintf(&b, "%-10s %-10s %8s %9s %6s\n", "algorithm", "status", "length", "expanded", "steps")
	for _, res := range result.Results {
		length := "-"
		if res.Found() {
			length = fmt.Sprint(res.PathLength)
		}
		fmt.Fprintf(&b, "%-10s %-10s %8s %9d %6d\n", res.Algorithm, res.Status, length, res.Expanded, res.Steps)
	}
	b.WriteString("\n")
	if result.Shortest < 0 {
		b.WriteString("No algorithm reached the end.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Shortest path: %d\n", result.Shortest)
	if result.Agree {
		b.WriteString("All shortest-path algorithms agree.\n")
	} else {
		b.WriteString("WARNING: shortest-path algorithms disagree.\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run History (Page %d/%d, Total: %d runs)\n\n", history.Page, history.TotalPages, history.TotalRuns)
	for _, run := range history.Runs {
		fmt.Fprintf(&b, "- %s %-8s %-10s length %d, expanded %d, %.2fms\n",
			run.FinishedAt.Format("15:04:05"), run.Algorithm, run.Status, run.PathLength, run.Expanded, run.DurationMs)
	}
	if history.HasNext {
		b.WriteString("\nMore runs on the next page.\n")
	}
	return b.String()
}

// algorithmName keeps unknown names as typed for the server's error message
func algorithmName(name string) string {
	if a, err := engine.ParseAlgorithm(name); err == nil {
		return a.String()
	}
	return name
}
