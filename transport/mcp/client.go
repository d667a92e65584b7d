package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/tile"
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
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sokoban Levels",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban Levels - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Levels are loaded from a directory of XSB files. Each level is a grid of
tile stacks (floor, wall, goal, box, player). Scenes spawn one entity per
tile; entities glide toward their grid cell a little every tick.

AVAILABLE TOOLS:
- list_levels: List loaded levels
- get_level: Show a level in XSB notation
- describe_cell: Inspect one cell of a level
- replay_actions: Derive a level from a LURD move string
- create_scene / list_scenes / scene_frame / delete_scene: Manage scenes
- move_entity: Move an entity of a scene to another cell
- notation: Reference for the level and move notation`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List every loaded level with its size and box/goal counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_level",
		Description: "Show a level in XSB notation with its metadata",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "0-based level index (optional, defaults to the first level)",
				},
			},
		},
	}, c.handleGetLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the tile stack at a cell of a level, bottom to top, with atlas index and layer of each tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "0-based level index",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column, 0 is the leftmost",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row, 0 is the top",
				},
			},
			Required: []string{"index", "x", "y"},
		},
	}, c.handleDescribeCell)

	// Replay
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "replay_actions",
		Description: "Build a level from a move string: u/d/l/r step, U/D/L/R push. Boxes are inferred from pushes and their final cells become goals",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"actions": map[string]interface{}{
					"type":        "string",
					"description": "Move string, e.g. 'rrUld'",
				},
			},
			Required: []string{"actions"},
		},
	}, c.handleReplay)

	// Scenes
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_scene",
		Description: "Spawn a level as tile entities",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "0-based level index (optional, defaults to 0)",
				},
			},
		},
	}, c.handleCreateScene)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenes",
		Description: "List all live scenes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "scene_frame",
		Description: "Show the current frame of a scene: every entity with its grid cell and translation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scene_id": map[string]interface{}{
					"type":        "string",
					"description": "Scene ID",
				},
			},
			Required: []string{"scene_id"},
		},
	}, c.handleSceneFrame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_entity",
		Description: "Set the grid cell of an entity; its translation follows over the next ticks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scene_id": map[string]interface{}{
					"type":        "string",
					"description": "Scene ID",
				},
				"entity_id": map[string]interface{}{
					"type":        "integer",
					"description": "Entity ID from scene_frame",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Target column",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Target row",
				},
			},
			Required: []string{"scene_id", "entity_id", "x", "y"},
		},
	}, c.handleMoveEntity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_scene",
		Description: "Delete a scene",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scene_id": map[string]interface{}{
					"type":        "string",
					"description": "Scene ID",
				},
			},
			Required: []string{"scene_id"},
		},
	}, c.handleDeleteScene)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "notation",
		Description: "Reference for the XSB level notation and the LURD move notation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleNotation)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
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

// arguments returns the tool arguments as a map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Levels []service.LevelInfo `json:"levels"`
		Count  int                 `json:"count"`
	}
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Levels (%d):\n", response.Count)
	for _, lvl := range response.Levels {
		fmt.Fprintf(&sb, "  [%d] %s - %dx%d, %d boxes, %d goals (%s block %d)\n",
			lvl.Index, lvl.Name, lvl.Width, lvl.Height, lvl.Boxes, lvl.Goals, lvl.Source, lvl.Block)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/levels/first"
	if index, ok := intArg(arguments(request), "index"); ok {
		path = fmt.Sprintf("/api/levels/%d", index)
	}

	var detail service.LevelDetail
	if err := c.apiCall(ctx, "GET", path, nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatLevelDetail(&detail)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	index, okIndex := intArg(args, "index")
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okIndex || !okX || !okY {
		return mcp.NewToolResultError("index, x and y are required"), nil
	}

	var detail service.LevelDetail
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/levels/%d", index), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	for _, cell := range detail.Cells {
		if cell.X == x && cell.Y == y {
			return mcp.NewToolResultText(formatCell(&cell)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("cell (%d,%d) is outside the %dx%d level",
		x, y, detail.Width, detail.Height)), nil
}

func (c *Client) handleReplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actions, ok := arguments(request)["actions"].(string)
	if !ok {
		return mcp.NewToolResultError("actions is required"), nil
	}

	var result service.ReplayResult
	if err := c.apiCall(ctx, "POST", "/api/replay", map[string]string{"actions": actions}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatReplayResult(&result)), nil
}

func (c *Client) handleCreateScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	levelIndex, _ := intArg(arguments(request), "level")

	var info service.SceneInfo
	if err := c.apiCall(ctx, "POST", "/api/scenes", map[string]int{"level": levelIndex}, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created scene: %s\nLevel: [%d] %s\nEntities: %d\n",
		info.ID, info.Level.Index, info.Level.Name, len(info.Frame.Entities))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListScenes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Scenes []service.SceneInfo `json:"scenes"`
		Count  int                 `json:"count"`
	}
	if err := c.apiCall(ctx, "GET", "/api/scenes", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No active scenes"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Scenes (%d):\n", response.Count)
	for _, sc := range response.Scenes {
		fmt.Fprintf(&sb, "  %s - level [%d] %s, tick %d, %s\n",
			sc.ID, sc.Level.Index, sc.Level.Name, sc.Frame.Tick, settledLabel(sc.Settled))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleSceneFrame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sceneID, ok := arguments(request)["scene_id"].(string)
	if !ok || sceneID == "" {
		return mcp.NewToolResultError("scene_id is required"), nil
	}

	var info service.SceneInfo
	if err := c.apiCall(ctx, "GET", "/api/scenes/"+sceneID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSceneInfo(&info)), nil
}

func (c *Client) handleMoveEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sceneID, _ := args["scene_id"].(string)
	entityID, okEntity := intArg(args, "entity_id")
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if sceneID == "" || !okEntity || !okX || !okY {
		return mcp.NewToolResultError("scene_id, entity_id, x and y are required"), nil
	}

	path := fmt.Sprintf("/api/scenes/%s/entities/%d/position", sceneID, entityID)
	var info service.SceneInfo
	if err := c.apiCall(ctx, "POST", path, map[string]int{"x": x, "y": y}, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Entity %d of scene %s now targets (%d,%d)\n", entityID, info.ID, x, y)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDeleteScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sceneID, ok := arguments(request)["scene_id"].(string)
	if !ok || sceneID == "" {
		return mcp.NewToolResultError("scene_id is required"), nil
	}

	if err := c.apiCall(ctx, "DELETE", "/api/scenes/"+sceneID, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Deleted scene: " + sceneID), nil
}

func (c *Client) handleNotation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(`LEVEL NOTATION (XSB)

  #  wall              .  goal
  -  floor (also ' ' and '_')
  $  box on floor      *  box on goal
  @  player on floor   +  player on goal

A number before a symbol repeats it (3# is ###) and '|' starts a new row.
Lines starting with ';' are comments, 'Key: value' lines are metadata
(Title names the level). Levels are separated by blank lines.

MOVE NOTATION (LURD)

  u d l r   step up/down/left/right
  U D L R   push the box in front of the player

Whitespace is ignored. Replaying a move string from an empty board infers
where boxes started and marks their final cells as goals.`), nil
}

// Formatting helpers

func formatLevelDetail(detail *service.LevelDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s (%dx%d, %d boxes, %d goals)\n",
		detail.Index, detail.Name, detail.Width, detail.Height, detail.Boxes, detail.Goals)
	for _, comment := range detail.Comments {
		fmt.Fprintf(&sb, "; %s\n", comment)
	}
	sb.WriteString("\n")
	for _, row := range detail.Rows {
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	if len(detail.Metadata) > 0 {
		keys := make([]string, 0, len(detail.Metadata))
		for k := range detail.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s: %s\n", k, detail.Metadata[k])
		}
	}
	return sb.String()
}

func formatCell(cell *service.CellInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cell (%d,%d):\n", cell.X, cell.Y)
	if len(cell.Stack) == 0 {
		sb.WriteString("  (empty)\n")
		return sb.String()
	}
	for i, kind := range cell.Stack {
		visual := tile.Visual{}
		if i < len(cell.Visuals) {
			visual = cell.Visuals[i]
		}
		fmt.Fprintf(&sb, "  %d. %s - atlas %d, %s layer\n", i, kind, visual.AtlasIndex, visual.Layer)
	}
	return sb.String()
}

func formatReplayResult(result *service.ReplayResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Replayed %d moves (%d pushes): %s\n", result.Moves, result.Pushes, result.Actions)
	fmt.Fprintf(&sb, "Derived level (%dx%d):\n\n", result.Width, result.Height)
	for _, row := range result.Rows {
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatSceneInfo(info *service.SceneInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scene %s - level [%d] %s\n", info.ID, info.Level.Index, info.Level.Name)
	fmt.Fprintf(&sb, "Tick: %d, %s\n", info.Frame.Tick, settledLabel(info.Settled))
	fmt.Fprintf(&sb, "Entities (%d):\n", len(info.Frame.Entities))
	for _, e := range info.Frame.Entities {
		if e.Body == nil {
			continue
		}
		// floors and walls never move, skip them to keep the listing short
		if e.Kind == tile.Floor || e.Kind == tile.Wall {
			continue
		}
		t := e.Body.Translation
		fmt.Fprintf(&sb, "  #%d %s at (%d,%d) -> (%.1f, %.1f, z=%.0f)\n",
			e.ID, e.Kind, e.Body.Grid.X, e.Body.Grid.Y, t.X, t.Y, t.Z)
	}
	return sb.String()
}

func settledLabel(settled bool) string {
	if settled {
		return "settled"
	}
	return "moving"
}
