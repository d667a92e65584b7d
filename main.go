// Command sokoban serves a directory of Sokoban levels.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, a WebSocket
//     stream of scene frames, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Levels are loaded once at startup, before anything is served. A ticker then
// advances every moving scene and pushes its frame to WebSocket clients.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/database"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/scene"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
	"github.com/wricardo/sokoban/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Level Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelDir     = flag.String("level-dir", getLevelDirDefault(), "Directory containing level files (or LEVEL_DIR env var)")
	cellSize     = flag.Float64("cell-size", 64, "World units per grid cell")
	smoothing    = flag.Float64("smoothing", motion.DefaultSmoothing, "Fraction of the remaining distance covered per tick, in (0,1]")
	tickRate     = flag.Duration("tick-rate", 16*time.Millisecond, "Interval between scene ticks")
	sceneTTL     = flag.Duration("scene-ttl", 24*time.Hour, "Remove scenes not accessed for this long")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getLevelDirDefault honors the LEVEL_DIR environment variable, then falls back to "levels".
func getLevelDirDefault() string {
	if dir := os.Getenv("LEVEL_DIR"); dir != "" {
		return dir
	}
	return "levels"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -level-dir ./levels        # Serve ./levels on port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -smoothing 0.5 -port 9090  # Faster glide, port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                  # Run MCP stdio server\n", os.Args[0])
	}
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	levelService, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(levelService)

	case "server", "http":
		runHTTPServer(levelService)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// initializeServices loads the level database and wires the level service.
// It also starts a background cleanup routine to prune stale scenes.
func initializeServices() (service.LevelService, error) {
	db, err := database.Load(*levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	if db.Len() == 0 {
		return nil, fmt.Errorf("no levels found in %s: %w", *levelDir, database.ErrEmptyDatabase)
	}
	log.Printf("Loaded %d levels from %s (%d blocks skipped)", db.Len(), db.Dir(), len(db.Skipped()))

	reconciler, err := motion.NewReconciler(*cellSize, *smoothing)
	if err != nil {
		return nil, fmt.Errorf("invalid motion settings: %w", err)
	}

	sessionManager := session.NewManager()
	go sessionCleanupRoutine(sessionManager, *sceneTTL)

	return service.NewLevelService(db, sessionManager, reconciler), nil
}

// sessionCleanupRoutine periodically removes scenes that have not been accessed
// within the retention window.
func sessionCleanupRoutine(manager *session.Manager, maxAge time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
			log.Printf("Cleaned up %d expired scenes", removed)
		}
	}
}

// frameBroadcaster receives the frames of scenes that moved during a tick
type frameBroadcaster interface {
	BroadcastFrame(sceneID string, frame scene.Frame)
}

// runTickLoop is the only caller of TickScenes, which keeps entity
// translations single-writer. It returns when ctx is cancelled.
func runTickLoop(ctx context.Context, levelService service.LevelService, out frameBroadcaster, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, f := range levelService.TickScenes(ctx) {
				out.BroadcastFrame(f.SceneID, f.Frame)
				if f.Settled && *debug {
					log.Printf("Scene %s settled at tick %d", f.SceneID, f.Frame.Tick)
				}
			}
		}
	}
}

// newMCPHandler serves MCP JSON-RPC messages over plain HTTP POST
func newMCPHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at the root and the MCP endpoint at /mcp
func newRouter(levelService service.LevelService, hub *websocket.Hub, baseURL string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(levelService, hub))
	mux.HandleFunc("/mcp", newMCPHandler(mcp.NewClient(baseURL)))
	return mux
}

// runHTTPServer starts the HTTP server, the WebSocket hub and the tick loop.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(levelService service.LevelService) {
	hub := websocket.NewHub()
	go hub.Run()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	router := newRouter(levelService, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runTickLoop(ctx, levelService, hub, *tickRate)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api/levels", addr)
		log.Printf("WebSocket: ws://%s/ws?scene=<scene_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if ngrokRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, router)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// ngrokRequested reports whether the tunnel is enabled by flag or NGROK_ENABLED
func ngrokRequested() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// ngrokSettings resolves the auth token and domain from flags, then environment
func ngrokSettings() (authToken, domain string) {
	authToken = *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}

	domain = *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}
	return authToken, domain
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, handler http.Handler) {
	authToken, domain := ngrokSettings()
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api/levels", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?scene=<scene_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether an API at baseURL answers /health
// without a server error
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on the configured port when one answers
// /health; otherwise it starts an internal API on a random loopback port.
func runStdioMCPWithInternalServer(levelService service.LevelService) {
	externalURL := fmt.Sprintf("http://%s:%d", *host, *port)
	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	if externalAPIAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.Printf("Starting internal HTTP server on %s for MCP stdio", listener.Addr())

		hub := websocket.NewHub()
		go hub.Run()
		go runTickLoop(context.Background(), levelService, hub, *tickRate)

		httpServer := &http.Server{Handler: api.NewServer(levelService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
