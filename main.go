// Command gridsearch-server serves grid searches over HTTP and MCP.
//
// Modes:
//  1. "server" (default): REST API, WebSocket step streaming, /metrics and a
//     JSON-RPC /mcp endpoint on one listener
//  2. "stdio-mcp": an MCP server on stdin/stdout that proxies to a running API,
//     or to an internal one on a loopback port when none answers
//
// An ngrok tunnel can expose the HTTP mode publicly during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/gridsearch/api"
	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/metrics"
	"github.com/wricardo/gridsearch/search/service"
	"github.com/wricardo/gridsearch/search/session"
	"github.com/wricardo/gridsearch/transport/mcp"
	"github.com/wricardo/gridsearch/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Grid Search Server"
)

const (
	defaultBoardsDir = "boards"
	cleanupInterval  = time.Hour
	syncInterval     = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

var (
	port         = flag.Int("port", 8080, "port to listen on")
	host         = flag.String("host", "localhost", "interface to bind")
	boardsDir    = flag.String("boards-dir", defaultBoardsDir, "board preset directory (env BOARDS_DIR)")
	sessionsDir  = flag.String("sessions-dir", "sessions", "directory for persisted sessions (env SESSIONS_DIR)")
	sessionTTL   = flag.Duration("session-ttl", 24*time.Hour, "evict sessions idle for longer than this")
	debug        = flag.Bool("debug", false, "debug logging")
	version      = flag.Bool("version", false, "print the version and exit")
	ngrokEnabled = flag.Bool("ngrok", false, "expose the server through an ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "ngrok auth token (defaults to NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "reserved ngrok domain (defaults to NGROK_DOMAIN)")
)

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// applyEnvDefaults fills directory flags left unset on the command line from
// the environment. It runs after .env is loaded.
func applyEnvDefaults(fs *flag.FlagSet) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["boards-dir"] {
		*boardsDir = envDefault("BOARDS_DIR", *boardsDir)
	}
	if !set["sessions-dir"] {
		*sessionsDir = envDefault("SESSIONS_DIR", *sessionsDir)
	}
}

func init() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(out, "Usage: %s [flags] [server|stdio-mcp]\n\n", os.Args[0])
		fmt.Fprintln(out, "Modes:")
		fmt.Fprintln(out, "  server, http          REST API, WebSocket, /metrics and /mcp (default)")
		fmt.Fprintln(out, "  stdio-mcp, mcp-stdio  MCP over stdin/stdout, alias: mcp")
		fmt.Fprintln(out, "\nFlags:")
		flag.PrintDefaults()
	}
}

func main() {
	envErr := godotenv.Load()

	flag.Parse()
	applyEnvDefaults(flag.CommandLine)
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	mode := "server"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}
	setupLogging(*debug, isStdioMode(mode))

	switch {
	case envErr == nil:
		log.Debug("Loaded .env")
	case !os.IsNotExist(envErr):
		log.Warnf("Ignoring .env: %v", envErr)
	}

	log.WithFields(log.Fields{"version": Version, "mode": mode}).Infof("Starting %s", AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchService, sessionManager, err := initializeServices(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer func() {
		if err := sessionManager.SaveAllSessions(); err != nil {
			log.Errorf("Saving sessions on exit: %v", err)
		}
	}()

	switch {
	case isStdioMode(mode):
		runStdioMCPWithInternalServer(ctx, searchService)
	case mode == "server" || mode == "http":
		runHTTPServer(ctx, searchService)
	default:
		log.Errorf("Unknown mode %q", mode)
		flag.Usage()
	}
}

func isStdioMode(mode string) bool {
	return mode == "stdio-mcp" || mode == "mcp-stdio" || mode == "mcp"
}

// setupLogging configures logrus. In stdio mode stdout carries the MCP
// protocol, so logs go to stderr.
func setupLogging(debug, stdio bool) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if stdio {
		log.SetOutput(os.Stderr)
	}
}

// newHandler assembles the REST API with its WebSocket hub and animator, and
// mounts the /mcp JSON-RPC endpoint whose tools call back into baseURL. The hub
// and animator stop with ctx.
func newHandler(ctx context.Context, searchService service.SearchService, baseURL string) http.Handler {
	hub := websocket.NewHub()
	go hub.Run(ctx)
	animator := websocket.NewAnimator(ctx, searchService, hub)

	tools := mcp.NewClient(baseURL).GetMCPServer()

	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(searchService, hub, animator))
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		reply, err := json.Marshal(tools.HandleMessage(r.Context(), body))
		if err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(reply)
	})
	return mux
}

// runHTTPServer blocks until ctx is cancelled, then drains connections
func runHTTPServer(ctx context.Context, searchService service.SearchService) {
	addr := net.JoinHostPort(*host, fmt.Sprint(*port))
	handler := newHandler(ctx, searchService, "http://"+addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEndpoints("http://"+addr, "ws://"+addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if tunnelRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler)
		}()
	}

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	wg.Wait()
	log.Info("Server stopped")
}

func logEndpoints(httpBase, wsBase string) {
	log.WithFields(log.Fields{
		"api":     httpBase + "/api",
		"ws":      wsBase + "/ws?session=<id>",
		"metrics": httpBase + "/metrics",
		"mcp":     httpBase + "/mcp",
	}).Info("Serving")
}

func tunnelRequested() bool {
	if *ngrokEnabled {
		return true
	}
	v := os.Getenv("NGROK_ENABLED")
	return v == "true" || v == "1"
}

func tunnelToken() string {
	for _, v := range []string{*ngrokAuth, os.Getenv("NGROK_AUTHTOKEN"), os.Getenv("NGROK_AUTH_TOKEN")} {
		if v != "" {
			return v
		}
	}
	return ""
}

// runNgrokTunnel serves handler on a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	token := tunnelToken()
	if token == "" {
		log.Warn("ngrok requested but no auth token set; skipping tunnel")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}
	endpoint := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(token))
	if err != nil {
		log.Errorf("ngrok tunnel: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	public := tun.URL()
	log.WithFields(log.Fields{"url": public, "domain": domain}).Info("ngrok tunnel up")
	logEndpoints(public, public)

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.Errorf("ngrok serve: %v", err)
	}
}

// initializeServices builds the board and session managers and the search
// service over them, and starts the background session routines, which stop
// with ctx. A missing default boards directory falls back to built-in boards;
// an explicitly configured one that is missing is an error.
func initializeServices(ctx context.Context) (service.SearchService, *session.Manager, error) {
	dir := *boardsDir
	if _, err := os.Stat(dir); os.IsNotExist(err) && dir == defaultBoardsDir {
		log.WithField("dir", dir).Info("No boards directory, serving built-in boards")
		dir = ""
	}
	boards, err := board.NewManager(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create board manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(*sessionsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}
	sessions := session.NewManagerWithPersistence(persistence)
	if err := sessions.LoadPersistedSessions(); err != nil {
		log.Warnf("Persisted sessions not loaded: %v", err)
	}
	metrics.SetSessions(sessions.Count())

	go sessionCleanupRoutine(ctx, sessions, *sessionTTL)
	go filesystemSyncRoutine(ctx, sessions, persistence)

	return service.NewSearchService(sessions, boards), sessions, nil
}

// sessionCleanupRoutine evicts sessions idle for longer than ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	tick := time.NewTicker(cleanupInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		if n := manager.CleanupExpiredSessions(ttl); n > 0 {
			log.WithField("ttl", ttl).Infof("Evicted %d idle sessions", n)
			metrics.SetSessions(manager.Count())
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are gone
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	tick := time.NewTicker(syncInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		if n := syncWithFilesystem(manager, persistence); n > 0 {
			log.Infof("Dropped %d sessions whose files were removed", n)
			metrics.SetSessions(manager.Count())
		}
	}
}

func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}
	n := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if manager.DeleteFromMemory(sess.ID) == nil {
			log.WithField("session", sess.ID).Debug("Session file removed, dropping from memory")
			n++
		}
	}
	return n
}

// runStdioMCPWithInternalServer serves MCP on stdio. Tools target the API on
// the configured port when its /healthz answers, otherwise an internal API on
// a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, searchService service.SearchService) {
	baseURL := fmt.Sprintf("http://localhost:%d", *port)

	client := &http.Client{Timeout: 2 * time.Second}
	if resp, err := client.Get(baseURL + "/healthz"); err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.WithField("api", baseURL).Info("Using running API for MCP tools")
	} else {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Internal API listener: %v", err)
		}
		baseURL = "http://" + ln.Addr().String()

		internal := &http.Server{Handler: newHandler(ctx, searchService, baseURL)}
		go func() {
			if err := internal.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Errorf("Internal API: %v", err)
			}
		}()
		defer internal.Close()
		log.WithField("api", baseURL).Info("Started internal API for MCP tools")
	}

	if err := mcpserver.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server: %v", err)
	}
}
