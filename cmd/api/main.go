package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"review-harvester/harvester"
	"review-harvester/internal/types"
	"review-harvester/providers"
)

// HarvestRequest represents the request body for the API
type HarvestRequest struct {
	ProductID   string `json:"product_id"`
	ProductURL  string `json:"product_url"`
	APIURL      string `json:"api_url"`
	TargetCount int    `json:"target_count"`
	Filter      string `json:"filter,omitempty"`
	Sort        string `json:"sort,omitempty"`
}

// HarvestResponse represents the response from the API
type HarvestResponse struct {
	Success bool                  `json:"success"`
	Reviews []types.Review        `json:"reviews,omitempty"`
	Summary *types.HarvestSummary `json:"summary,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// memorySink collects flushed batches in memory so they can be returned in
// the HTTP response.
type memorySink struct {
	reviews []types.Review
}

func (m *memorySink) WriteBatch(reviews []types.Review) error {
	m.reviews = append(m.reviews, reviews...)
	return nil
}

// Server holds the API server configuration
type Server struct {
	logger *logrus.Logger
	config *types.Config
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	config := types.DefaultConfig()
	// API pagination converges fast; no lazy-content lag to wait out.
	config.StallThreshold = 2

	return &Server{
		logger: logger,
		config: config,
	}
}

// handleHarvest handles the harvest API endpoint. Only the API-pagination
// source is exposed here; a headless browser inside a request handler is not
// a serving model this process supports.
func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight requests
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Only allow POST requests
	if r.Method != "POST" {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request body
	var req HarvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate request
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.APIURL = strings.TrimSpace(req.APIURL)
	if req.ProductID == "" || req.APIURL == "" {
		s.sendError(w, "product_id and api_url are required", http.StatusBadRequest)
		return
	}
	if req.TargetCount <= 0 {
		s.sendError(w, "target_count must be positive", http.StatusBadRequest)
		return
	}

	s.logger.Infof("API request received for product %s (target=%d)", req.ProductID, req.TargetCount)

	// Per-request config so concurrent requests never share run state
	config := *s.config
	config.TargetCount = req.TargetCount
	if req.Filter != "" {
		config.Filter = req.Filter
	}
	if req.Sort != "" {
		config.Sort = req.Sort
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	provider := providers.NewAPIProvider(req.APIURL, req.ProductID, &config, s.logger)
	defer provider.Close()

	sink := &memorySink{}
	controller := harvester.NewController(provider, sink, req.ProductID, req.ProductURL, &config, s.logger)
	summary, err := controller.Run(ctx)
	if err != nil {
		s.logger.Warnf("Harvest for %s ended fatally: %v", req.ProductID, err)
	}

	// Even a fatal run returns what was flushed before the failure
	response := HarvestResponse{
		Success: err == nil,
		Reviews: sink.reviews,
		Summary: summary,
	}
	if err != nil {
		response.Error = err.Error()
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := HarvestResponse{
		Success: false,
		Error:   message,
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Start starts the API server
func (s *Server) Start(port string) error {
	// Setup routes
	http.HandleFunc("/harvest", s.handleHarvest)
	http.HandleFunc("/health", s.handleHealth)

	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /harvest - Harvest reviews for one product")
	s.logger.Info("  GET  /health  - Health check")

	return http.ListenAndServe(":"+port, nil)
}

func main() {
	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
		fmt.Printf("Using port from environment variable API_PORT: %s\n", serverPort)
	} else {
		fmt.Printf("No API_PORT environment variable found, using default: %s\n", serverPort)
	}

	// Create and start server
	server := NewServer()

	// Start the server
	log.Fatal(server.Start(serverPort))
}
