package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/repository"
)

// Execution limits forwarded to the runner.
const (
	compileTimeoutMs = 10000
	runTimeoutMs     = 3000
	runMemoryLimit   = 128000000 // 128MB
)

// Per-user execution rate limit: sliding window.
const (
	ExecuteRateLimit  = 5
	ExecuteRateWindow = 60 * time.Second
)

// Language holds the runner-side language id and pinned version.
type Language struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// supportedLanguages pins the runner versions the editor offers.
var supportedLanguages = map[string]Language{
	"javascript": {"javascript", "18.15.0"},
	"typescript": {"typescript", "5.0.3"},
	"python":     {"python", "3.10.0"},
	"java":       {"java", "15.0.2"},
	"cpp":        {"cpp", "10.2.0"},
	"c":          {"c", "10.2.0"},
	"csharp":     {"csharp", "6.12.0"},
	"php":        {"php", "8.2.3"},
	"ruby":       {"ruby", "3.0.1"},
	"go":         {"go", "1.16.2"},
	"rust":       {"rust", "1.68.2"},
	"kotlin":     {"kotlin", "1.8.20"},
	"bash":       {"bash", "5.2.0"},
}

// ExecutionResult is the sandbox's verdict on one run.
type ExecutionResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Language string `json:"language"`
	Version  string `json:"version"`
}

// ExecutionService forwards code to an external Piston-compatible sandbox.
// The hub never calls this; execution is reached through the HTTP API only,
// behind a per-user sliding-window rate limit.
type ExecutionService struct {
	rooms     repository.RoomRepository
	rateLimit repository.RateLimitRepository
	runnerURL string
	client    *http.Client
}

func NewExecutionService(rooms repository.RoomRepository, rateLimit repository.RateLimitRepository, runnerURL string) *ExecutionService {
	if rooms == nil || rateLimit == nil {
		panic("all repositories must be non-nil for ExecutionService")
	}
	return &ExecutionService{
		rooms:     rooms,
		rateLimit: rateLimit,
		runnerURL: strings.TrimRight(runnerURL, "/"),
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Languages lists the supported languages and their pinned versions.
func (s *ExecutionService) Languages() []Language {
	out := make([]Language, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		out = append(out, lang)
	}
	return out
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type pistonResponse struct {
	Run struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Code   int    `json:"code"`
	} `json:"run"`
}

// Execute runs code for a user in a room. Enforces the room's
// allowCodeExecution setting and the per-user rate limit before touching
// the sandbox.
func (s *ExecutionService) Execute(ctx context.Context, userID uint, roomID, language, code, stdin string) (*ExecutionResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":  roomID,
		"user_id":  userID,
		"language": language,
	})

	room, err := s.rooms.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	if !room.Settings.AllowCodeExecution {
		return nil, ErrExecutionDisabled
	}
	lang, ok := supportedLanguages[strings.ToLower(language)]
	if !ok {
		return nil, ErrUnsupportedLanguage
	}
	if code == "" {
		return nil, ErrValidation
	}

	allowed, err := s.rateLimit.Allow(ctx, fmt.Sprintf("execute:%d", userID), ExecuteRateLimit, ExecuteRateWindow)
	if err != nil {
		logCtx.WithError(err).Error("Rate limit check failed")
		return nil, ErrInternalServer
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	reqBody := pistonRequest{
		Language:           lang.ID,
		Version:            lang.Version,
		Files:              []pistonFile{{Name: runnerFileName(lang.ID), Content: code}},
		Stdin:              stdin,
		CompileTimeout:     compileTimeoutMs,
		RunTimeout:         runTimeoutMs,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     runMemoryLimit,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, ErrInternalServer
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.runnerURL+"/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, ErrInternalServer
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logCtx.WithError(err).Error("Runner request failed")
		return nil, ErrInternalServer
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logCtx.WithField("status", resp.StatusCode).Error("Runner returned non-OK status")
		return nil, ErrInternalServer
	}

	var out pistonResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logCtx.WithError(err).Error("Failed to decode runner response")
		return nil, ErrInternalServer
	}
	logCtx.WithField("exit_code", out.Run.Code).Info("Code executed")
	return &ExecutionResult{
		Stdout:   out.Run.Stdout,
		Stderr:   out.Run.Stderr,
		ExitCode: out.Run.Code,
		Language: lang.ID,
		Version:  lang.Version,
	}, nil
}

func runnerFileName(language string) string {
	switch language {
	case "javascript":
		return "main.js"
	case "typescript":
		return "main.ts"
	case "python":
		return "main.py"
	case "java":
		return "Main.java"
	case "go":
		return "main.go"
	case "rust":
		return "main.rs"
	case "c":
		return "main.c"
	case "cpp":
		return "main.cpp"
	default:
		return "main"
	}
}
