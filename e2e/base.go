package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/suite"

	"chat-relay/client"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
)

// BaseRelaySuite boots a full relay (router, WebSocket channel, BadgerDB
// store) on an ephemeral port for every test. Scenarios talk to it exactly
// the way external clients do, over HTTP and the client package.
type BaseRelaySuite struct {
	suite.Suite
	Config  Config
	secret  []byte
	dataDir string
	db      *badger.DB
	server  *httptest.Server
}

func (s *BaseRelaySuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	s.Config = cfg
	s.secret = []byte("e2e-signing-secret")
}

func (s *BaseRelaySuite) SetupTest() {
	s.dataDir = s.T().TempDir()
	s.StartRelay()
}

func (s *BaseRelaySuite) TearDownTest() {
	s.StopRelay()
}

// StartRelay wires and starts a relay on the suite's data directory.
// Calling it after StopRelay simulates a process restart over the same
// store.
func (s *BaseRelaySuite) StartRelay() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if s.Config.Debug {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	db, err := badger.Open(badger.DefaultOptions(s.dataDir).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	history := repositories.NewHistoryRepository(db, log, s.Config.HistoryLimit)
	relay := runtime.NewRelay(log, runtime.NewRegistry(), history, observability.NewMonitor(log))
	chatService := services.NewChatService(relay)
	authService := services.NewAuthService(repositories.NewUserRepository(db), s.secret, time.Hour)

	wsHandler := ws.NewHandler(chatService, s.secret, 256, log)
	authHandler := httpapi.NewAuthHandler(authService, log)
	statsHandler := httpapi.NewStatsHandler(relay, log)
	s.server = httptest.NewServer(httpapi.NewRouter(authHandler, wsHandler, statsHandler, s.secret, ""))
}

func (s *BaseRelaySuite) StopRelay() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
		s.db = nil
	}
}

func (s *BaseRelaySuite) wsURL() string {
	return strings.Replace(s.server.URL, "http", "ws", 1) + "/ws"
}

// Connect dials the relay's WebSocket endpoint, optionally with a handshake
// token, and arranges teardown with the test.
func (s *BaseRelaySuite) Connect(token string) *client.Client {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.EventTimeout)
	defer cancel()

	c, err := client.Dial(ctx, s.wsURL(), token)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// WaitFor consumes a client's event stream until an envelope of the wanted
// kind arrives, discarding everything in between.
func (s *BaseRelaySuite) WaitFor(c *client.Client, eventName string) ws.Envelope {
	deadline := time.After(s.Config.EventTimeout)
	for {
		select {
		case env, ok := <-c.Events():
			if !ok {
				s.Require().FailNowf("stream closed", "waiting for %q", eventName)
			}
			if env.Event == eventName {
				return env
			}
		case <-deadline:
			s.Require().FailNowf("timed out", "waiting for %q", eventName)
		}
	}
}

// DecodeData unmarshals an envelope's payload into out.
func (s *BaseRelaySuite) DecodeData(env ws.Envelope, out any) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

// PostJSON sends one API request and decodes the JSON response body.
func (s *BaseRelaySuite) PostJSON(path string, body any, headers map[string]string) (int, map[string]any) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return s.doJSON(req)
}

// GetJSON fetches one API endpoint and decodes the JSON response body.
func (s *BaseRelaySuite) GetJSON(path string, headers map[string]string) (int, map[string]any) {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return s.doJSON(req)
}

func (s *BaseRelaySuite) doJSON(req *http.Request) (int, map[string]any) {
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}
