package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/endpoints"
)

// portCounter hands out ports for binary mode.
var portCounter int32 = 18080

// ServerInstance is a running server under test
type ServerInstance struct {
	URL string

	httpServer    *httptest.Server
	serverProcess *exec.Cmd
	cancel        context.CancelFunc
}

func testConfig(dbURL string) *config.Config {
	return &config.Config{
		DatabaseURL:        dbURL,
		BindAddress:        "127.0.0.1",
		Port:               8000,
		LogLevel:           "debug",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		JWTSecret:          testJWTSecret,
		CronSecret:         testCronSecret,
		SyncRetryAttempts:  1,
		GoogleSheetRange:   "Handovers!A1:O",
		Timezone:           "UTC",
	}
}

func startInlineServer(dbURL string, database *gorm.DB) (*ServerInstance, error) {
	lggr, err := logger.New("warn")
	if err != nil {
		return nil, err
	}
	s := server.NewServer(testConfig(dbURL), database, lggr)
	endpoints.RegisterAll(s)

	ts := httptest.NewServer(s.Handler())
	instance := &ServerInstance{URL: ts.URL, httpServer: ts}
	if err := waitForServer(instance.URL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

func startBinaryServer(binaryPath, dbURL string) (*ServerInstance, error) {
	port := strconv.Itoa(int(atomic.AddInt32(&portCounter, 1)))
	ctx, cancel := context.WithCancel(context.Background())

	// Migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"SUPABASE_JWT_SECRET="+testJWTSecret,
		"CRON_SECRET="+testCronSecret,
		"HANDOVER_LOG_LEVEL=debug",
		"HANDOVER_CONFIG_PATH="+os.TempDir(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		URL:           "http://127.0.0.1:" + port,
		serverProcess: cmd,
		cancel:        cancel,
	}
	if err := waitForServer(instance.URL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// Stop shuts the server down
func (si *ServerInstance) Stop() {
	if si.httpServer != nil {
		si.httpServer.Close()
	}
	if si.cancel != nil {
		si.cancel()
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Wait()
	}
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/api/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}
