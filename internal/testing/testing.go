// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"net/http"
	"os"
	"sync/atomic"
	"testing"

	"github.com/cratedig/cratedig/internal/shared"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// CountingTransport wraps a RoundTripper and counts the requests that pass
// through it. Used to assert that cache hits perform no network calls.
type CountingTransport struct {
	Inner http.RoundTripper
	calls atomic.Int64
}

func (c *CountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	inner := c.Inner
	if inner == nil {
		inner = http.DefaultTransport
	}
	return inner.RoundTrip(req)
}

// Calls returns the number of requests seen so far.
func (c *CountingTransport) Calls() int {
	return int(c.calls.Load())
}

// NewTestDB opens an in-memory SQLite database with migrations applied and
// closes it when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}
