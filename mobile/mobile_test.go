package mobile

import (
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
)

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
}

func TestStartAndStopServer(t *testing.T) {
	port := freePort(t)
	if err := StartServer(t.TempDir(), filepath.Join(t.TempDir(), "games.db"), port); err != nil {
		t.Fatal(err)
	}
	defer StopServer()

	if err := StartServer(t.TempDir(), "", port); err == nil {
		t.Fatal("second start accepted")
	}

	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %d", resp.StatusCode)
	}

	StopServer()
	if _, err := http.Get("http://127.0.0.1:" + port + "/health"); err == nil {
		t.Fatal("server still answering after StopServer")
	}
	StopServer()
}

func TestStartServerBadPort(t *testing.T) {
	if err := StartServer(t.TempDir(), "", "http"); err == nil {
		t.Fatal("bad port accepted")
	}
}
