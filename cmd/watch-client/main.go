// watch-client tails the server's event stream and prints every event,
// useful for verifying fan-out without a browser.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"go-disaster-watch/internal/logging"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "localhost:8080", "server host:port")
	observer := flag.String("observer", "", "observer id for targeted notifications")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Setup(*level)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	if *observer != "" {
		u.RawQuery = url.Values{"observer_id": {*observer}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logging.Fatalf("Failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	slog.Info("connected", "url", u.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var event map[string]any
			if err := conn.ReadJSON(&event); err != nil {
				slog.Error("read failed", "error", err)
				return
			}
			pretty, _ := json.Marshal(event)
			slog.Info("event", "payload", string(pretty))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	case <-done:
	}
}
