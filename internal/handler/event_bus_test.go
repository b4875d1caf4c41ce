// internal/handler/event_bus_test.go
package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

func TestPublishWithoutClients(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	// Must not panic or block.
	bus.Publish(model.Event{Kind: model.EventDiscoveryDone, Timestamp: time.Now()})
	if bus.ClientCount() != 0 {
		t.Errorf("client count = %d", bus.ClientCount())
	}
}

func TestWebSocketEventDelivery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	bus := NewEventBus(logger)
	wsHandler := NewWebSocketHandler(bus, logger)

	router := gin.New()
	router.GET("/ws", wsHandler.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var welcome WSMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("no welcome frame: %v", err)
	}
	if welcome.Type != "connected" {
		t.Errorf("welcome type = %q", welcome.Type)
	}

	// Registration happens on the server goroutine; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for bus.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if bus.ClientCount() != 1 {
		t.Fatalf("client count = %d", bus.ClientCount())
	}

	bus.Publish(model.Event{
		Kind:    model.EventPrinterFound,
		Address: "00:07:4D:C9:52:88",
		Device: &model.Device{
			Address: "00:07:4D:C9:52:88",
			Name:    "ZQ320",
		},
		Timestamp: time.Now(),
	})

	var frame WSMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("no event frame: %v", err)
	}
	if frame.Type != "event" || frame.Event == nil {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.Event.Kind != model.EventPrinterFound || frame.Event.Device.Name != "ZQ320" {
		t.Errorf("unexpected event: %+v", frame.Event)
	}
}

func TestDeadClientDropped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	bus := NewEventBus(logger)
	wsHandler := NewWebSocketHandler(bus, logger)

	router := gin.New()
	router.GET("/ws", wsHandler.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for bus.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	// The read loop notices the close and unregisters the client.
	deadline = time.Now().Add(2 * time.Second)
	for bus.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if bus.ClientCount() != 0 {
		t.Errorf("dead client still registered: %d", bus.ClientCount())
	}
}
