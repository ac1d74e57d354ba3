package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/checkin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestArrivalBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)

	r := gin.New()
	r.GET("/ws/arrivals", ServeWs(hub, zap.NewNop(), nil))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/arrivals"
	conn := dial(t, url)
	defer conn.Close()

	// wait for the hub to register the client
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	id := uuid.New()
	hub.Arrival(&checkin.Result{ID: id, Visited: true, ChildName: "Asha", PhoneNumber: "555"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Event != "arrival" {
		t.Fatalf("expected arrival event, got %q", msg.Event)
	}
	var data struct {
		VisitID   uuid.UUID `json:"visitId"`
		ChildName string    `json:"childName"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.VisitID != id || data.ChildName != "Asha" {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestServeWsRejectsBadToken(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)

	validate := func(token string) error {
		if token != "good" {
			return websocket.ErrBadHandshake
		}
		return nil
	}

	r := gin.New()
	r.GET("/ws/arrivals", ServeWs(hub, zap.NewNop(), validate))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/arrivals?token=bad"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected handshake failure for bad token")
	}

	conn := dial(t, url[:len(url)-3]+"good")
	conn.Close()
}

func TestUnregisterDropsClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)

	r := gin.New()
	r.GET("/ws/arrivals", ServeWs(hub, zap.NewNop(), nil))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/arrivals"
	conn := dial(t, url)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
