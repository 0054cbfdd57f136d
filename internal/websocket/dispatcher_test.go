package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"collabnote-be/internal/dto"
	"collabnote-be/internal/entity"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/filestore"
	"collabnote-be/internal/repository/memory"
	"collabnote-be/internal/service"
	"collabnote-be/pkg/sandbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const testTopic = "notebook.list.updated"

type harness struct {
	hub        *Hub
	dispatcher *Dispatcher
	notebooks  service.INotebookService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	repo, err := filestore.NewNotebookRepository(t.TempDir(), log)
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}

	registry := service.NewSessionRegistry(memory.NewSessionRepository(), log)
	presence := service.NewPresenceTracker(registry)
	hub := NewHub(presence, log)
	go hub.Run()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := service.NewPublisherService(testTopic, pubSub)
	notebooks := service.NewNotebookService(repo, hub, publisher, log)
	consumer := service.NewConsumerService(pubSub, testTopic, repo, hub, log)
	if err := consumer.Consume(context.Background()); err != nil {
		t.Fatalf("consumer: %v", err)
	}

	runner := sandbox.NewRunner(2 * time.Second)
	executor := service.NewExecutionService(notebooks, runner, log)

	return &harness{
		hub:        hub,
		dispatcher: NewDispatcher(hub, registry, presence, notebooks, executor, log),
		notebooks:  notebooks,
	}
}

// connect registers a bare client with a buffered send channel; no real
// websocket is involved, frames are read straight off the channel.
func (h *harness) connect(t *testing.T, connId string) *Client {
	t.Helper()
	client := &Client{
		Hub:        h.hub,
		Id:         connId,
		Send:       make(chan []byte, 64),
		dispatcher: h.dispatcher,
	}
	h.hub.register <- client

	// Wait for the hub loop to pick the registration up.
	deadline := time.After(time.Second)
	for {
		h.hub.mu.RLock()
		_, ok := h.hub.clients[connId]
		h.hub.mu.RUnlock()
		if ok {
			return client
		}
		select {
		case <-deadline:
			t.Fatalf("client %s never registered", connId)
		case <-time.After(time.Millisecond):
		}
	}
}

func (h *harness) send(t *testing.T, connId, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(map[string]json.RawMessage{
		"event": json.RawMessage(`"` + event + `"`),
		"data":  data,
	})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	h.dispatcher.Dispatch(connId, raw)
}

func (h *harness) login(t *testing.T, client *Client, userId, name string) {
	t.Helper()
	h.send(t, client.Id, dto.EventLogin, dto.LoginRequest{Id: userId, Name: name, Color: "#FF5733"})
	waitFor(t, client, dto.EventNotebooks)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// waitFor reads frames off the client until one with the wanted event
// arrives. Unrelated frames, such as async list refreshes from the bus
// consumer, are skipped.
func waitFor(t *testing.T, client *Client, event string) frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-client.Send:
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("malformed frame %q: %v", raw, err)
			}
			if f.Event == event {
				return f
			}
		case <-deadline:
			t.Fatalf("no %q frame within deadline", event)
		}
	}
}

// expectSilence asserts the client receives no frame with the given event
// within a short window.
func expectSilence(t *testing.T, client *Client, event string) {
	t.Helper()
	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case raw := <-client.Send:
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("malformed frame %q: %v", raw, err)
			}
			if f.Event == event {
				t.Fatalf("unexpected %q frame: %s", event, f.Data)
			}
		case <-timeout:
			return
		}
	}
}

func errorMessage(t *testing.T, f frame) string {
	t.Helper()
	var e dto.ErrorEvent
	if err := json.Unmarshal(f.Data, &e); err != nil {
		t.Fatalf("decode error event: %v", err)
	}
	return e.Message
}

func TestLoginPushesNotebookList(t *testing.T) {
	h := newHarness(t)
	if _, err := h.notebooks.Create(context.Background(), "seed"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	client := h.connect(t, "conn-1")
	h.send(t, client.Id, dto.EventLogin, dto.LoginRequest{Id: "alice", Name: "Alice"})

	f := waitFor(t, client, dto.EventNotebooks)
	var summaries []entity.NotebookSummary
	if err := json.Unmarshal(f.Data, &summaries); err != nil {
		t.Fatalf("decode summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("got %d summaries, want 1", len(summaries))
	}
}

func TestJoinUnknownNotebook(t *testing.T) {
	h := newHarness(t)
	client := h.connect(t, "conn-1")
	h.login(t, client, "alice", "Alice")

	h.send(t, client.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{
		NotebookId: "11111111-2222-3333-4444-555555555555",
		UserId:     "alice",
	})

	f := waitFor(t, client, dto.EventError)
	if got := errorMessage(t, f); got != "Notebook not found" {
		t.Errorf("error = %q, want %q", got, "Notebook not found")
	}
	expectSilence(t, client, dto.EventNotebookData)
}

func TestJoinDeliversDocumentThenPresence(t *testing.T) {
	h := newHarness(t)
	notebook, err := h.notebooks.Create(context.Background(), "seed")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	client := h.connect(t, "conn-1")
	h.login(t, client, "alice", "Alice")

	h.send(t, client.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})

	f := waitFor(t, client, dto.EventNotebookData)
	var data dto.NotebookDataEvent
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("decode notebook-data: %v", err)
	}
	if data.Notebook.Id != notebook.Id || len(data.Cells) != 2 {
		t.Errorf("notebook-data = %s with %d cells, want %s with 2", data.Notebook.Id, len(data.Cells), notebook.Id)
	}

	p := waitFor(t, client, dto.EventActiveUsers)
	var users []entity.User
	if err := json.Unmarshal(p.Data, &users); err != nil {
		t.Fatalf("decode active-users: %v", err)
	}
	if len(users) != 1 || users[0].Id != "alice" {
		t.Errorf("active-users = %v, want just alice", users)
	}
}

func TestSecondJoinBroadcastsBothUsers(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")

	alice := h.connect(t, "conn-a")
	bob := h.connect(t, "conn-b")
	h.login(t, alice, "alice", "Alice")
	h.login(t, bob, "bob", "Bob")

	h.send(t, alice.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	waitFor(t, alice, dto.EventActiveUsers)

	h.send(t, bob.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})

	// The earlier member sees the refreshed roster too.
	f := waitFor(t, alice, dto.EventActiveUsers)
	var users []entity.User
	if err := json.Unmarshal(f.Data, &users); err != nil {
		t.Fatalf("decode active-users: %v", err)
	}
	if len(users) != 2 || users[0].Id != "alice" || users[1].Id != "bob" {
		t.Errorf("active-users = %v, want alice then bob", users)
	}
}

func TestDisconnectUpdatesRemainingMembers(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")

	alice := h.connect(t, "conn-a")
	bob := h.connect(t, "conn-b")
	h.login(t, alice, "alice", "Alice")
	h.login(t, bob, "bob", "Bob")

	h.send(t, alice.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	h.send(t, bob.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})
	waitForRoster(t, alice, 2)

	h.dispatcher.Disconnect(bob.Id)

	users := waitForRoster(t, alice, 1)
	if users[0].Id != "alice" {
		t.Errorf("remaining user = %v, want alice", users)
	}
}

// waitForRoster reads active-users frames until one carries the wanted
// member count.
func waitForRoster(t *testing.T, client *Client, size int) []entity.User {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		f := waitFor(t, client, dto.EventActiveUsers)
		var users []entity.User
		if err := json.Unmarshal(f.Data, &users); err != nil {
			t.Fatalf("decode active-users: %v", err)
		}
		if len(users) == size {
			return users
		}
		select {
		case <-deadline:
			t.Fatalf("never saw a roster of %d, last = %v", size, users)
		default:
		}
	}
}

func TestLeaveNotebook(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")

	alice := h.connect(t, "conn-a")
	bob := h.connect(t, "conn-b")
	h.login(t, alice, "alice", "Alice")
	h.login(t, bob, "bob", "Bob")

	h.send(t, alice.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	h.send(t, bob.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})
	waitForRoster(t, alice, 2)

	h.send(t, bob.Id, dto.EventLeaveNotebook, dto.LeaveNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})

	users := waitForRoster(t, alice, 1)
	if users[0].Id != "alice" {
		t.Errorf("remaining user = %v, want alice", users)
	}
}

func TestUpdateCellFansOutToRoom(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")
	cellId := notebook.Cells[0].Id

	alice := h.connect(t, "conn-a")
	bob := h.connect(t, "conn-b")
	h.login(t, alice, "alice", "Alice")
	h.login(t, bob, "bob", "Bob")
	h.send(t, alice.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	h.send(t, bob.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})
	waitFor(t, bob, dto.EventActiveUsers)

	h.send(t, alice.Id, dto.EventUpdateCell, dto.UpdateCellRequest{
		NotebookId: notebook.Id,
		CellId:     cellId,
		Content:    "# Shared heading",
		UserId:     "alice",
	})

	for _, client := range []*Client{alice, bob} {
		f := waitFor(t, client, dto.EventCellUpdate)
		var cell entity.Cell
		if err := json.Unmarshal(f.Data, &cell); err != nil {
			t.Fatalf("decode cell-update: %v", err)
		}
		if cell.Id != cellId || cell.Content != "# Shared heading" {
			t.Errorf("%s got cell-update %+v", client.Id, cell)
		}
	}
}

func TestExecuteCodeBroadcastsOutput(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")
	codeCell := notebook.Cells[1]

	client := h.connect(t, "conn-1")
	h.login(t, client, "alice", "Alice")
	h.send(t, client.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	waitFor(t, client, dto.EventActiveUsers)

	h.send(t, client.Id, dto.EventExecuteCode, dto.ExecuteCodeRequest{
		NotebookId: notebook.Id,
		CellId:     codeCell.Id,
		Code:       `console.log("Hello world!")`,
		UserId:     "alice",
	})

	f := waitFor(t, client, dto.EventCellUpdate)
	var cell entity.Cell
	if err := json.Unmarshal(f.Data, &cell); err != nil {
		t.Fatalf("decode cell-update: %v", err)
	}
	if cell.Output == nil || *cell.Output != "Hello world!\n" {
		t.Errorf("Output = %v, want Hello world!\\n", cell.Output)
	}
	if cell.ExecutedBy != "alice" {
		t.Errorf("ExecutedBy = %q, want alice", cell.ExecutedBy)
	}
}

func TestExecuteCodeErrorBecomesCellOutput(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")
	codeCell := notebook.Cells[1]

	client := h.connect(t, "conn-1")
	h.login(t, client, "alice", "Alice")
	h.send(t, client.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	waitFor(t, client, dto.EventActiveUsers)

	h.send(t, client.Id, dto.EventExecuteCode, dto.ExecuteCodeRequest{
		NotebookId: notebook.Id,
		CellId:     codeCell.Id,
		Code:       `throw new Error("boom")`,
		UserId:     "alice",
	})

	f := waitFor(t, client, dto.EventCellUpdate)
	var cell entity.Cell
	if err := json.Unmarshal(f.Data, &cell); err != nil {
		t.Fatalf("decode cell-update: %v", err)
	}
	if cell.Output == nil || !strings.HasPrefix(*cell.Output, "Error: ") || !strings.Contains(*cell.Output, "boom") {
		t.Errorf("Output = %v, want an Error: line carrying the thrown message", cell.Output)
	}
	expectSilence(t, client, dto.EventError)
}

func TestMalformedFrame(t *testing.T) {
	h := newHarness(t)
	client := h.connect(t, "conn-1")

	h.dispatcher.Dispatch(client.Id, []byte(`{not json`))

	f := waitFor(t, client, dto.EventError)
	if got := errorMessage(t, f); got != "Malformed message" {
		t.Errorf("error = %q, want %q", got, "Malformed message")
	}
}

func TestUnknownEvent(t *testing.T) {
	h := newHarness(t)
	client := h.connect(t, "conn-1")

	h.send(t, client.Id, "self-destruct", map[string]string{})

	f := waitFor(t, client, dto.EventError)
	if got := errorMessage(t, f); got != "Unknown event: self-destruct" {
		t.Errorf("error = %q", got)
	}
}

func TestValidationFailureIsReportedToSender(t *testing.T) {
	h := newHarness(t)
	client := h.connect(t, "conn-1")

	// Login without the required name.
	h.send(t, client.Id, dto.EventLogin, map[string]string{"id": "alice"})

	waitFor(t, client, dto.EventError)
	expectSilence(t, client, dto.EventNotebooks)
}

func TestReorderMismatchReachesOnlySender(t *testing.T) {
	h := newHarness(t)
	notebook, _ := h.notebooks.Create(context.Background(), "seed")

	alice := h.connect(t, "conn-a")
	bob := h.connect(t, "conn-b")
	h.login(t, alice, "alice", "Alice")
	h.login(t, bob, "bob", "Bob")
	h.send(t, alice.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "alice"})
	h.send(t, bob.Id, dto.EventJoinNotebook, dto.JoinNotebookRequest{NotebookId: notebook.Id, UserId: "bob"})
	waitFor(t, bob, dto.EventActiveUsers)

	h.send(t, alice.Id, dto.EventUpdateCellsOrder, dto.UpdateCellsOrderRequest{
		NotebookId: notebook.Id,
		Cells:      []entity.Cell{notebook.Cells[0]},
		UserId:     "alice",
	})

	waitFor(t, alice, dto.EventError)
	expectSilence(t, bob, dto.EventError)
}
