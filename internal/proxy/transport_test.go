package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBackend drives the server side of a transport over in-memory
// pipes. Tests read the requests the transport framed and write framed
// responses back.
type fakeBackend struct {
	t  *testing.T
	tr *Transport

	in  *bufio.Reader
	out io.Writer

	mu sync.Mutex
}

type backendMessage struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	toServerR, toServerW := io.Pipe()
	toClientR, toClientW := io.Pipe()

	tr := NewTransport(toClientR, toServerW, nil)
	tr.Start(context.Background())

	t.Cleanup(func() {
		tr.Close()
		toServerR.Close()
		toClientW.Close()
	})

	return &fakeBackend{
		t:   t,
		tr:  tr,
		in:  bufio.NewReader(toServerR),
		out: toClientW,
	}
}

// read returns the next message the client sent.
func (f *fakeBackend) read() backendMessage {
	f.t.Helper()

	var contentLength int
	for {
		line, err := f.in.ReadString('\n')
		if err != nil {
			f.t.Fatalf("read header: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			contentLength, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(f.in, body); err != nil {
		f.t.Fatalf("read body: %v", err)
	}

	var msg backendMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		f.t.Fatalf("unmarshal request: %v", err)
	}
	return msg
}

// write frames and sends an arbitrary message to the client.
func (f *fakeBackend) write(msg any) {
	f.t.Helper()

	data, err := json.Marshal(msg)
	if err != nil {
		f.t.Fatalf("marshal response: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.out, "Content-Length: %d\r\n\r\n", len(data))
	f.out.Write(data)
}

// respond sends a successful response for a request id.
func (f *fakeBackend) respond(id int64, result any) {
	f.t.Helper()

	data, err := json.Marshal(result)
	if err != nil {
		f.t.Fatalf("marshal result: %v", err)
	}
	f.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  json.RawMessage(data),
	})
}

// respondError sends an error response for a request id.
func (f *fakeBackend) respondError(id int64, code int, message string) {
	f.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]any{"code": code, "message": message},
	})
}

// notify sends a notification to the client.
func (f *fakeBackend) notify(method string, params any) {
	f.write(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func awaitReply(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reply")
		return nil
	}
}

func TestTransport_CallCorrelation(t *testing.T) {
	fb := newFakeBackend(t)

	got := make(chan json.RawMessage, 1)
	id, err := fb.tr.Call("test/method", map[string]string{"k": "v"}, func(result json.RawMessage, err error) {
		if err != nil {
			t.Errorf("reply error: %v", err)
		}
		got <- result
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	msg := fb.read()
	if msg.Method != "test/method" || msg.ID != id {
		t.Fatalf("backend saw method=%q id=%d, want test/method id=%d", msg.Method, msg.ID, id)
	}
	fb.respond(msg.ID, map[string]string{"status": "ok"})

	select {
	case result := <-got:
		var r map[string]string
		if err := json.Unmarshal(result, &r); err != nil || r["status"] != "ok" {
			t.Errorf("result = %s", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reply")
	}
}

func TestTransport_CallError(t *testing.T) {
	fb := newFakeBackend(t)

	replyErr := make(chan error, 1)
	_, err := fb.tr.Call("unknown/method", nil, func(result json.RawMessage, err error) {
		replyErr <- err
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	msg := fb.read()
	fb.respondError(msg.ID, CodeMethodNotFound, "method not found")

	err = awaitReply(t, replyErr)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeMethodNotFound)
	}
}

func TestTransport_CancelDropsLateResponse(t *testing.T) {
	fb := newFakeBackend(t)

	replyErr := make(chan error, 2)
	id, err := fb.tr.Call("slow/method", nil, func(result json.RawMessage, err error) {
		replyErr <- err
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	msg := fb.read()
	// Cancel writes a $/cancelRequest notification; pipe writes block
	// until read, so it runs off the test goroutine.
	go fb.tr.Cancel(id)

	if err := awaitReply(t, replyErr); !errors.Is(err, ErrStaleReply) {
		t.Fatalf("cancelled reply error = %v, want ErrStaleReply", err)
	}

	// The cancel notification reaches the backend.
	cancelMsg := fb.read()
	if cancelMsg.Method != MethodCancelRequest {
		t.Errorf("expected %s notification, got %q", MethodCancelRequest, cancelMsg.Method)
	}

	// A response arriving after the cancel is dropped. The marker
	// notification proves the read loop got past it.
	marker := make(chan struct{}, 1)
	fb.tr.OnNotification("sync/marker", func(string, json.RawMessage) { marker <- struct{}{} })
	fb.respond(msg.ID, map[string]string{"status": "late"})
	fb.notify("sync/marker", nil)
	select {
	case <-marker:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for marker notification")
	}

	select {
	case err := <-replyErr:
		t.Errorf("unexpected second reply: %v", err)
	default:
	}
}

func TestTransport_CloseFailsPending(t *testing.T) {
	fb := newFakeBackend(t)

	replyErr := make(chan error, 1)
	if _, err := fb.tr.Call("slow/method", nil, func(result json.RawMessage, err error) {
		replyErr <- err
	}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	fb.read()

	if err := fb.tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := awaitReply(t, replyErr); !errors.Is(err, ErrShutdown) {
		t.Errorf("pending reply error = %v, want ErrShutdown", err)
	}

	if err := fb.tr.Notify("test", nil); !errors.Is(err, ErrShutdown) {
		t.Errorf("Notify after close = %v, want ErrShutdown", err)
	}
	if _, err := fb.tr.Call("test", nil, nil); !errors.Is(err, ErrShutdown) {
		t.Errorf("Call after close = %v, want ErrShutdown", err)
	}
	if err := fb.tr.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestTransport_NotificationDispatch(t *testing.T) {
	fb := newFakeBackend(t)

	got := make(chan string, 1)
	fb.tr.OnNotification("test/notify", func(method string, params json.RawMessage) {
		var p struct {
			Message string `json:"message"`
		}
		json.Unmarshal(params, &p)
		got <- p.Message
	})

	fb.notify("test/notify", map[string]string{"message": "hello"})

	select {
	case msg := <-got:
		if msg != "hello" {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestTransport_ServerRequestAnswered(t *testing.T) {
	fb := newFakeBackend(t)

	got := make(chan json.RawMessage, 1)
	fb.tr.OnNotification(MethodShowDocument, func(method string, params json.RawMessage) {
		got <- params
	})

	// A message carrying both an id and a method is a backend-to-client
	// request and must get a response, not just a handler invocation.
	fb.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      42,
		"method":  MethodShowDocument,
		"params":  map[string]any{"uri": "shadow://doc1.py"},
	})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler invocation")
	}

	resp := fb.read()
	if resp.ID != 42 {
		t.Fatalf("response id = %d, want 42", resp.ID)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %v", resp.Error)
	}
	var r ShowDocumentResult
	if err := json.Unmarshal(resp.Result, &r); err != nil || !r.Success {
		t.Errorf("result = %s, want success", resp.Result)
	}
}

func TestTransport_UnhandledServerRequestRejected(t *testing.T) {
	fb := newFakeBackend(t)

	fb.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      7,
		"method":  "workspace/configuration",
	})

	resp := fb.read()
	if resp.ID != 7 {
		t.Fatalf("response id = %d, want 7", resp.ID)
	}
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("error = %v, want code %d", resp.Error, CodeMethodNotFound)
	}
}

func TestTransport_WildcardNotificationHandler(t *testing.T) {
	fb := newFakeBackend(t)

	got := make(chan string, 1)
	fb.tr.OnNotification("*", func(method string, params json.RawMessage) {
		got <- method
	})

	fb.notify("some/unregistered", nil)

	select {
	case method := <-got:
		if method != "some/unregistered" {
			t.Errorf("method = %q", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for wildcard dispatch")
	}
}
