package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ReplyHandler receives the result of a request. Exactly one of result
// and err is meaningful. Handlers run on the transport's read goroutine
// and must not block.
type ReplyHandler func(result json.RawMessage, err error)

// NotificationHandler handles incoming notifications from the backend.
type NotificationHandler func(method string, params json.RawMessage)

// Transport handles JSON-RPC 2.0 communication with an analysis backend
// over a byte stream, using the LSP base protocol with Content-Length
// headers. Requests are not awaited: each carries a correlation id and a
// reply handler, and the caller's thread returns immediately. Replies
// for cancelled or superseded requests are dropped at this layer.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	mu       sync.Mutex
	nextID   atomic.Int64
	pending  map[int64]ReplyHandler
	handlers map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// request represents an outgoing JSON-RPC request or notification.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// response represents an incoming JSON-RPC response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// notification is used to parse incoming notifications.
type notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// serverRequest is an incoming backend-to-client request, which unlike
// a notification must be answered.
type serverRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewTransport creates a transport over the given connection, typically
// the stdin/stdout pipes of a backend process.
func NewTransport(r io.Reader, w io.Writer, c io.Closer) *Transport {
	return &Transport{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		closer:   c,
		pending:  make(map[int64]ReplyHandler),
		handlers: make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start begins reading messages from the connection.
func (t *Transport) Start(ctx context.Context) {
	go t.readLoop(ctx)
}

// Close closes the transport. Every pending reply handler is invoked
// with ErrShutdown so no caller is left waiting on a reply that can
// never arrive.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)

	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[int64]ReplyHandler)
	t.mu.Unlock()

	for _, reply := range pending {
		reply(nil, ErrShutdown)
	}

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// IsClosed returns true if the transport has been closed.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Call sends a request and registers a reply handler under a fresh
// correlation id. It returns the id so the caller can cancel or
// supersede the request later.
func (t *Transport) Call(method string, params any, reply ReplyHandler) (int64, error) {
	if t.closed.Load() {
		return 0, ErrShutdown
	}

	id := t.nextID.Add(1)

	t.mu.Lock()
	t.pending[id] = reply
	t.mu.Unlock()

	req := &request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := t.send(req); err != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return 0, fmt.Errorf("send request: %w", err)
	}
	return id, nil
}

// Cancel drops the pending reply handler for a request and tells the
// backend to stop working on it. The handler is invoked with
// ErrStaleReply; a response arriving later is silently discarded.
func (t *Transport) Cancel(id int64) {
	t.mu.Lock()
	reply, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	reply(nil, ErrStaleReply)
	_ = t.Notify(MethodCancelRequest, map[string]int64{"id": id})
}

// Notify sends a notification (no response expected).
func (t *Transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return ErrShutdown
	}
	return t.send(&request{JSONRPC: "2.0", Method: method, Params: params})
}

// OnNotification registers a handler for backend notifications. The
// method "*" acts as a wildcard fallback.
func (t *Transport) OnNotification(method string, handler NotificationHandler) {
	t.mu.Lock()
	t.handlers[method] = handler
	t.mu.Unlock()
}

// send writes a message with the LSP content-length header.
func (t *Transport) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readLoop reads messages from the connection until closed.
func (t *Transport) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		default:
		}

		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() || err == io.EOF || err == io.ErrClosedPipe {
				return
			}
			continue
		}
		t.dispatch(msg)
	}
}

// readMessage reads a single framed message.
func (t *Transport) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if length, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = length
				}
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch routes a message to its reply handler or notification handler.
func (t *Transport) dispatch(data json.RawMessage) {
	var head struct {
		ID     *int64          `json:"id"`
		Method string          `json:"method"`
		Error  *RPCError       `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return
	}

	if head.ID != nil && head.Method == "" {
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		t.handleResponse(&resp)
		return
	}

	if head.Method == "" {
		return
	}

	// An id alongside a method marks a backend-to-client request,
	// which must be answered or the backend stalls awaiting it.
	if head.ID != nil {
		var req serverRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		t.handleServerRequest(&req)
		return
	}

	var notif notification
	if err := json.Unmarshal(data, &notif); err != nil {
		return
	}
	t.handleNotification(&notif)
}

// handleServerRequest runs a backend-to-client request through the
// handler table and answers it. Unhandled methods are rejected with
// MethodNotFound instead of being left pending.
func (t *Transport) handleServerRequest(req *serverRequest) {
	t.mu.Lock()
	handler, ok := t.handlers[req.Method]
	if !ok {
		handler, ok = t.handlers["*"]
	}
	t.mu.Unlock()

	if !ok || handler == nil {
		_ = t.send(&response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    CodeMethodNotFound,
				Message: "method not supported: " + req.Method,
			},
		})
		return
	}

	handler(req.Method, req.Params)

	result := json.RawMessage("null")
	if req.Method == MethodShowDocument {
		result, _ = json.Marshal(ShowDocumentResult{Success: true})
	}
	_ = t.send(&response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// handleResponse pops the pending handler for the id and invokes it. A
// response with no pending handler was cancelled or superseded and is
// dropped.
func (t *Transport) handleResponse(resp *response) {
	if t.closed.Load() {
		return
	}

	t.mu.Lock()
	reply, ok := t.pending[resp.ID]
	if ok {
		delete(t.pending, resp.ID)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	if resp.Error != nil {
		reply(nil, resp.Error)
		return
	}
	reply(resp.Result, nil)
}

// handleNotification routes a notification to its handler.
func (t *Transport) handleNotification(notif *notification) {
	t.mu.Lock()
	handler, ok := t.handlers[notif.Method]
	if !ok {
		handler, ok = t.handlers["*"]
	}
	t.mu.Unlock()

	if ok && handler != nil {
		handler(notif.Method, notif.Params)
	}
}
