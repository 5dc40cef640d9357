// Package protocol implements the bidirectional control channel multiplexed
// over the same NDJSON stream that carries free-form assistant events:
// events are fanned out to a caller-registered handler, inbound
// control_request records are dispatched to a caller-registered responder,
// and outbound control_request records are correlated against their
// eventual control_response by id.
package protocol

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loomrun/loom/internal/loomerr"
	"github.com/loomrun/loom/internal/ndjson"
	"github.com/loomrun/loom/internal/obslog"
)

// EventHandler receives every decoded record that is not a control_request
// or control_response envelope.
type EventHandler func(record map[string]any)

// RequestHandler answers an inbound control_request from the child. It must
// return a Response carrying the same ID.
type RequestHandler func(req Request) Response

type settleResult struct {
	resp Response
	err  error
}

// Peer is one session's protocol peer: one Peer per child process.
type Peer struct {
	writeMu sync.Mutex
	w       io.Writer

	nextID atomic.Int64

	pendingMu sync.Mutex
	pending   map[string]chan settleResult

	onEvent   EventHandler
	onRequest RequestHandler

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Peer that writes outbound frames to w. onEvent and
// onRequest may be nil, in which case events are dropped and inbound
// control_requests are answered with a deny-shaped error response.
func New(w io.Writer, onEvent EventHandler, onRequest RequestHandler) *Peer {
	if onEvent == nil {
		onEvent = func(map[string]any) {}
	}
	if onRequest == nil {
		onRequest = func(req Request) Response {
			return Response{ID: req.ID, OK: false, Error: "no request handler registered"}
		}
	}
	return &Peer{
		w:         w,
		pending:   make(map[string]chan settleResult),
		onEvent:   onEvent,
		onRequest: onRequest,
		closed:    make(chan struct{}),
	}
}

// Run decodes r until it is exhausted or ctx is canceled, dispatching each
// record to the event handler or the control-channel logic. It blocks until
// the stream ends, then fails all pending requests with TransportError and
// returns. Run must be called from exactly one goroutine per Peer — the
// "reader loop" that owns the pending table per the concurrency model.
func (p *Peer) Run(ctx context.Context, r io.Reader) {
	var lastErr error
	for line := range ndjson.Decode(ctx, r) {
		if line.Err != nil {
			// Per the codec's contract this is already logged as a
			// DecodeError by the caller if it wants visibility; the peer
			// itself just continues, never treating it as fatal.
			obslog.Logf("protocol", "dropped unparsable line: %v", line.Err)
			continue
		}
		p.dispatch(line.Data)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		lastErr = ctxErr
	}
	p.closeTransport(lastErr)
}

func (p *Peer) dispatch(data map[string]any) {
	typ, _ := data["type"].(string)
	switch typ {
	case typeControlRequest:
		req, ok := parseRequest(data)
		if !ok {
			obslog.Log("protocol", "dropped malformed control_request (missing id)")
			return
		}
		resp := p.onRequest(req)
		resp.ID = req.ID
		if err := p.sendResponse(resp); err != nil {
			obslog.Logf("protocol", "failed to send control_response: %v", err)
		}
	case typeControlResponse:
		resp, ok := parseResponse(data)
		if !ok {
			obslog.Log("protocol", "dropped malformed control_response (missing id)")
			return
		}
		p.settle(resp.ID, settleResult{resp: resp})
	default:
		// A bare JSON-RPC 2.0 response (no "type" envelope, just
		// {"id","result"} or {"id","error"}) settles a SendJSONRPC call the
		// same way a control_response settles a SendRequest call. Anything
		// else, including a JSON-RPC notification or request with its own
		// "method", falls through to onEvent — this is how session/update
		// notifications from an ACP-speaking child reach the normalizer.
		if resp, ok := parseJSONRPCResponse(data); ok {
			p.settle(resp.ID, settleResult{resp: resp})
			return
		}
		p.onEvent(data)
	}
}

func (p *Peer) settle(id string, res settleResult) {
	p.pendingMu.Lock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.pendingMu.Unlock()
	if !ok {
		obslog.Logf("protocol", "dropped response for unknown or already-settled id %s", id)
		return
	}
	ch <- res
}

// SendRequest allocates a fresh, strictly-increasing, never-reused id,
// writes a control_request to the transport, and blocks until a matching
// control_response arrives, the transport closes, ctx is canceled, or
// timeout (if positive) elapses. A timeout settles only this request; a
// transport close settles every pending request.
func (p *Peer) SendRequest(ctx context.Context, subtype Subtype, payload any, timeout time.Duration) (Response, error) {
	id := strconv.FormatInt(p.nextID.Add(1), 10)
	ch := make(chan settleResult, 1)

	p.pendingMu.Lock()
	p.pending[id] = ch
	p.pendingMu.Unlock()

	if err := p.send(wireRequest{Type: typeControlRequest, ID: id, Subtype: subtype, Payload: payload}); err != nil {
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return Response{}, err
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-ch:
		// Covers both a normal control_response match and closeTransport
		// delivering a TransportError into this same channel.
		return res.resp, res.err
	case <-timeoutCh:
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return Response{}, &loomerr.TimeoutError{RequestID: id}
	case <-ctx.Done():
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return Response{}, ctx.Err()
	}
}

// SendJSONRPC sends a bare JSON-RPC 2.0 request — {"jsonrpc":"2.0","id",
// "method","params"} with no control_request envelope — and blocks until a
// correlated {"id","result"}/{"id","error"} response arrives, the
// transport closes, ctx is canceled, or timeout elapses. This is the wire
// shape ACP and similar library-mode protocols expect for their own
// handshake, distinct from loom's own control_request/control_response
// framing that SendRequest uses.
func (p *Peer) SendJSONRPC(ctx context.Context, method string, params any, timeout time.Duration) (map[string]any, error) {
	id := strconv.FormatInt(p.nextID.Add(1), 10)
	ch := make(chan settleResult, 1)

	p.pendingMu.Lock()
	p.pending[id] = ch
	p.pendingMu.Unlock()

	frame := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		frame["params"] = params
	}
	if err := p.send(frame); err != nil {
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return nil, err
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if !res.resp.OK {
			return nil, &loomerr.TransportError{Reason: "jsonrpc error: " + res.resp.Error}
		}
		result, _ := res.resp.Result.(map[string]any)
		return result, nil
	case <-timeoutCh:
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return nil, &loomerr.TimeoutError{RequestID: id}
	case <-ctx.Done():
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()
		return nil, ctx.Err()
	}
}

// Done returns a channel closed once the transport has been torn down
// (Run's decode loop ended, for any reason).
func (p *Peer) Done() <-chan struct{} { return p.closed }

func (p *Peer) sendResponse(resp Response) error {
	return p.send(wireResponse{Type: typeControlResponse, Response: resp})
}

func (p *Peer) send(v any) error {
	buf, err := ndjson.Encode(v)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err = p.w.Write(buf)
	return err
}

// closeTransport fails every pending request with TransportError. It is
// idempotent and safe to call from Run's exit path even if the transport
// was already explicitly closed by the executor.
func (p *Peer) closeTransport(cause error) {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.pendingMu.Lock()
		pending := p.pending
		p.pending = make(map[string]chan settleResult)
		p.pendingMu.Unlock()

		te := &loomerr.TransportError{Reason: "stream closed", Err: cause}
		for _, ch := range pending {
			ch <- settleResult{err: te}
		}
	})
}

func parseRequest(data map[string]any) (Request, bool) {
	id, _ := data["id"].(string)
	if id == "" {
		return Request{}, false
	}
	subtype, _ := data["subtype"].(string)
	return Request{ID: id, Subtype: Subtype(subtype), Payload: data["payload"]}, true
}

func parseResponse(data map[string]any) (Response, bool) {
	raw, ok := data["response"].(map[string]any)
	if !ok {
		return Response{}, false
	}
	id, _ := raw["id"].(string)
	if id == "" {
		return Response{}, false
	}
	ok2, _ := raw["ok"].(bool)
	errMsg, _ := raw["error"].(string)
	return Response{ID: id, OK: ok2, Result: raw["result"], Error: errMsg}, true
}

// parseJSONRPCResponse recognizes a bare JSON-RPC 2.0 response: it must
// carry an "id" and a "result" or an "error" (if both are present it is
// treated as a result), and no "method" (a
// "method" present means this is a request or notification, not a
// response to one of our own SendJSONRPC calls).
func parseJSONRPCResponse(data map[string]any) (Response, bool) {
	if _, hasMethod := data["method"]; hasMethod {
		return Response{}, false
	}
	id, ok := data["id"].(string)
	if !ok || id == "" {
		return Response{}, false
	}
	if result, ok := data["result"]; ok {
		resMap, _ := result.(map[string]any)
		return Response{ID: id, OK: true, Result: resMap}, true
	}
	if errVal, ok := data["error"]; ok {
		return Response{ID: id, OK: false, Error: fmt.Sprint(errVal)}, true
	}
	return Response{}, false
}
