package main

import (
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// Worker owns one accepted connection: it reads a single request, writes at
// most one response and closes the connection.
type Worker struct {
	conn   net.Conn
	remote string
	site   *Site
	cfg    Config
	reader *RequestReader
	req    *Request
	res    *Response
	done   chan struct{}
	once   sync.Once
}

type stateFunc func(*Worker) stateFunc

const (
	lingerTimeout  = 500 * time.Millisecond
	lingerMaxBytes = 256 << 10
)

func NewWorker(conn net.Conn, site *Site, cfg Config) *Worker {
	remote := "(unknown)"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Worker{
		conn:   conn,
		remote: remote,
		site:   site,
		cfg:    cfg,
		reader: NewRequestReader(conn),
		done:   make(chan struct{}),
	}
}

// Start runs the worker to completion. The connection is closed on return,
// whatever happened.
func (w *Worker) Start() {
	activeWorkers.Inc()
	defer activeWorkers.Dec()
	defer func() {
		if p := recover(); p != nil {
			log.Printf("E %s: worker panic: %v", w.remote, p)
			if w.res != nil {
				w.res.Close()
			}
			w.conn.Close()
		}
	}()

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

// Cancel aborts the worker. Blocked reads and writes fail immediately.
func (w *Worker) Cancel() {
	w.once.Do(func() {
		close(w.done)
		w.conn.SetDeadline(time.Now())
	})
}

func (w *Worker) cancelled() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// setReadDeadline and setWriteDeadline never extend the deadline of a
// cancelled worker: a Cancel that lands while the deadline is being moved
// is applied again.
func (w *Worker) setReadDeadline() {
	if d := w.cfg.ReadTimeout.Duration; d > 0 {
		w.conn.SetReadDeadline(time.Now().Add(d))
	}
	if w.cancelled() {
		w.conn.SetDeadline(time.Now())
	}
}

func (w *Worker) setWriteDeadline() {
	if d := w.cfg.WriteTimeout.Duration; d > 0 {
		w.conn.SetWriteDeadline(time.Now().Add(d))
	}
	if w.cancelled() {
		w.conn.SetDeadline(time.Now())
	}
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.req = req
	log.Printf("I %s %s %s", w.remote, req.Method, req.URI)

	switch {
	case strings.HasPrefix(req.Method, "GET"):
		w.res = w.site.serveGet(req.URI)
		return sendResponse
	case strings.HasPrefix(req.Method, "POST"):
		switch req.URI {
		case "/login.html":
			return serveLogin
		case "/upload.html":
			return w.reject(NotImplemented, "upload is not implemented")
		}
	}
	return w.reject(NotImplemented, "unsupported "+req.Method+" "+req.URI)
}

// requestFailed decides what to do when reading the request went wrong.
// Only unparseable input may be answered; I/O failures close the connection.
func (w *Worker) requestFailed(err error) stateFunc {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		log.Printf("I %s closed before sending a request", w.remote)
		droppedRequests.Inc()
		return finishWorker
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Printf("I %s closed in the middle of a request", w.remote)
	case errors.Is(err, ProtocolUnparseable):
		return w.reject(ProtocolUnparseable, err.Error())
	case errors.As(err, &ne) && ne.Timeout():
		log.Printf("W %s: read timed out", w.remote)
	default:
		log.Printf("E %s: %v", w.remote, err)
	}
	droppedRequests.Inc()
	return finishWorker
}

// reject closes the connection without a response unless explicit errors
// are enabled, in which case kind's status is sent.
func (w *Worker) reject(kind RequestError, reason string) stateFunc {
	if !w.site.ExplicitErrors {
		log.Printf("W %s: %s, closing without response", w.remote, reason)
		droppedRequests.Inc()
		return finishWorker
	}
	log.Printf("W %s: %s", w.remote, reason)
	w.res = errorResponse(kind.Status(), "")
	return sendResponse
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	w.setReadDeadline()
	w.reader.Start()
	select {
	case req := <-w.reader.RequestReceived():
		return w.requestReceived(req)
	case err := <-w.reader.ErrorOccurred():
		return w.requestFailed(err)
	case <-w.done:
		log.Printf("W %s: waitForRequest cancelled", w.remote)
		return finishWorker
	}
}

func serveLogin(w *Worker) stateFunc {
	if err := w.reader.ReadHeaders(); err != nil {
		return w.requestFailed(err)
	}
	body, err := w.reader.ReadBody(w.cfg.MaxBodyBytes)
	if err != nil {
		return w.requestFailed(err)
	}
	w.res = w.site.authenticate(body)
	return sendResponse
}

func sendResponse(w *Worker) stateFunc {
	defer w.res.Close()
	w.setWriteDeadline()
	if w.cancelled() {
		log.Printf("W %s: cancelled before %d was sent", w.remote, w.res.Status)
		return finishWorker
	}

	sent, err := WriteResponse(w.conn, w.res)
	recordResponse(w.res, sent)
	if err != nil {
		log.Printf("E %s: %v", w.remote, err)
		return finishWorker
	}
	log.Printf("I %s %d %s", w.remote, w.res.Status, w.res.Phrase)
	return finishWorker
}

func finishWorker(w *Worker) stateFunc {
	if w.req != nil {
		w.lingerClose()
	}
	if err := w.conn.Close(); err != nil {
		log.Printf("W %s: close: %v", w.remote, err)
	}
	return nil
}

// lingerClose half-closes a TCP connection and drains what the client is
// still sending. Closing with unread input makes the kernel reset the
// connection, which can destroy a response the client has not read yet.
func (w *Worker) lingerClose() {
	cw, ok := w.conn.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	if err := cw.CloseWrite(); err != nil {
		return
	}
	w.conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.Copy(io.Discard, io.LimitReader(w.conn, lingerMaxBytes))
}
