package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// Middleware constructor.
type Middleware func(http.Handler) http.Handler

// ErrorFunc renders err as the response of r.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusResponseWriter records the status code and size of a response.
type statusResponseWriter struct {
	statusCode    int
	responseBytes int
	http.ResponseWriter
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	if sw, ok := w.(*statusResponseWriter); ok {
		return sw
	}
	return &statusResponseWriter{ResponseWriter: w}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.responseBytes += n
	return n, err
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Code returns the status code written, 200 when nothing was written yet.
func (w *statusResponseWriter) Code() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *statusResponseWriter) StatusCodeClass() string {
	class := "XXX"
	switch w.Code() / 100 {
	case 1:
		class = "1XX"
	case 2:
		class = "2XX"
	case 3:
		class = "3XX"
	case 4:
		class = "4XX"
	case 5:
		class = "5XX"
	}
	return class
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if w.statusCode == 0 {
		w.statusCode = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (w *statusResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
