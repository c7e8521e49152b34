// Package rpc serves host requests as newline-delimited JSON over a pair of
// streams (stdin and stdout in production).
//
// Request:  {"id": <any>, "method": "get_cpu", "args": {...}}
// Response: {"id": <same>, "code": 0|1, "data": <value-or-diagnostic>}
//
// Requests run concurrently on a worker pool, so responses may arrive out
// of order; the id ties them together.
package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/handler"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxLineSize bounds a single request line.
const MaxLineSize = 1 << 20

// Dispatcher executes one host method. *handler.Handler implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, args json.RawMessage) handler.Envelope
}

// Request is one decoded input line.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// Response is one output line.
type Response struct {
	ID   json.RawMessage `json:"id"`
	Code int             `json:"code"`
	Data interface{}     `json:"data"`
}

// Server reads requests and writes responses.
type Server struct {
	dispatcher Dispatcher
	pool       *ants.Pool
	logger     *zap.Logger

	writeMu sync.Mutex
}

// NewServer creates a server whose pool runs at most workers requests at
// once. workers <= 0 means unbounded.
func NewServer(d Dispatcher, workers int, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = -1
	}
	pool, err := ants.NewPool(workers, ants.WithExpiryDuration(60*time.Second))
	if err != nil {
		return nil, fmt.Errorf("rpc: creating worker pool: %w", err)
	}
	return &Server{
		dispatcher: d,
		pool:       pool,
		logger:     logger.Named("rpc"),
	}, nil
}

// Serve handles requests from r until EOF or ctx is cancelled, then waits
// for in-flight requests to finish. Malformed and oversized lines get a
// failure response with a null id and reading continues.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readLine(br, MaxLineSize)
		switch {
		case errors.Is(err, errRequestTooLarge):
			s.logger.Warn("Request too large", zap.Int("limit", MaxLineSize))
			s.write(w, Response{Code: handler.CodeFail, Data: err.Error()})
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("rpc: reading requests: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := codec.Unmarshal(line, &req); err != nil {
			s.logger.Warn("Malformed request", zap.Error(err))
			s.write(w, Response{Code: handler.CodeFail, Data: fmt.Sprintf("malformed request: %v", err)})
			continue
		}
		if req.Method == "" {
			s.write(w, Response{ID: req.ID, Code: handler.CodeFail, Data: "missing method"})
			continue
		}

		wg.Add(1)
		err = s.pool.Submit(func() {
			defer wg.Done()
			s.handle(ctx, w, req)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to schedule request", zap.String("method", req.Method), zap.Error(err))
			s.write(w, Response{ID: req.ID, Code: handler.CodeFail, Data: err.Error()})
		}
	}
}

var errRequestTooLarge = errors.New("request too large")

// readLine returns the next line without its terminator. A final line
// without a newline is still returned; io.EOF comes only once nothing is
// left. A line longer than limit is consumed through its newline and
// reported as errRequestTooLarge.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > limit {
				tooLong, line = true, nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && (tooLong || len(line) > 0) {
			err = nil
		}
		if err != nil {
			return nil, err
		}
		if tooLong {
			return nil, errRequestTooLarge
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}

// Close releases the worker pool.
func (s *Server) Close() {
	s.pool.Release()
}

func (s *Server) handle(ctx context.Context, w io.Writer, req Request) {
	start := time.Now()
	env := s.dispatcher.Dispatch(ctx, req.Method, req.Args)
	s.logger.Debug("Request served",
		zap.String("method", req.Method),
		zap.Int("code", env.Code),
		zap.Duration("took", time.Since(start)))
	s.write(w, Response{ID: req.ID, Code: env.Code, Data: env.Data})
}

func (s *Server) write(w io.Writer, resp Response) {
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	b, err := codec.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		b, _ = codec.Marshal(Response{ID: resp.ID, Code: handler.CodeFail, Data: fmt.Sprintf("encoding response: %v", err)})
	}
	b = append(b, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := w.Write(b); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
