package mcp

import (
	"bufio"
	"context"
	"io"
	"os"

	"go.uber.org/zap"
)

// StdioServer is the pipe transport: newline-delimited JSON-RPC over a
// single persistent stdin/stdout stream. One client, no authentication; the
// process boundary is the trust boundary. All logging must go to stderr so
// stdout stays a clean protocol channel.
type StdioServer struct {
	server *Server
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

// NewStdioServer creates a pipe transport over the process streams.
func NewStdioServer(server *Server, logger *zap.Logger) *StdioServer {
	return &StdioServer{
		server: server,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger,
	}
}

// Start reads messages until EOF or context cancellation. Responses are
// written in the order their requests arrived; the protocol's newline
// delimiter is the only framing. A malformed line produces a parse-error
// response and the loop keeps serving.
func (s *StdioServer) Start(ctx context.Context) error {
	s.logger.Info("stdio transport ready")

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stdio transport stopping")
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				s.logger.Warn("stdio read failed", zap.Error(err))
				return err
			}
			s.logger.Info("stdio client disconnected")
			return nil
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			resp := s.server.HandleMessage(ctx, line)
			if resp == nil {
				continue
			}
			resp = append(resp, '\n')
			if _, err := s.out.Write(resp); err != nil {
				s.logger.Warn("stdio write failed", zap.Error(err))
				return err
			}
		}
	}
}
