package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Cmd represents a conversion protocol command.
type Cmd string

const (
	CmdQASMToJSON = Cmd("qasm_to_json")
	CmdJSONToQASM = Cmd("json_to_qasm")
	CmdClose      = Cmd("close")
)

// Request is one line sent by a Stream client.
type Request struct {
	ID      int64
	Command Cmd
	Body    string `json:",omitempty"`
}

// Response is one line sent back by a Server.
type Response struct {
	ID            int64  `json:",omitempty"`
	Err           string `json:",omitempty"`
	KnownCommands []Cmd  `json:",omitempty"`
	Body          string `json:",omitempty"`
}

// Circuit texts are sent inline, so lines can be large.
const maxLineSize = 10 * 1024 * 1024

// Server answers conversion requests read line by line from r, one JSON
// object per line, using conv for the actual work.
type Server struct {
	conv    Converter
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(conv Converter, r io.Reader, w io.Writer) *Server {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Server{
		conv:    conv,
		scanner: scanner,
		writer:  bufio.NewWriter(w),
	}
}

// SendResponse writes a response line.
func (s *Server) SendResponse(resp Response) error {
	return writeLine(s.writer, resp)
}

// SendInitialResponse advertises the supported commands.
func (s *Server) SendInitialResponse() error {
	return s.SendResponse(Response{
		ID:            0,
		KnownCommands: []Cmd{CmdQASMToJSON, CmdJSONToQASM, CmdClose},
	})
}

// ReadRequest reads the next non-empty request line.
func (s *Server) ReadRequest() (*Request, error) {
	line, err := readLine(s.scanner)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w (line: %q)", err, line)
	}
	return &req, nil
}

// HandleRequest processes a single request and sends a response.
func (s *Server) HandleRequest(ctx context.Context, req *Request) error {
	var resp Response
	resp.ID = req.ID

	var (
		out string
		err error
	)
	switch req.Command {
	case CmdQASMToJSON:
		out, err = s.conv.QASMToJSON(ctx, req.Body)
	case CmdJSONToQASM:
		out, err = s.conv.JSONToQASM(ctx, req.Body)
	case CmdClose:
		// Will exit after sending response
	default:
		err = fmt.Errorf("unknown command: %s", req.Command)
	}
	if err != nil {
		resp.Err = err.Error()
	} else {
		resp.Body = out
	}

	return s.SendResponse(resp)
}

// Run sends the capabilities line and serves requests until EOF or close.
func (s *Server) Run(ctx context.Context) error {
	if err := s.SendInitialResponse(); err != nil {
		return fmt.Errorf("failed to send initial response: %w", err)
	}

	for {
		req, err := s.ReadRequest()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}

		if err := s.HandleRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to handle request: %w", err)
		}

		if req.Command == CmdClose {
			break
		}
	}

	return nil
}

func writeLine(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return w.Flush()
}

// readLine returns the next non-blank line, or io.EOF.
func readLine(scanner *bufio.Scanner) (string, error) {
	for {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read line: %w", err)
			}
			return "", io.EOF
		}

		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}
