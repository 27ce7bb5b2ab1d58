package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
)

// Stream talks to a long-lived converter process over the line protocol
// served by Server, avoiding one process start per circuit.
type Stream struct {
	scanner *bufio.Scanner
	writer  *bufio.Writer
	closer  io.Closer
	wait    func() error
	nextID  int64
}

// NewStream performs the capabilities handshake over an established
// connection. Closing the stream closes w.
func NewStream(r io.Reader, w io.WriteCloser) (*Stream, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	s := &Stream{
		scanner: scanner,
		writer:  bufio.NewWriter(w),
		closer:  w,
	}

	resp, err := s.readResponse()
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities: %w", err)
	}
	for _, cmd := range []Cmd{CmdQASMToJSON, CmdJSONToQASM} {
		if !slices.Contains(resp.KnownCommands, cmd) {
			return nil, fmt.Errorf("%w: converter does not support %s", ErrConversionFailed, cmd)
		}
	}
	return s, nil
}

// StartStream starts argv as a converter process and connects to it.
func StartStream(ctx context.Context, argv []string) (*Stream, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no converter command configured", ErrConversionFailed)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open converter stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open converter stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %v", ErrConversionFailed, argv[0], err)
	}

	s, err := NewStream(stdout, stdin)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	s.wait = cmd.Wait
	return s, nil
}

func (s *Stream) QASMToJSON(_ context.Context, qasm string) (string, error) {
	out, err := s.call(CmdQASMToJSON, qasm)
	if err != nil {
		return "", err
	}
	return checkJSON(out)
}

func (s *Stream) JSONToQASM(_ context.Context, js string) (string, error) {
	out, err := s.call(CmdJSONToQASM, js)
	if err != nil {
		return "", err
	}
	return checkQASM(out)
}

func (s *Stream) call(cmd Cmd, body string) (string, error) {
	s.nextID++
	id := s.nextID

	if err := writeLine(s.writer, Request{ID: id, Command: cmd, Body: body}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	resp, err := s.readResponse()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	if resp.ID != id {
		return "", fmt.Errorf("%w: response id %d does not match request %d", ErrConversionFailed, resp.ID, id)
	}
	if resp.Err != "" {
		return "", fmt.Errorf("%w: %s", ErrConversionFailed, resp.Err)
	}
	return resp.Body, nil
}

func (s *Stream) readResponse() (*Response, error) {
	line, err := readLine(s.scanner)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w (line: %q)", err, line)
	}
	return &resp, nil
}

// Close asks the converter to exit and waits for it.
func (s *Stream) Close() error {
	s.nextID++
	var errs []error
	if err := writeLine(s.writer, Request{ID: s.nextID, Command: CmdClose}); err == nil {
		if _, err := s.readResponse(); err != nil && err != io.EOF {
			errs = append(errs, err)
		}
	}
	if err := s.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.wait != nil {
		if err := s.wait(); err != nil {
			errs = append(errs, fmt.Errorf("converter exited: %w", err))
		}
	}
	return errors.Join(errs...)
}
