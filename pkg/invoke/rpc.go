package invoke

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RPCInvoker performs operations by talking JSON-RPC 2.0 over the stdin
// and stdout of a backend subprocess. The process is spawned lazily on
// the first call and reused for the rest of the run; the method name on
// the wire is "Service.Operation".
type RPCInvoker struct {
	Binary string
	Argv   []string

	mu      sync.Mutex
	process *rpcProcess
}

type rpcProcess struct {
	cmd     *exec.Cmd
	stdin   *json.Encoder
	inPipe  io.WriteCloser
	reader  *bufio.Reader
	done    chan struct{}
	nextID  int64
}

// NewRPCInvoker creates an invoker backed by the given command line. The
// process is not started until the first Invoke.
func NewRPCInvoker(binary string, argv ...string) *RPCInvoker {
	return &RPCInvoker{Binary: binary, Argv: argv}
}

// Invoke implements Invoker.
func (r *RPCInvoker) Invoke(ctx context.Context, service, operation string, params map[string]any) (any, error) {
	proc, err := r.ensureProcess(ctx)
	if err != nil {
		return nil, &RemoteOperationError{Service: service, Operation: operation, Err: err}
	}

	raw, err := proc.call(ctx, service+"."+operation, params)
	if err != nil {
		return nil, &RemoteOperationError{Service: service, Operation: operation, Err: err}
	}

	var result any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, &RemoteOperationError{Service: service, Operation: operation,
				Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return result, nil
}

// Shutdown closes the backend's stdin and waits briefly for a clean exit
// before killing it.
func (r *RPCInvoker) Shutdown() {
	r.mu.Lock()
	proc := r.process
	r.process = nil
	r.mu.Unlock()

	if proc == nil {
		return
	}
	proc.inPipe.Close()
	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		proc.kill()
	}
}

func (r *RPCInvoker) ensureProcess(ctx context.Context) (*rpcProcess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.process != nil {
		select {
		case <-r.process.done:
			// Backend died; respawn below.
			r.process = nil
		default:
			return r.process, nil
		}
	}

	if r.Binary == "" {
		return nil, fmt.Errorf("no backend binary configured")
	}

	proc, err := spawnBackend(ctx, r.Binary, r.Argv)
	if err != nil {
		return nil, err
	}
	r.process = proc
	return proc, nil
}

func spawnBackend(ctx context.Context, binary string, argv []string) (*rpcProcess, error) {
	cmd := exec.CommandContext(ctx, binary, argv...)
	cmd.Env = os.Environ()

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", binary, err)
	}

	done := make(chan struct{})
	go func() { cmd.Wait(); close(done) }()

	// Backend diagnostics pass through on our stderr.
	go func() {
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			fmt.Fprintf(os.Stderr, "  [backend:%s] %s\n", binary, scanner.Text())
		}
	}()

	return &rpcProcess{
		cmd:    cmd,
		stdin:  json.NewEncoder(stdinPipe),
		inPipe: stdinPipe,
		reader: bufio.NewReader(stdoutPipe),
		done:   done,
	}, nil
}

// call sends one JSON-RPC request and reads the matching response line.
func (p *rpcProcess) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := atomic.AddInt64(&p.nextID, 1)

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	if err := p.stdin.Encode(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	type readResult struct {
		data json.RawMessage
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			ch <- readResult{err: fmt.Errorf("read response: %w", err)}
			return
		}
		var resp struct {
			Result json.RawMessage `json:"result"`
			Error  *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			ch <- readResult{err: fmt.Errorf("unmarshal: %w (raw: %s)", err, strings.TrimSpace(line))}
			return
		}
		if resp.Error != nil {
			ch <- readResult{err: fmt.Errorf("[%d] %s", resp.Error.Code, resp.Error.Message)}
			return
		}
		ch <- readResult{data: resp.Result}
	}()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, fmt.Errorf("backend process exited")
	}
}

func (p *rpcProcess) kill() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}
