package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// ScriptRPC is the net/rpc interface a script-A/script-B plugin binary
// implements — the handshake and transport are go-plugin's, matching the
// teacher's own plugin wiring (pkg/plugins).
type ScriptRPC interface {
	Invoke(params map[string]any) (string, error)
}

// scriptRPCClient is the client-side stub go-plugin hands back from
// Dispense; it speaks net/rpc to the plugin's server-side ScriptServer.
type scriptRPCClient struct{ client *rpc.Client }

func (c *scriptRPCClient) Invoke(params map[string]any) (string, error) {
	var resp string
	if err := c.client.Call("Plugin.Invoke", params, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// ScriptServer is implemented by the plugin binary; Invoke receives the
// decoded parameters and returns a JSON-encoded result string.
type ScriptServer interface {
	Invoke(params map[string]any, resp *string) error
}

// scriptPlugin is the go-plugin Plugin implementation bridging ScriptRPC
// across the process boundary over net/rpc (go-plugin's simpler transport;
// the gRPC broker is reserved for richer bidirectional plugins).
type scriptPlugin struct {
	Impl ScriptServer
}

func (p *scriptPlugin) Server(*plugin.MuxBroker) (any, error) { return p.Impl, nil }
func (p *scriptPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &scriptRPCClient{client: c}, nil
}

// scriptHandshake pins the plugin protocol version, the same shape as
// hector's pkg/plugins handshake config.
var scriptHandshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SUBSTRATE_SCRIPT_PLUGIN",
	MagicCookieValue: "substrate-script-v1",
}

// ScriptExecutor runs script-A/script-B tools out-of-process via
// hashicorp/go-plugin, one client per impl_config.command, lazily started
// and cached (DESIGN.md: grounded on hector's pkg/plugins wiring).
type ScriptExecutor struct {
	mu      sync.Mutex
	clients map[string]*plugin.Client
	logger  hclog.Logger
}

func NewScriptExecutor(logger hclog.Logger) *ScriptExecutor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ScriptExecutor{clients: make(map[string]*plugin.Client), logger: logger}
}

func (s *ScriptExecutor) Execute(ctx context.Context, t Tool, params map[string]any) (any, error) {
	command, _ := t.ImplConfig["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("tool %q has no impl_config.command", t.Name)
	}

	rpcClient, err := s.clientFor(command)
	if err != nil {
		return nil, err
	}

	dispensed, err := rpcClient.Dispense("script")
	if err != nil {
		return nil, err
	}
	raw, ok := dispensed.(ScriptRPC)
	if !ok {
		return nil, fmt.Errorf("plugin %q did not implement ScriptRPC", command)
	}

	out, err := raw.Invoke(params)
	if err != nil {
		return nil, fmt.Errorf("script tool %q failed: %w", t.Name, err)
	}

	var decoded any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		return out, nil
	}
	return decoded, nil
}

func (s *ScriptExecutor) clientFor(command string) (plugin.ClientProtocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[command]
	if !ok {
		c = plugin.NewClient(&plugin.ClientConfig{
			HandshakeConfig: scriptHandshake,
			Plugins:         map[string]plugin.Plugin{"script": &scriptPlugin{}},
			Cmd:             exec.Command(command),
			Logger:          s.logger,
			AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		})
		s.clients[command] = c
	}
	return c.Client()
}

// Close stops every spawned plugin process.
func (s *ScriptExecutor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.Kill()
	}
}
