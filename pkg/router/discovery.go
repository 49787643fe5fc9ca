package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcptap/mcptap/pkg/mcp"
)

// DefaultDiscoveryTimeout bounds a single tools/list round trip.
const DefaultDiscoveryTimeout = 10 * time.Second

// maxDiscoveryBody caps how much of a tools/list response we read.
const maxDiscoveryBody = 4 << 20

// Discoverer populates a routing table by asking upstreams which tools
// they serve.
type Discoverer struct {
	table  *Table
	client *http.Client
	log    *slog.Logger
}

// NewDiscoverer creates a discoverer for the table. A nil client gets a
// default with DefaultDiscoveryTimeout.
func NewDiscoverer(table *Table, client *http.Client, log *slog.Logger) *Discoverer {
	if client == nil {
		client = &http.Client{Timeout: DefaultDiscoveryTimeout}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Discoverer{table: table, client: client, log: log}
}

// Discover issues tools/list to one server and registers the advertised
// tool names. Any failure marks the server degraded and is returned.
func (d *Discoverer) Discover(ctx context.Context, name string) error {
	up, err := d.table.Server(name)
	if err != nil {
		return err
	}

	tools, err := d.listTools(ctx, up)
	if err != nil {
		d.table.MarkDegraded(name)
		d.log.Warn("tool discovery failed", "server", name, "error", err)
		return fmt.Errorf("discover %s: %w", name, err)
	}

	if len(tools) == 0 {
		d.log.Warn("server advertised no tools", "server", name)
		return nil
	}

	if err := d.table.RegisterTools(name, tools); err != nil {
		return err
	}
	d.log.Info("discovered tools", "server", name, "count", len(tools))
	return nil
}

// DiscoverAll runs discovery for every server not named in skip (servers
// whose tools were configured statically). One server failing never
// stops the others; an error is returned only when every attempted
// server failed.
func (d *Discoverer) DiscoverAll(ctx context.Context, skip map[string]bool) error {
	attempted, failed := 0, 0
	for _, up := range d.table.Servers() {
		if skip[up.Name] {
			continue
		}
		attempted++
		if err := d.Discover(ctx, up.Name); err != nil {
			failed++
		}
	}
	if attempted > 0 && failed == attempted {
		return fmt.Errorf("tool discovery failed for all %d servers", attempted)
	}
	return nil
}

// listTools performs the tools/list JSON-RPC round trip.
func (d *Discoverer) listTools(ctx context.Context, up *Upstream) ([]string, error) {
	reqBody, err := json.Marshal(&mcp.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  mcp.MethodToolsList,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, up.URL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mcp.ContentTypeJSON)
	httpReq.Header.Set("Accept", mcp.ContentTypeJSON)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDiscoveryBody))
	if err != nil {
		return nil, err
	}

	var rpcResp mcp.RawResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("invalid tools/list response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	var result mcp.ToolsListResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("invalid tools/list result: %w", err)
	}

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		if tool.Name != "" {
			names = append(names, tool.Name)
		}
	}
	return names, nil
}
