package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type NetworkMetrics struct {
	DNS        time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ConnWait   time.Duration
	Server     time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
	RemoteAddr string
}

// Lines renders the metrics the way the TUI and the diagnostics log show them.
func (m *NetworkMetrics) Lines() []string {
	if m == nil {
		return nil
	}
	reused := ""
	if m.ConnReused {
		reused = " (reused)"
	}
	return []string{
		fmt.Sprintf("conn_wait:  %dms%s", m.ConnWait.Milliseconds(), reused),
		fmt.Sprintf("dns:        %dms", m.DNS.Milliseconds()),
		fmt.Sprintf("tcp:        %dms", m.TCP.Milliseconds()),
		fmt.Sprintf("tls:        %dms", m.TLS.Milliseconds()),
		fmt.Sprintf("server:     %dms", m.Server.Milliseconds()),
		fmt.Sprintf("download:   %dms", m.Download.Milliseconds()),
		fmt.Sprintf("total:      %dms", m.Total.Milliseconds()),
	}
}

// TracedClient is a resty client that records per-request timing.
type TracedClient struct {
	client *resty.Client
}

func NewTracedClient(baseURL string) *TracedClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}).
		SetHeader("Accept", "application/json")
	return &TracedClient{client: c}
}

type TracedResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *NetworkMetrics
}

// R starts a traced request bound to ctx.
func (c *TracedClient) R(ctx context.Context) *resty.Request {
	return c.client.R().SetContext(ctx).EnableTrace()
}

// Do executes req and collects the trace. Only transport failures are
// returned as errors; HTTP status handling is left to the caller.
func (c *TracedClient) Do(req *resty.Request, method, path string) (*TracedResponse, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}

	ti := resp.Request.TraceInfo()
	metrics := &NetworkMetrics{
		DNS:        ti.DNSLookup,
		TCP:        ti.TCPConnTime,
		TLS:        ti.TLSHandshake,
		ConnWait:   ti.ConnTime,
		Server:     ti.ServerTime,
		Download:   ti.ResponseTime,
		Total:      ti.TotalTime,
		ConnReused: ti.IsConnReused,
	}
	if ti.RemoteAddr != nil {
		metrics.RemoteAddr = ti.RemoteAddr.String()
	}

	return &TracedResponse{
		Body:       resp.Body(),
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Metrics:    metrics,
	}, nil
}

func (c *TracedClient) BaseURL() string { return c.client.BaseURL }
