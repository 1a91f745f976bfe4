package runner_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeResponse struct {
	status int
	body   string
	sse    bool
}

// fakeTransport replays responses in order and records every request body.
type fakeTransport struct {
	mu        sync.Mutex
	responses []fakeResponse
	bodies    [][]byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, b)
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("fakeTransport: unexpected request %d", len(f.bodies))
	}
	r := f.responses[0]
	f.responses = f.responses[1:]

	resp := &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Header:     make(http.Header),
		Request:    req,
	}
	if r.sse {
		resp.Header.Set("Content-Type", "text/event-stream")
	} else {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}

func (f *fakeTransport) requests() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.bodies...)
}

func newClientWithTransport(rt http.RoundTripper) *anthropic.Client {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

func sse(events ...string) string {
	var b bytes.Buffer
	for _, ev := range events {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(ev), &head); err != nil {
			panic(err)
		}
		fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", head.Type, ev)
	}
	return b.String()
}

const messageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-7-sonnet-latest","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`

func messageEnd(stopReason string) []string {
	return []string{
		fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%q,"stop_sequence":null},"usage":{"output_tokens":5}}`, stopReason),
		`{"type":"message_stop"}`,
	}
}

// textStream streams one text block split into chunks.
func textStream(chunks ...string) fakeResponse {
	events := []string{
		messageStart,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
	}
	for _, c := range chunks {
		events = append(events, fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, c))
	}
	events = append(events, `{"type":"content_block_stop","index":0}`)
	events = append(events, messageEnd("end_turn")...)
	return fakeResponse{status: 200, body: sse(events...), sse: true}
}

// toolUseStream streams a single tool_use block with the given JSON input.
func toolUseStream(id, name, input string) fakeResponse {
	events := []string{
		messageStart,
		fmt.Sprintf(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":%q,"name":%q,"input":{}}}`, id, name),
		fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":%q}}`, input),
		`{"type":"content_block_stop","index":0}`,
	}
	events = append(events, messageEnd("tool_use")...)
	return fakeResponse{status: 200, body: sse(events...), sse: true}
}

type sentBody struct {
	Stream   bool `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type      string `json:"type"`
			Text      string `json:"text,omitempty"`
			ID        string `json:"id,omitempty"`
			ToolUseID string `json:"tool_use_id,omitempty"`
		} `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name string `json:"name"`
	} `json:"tools"`
}

func decodeBody(t *testing.T, b []byte) sentBody {
	t.Helper()
	var sb sentBody
	if err := json.Unmarshal(b, &sb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, string(b))
	}
	return sb
}
