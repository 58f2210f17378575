package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests. Responses are matched to
// requests by a caller-supplied classifier, falling back to call order.
type MockClient struct {
	mu sync.Mutex

	// Responses are returned in order when Classify is nil.
	Responses []any

	// Classify maps a request to a key in Keyed. Optional.
	Classify func(req ObjectRequest) string

	// Keyed holds responses per classifier key.
	Keyed map[string]any

	// Err, when set, is returned from every call.
	Err error

	// Calls records every request received.
	Calls []ObjectRequest

	next int
}

var _ Client = (*MockClient)(nil)

// GenerateObject replays the scripted response into out via JSON round-trip
// so mocks use the same decode path as real clients.
func (m *MockClient) GenerateObject(_ context.Context, req ObjectRequest, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return m.Err
	}

	var resp any
	if m.Classify != nil {
		key := m.Classify(req)
		v, ok := m.Keyed[key]
		if !ok {
			return fmt.Errorf("mock: no response for key %q", key)
		}
		resp = v
	} else {
		if m.next >= len(m.Responses) {
			return fmt.Errorf("mock: no response for call %d", m.next)
		}
		resp = m.Responses[m.next]
		m.next++
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("mock: marshal response: %w", err)
	}
	return json.Unmarshal(data, out)
}

// CallCount returns the number of requests received.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
