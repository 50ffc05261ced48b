package exchange

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// Manager holds the venue clients of a running scan, keyed by name.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]types.ExchangeClient
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]types.ExchangeClient),
	}
}

// Add registers a client under its name.
func (m *Manager) Add(client types.ExchangeClient) error {
	name := client.Name()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return fmt.Errorf("exchange %s already registered", name)
	}
	m.clients[name] = client
	return nil
}

// Get returns the client registered under name.
func (m *Manager) Get(name string) (types.ExchangeClient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[name]
	return client, ok
}

// Names lists the registered venue names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered clients ordered by name.
func (m *Manager) All() []types.ExchangeClient {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	clients := make([]types.ExchangeClient, 0, len(names))
	for _, name := range names {
		clients = append(clients, m.clients[name])
	}
	return clients
}

// Remove drops the client registered under name.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; !exists {
		return fmt.Errorf("exchange %s not found", name)
	}
	delete(m.clients, name)
	return nil
}
