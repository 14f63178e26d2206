package solana

import (
	"fmt"
	"sort"
	"strings"
)

// Network names
const (
	NetworkMainnet = "mainnet-beta"
	NetworkDevnet  = "devnet"
	NetworkTestnet = "testnet"
)

// NormalizeNetwork lowercases a network name and maps "mainnet" to "mainnet-beta".
func NormalizeNetwork(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "mainnet" {
		return NetworkMainnet
	}
	return name
}

// Networks routes a request's network name to the Client for that network.
type Networks struct {
	defaultNetwork string
	clients        map[string]*Client
}

// NewNetworks builds a registry. defaultNetwork must be one of the keys of clients.
func NewNetworks(defaultNetwork string, clients map[string]*Client) (*Networks, error) {
	normalized := make(map[string]*Client, len(clients))
	for name, client := range clients {
		normalized[NormalizeNetwork(name)] = client
	}

	defaultNetwork = NormalizeNetwork(defaultNetwork)
	if _, ok := normalized[defaultNetwork]; !ok {
		return nil, fmt.Errorf("default network %q has no configured client", defaultNetwork)
	}

	return &Networks{
		defaultNetwork: defaultNetwork,
		clients:        normalized,
	}, nil
}

// Get returns the client for name, or for the default network when name is empty.
func (n *Networks) Get(name string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		name = n.defaultNetwork
	}
	client, ok := n.clients[NormalizeNetwork(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q: supported networks are %v", ErrUnknownNetwork, name, n.Names())
	}
	return client, nil
}

// Default returns the default network name.
func (n *Networks) Default() string {
	return n.defaultNetwork
}

// Names returns the configured network names, sorted.
func (n *Networks) Names() []string {
	names := make([]string, 0, len(n.clients))
	for name := range n.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
