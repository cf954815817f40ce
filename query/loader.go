package query

import (
	"fmt"

	"github.com/o0olele/voxnav-go/builder"
)

// LoadAndQuery creates a manager for volume and installs the graph snapshot
// stored in filename, skipping generation.
func LoadAndQuery(filename string, volume Volume, opts Options) (*NavigationManager, error) {
	graph, err := builder.LoadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load navigation graph: %w", err)
	}

	m, err := NewNavigationManager(volume, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create navigation manager: %w", err)
	}

	if err := m.Install(graph); err != nil {
		return nil, fmt.Errorf("failed to install navigation graph: %w", err)
	}
	return m, nil
}
