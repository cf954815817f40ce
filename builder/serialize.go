package builder

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/o0olele/voxnav-go/nav"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be decoded into a
// valid graph.
var ErrInvalidSnapshot = errors.New("invalid navigation snapshot")

// maxSnapshotCount bounds every count read from a snapshot so a corrupt
// file cannot trigger a huge allocation.
const maxSnapshotCount = 1 << 28

// Save writes graph to w as a gzip compressed little-endian snapshot.
func Save(w io.Writer, graph *nav.Graph) error {
	if err := graph.Validate(); err != nil {
		return fmt.Errorf("invalid navigation graph: %w", err)
	}

	zw := gzip.NewWriter(w)
	buf := bufio.NewWriter(zw)

	header := FileHeader{
		Magic:   NavigationFileMagic,
		Version: NavigationFileVersion,
	}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// write levels
	if err := binary.Write(buf, binary.LittleEndian, uint32(graph.Levels())); err != nil {
		return fmt.Errorf("failed to write level count: %w", err)
	}
	for l := 0; l < graph.Levels(); l++ {
		level := graph.Level(l)
		rec := compactLevel{Width: uint32(level.Width), Height: uint32(level.Height)}
		if err := binary.Write(buf, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("failed to write level %d: %w", l, err)
		}
	}

	// write nodes, each followed by its links
	if err := binary.Write(buf, binary.LittleEndian, uint32(graph.NodeCount())); err != nil {
		return fmt.Errorf("failed to write node count: %w", err)
	}
	for i := 0; i < graph.NodeCount(); i++ {
		node := graph.Node(nav.NodeID(i))
		if err := binary.Write(buf, binary.LittleEndian, toCompactNode(node)); err != nil {
			return fmt.Errorf("failed to write node %d: %w", i, err)
		}
		for _, link := range node.Siblings() {
			rec := compactLink{Target: int32(link.Target), Permissions: uint8(link.Permissions)}
			if err := binary.Write(buf, binary.LittleEndian, rec); err != nil {
				return fmt.Errorf("failed to write link of node %d: %w", i, err)
			}
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip stream: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. The returned graph is validated and
// frozen.
func Load(r io.Reader) (*nav.Graph, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	defer zr.Close()
	buf := bufio.NewReader(zr)

	var header FileHeader
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", ErrInvalidSnapshot, err)
	}
	if header.Magic != NavigationFileMagic {
		return nil, fmt.Errorf("%w: magic number mismatch", ErrInvalidSnapshot)
	}
	if header.Version != NavigationFileVersion {
		return nil, fmt.Errorf("%w: unsupported file version %d", ErrInvalidSnapshot, header.Version)
	}

	graph := nav.NewGraph()

	levelCount, err := readCount(buf, "level")
	if err != nil {
		return nil, err
	}
	for l := uint32(0); l < levelCount; l++ {
		var rec compactLevel
		if err := binary.Read(buf, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: failed to read level %d: %w", ErrInvalidSnapshot, l, err)
		}
		if rec.Width > maxSnapshotCount || rec.Height > maxSnapshotCount || uint64(rec.Width)*uint64(rec.Height) > maxSnapshotCount {
			return nil, fmt.Errorf("%w: level %d is %dx%d", ErrInvalidSnapshot, l, rec.Width, rec.Height)
		}
		if _, err := graph.AddLevel(int(rec.Width), int(rec.Height)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}

	nodeCount, err := readCount(buf, "node")
	if err != nil {
		return nil, err
	}
	parents := make([]int32, 0, min(nodeCount, 1<<16))
	type pendingLink struct {
		from nav.NodeID
		compactLink
	}
	var links []pendingLink

	for i := uint32(0); i < nodeCount; i++ {
		var rec compactNode
		if err := binary.Read(buf, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: failed to read node %d: %w", ErrInvalidSnapshot, i, err)
		}
		id, err := graph.AddNode(rec.Level, rec.bounds())
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrInvalidSnapshot, i, err)
		}
		parents = append(parents, rec.Parent)

		if rec.LinkCount > maxSnapshotCount {
			return nil, fmt.Errorf("%w: node %d has %d links", ErrInvalidSnapshot, i, rec.LinkCount)
		}
		for j := uint32(0); j < rec.LinkCount; j++ {
			var link compactLink
			if err := binary.Read(buf, binary.LittleEndian, &link); err != nil {
				return nil, fmt.Errorf("%w: failed to read link of node %d: %w", ErrInvalidSnapshot, i, err)
			}
			links = append(links, pendingLink{from: id, compactLink: link})
		}
	}

	for i, parent := range parents {
		if parent == int32(nav.NoNode) {
			continue
		}
		if err := graph.SetParent(nav.NodeID(i), nav.NodeID(parent)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}
	for _, link := range links {
		if nav.NodeID(link.Target) == link.from {
			return nil, fmt.Errorf("%w: node %d links to itself", ErrInvalidSnapshot, link.from)
		}
		if err := graph.LinkSibling(link.from, nav.NodeID(link.Target), nav.LinkPermissions(link.Permissions)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	graph.Freeze()
	return graph, nil
}

func readCount(r io.Reader, what string) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("%w: failed to read %s count: %w", ErrInvalidSnapshot, what, err)
	}
	if n > maxSnapshotCount {
		return 0, fmt.Errorf("%w: %s count %d too large", ErrInvalidSnapshot, what, n)
	}
	return n, nil
}

// SaveFile writes a snapshot of graph to filename.
func SaveFile(filename string, graph *nav.Graph) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Save(f, graph); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a snapshot from filename.
func LoadFile(filename string) (*nav.Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// BuildAndSave builds a graph from volume and writes it to filename.
func BuildAndSave(ctx context.Context, opts Options, volume Volume, filename string) (*nav.Graph, error) {
	b, err := NewBuilder(opts)
	if err != nil {
		return nil, err
	}

	graph, err := b.Build(ctx, volume)
	if err != nil {
		return nil, fmt.Errorf("failed to build navigation graph: %w", err)
	}

	if err := SaveFile(filename, graph); err != nil {
		return nil, fmt.Errorf("failed to save navigation graph: %w", err)
	}
	return graph, nil
}
