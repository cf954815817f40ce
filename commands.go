package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/config"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/nav"
	"github.com/o0olele/voxnav-go/query"
	"github.com/o0olele/voxnav-go/server"
)

var (
	configPath   string
	addr         string
	outPath      string
	snapshotPath string
	fromArg      string
	toArg        string
	allowArg     string

	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "voxnav",
		Short:         "Hierarchical voxel navigation graph builder and pathfinder",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg = config.Default()
			}
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			slog.SetDefault(logger)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Generate the navigation graph and serve the HTTP API",
		RunE:  runServe,
	}

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the navigation graph and write a snapshot",
		RunE:  runBuild,
	}

	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "Find a path between two world positions",
		RunE:  runPath,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")

	buildCmd.Flags().StringVarP(&outPath, "out", "o", "navgraph.vnav", "Snapshot output file")

	pathCmd.Flags().StringVar(&fromArg, "from", "", "Start position x,y,z in world units")
	pathCmd.Flags().StringVar(&toArg, "to", "", "Goal position x,y,z in world units")
	pathCmd.Flags().StringVar(&allowArg, "allow", "", "Allowed jump styles, e.g. jumpup,jumpdown or all")
	pathCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Load the graph from a snapshot instead of generating it")
	_ = pathCmd.MarkFlagRequired("from")
	_ = pathCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(serveCmd, buildCmd, pathCmd)
}

func newManager(ctx context.Context) (*query.NavigationManager, server.VoxelEditor, error) {
	world, err := cfg.NewWorld()
	if err != nil {
		return nil, nil, err
	}
	m, err := query.NewNavigationManager(world, cfg.QueryOptions(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := m.Generate(ctx); err != nil {
		return nil, nil, err
	}
	return m, world, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, world, err := newManager(ctx)
	if err != nil {
		return err
	}

	listen := cfg.Server.Addr
	if addr != "" {
		listen = addr
	}
	return server.New(m, world, logger).ListenAndServe(ctx, listen)
}

func runBuild(cmd *cobra.Command, args []string) error {
	world, err := cfg.NewWorld()
	if err != nil {
		return err
	}
	graph, err := builder.BuildAndSave(cmd.Context(), cfg.BuilderOptions(logger), world, outPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d links, %d levels, world %s\n",
		outPath, graph.NodeCount(), graph.LinkCount(), graph.Levels(), world.Bounds())
	return nil
}

func runPath(cmd *cobra.Command, args []string) error {
	from, err := parseVector(fromArg)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseVector(toArg)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	allowed, err := nav.ParsePermissions(strings.Split(allowArg, ",")...)
	if err != nil {
		return fmt.Errorf("--allow: %w", err)
	}

	var m *query.NavigationManager
	if snapshotPath != "" {
		world, werr := cfg.NewWorld()
		if werr != nil {
			return werr
		}
		m, err = query.LoadAndQuery(snapshotPath, world, cfg.QueryOptions(logger))
	} else {
		m, _, err = newManager(cmd.Context())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !m.PathExists(from, to, allowed) {
		fmt.Fprintln(out, "no path: endpoints are not connected")
		return nil
	}
	result := m.FindPathDebug(from, to, allowed)
	if !result.Found {
		fmt.Fprintf(out, "no path with permissions %s\n", allowed)
		return nil
	}

	fmt.Fprintf(out, "path of %d nodes, cost %.1f, %d expanded\n", len(result.Path), result.Cost, len(result.Visited))
	for _, p := range m.Waypoints(result.Path) {
		fmt.Fprintln(out, p)
	}
	return nil
}

func parseVector(s string) (math32.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math32.Vector3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math32.Vector3{}, fmt.Errorf("invalid component %q: %w", p, err)
		}
		v[i] = float32(f)
	}
	return math32.Vector3{X: v[0], Y: v[1], Z: v[2]}, nil
}
