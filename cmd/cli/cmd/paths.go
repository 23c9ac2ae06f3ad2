package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/graphexec/internal/randomdag"
	"github.com/graphexec/pkg/spawn"
	"github.com/graphexec/pkg/utils"
)

var (
	pathsSize    int
	pathsLayers  int
	pathsWidth   int
	pathsSeed    int64
	pathsMode    string
	pathsCompare bool
)

// pathsCmd counts source-to-sink paths through a DAG with dynamic
// traversal, checking the result against a serial baseline.
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Count paths through a DAG with dynamic traversal",
	Long: `Count the number of distinct source-to-sink paths through a DAG.
The graph is discovered on the fly from the sink; the result is checked
against a serial baseline walk.

By default the fixed chain shape is used (--size nodes, node k depending
on k-1 and k-7 where those exist). Passing --layers and --width generates a random
layered DAG instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := uuid.NewString()

		if !cmd.Flags().Changed("mode") {
			pathsMode = "dynamic-" + cfg.Runtime.Mode
		}

		timer := utils.NewTimer("paths")

		var (
			graph *randomdag.Graph
			err   error
		)
		timer.Time("generate", func() {
			if pathsLayers > 0 {
				graph, err = randomdag.Random(pathsLayers, pathsWidth, pathsSeed)
			} else {
				graph, err = randomdag.Chain(pathsSize)
			}
		})
		if err != nil {
			return err
		}

		// The baseline walk is independent of the concurrent runs; overlap
		// them.
		var baseline map[int64]int64
		var eg errgroup.Group
		eg.Go(func() error {
			baseline = randomdag.CountPaths(graph)
			return nil
		})

		modes := []flavor{
			{"dynamic-serial", false, spawn.Serial},
			{"dynamic-parallel", false, spawn.Parallel},
		}
		if !pathsCompare {
			f, err := flavorByName(pathsMode)
			if err != nil {
				return err
			}
			if f.static {
				return fmt.Errorf("paths only supports dynamic modes, got %s", f.name)
			}
			modes = []flavor{f}
		}

		logger.Info("paths run",
			"run_id", runID,
			"nodes", humanize.Comma(int64(graph.NumNodes())),
			"workers", spawn.Workers())

		tracer := otel.Tracer("graphexec/cli")
		type row struct {
			mode    string
			result  randomdag.Result
			elapsed time.Duration
		}
		rows := make([]row, 0, len(modes))
		for _, f := range modes {
			ctx, span := tracer.Start(cmd.Context(), "paths", spanOptions(runID, f.name)...)
			var result randomdag.Result
			elapsed := timer.Time(f.name, func() {
				result = randomdag.Run(ctx, graph, f.mode)
			})
			span.End()
			rows = append(rows, row{f.name, result, elapsed})
		}

		if err := eg.Wait(); err != nil {
			return err
		}
		want := baseline[graph.Root]

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Mode", "Paths", "Baseline", "Longest Path", "Nodes", "Duration"})
		for _, r := range rows {
			if r.result.Paths != want {
				return fmt.Errorf("mode %s: counted %d paths, baseline says %d", r.mode, r.result.Paths, want)
			}
			tw.AppendRow(table.Row{
				r.mode,
				humanize.Comma(r.result.Paths),
				humanize.Comma(want),
				r.result.LongestPath,
				humanize.Comma(int64(r.result.Nodes)),
				r.elapsed.Round(time.Microsecond),
			})
		}
		tw.SetStyle(table.StyleLight)
		tw.Render()
		logger.Debug("run timing", "summary", timer.Summary())
		return nil
	},
}

func init() {
	pathsCmd.Flags().IntVar(&pathsSize, "size", 100, "Node count for the chain shape")
	pathsCmd.Flags().IntVar(&pathsLayers, "layers", 0, "Layer count for a random DAG (0 = use chain shape)")
	pathsCmd.Flags().IntVar(&pathsWidth, "width", 8, "Nodes per layer for a random DAG")
	pathsCmd.Flags().Int64Var(&pathsSeed, "seed", 1, "Seed for random DAG generation")
	pathsCmd.Flags().StringVarP(&pathsMode, "mode", "m", "dynamic-parallel", "Traversal mode")
	pathsCmd.Flags().BoolVar(&pathsCompare, "compare", false, "Run both dynamic modes and compare")
	rootCmd.AddCommand(pathsCmd)
}
