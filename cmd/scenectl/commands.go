package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"room-passport/internal/scene/aggregate"
	"room-passport/internal/scene/codec"
	"room-passport/internal/scene/geometry"
	"room-passport/internal/scene/models"
	"room-passport/internal/scene/render"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Root
// ============================================================

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scenectl",
		Short:        "Offline tools for room scene files",
		SilenceUsage: true,
	}

	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newCountCmd())
	root.AddCommand(newRotateCmd())
	root.AddCommand(newRenderCmd())
	return root
}

// loadScene читает файл сцены ("-" означает stdin) и печатает замечания импорта в stderr.
func loadScene(cmd *cobra.Command, path string) (models.Scene, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.Scene{}, fmt.Errorf("read scene: %w", err)
	}

	scene, report, err := codec.Import(data)
	if err != nil {
		return models.Scene{}, err
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: node %d (%s): %s\n", issue.Index, issue.NodeID, issue.Message)
	}
	return scene, nil
}

// writeOutput пишет в файл out или в stdout, если out пуст.
func writeOutput(cmd *cobra.Command, out string, data []byte) error {
	if out == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// ============================================================
// normalize
// ============================================================

func newNormalizeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Import a scene with defaults applied and export it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := codec.Export(scene)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, append(data, '\n'))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// ============================================================
// count
// ============================================================

func newCountCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "count <file>",
		Short: "Print per-type node counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}
			counts := map[string]int(aggregate.Count(scene.Nodes))

			var data []byte
			switch format {
			case "json":
				data, err = json.MarshalIndent(counts, "", "  ")
				data = append(data, '\n')
			case "yaml":
				data, err = yaml.Marshal(counts)
			default:
				return fmt.Errorf("unknown format %q (json|yaml)", format)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json|yaml")
	return cmd
}

// ============================================================
// rotate
// ============================================================

func newRotateCmd() *cobra.Command {
	var (
		ids   []string
		ccw   bool
		times int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "rotate <file>",
		Short: "Rotate selected nodes in 15 degree steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}
			if times < 1 {
				return fmt.Errorf("--times must be positive")
			}
			scene, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, ok := scene.NodeByID(id); !ok {
					return fmt.Errorf("node %q not found", id)
				}
			}

			dir := geometry.Clockwise
			if ccw {
				dir = geometry.CounterClockwise
			}
			selection := geometry.NewSelection(ids...)
			for i := 0; i < times; i++ {
				scene.Nodes = geometry.Rotate(scene.Nodes, selection, dir)
			}

			data, err := codec.Export(scene)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, append(data, '\n'))
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma-separated node ids")
	cmd.Flags().BoolVar(&ccw, "ccw", false, "rotate counter-clockwise")
	cmd.Flags().IntVar(&times, "times", 1, "number of 15 degree steps")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// ============================================================
// render
// ============================================================

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a scene to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}
			svg, err := render.NewRenderer().Render(scene)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, []byte(svg+"\n"))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}
