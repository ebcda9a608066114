package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guptarohit/asciigraph"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"heatfield/config"
	"heatfield/material"
	"heatfield/mesh"
	"heatfield/server"
	"heatfield/solver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "heatfield",
		Short:         "Transient 2D heat conduction simulator",
		Long:          "heatfield advances a rectangular temperature field with an explicit finite-difference scheme and streams or exports the result.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newServeCmd(), newMaterialsCmd())
	return root
}

func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Explicit flags beat both defaults and the file.
	flags := cmd.Flags()
	if flags.Changed("nx") {
		cfg.Grid.NX, _ = flags.GetInt("nx")
	}
	if flags.Changed("ny") {
		cfg.Grid.NY, _ = flags.GetInt("ny")
	}
	if flags.Changed("material") {
		cfg.Grid.Material, _ = flags.GetString("material")
	}
	if flags.Changed("layout") {
		cfg.Boundary.Layout, _ = flags.GetString("layout")
	}
	if flags.Changed("initial") {
		cfg.Boundary.Initial, _ = flags.GetFloat64("initial")
	}
	if flags.Changed("left") {
		cfg.Boundary.Left, _ = flags.GetFloat64("left")
	}
	if flags.Changed("policy") {
		cfg.Run.Policy, _ = flags.GetString("policy")
	}
	if flags.Changed("time") {
		cfg.Run.Duration, _ = flags.GetFloat64("time")
	}
	if flags.Changed("dt") {
		cfg.Run.Dt, _ = flags.GetFloat64("dt")
	}
	if flags.Changed("workers") {
		cfg.Run.Workers, _ = flags.GetInt("workers")
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		csvPath    string
		profile    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and report the final field",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			reg := material.NewRegistry()
			spec, err := cfg.MeshSpec(reg)
			if err != nil {
				return err
			}
			m, err := mesh.Build(spec)
			if err != nil {
				return err
			}
			policy, err := cfg.Policy()
			if err != nil {
				return err
			}
			s := solver.New(m, policy, cfg.Run.Workers)
			defer s.Close()

			log.WithFields(log.Fields{
				"grid":     fmt.Sprintf("%dx%dx%d", m.NX, m.NY, m.NZ),
				"material": spec.Mtl.Name(),
				"layout":   spec.Layout,
				"policy":   policy,
				"fourier":  s.StabilityNumber(cfg.Run.Dt),
			}).Info("mesh built")

			start := time.Now()
			if err := s.Advance(cfg.Run.Duration, cfg.Run.Dt); err != nil {
				return err
			}
			min, max, ok := m.Extremes()
			fields := log.Fields{
				"simulated": fmt.Sprintf("%gs", cfg.Run.Duration),
				"wall":      time.Since(start).Round(time.Millisecond).String(),
			}
			if ok {
				fields["min"] = min
				fields["max"] = max
			}
			log.WithFields(fields).Info("run finished")

			plane, _ := m.Plane(0)
			if profile {
				printProfile(cmd.OutOrStdout(), plane)
			}
			if csvPath != "" {
				if err := exportCSV(csvPath, plane); err != nil {
					return err
				}
				log.WithField("path", csvPath).Info("field exported")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "ini config file")
	cmd.Flags().StringVar(&csvPath, "csv", "", "export the z=0 plane to a CSV file")
	cmd.Flags().BoolVar(&profile, "profile", false, "plot the mid-row temperature profile")
	cmd.Flags().Int("nx", 0, "grid cells along x")
	cmd.Flags().Int("ny", 0, "grid cells along y")
	cmd.Flags().String("material", "", "material preset name")
	cmd.Flags().String("layout", "", "boundary layout: four-edge or left-edge")
	cmd.Flags().Float64("initial", 0, "initial free-cell temperature, K")
	cmd.Flags().Float64("left", 0, "left-edge temperature, K")
	cmd.Flags().String("policy", "", "boundary policy: fixed-flag or edge-index")
	cmd.Flags().Float64("time", 0, "simulated duration, s")
	cmd.Flags().Float64("dt", 0, "step size, s")
	cmd.Flags().Int("workers", 0, "stencil workers, 0 for one per CPU")
	return cmd
}

// printProfile draws the temperature along the middle row of the plane.
func printProfile(w io.Writer, p *mesh.Plane) {
	row := p.T[len(p.T)/2]
	graph := asciigraph.Plot(row,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("T (K) along y = %g mm", p.YS[len(p.YS)/2])),
	)
	fmt.Fprintln(w, graph)
}

func exportCSV(path string, p *mesh.Plane) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writePlaneCSV(f, p); err != nil {
		return err
	}
	return f.Close()
}

// writePlaneCSV emits one row per cell: x_mm, y_mm, t_k.
func writePlaneCSV(w io.Writer, p *mesh.Plane) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x_mm", "y_mm", "t_k"}); err != nil {
		return err
	}
	for iy, row := range p.T {
		for ix, temp := range row {
			record := []string{
				strconv.FormatFloat(p.XS[ix], 'g', -1, 64),
				strconv.FormatFloat(p.YS[iy], 'g', -1, 64),
				strconv.FormatFloat(temp, 'g', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations to a websocket front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			upgrader := websocket.Upgrader{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				CheckOrigin:     func(r *http.Request) bool { return true },
			}
			s := server.NewServer(cfg.Server.Addr, upgrader, material.NewRegistry())
			return s.Serve()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "ini config file")
	cmd.Flags().StringVar(&addr, "addr", ":9000", "listen address")
	return cmd
}

func newMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List material presets and their properties at 300 K",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := material.NewRegistry()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDENSITY kg/m3\tK W/(m.K)\tC J/(kg.K)\tALPHA m2/s")
			for _, name := range reg.Names() {
				m, err := reg.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%g\t%.4g\t%.4g\t%.4g\n",
					m.Name(), m.Density(), m.Conductivity(300), m.SpecificHeat(300), m.Diffusivity(300))
			}
			return tw.Flush()
		},
	}
}
