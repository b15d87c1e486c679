package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scipp/scipp-sub001/pkg/config"
	"github.com/scipp/scipp-sub001/pkg/dataset"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/histogram"
	"github.com/scipp/scipp-sub001/pkg/logger"
	"github.com/scipp/scipp-sub001/pkg/transform"
	"github.com/scipp/scipp-sub001/pkg/units"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

var version = "0.1.0"

// unitNames maps the unit tokens accepted in spec files.
var unitNames = map[string]units.Unit{
	"":              units.Dimensionless,
	"dimensionless": units.Dimensionless,
	"m":             units.Meter,
	"s":             units.Second,
	"kg":            units.Kilogram,
	"K":             units.Kelvin,
	"counts":        units.Counts,
}

func parseUnit(name string) (units.Unit, error) {
	u, ok := unitNames[name]
	if !ok {
		return units.Unit{}, fmt.Errorf("unknown unit %q", name)
	}
	return u, nil
}

// variableSpec describes one dense Float64 variable in a dataset spec file.
type variableSpec struct {
	Dims      []string  `yaml:"dims" json:"dims"`
	Shape     []int     `yaml:"shape" json:"shape"`
	Unit      string    `yaml:"unit" json:"unit"`
	Values    []float64 `yaml:"values" json:"values"`
	Variances []float64 `yaml:"variances,omitempty" json:"variances,omitempty"`
}

// datasetSpec is the YAML/JSON shape of a describe input file.
type datasetSpec struct {
	Coords map[string]variableSpec `yaml:"coords" json:"coords"`
	Items  map[string]variableSpec `yaml:"items" json:"items"`
}

func buildVariable(spec variableSpec) (*variable.Variable, error) {
	labels := make([]dims.Dim, len(spec.Dims))
	for i, label := range spec.Dims {
		labels[i] = dims.Dim(label)
	}
	d, err := dims.New(labels, spec.Shape)
	if err != nil {
		return nil, err
	}
	u, err := parseUnit(spec.Unit)
	if err != nil {
		return nil, err
	}
	return variable.FromFloat64s(d, u, spec.Values, spec.Variances)
}

func buildDataset(spec datasetSpec) (*dataset.Dataset, error) {
	ds := dataset.New()
	for name, itemSpec := range spec.Items {
		data, err := buildVariable(itemSpec)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", name, err)
		}
		if err := ds.SetData(name, data); err != nil {
			return nil, fmt.Errorf("item %q: %w", name, err)
		}
	}
	for name, coordSpec := range spec.Coords {
		coord, err := buildVariable(coordSpec)
		if err != nil {
			return nil, fmt.Errorf("coord %q: %w", name, err)
		}
		if err := ds.SetCoord(dims.Dim(name), coord); err != nil {
			return nil, fmt.Errorf("coord %q: %w", name, err)
		}
	}
	return ds, nil
}

// itemSummary is one entry of the describe output.
type itemSummary struct {
	Name      string `json:"name"`
	Dims      string `json:"dims"`
	DType     string `json:"dtype"`
	Unit      string `json:"unit"`
	Volume    int    `json:"volume"`
	Variances bool   `json:"variances"`
}

func describe(specFile string) error {
	var spec datasetSpec
	if err := config.Load(specFile, &spec); err != nil {
		return err
	}
	ds, err := buildDataset(spec)
	if err != nil {
		return err
	}
	summaries := make([]itemSummary, 0, ds.Len())
	for _, name := range ds.Names() {
		item, err := ds.Item(name)
		if err != nil {
			return err
		}
		data := item.Data()
		summaries = append(summaries, itemSummary{
			Name:      name,
			Dims:      data.Dims().String(),
			DType:     data.DType().String(),
			Unit:      data.Unit().String(),
			Volume:    data.Dims().Volume(),
			Variances: data.HasVariances(),
		})
	}
	out, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// histSpec is the JSON shape of a hist input file.
type histSpec struct {
	Unit    string      `json:"unit"`
	Events  [][]float64 `json:"events"`
	Weights [][]float64 `json:"weights,omitempty"`
	Edges   []float64   `json:"edges"`
}

type histOutput struct {
	Edges     []float64   `json:"edges"`
	Counts    [][]float64 `json:"counts"`
	Variances [][]float64 `json:"variances"`
}

func runHist(inputFile string) error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", inputFile, err)
	}
	var spec histSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse input file %s: %w", inputFile, err)
	}
	u, err := parseUnit(spec.Unit)
	if err != nil {
		return err
	}

	eventDims := dims.MustNew([]dims.Dim{"spectrum", "event"},
		[]int{len(spec.Events), dims.RaggedExtent})
	events, err := variable.FromEventLists(eventDims, u, spec.Events)
	if err != nil {
		return err
	}
	var weights *variable.Variable
	if spec.Weights != nil {
		if weights, err = variable.FromEventLists(eventDims, units.Counts, spec.Weights); err != nil {
			return err
		}
	}
	edges, err := variable.FromFloat64s(dims.Of("x", len(spec.Edges)), u, spec.Edges, nil)
	if err != nil {
		return err
	}

	hist, err := histogram.Histogram(events, weights, edges)
	if err != nil {
		return err
	}
	values, err := hist.Data().Buffer().Float64s()
	if err != nil {
		return err
	}
	variances, err := hist.Data().Buffer().Float64Variances()
	if err != nil {
		return err
	}
	nBins := len(spec.Edges) - 1
	out := histOutput{Edges: spec.Edges}
	for i := 0; i < len(spec.Events); i++ {
		out.Counts = append(out.Counts, values[i*nBins:(i+1)*nBins])
		out.Variances = append(out.Variances, variances[i*nBins:(i+1)*nBins])
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var logLevel, engineConfigFile string

	root := &cobra.Command{
		Use:   "scipp",
		Short: "Labeled, unit-aware multidimensional array engine",
		Long: `scipp inspects and processes labeled multidimensional data: datasets of
unit-tagged variables with coordinates, masks and optional variances.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Config{Level: logLevel, Encoding: "json"}); err != nil {
				return err
			}
			if engineConfigFile == "" {
				return nil
			}
			cfg, err := config.LoadEngine(engineConfigFile)
			if err != nil {
				return err
			}
			return transform.Configure(cfg)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "error",
		"Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&engineConfigFile, "config", "",
		"Path to engine configuration YAML file (optional)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scipp v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "units",
		Short: "List the unit tokens accepted in spec files",
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0, len(unitNames))
			for name := range unitNames {
				if name != "" {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
		},
	})

	var describeFile string
	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Summarize a dataset built from a YAML/JSON spec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Get().Debug("describing dataset", zap.String("spec", describeFile))
			return describe(describeFile)
		},
	}
	describeCmd.Flags().StringVarP(&describeFile, "spec", "f", "", "Path to dataset spec file (required)")
	_ = describeCmd.MarkFlagRequired("spec")
	root.AddCommand(describeCmd)

	var histFile string
	histCmd := &cobra.Command{
		Use:   "hist",
		Short: "Histogram event lists from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Get().Debug("histogramming events", zap.String("input", histFile))
			return runHist(histFile)
		},
	}
	histCmd.Flags().StringVarP(&histFile, "input", "i", "", "Path to events JSON file (required)")
	_ = histCmd.MarkFlagRequired("input")
	root.AddCommand(histCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
