// Package main provides the lens attribution CLI.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/lens/attr"
	"github.com/born-ml/lens/dataset"
	"github.com/born-ml/lens/metrics"
	"github.com/born-ml/lens/tensor"
)

const version = "v0.0.1-dev"

func main() {
	root := &cobra.Command{
		Use:           "lens",
		Short:         "Dataset-level feature attribution",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), explainCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lens %s\n", version)
		},
	}
}

func explainCmd() *cobra.Command {
	var (
		dataPath  string
		labelCol  int
		batchSize int
		flat      bool
		progress  bool
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Attribute a dataset-level metric to input features",
		Long: `Explain attributes the mean model score over a numeric CSV dataset to the
individual feature columns, using feature ablation: each column is replaced
by zero in turn and the change of the corpus-level mean is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			features, labels, err := loadCSV(dataPath, labelCol)
			if err != nil {
				return err
			}
			return explain(features, labels, batchSize, flat, progress)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "numeric CSV file (required)")
	cmd.Flags().IntVar(&labelCol, "label-col", -1, "label column index, -1 for the last column")
	cmd.Flags().IntVar(&batchSize, "batch-size", 32, "rows per batch")
	cmd.Flags().BoolVar(&flat, "flat", false, "print the flat per-feature-group attribution")
	cmd.Flags().BoolVar(&progress, "progress", false, "show per-pass progress")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func explain(features, labels *tensor.RawTensor, batchSize int, flat, progress bool) error {
	ds, err := dataset.NewTensorDataset(features, labels)
	if err != nil {
		return err
	}
	loader, err := dataset.NewBatchLoader(ds, batchSize)
	if err != nil {
		return err
	}

	// Model-free score: the per-row sum of feature values. Ablating a column
	// then shifts the corpus mean by that column's average contribution.
	forward := func(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.SumDim(inputs[0], 1, false)
	}

	da, err := attr.NewDatasetAttribution(attr.NewFeatureAblation(forward))
	if err != nil {
		return err
	}
	result, err := da.Attribute(loader, &attr.DatasetConfig{
		InputRoles:   []attr.InputRole{attr.NeedsAttribution, attr.ExcludedFromForward},
		Reduce:       metrics.SumCount,
		ToMetric:     metrics.MeanAndSum,
		ShowProgress: progress,
		FlatOutput:   flat,
	})
	if err != nil {
		return err
	}

	vals, err := floatRow(result[0])
	if err != nil {
		return err
	}
	nFeatures := result[0].Shape()[len(result[0].Shape())-1]

	header := make([]string, nFeatures)
	row := make([]string, nFeatures)
	for i := 0; i < nFeatures; i++ {
		header[i] = fmt.Sprintf("feature %d", i)
		row[i] = strconv.FormatFloat(vals[i], 'g', 6, 64)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.Append(row)
	table.Render()
	return nil
}

// floatRow returns the first output row of an attribution tensor (the mean
// metric's attribution) as float64 values.
func floatRow(t *tensor.RawTensor) ([]float64, error) {
	row, err := tensor.Narrow(t, 0, 0, 1)
	if err != nil {
		return nil, err
	}
	c, err := tensor.Cast(row, tensor.Float64)
	if err != nil {
		return nil, err
	}
	return tensor.Values[float64](c)
}

// loadCSV reads a numeric CSV into a feature tensor (rows, cols-1) and a
// label tensor (rows,). A non-numeric first record is treated as a header
// and skipped.
func loadCSV(path string, labelCol int) (features, labels *tensor.RawTensor, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) > 0 && !numericRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s contains no data rows", path)
	}

	cols := len(records[0])
	if labelCol < 0 {
		labelCol += cols
	}
	if labelCol < 0 || labelCol >= cols {
		return nil, nil, fmt.Errorf("label column %d out of range for %d columns", labelCol, cols)
	}
	if cols < 2 {
		return nil, nil, fmt.Errorf("%s needs at least one feature column and one label column", path)
	}

	featData := make([]float32, 0, len(records)*(cols-1))
	labelData := make([]float32, 0, len(records))
	for i, rec := range records {
		if len(rec) != cols {
			return nil, nil, fmt.Errorf("row %d has %d columns, expected %d", i+1, len(rec), cols)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			if j == labelCol {
				labelData = append(labelData, float32(v))
			} else {
				featData = append(featData, float32(v))
			}
		}
	}

	features, err = tensor.RawFromSlice(featData, tensor.Shape{len(records), cols - 1})
	if err != nil {
		return nil, nil, err
	}
	labels, err = tensor.RawFromSlice(labelData, tensor.Shape{len(records)})
	if err != nil {
		return nil, nil, err
	}
	return features, labels, nil
}

func numericRecord(rec []string) bool {
	for _, field := range rec {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return false
		}
	}
	return true
}
