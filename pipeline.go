package fdicdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mplosser/data-fdic/dictionary"
	"github.com/mplosser/data-fdic/profile"
	"github.com/mplosser/data-fdic/reader"
	"github.com/mplosser/data-fdic/schema"
)

// Request is the parse-stage input for one dataset.
type Request struct {
	Dataset Dataset

	// Directories for raw input and processed output.
	RawDir string
	OutDir string

	// Overwrite existing output instead of skipping.
	Force bool

	// Clock for the output name and provenance stamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// Status is the terminal state of one dataset's run.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return ""
}

// Outcome is the per-dataset result collected by the driver.
type Outcome struct {
	Dataset string
	Status  Status
	Err     error

	// Set on success.
	Path     string
	Rows     int
	Fields   int
	Warnings *profile.Warnings
	Entries  []dictionary.Entry
}

// Parse runs the parse pipeline for one dataset: locate the latest raw
// file and its schema document, normalize, embed metadata, and write
// the Parquet output. All failures are captured in the outcome; Parse
// never panics across dataset boundaries.
func Parse(r *Request) *Outcome {
	out := &Outcome{Dataset: r.Dataset.Name}

	now := r.Now
	if now == nil {
		now = time.Now
	}

	if !r.Force {
		exists, err := reader.Exists(r.OutDir, r.Dataset.Name+"_*.parquet")
		if err != nil {
			return out.fail(err)
		}
		if exists {
			out.Status = StatusSkipped
			return out
		}
	}

	rawPath, err := reader.LatestFile(r.RawDir, r.Dataset.Name+"_*.json*")
	if err != nil {
		return out.fail(err)
	}
	if rawPath == "" {
		return out.fail(fmt.Errorf("no raw data for %s in %s", r.Dataset.Name, r.RawDir))
	}

	in, err := reader.Open(rawPath, "")
	if err != nil {
		return out.fail(err)
	}

	records, err := LoadRecords(in)
	in.Close()
	if err != nil {
		return out.fail(fmt.Errorf("%s: %w", rawPath, err))
	}

	reg, err := loadRegistry(filepath.Join(r.RawDir, r.Dataset.SchemaFile))
	if err != nil {
		return out.fail(err)
	}

	table, warns := profile.Normalize(records, declaredColumns(reg, r.Dataset))

	generatedAt := now()

	atbl, err := NewArrowTable(r.Dataset.Name, table, reg, generatedAt)
	if err != nil {
		return out.fail(err)
	}
	defer atbl.Release()

	path := filepath.Join(r.OutDir, fmt.Sprintf("%s_%s.parquet", r.Dataset.Name, generatedAt.Format("20060102")))

	skipped, err := WriteParquet(atbl, path, r.Force)
	if err != nil {
		return out.fail(err)
	}
	if skipped {
		out.Status = StatusSkipped
		return out
	}

	out.Status = StatusOK
	out.Path = path
	out.Rows = table.NumRows()
	out.Fields = table.NumCols()
	out.Warnings = warns
	out.Entries = dictionary.Build(r.Dataset.Name, table, reg)

	return out
}

func (o *Outcome) fail(err error) *Outcome {
	o.Status = StatusFailed
	o.Err = err
	return o
}

// loadRegistry loads the dataset's field definitions. A missing
// document is not an error: the dataset is parsed with an empty
// registry, matching how the upstream publishes data before docs.
func loadRegistry(path string) (*schema.Registry, error) {
	reg, err := schema.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return schema.Empty(), nil
		}
		return nil, err
	}
	return reg, nil
}

// declaredColumns applies the dataset's date-field overrides on top of
// the registry declarations. Override fields absent from the registry
// are appended so their M/D/YYYY values still land in date columns.
func declaredColumns(reg *schema.Registry, ds Dataset) []profile.Declared {
	declared := reg.Declared()

	seen := make(map[string]int, len(declared))
	for i, d := range declared {
		seen[d.Name] = i
	}

	for _, name := range ds.DateFields {
		if i, ok := seen[name]; ok {
			declared[i].Type = profile.DateType
		} else {
			declared = append(declared, profile.Declared{Name: name, Type: profile.DateType})
		}
	}

	return declared
}

// RunRequest drives the parse stage across all datasets.
type RunRequest struct {
	RawDir   string
	OutDir   string
	DictPath string
	Force    bool
	Datasets []Dataset
}

// Run parses every dataset, then merges the data dictionary once after
// all pipelines complete. A failure in one dataset never aborts the
// others. The dictionary file is rewritten only when at least one
// dataset produced output, so an all-skipped run touches nothing.
func Run(req *RunRequest) ([]*Outcome, error) {
	datasets := req.Datasets
	if datasets == nil {
		datasets = Datasets
	}

	outcomes := make([]*Outcome, len(datasets))

	var wg sync.WaitGroup
	for i, ds := range datasets {
		wg.Add(1)

		go func(i int, ds Dataset) {
			defer wg.Done()

			defer func() {
				if p := recover(); p != nil {
					outcomes[i] = &Outcome{
						Dataset: ds.Name,
						Status:  StatusFailed,
						Err:     fmt.Errorf("panic: %v", p),
					}
				}
			}()

			outcomes[i] = Parse(&Request{
				Dataset: ds,
				RawDir:  req.RawDir,
				OutDir:  req.OutDir,
				Force:   req.Force,
			})
		}(i, ds)
	}
	wg.Wait()

	// Single-writer dictionary merge after all pipelines complete.
	var wrote bool
	for _, o := range outcomes {
		if o.Status == StatusOK {
			wrote = true
			break
		}
	}

	if wrote && req.DictPath != "" {
		d, err := dictionary.ReadFile(req.DictPath)
		if err != nil {
			return outcomes, err
		}

		for _, o := range outcomes {
			if o.Status == StatusOK {
				d.Merge(o.Entries)
			}
		}

		if err := d.WriteFile(req.DictPath); err != nil {
			return outcomes, err
		}
	}

	return outcomes, nil
}

// Failed reports whether any dataset run failed.
func Failed(outcomes []*Outcome) bool {
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}
