// Package reference provides curated and downloadable layoff event datasets
// used as ground truth for the combined report.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// Dataset names accepted by reference.dataset
const (
	DatasetVerified = "verified"
	DatasetCompiled = "compiled"
	DatasetCSV      = "csv"
	DatasetRemote   = "remote"
	DatasetAuto     = "auto"
)

// ErrNoEvents is returned when no source in a chain produced data
var ErrNoEvents = errors.New("no reference events available")

// Dataset is a source of reference layoff events
type Dataset interface {
	Name() string
	Events(ctx context.Context) ([]models.ReferenceEvent, error)
}

// entry is the compact form of a built-in event
type entry struct {
	org, date string
	count     int
	industry  string
	source    string
}

func (e entry) event(verified bool) models.ReferenceEvent {
	d, err := time.Parse(dateLayout, e.date)
	if err != nil {
		panic(fmt.Sprintf("reference: bad built-in date %q for %s", e.date, e.org))
	}
	return models.ReferenceEvent{
		Organization: e.org,
		Date:         d,
		Magnitude:    e.count,
		Industry:     e.industry,
		Source:       e.source,
		Verified:     verified,
	}
}

type static struct {
	name     string
	entries  []entry
	verified bool
}

func (s static) Name() string { return s.name }

// Events returns a fresh copy on every call
func (s static) Events(ctx context.Context) ([]models.ReferenceEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.ReferenceEvent, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.event(s.verified)
	}
	return out, nil
}

// Verified returns the hand-checked dataset assembled from public timelines
func Verified() Dataset {
	return static{name: DatasetVerified, entries: verifiedEntries, verified: true}
}

// Compiled returns the broader news-compiled dataset. Counts are unverified.
func Compiled() Dataset {
	return static{name: DatasetCompiled, entries: compiledEntries}
}

// Fallback returns the first non-empty result of a chain of datasets
type Fallback struct {
	Datasets []Dataset
}

// Name lists the chain
func (f Fallback) Name() string {
	names := make([]string, len(f.Datasets))
	for i, d := range f.Datasets {
		names[i] = d.Name()
	}
	return strings.Join(names, ",")
}

// Events tries each dataset in order. Failures are logged and skipped.
func (f Fallback) Events(ctx context.Context) ([]models.ReferenceEvent, error) {
	var errs []error
	for _, d := range f.Datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := d.Events(ctx)
		if err != nil {
			logrus.WithError(err).WithField("dataset", d.Name()).Warn("Reference dataset unavailable, trying next")
			errs = append(errs, err)
			continue
		}
		if len(events) > 0 {
			logrus.WithFields(logrus.Fields{"dataset": d.Name(), "events": len(events)}).Info("Loaded reference events")
			return events, nil
		}
	}
	return nil, errors.Join(append([]error{ErrNoEvents}, errs...)...)
}

// New builds the dataset named in configuration
func New(cfg config.ReferenceConfig, timeout time.Duration) (Dataset, error) {
	switch cfg.Dataset {
	case DatasetVerified, "":
		return Verified(), nil
	case DatasetCompiled:
		return Compiled(), nil
	case DatasetCSV:
		return CSVFile{Path: cfg.Path}, nil
	case DatasetRemote:
		return NewRemote(cfg.Mirrors, timeout), nil
	case DatasetAuto:
		return Fallback{Datasets: []Dataset{
			CSVFile{Path: cfg.Path},
			NewRemote(cfg.Mirrors, timeout),
			Compiled(),
		}}, nil
	default:
		return nil, fmt.Errorf("unknown reference dataset %q", cfg.Dataset)
	}
}
