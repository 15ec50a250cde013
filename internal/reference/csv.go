package reference

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// MinRemoteRows is the smallest mirror table accepted as a real dataset
const MinRemoteRows = 100

// ErrTooFewRows is returned when a mirror responds with a suspiciously small table
var ErrTooFewRows = errors.New("mirror returned too few rows")

// DefaultMirrors are public CSV copies of the layoffs.fyi tracker
var DefaultMirrors = []string{
	"https://raw.githubusercontent.com/justinjm/layoffs-decoded/main/data/layoffs_fyi.csv",
	"https://raw.githubusercontent.com/Sayan-003/layoff/main/data/layoffs.csv",
}

// ReadTable parses a CSV stream into a header and rows
func ReadTable(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrMissingColumns
	}
	return records[0], records[1:], nil
}

// CSVFile reads events from a local CSV, such as a previously saved layoffs table
type CSVFile struct {
	Path string
}

func (f CSVFile) Name() string { return DatasetCSV + ":" + f.Path }

// Events opens and cleans the file
func (f CSVFile) Events(ctx context.Context) ([]models.ReferenceEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer file.Close()

	header, rows, err := ReadTable(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return Clean(header, rows, f.Path)
}

// Remote downloads the first usable mirror
type Remote struct {
	client  *resty.Client
	mirrors []string
	minRows int
}

// NewRemote creates a mirror-backed dataset
func NewRemote(mirrors []string, timeout time.Duration) *Remote {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "layoffs-tracker/1.0")

	return &Remote{client: client, mirrors: mirrors, minRows: MinRemoteRows}
}

func (r *Remote) Name() string { return DatasetRemote }

// Events tries mirrors in order and returns the first table with enough rows
func (r *Remote) Events(ctx context.Context) ([]models.ReferenceEvent, error) {
	var errs []error
	for _, url := range r.mirrors {
		events, err := r.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logrus.WithError(err).WithField("mirror", url).Warn("Layoffs mirror failed")
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		logrus.WithFields(logrus.Fields{"mirror": url, "events": len(events)}).Info("Fetched layoffs mirror")
		return events, nil
	}
	return nil, errors.Join(errs...)
}

func (r *Remote) fetch(ctx context.Context, url string) ([]models.ReferenceEvent, error) {
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	header, rows, err := ReadTable(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}
	if len(rows) <= r.minRows {
		return nil, fmt.Errorf("%w: %d", ErrTooFewRows, len(rows))
	}
	return Clean(header, rows, url)
}
