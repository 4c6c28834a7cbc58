package connector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cqlio/dsbulk/internal/record"
)

// CSVSettings is the parsed `connector.csv.*` sub-tree.
type CSVSettings struct {
	URLs               []string
	Header             bool
	Delimiter          rune
	MaxConcurrentFiles int
}

// CSVConnector reads and writes delimiter-separated resources, one
// record per data row, fields named from the header row when Header is
// set and indexed otherwise. Concurrent resources are bounded by
// MaxConcurrentFiles, matching the I/O pool sizing described in §5.
type CSVConnector struct {
	opener   ResourceOpener
	settings CSVSettings
	isRead   bool
}

// NewCSVConnector builds a connector over the given resource opener.
func NewCSVConnector(opener ResourceOpener) *CSVConnector {
	return &CSVConnector{opener: opener}
}

func (c *CSVConnector) Configure(settings Settings, isRead bool) error {
	c.isRead = isRead
	urls, _ := settings["urls"].([]string)
	if urls == nil {
		if u, ok := settings["url"].(string); ok {
			urls = []string{u}
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("connector: csv requires connector.csv.url or connector.csv.urls")
	}
	header, _ := settings["header"].(bool)
	delim := ','
	if d, ok := settings["delimiter"].(rune); ok && d != 0 {
		delim = d
	}
	maxFiles, _ := settings["maxConcurrentFiles"].(int)
	if maxFiles <= 0 {
		maxFiles = 4
	}
	c.settings = CSVSettings{URLs: urls, Header: header, Delimiter: delim, MaxConcurrentFiles: maxFiles}
	return nil
}

func (c *CSVConnector) Init(ctx context.Context) error { return nil }

func (c *CSVConnector) Close() error { return nil }

func (c *CSVConnector) Read(ctx context.Context) (<-chan *record.Record, error) {
	out := make(chan *record.Record)
	sem := semaphore.NewWeighted(int64(c.settings.MaxConcurrentFiles))

	go func() {
		defer close(out)
		var wg sync.WaitGroup
		for _, uri := range c.settings.URLs {
			uri := uri
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				c.readOne(ctx, uri, out)
			}()
		}
		wg.Wait()
	}()

	return out, nil
}

func (c *CSVConnector) readOne(ctx context.Context, uri string, out chan<- *record.Record) {
	rc, err := c.opener.Open(ctx, uri)
	if err != nil {
		out <- record.NewError(uri, uri, 1, err)
		return
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.Comma = c.settings.Delimiter

	var header []string
	position := int64(1)

	if c.settings.Header {
		h, err := reader.Read()
		if err != nil {
			out <- record.NewError(uri, uri, position, fmt.Errorf("connector: reading csv header: %w", err))
			return
		}
		header = h
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			out <- record.NewError(uri, uri, position, fmt.Errorf("connector: reading csv row: %w", err))
			position++
			continue
		}

		rec := record.New(uri, uri, position)
		for i, v := range row {
			var field record.Field
			if header != nil && i < len(header) {
				field = record.NameField(header[i])
			} else {
				field = record.IndexField(i)
			}
			_ = rec.Set(field, v)
		}
		out <- rec
		position++
	}
}

func (c *CSVConnector) Write(ctx context.Context) (chan<- *record.Record, <-chan error, error) {
	if len(c.settings.URLs) == 0 {
		return nil, nil, fmt.Errorf("connector: csv write requires connector.csv.url")
	}
	wc, err := c.opener.Create(ctx, c.settings.URLs[0])
	if err != nil {
		return nil, nil, err
	}

	in := make(chan *record.Record)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer wc.Close()

		writer := csv.NewWriter(wc)
		writer.Comma = c.settings.Delimiter
		headerWritten := false

		for rec := range in {
			if rec.IsError() {
				continue
			}
			fields := rec.Fields()
			if c.settings.Header && !headerWritten {
				names := make([]string, len(fields))
				for i, f := range fields {
					names[i] = f.String()
				}
				if err := writer.Write(names); err != nil {
					errCh <- err
					return
				}
				headerWritten = true
			}
			row := make([]string, len(fields))
			for i, f := range fields {
				v, _ := rec.Get(f)
				row[i] = fmt.Sprintf("%v", v)
			}
			if err := writer.Write(row); err != nil {
				errCh <- err
				return
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			errCh <- err
		}
	}()

	return in, errCh, nil
}
