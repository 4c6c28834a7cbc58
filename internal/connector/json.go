package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cqlio/dsbulk/internal/record"
)

// JSONSettings is the parsed `connector.json.*` sub-tree: one JSON
// object per line (JSON Lines), matching the CSV connector's one
// record per row model.
type JSONSettings struct {
	URLs               []string
	MaxConcurrentFiles int
}

// JSONConnector reads and writes JSON Lines resources.
type JSONConnector struct {
	opener   ResourceOpener
	settings JSONSettings
}

// NewJSONConnector builds a connector over the given resource opener.
func NewJSONConnector(opener ResourceOpener) *JSONConnector {
	return &JSONConnector{opener: opener}
}

func (c *JSONConnector) Configure(settings Settings, isRead bool) error {
	urls, _ := settings["urls"].([]string)
	if urls == nil {
		if u, ok := settings["url"].(string); ok {
			urls = []string{u}
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("connector: json requires connector.json.url or connector.json.urls")
	}
	maxFiles, _ := settings["maxConcurrentFiles"].(int)
	if maxFiles <= 0 {
		maxFiles = 4
	}
	c.settings = JSONSettings{URLs: urls, MaxConcurrentFiles: maxFiles}
	return nil
}

func (c *JSONConnector) Init(ctx context.Context) error { return nil }

func (c *JSONConnector) Close() error { return nil }

func (c *JSONConnector) Read(ctx context.Context) (<-chan *record.Record, error) {
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

func (c *JSONConnector) readOne(ctx context.Context, uri string, out chan<- *record.Record) {
	rc, err := c.opener.Open(ctx, uri)
	if err != nil {
		out <- record.NewError(uri, uri, 1, err)
		return
	}
	defer rc.Close()

	dec := json.NewDecoder(rc)
	position := int64(1)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				return
			}
			out <- record.NewError(uri, uri, position, fmt.Errorf("connector: decoding json line: %w", err))
			position++
			continue
		}

		rec := record.New(uri, uri, position)
		for k, v := range obj {
			_ = rec.Set(record.NameField(k), v)
		}
		out <- rec
		position++
	}
}

func (c *JSONConnector) Write(ctx context.Context) (chan<- *record.Record, <-chan error, error) {
	if len(c.settings.URLs) == 0 {
		return nil, nil, fmt.Errorf("connector: json write requires connector.json.url")
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

		enc := json.NewEncoder(wc)
		for rec := range in {
			if rec.IsError() {
				continue
			}
			obj := make(map[string]interface{}, rec.Len())
			for _, f := range rec.Fields() {
				v, _ := rec.Get(f)
				obj[f.String()] = v
			}
			if err := enc.Encode(obj); err != nil {
				errCh <- err
				return
			}
		}
	}()

	return in, errCh, nil
}
