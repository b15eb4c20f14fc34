package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Elastic struct {
	config  config.Backend
	client  *elasticsearch.Client
	retrier *retrier.Retrier
}

func NewElastic(cfg config.Backend) (*Elastic, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	tlsCfg, err := tlsConfig(cfg)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		esCfg.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create elasticsearch client for %s", cfg.Name)
	}
	return &Elastic{
		config:  cfg,
		client:  client,
		retrier: newRetrier(cfg.Retries),
	}, nil
}

func (e *Elastic) Search(ctx context.Context, q Query) (*aggr.Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(q)); err != nil {
		return nil, errors.WithStack(err)
	}
	body := buf.Bytes()
	index := indexName(e.config, q.Catalog)
	log.Debug().Str("index", index).RawJSON("body", bytes.TrimSpace(body)).Msg("elasticsearch search")

	var resp *aggr.Response
	err := e.retrier.RunCtx(ctx, func(ctx context.Context) error {
		req := esapi.SearchRequest{
			Index: []string{index},
			Body:  bytes.NewReader(body),
		}
		res, err := req.Do(ctx, e.client)
		if err != nil {
			return errors.Wrapf(err, "search %s failed", index)
		}
		defer res.Body.Close()
		if res.IsError() {
			msg, _ := io.ReadAll(res.Body)
			return &StatusError{Code: res.StatusCode, Body: string(msg)}
		}
		resp, err = aggr.Decode(res.Body)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("index", index).Msg("elasticsearch search failed")
		return nil, errors.WithStack(err)
	}
	unwrapSource(resp)
	return resp, nil
}

func (e *Elastic) Close() error {
	return nil
}

// searchBody translates q into the elasticsearch query DSL
func searchBody(q Query) map[string]interface{} {
	body := map[string]interface{}{
		"size":             q.HitsSize,
		"track_total_hits": true,
		"query":            esQuery(q),
	}
	if len(q.Catalog.Bulk) > 0 {
		body["_source"] = q.Catalog.Bulk
	}

	var hist map[string]interface{}
	if q.Histogram != nil {
		hist = map[string]interface{}{
			"histogram": map[string]interface{}{
				"field":    q.Histogram.Field,
				"interval": q.Histogram.Interval,
			},
		}
	}

	aggs := make(map[string]interface{})
	for _, name := range q.Terms {
		f, _ := q.Catalog.Field(name)
		terms := map[string]interface{}{
			"terms": map[string]interface{}{
				"field": esField(f),
				"size":  q.termsSize(),
			},
		}
		if hist != nil {
			terms["aggs"] = map[string]interface{}{HistName: hist}
		}
		aggs[name] = terms
	}
	if hist != nil && len(q.Terms) == 0 {
		aggs[HistName] = hist
	}
	for _, name := range q.Stats {
		aggs[name] = map[string]interface{}{
			"stats": map[string]interface{}{"field": name},
		}
	}
	if len(aggs) > 0 {
		body["aggregations"] = aggs
	}
	return body
}

func esQuery(q Query) map[string]interface{} {
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	filters := make([]interface{}, 0, len(names)+1)
	for _, name := range names {
		f, _ := q.Catalog.Field(name)
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{esField(f): typedValue(f, q.Filters[name])},
		})
	}
	if r := q.Range; r != nil && (!r.From.IsZero() || !r.To.IsZero()) {
		bounds := make(map[string]interface{})
		if !r.From.IsZero() {
			bounds["gte"] = r.From.UTC().Format(time.RFC3339)
		}
		if !r.To.IsZero() {
			bounds["lte"] = r.To.UTC().Format(time.RFC3339)
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{r.Field: bounds},
		})
	}
	if len(filters) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
}

// esField picks the keyword sub field of analyzed text fields
func esField(f catalog.Field) string {
	if f.Base == catalog.BaseString && f.Type == "text" {
		return f.Name + ".keyword"
	}
	return f.Name
}

func unwrapSource(resp *aggr.Response) {
	for i, hit := range resp.Hits.Hits {
		if src, ok := hit["_source"].(map[string]interface{}); ok {
			resp.Hits.Hits[i] = src
		}
	}
}
