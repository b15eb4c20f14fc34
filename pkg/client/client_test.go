package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stars = &catalog.Catalog{
	Name: "stars",
	Bulk: []string{"id", "name"},
	Fields: []catalog.Field{
		{Name: "id", Base: catalog.BaseInteger},
		{Name: "name", Type: "text", Base: catalog.BaseString, Terms: true},
		{Name: "status", Base: catalog.BaseInteger, Terms: true, Enum: []string{"Inactive", "Active"}},
		{Name: "mass", Base: catalog.BaseFloat},
		{Name: "seen", Base: catalog.BaseString},
	},
}

func TestQueryValidate(t *testing.T) {
	testCases := []struct {
		name string
		q    Query
		err  error
	}{
		{"ok", Query{Catalog: stars, Terms: []string{"status"}, Stats: []string{"mass"}}, nil},
		{"no catalog", Query{}, catalog.ErrUnknownCatalog},
		{"unknown filter", Query{Catalog: stars, Filters: map[string]string{"color": "red"}}, catalog.ErrUnknownField},
		{"not facetable", Query{Catalog: stars, Terms: []string{"mass"}}, ErrNotFacetable},
		{"unknown terms", Query{Catalog: stars, Terms: []string{"color"}}, catalog.ErrUnknownField},
		{"stats on string", Query{Catalog: stars, Stats: []string{"name"}}, ErrNotNumeric},
		{"histogram on string", Query{Catalog: stars, Histogram: &Histogram{Field: "name", Interval: 1}}, ErrNotNumeric},
		{"unknown range", Query{Catalog: stars, Range: &TimeRange{Field: "when"}}, catalog.ErrUnknownField},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.err), "got %v", err)
		})
	}

	err := Query{Catalog: stars, Histogram: &Histogram{Field: "mass"}}.Validate()
	assert.Error(t, err)
}

func TestSearchBody(t *testing.T) {
	q := Query{
		Catalog:   stars,
		Filters:   map[string]string{"status": "1", "name": "Vega"},
		Terms:     []string{"status"},
		Stats:     []string{"mass"},
		Histogram: &Histogram{Field: "mass", Interval: 0.5},
		Range: &TimeRange{
			Field: "seen",
			From:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		HitsSize:  10,
		TermsSize: 5,
	}
	got, err := json.Marshal(searchBody(q))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 10,
		"track_total_hits": true,
		"_source": ["id", "name"],
		"query": {"bool": {"filter": [
			{"term": {"name.keyword": "Vega"}},
			{"term": {"status": 1}},
			{"range": {"seen": {"gte": "2024-03-01T00:00:00Z"}}}
		]}},
		"aggregations": {
			"status": {
				"terms": {"field": "status", "size": 5},
				"aggs": {"hist": {"histogram": {"field": "mass", "interval": 0.5}}}
			},
			"mass": {"stats": {"field": "mass"}}
		}
	}`, string(got))
}

func TestSearchBodyDefaults(t *testing.T) {
	got, err := json.Marshal(searchBody(Query{
		Catalog:   &catalog.Catalog{Name: "empty"},
		Histogram: &Histogram{Field: "mass", Interval: 10},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 0,
		"track_total_hits": true,
		"query": {"match_all": {}},
		"aggregations": {"hist": {"histogram": {"field": "mass", "interval": 10}}}
	}`, string(got))
}

const esAnswer = `{
	"hits": {"total": {"value": 792, "relation": "eq"}, "hits": [
		{"_index": "cat_stars", "_id": "1", "_source": {"id": 1, "name": "Vega"}}
	]},
	"aggregations": {
		"status": {"buckets": [
			{"key": 1, "doc_count": 482},
			{"key": 0, "doc_count": 310}
		]},
		"mass": {"count": 792, "min": 0.1, "max": 40, "avg": 2.5, "sum": 1980}
	}
}`

func esServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Elastic, *httptest.Server) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	e, err := NewElastic(config.Backend{
		Name:        "test",
		Kind:        config.KindElasticsearch,
		Addresses:   []string{srv.URL},
		IndexPrefix: "cat_",
		Retries:     2,
	})
	require.NoError(t, err)
	return e, srv
}

func TestElasticSearch(t *testing.T) {
	var body map[string]interface{}
	e, _ := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cat_stars/_search", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		_, _ = io.WriteString(w, esAnswer)
	})

	resp, err := e.Search(context.Background(), Query{
		Catalog:  stars,
		Terms:    []string{"status"},
		Stats:    []string{"mass"},
		HitsSize: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 792, resp.Hits.Total)
	require.Len(t, resp.Hits.Hits, 1)
	assert.Equal(t, "Vega", resp.Hits.Hits[0]["name"])

	terms, ok := resp.Terms("status")
	require.True(t, ok)
	require.Len(t, terms.Buckets, 2)
	assert.EqualValues(t, 482, terms.Buckets[0].DocCount)

	stats, ok := resp.Stats("mass")
	require.True(t, ok)
	assert.Equal(t, 40.0, stats.Max)

	assert.Contains(t, body, "aggregations")
}

func TestElasticRetries(t *testing.T) {
	var calls int32
	e, _ := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error": "busy"}`)
			return
		}
		_, _ = io.WriteString(w, esAnswer)
	})

	_, err := e.Search(context.Background(), Query{Catalog: stars})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestElasticBadRequest(t *testing.T) {
	var calls int32
	e, _ := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "bad"}`)
	})

	_, err := e.Search(context.Background(), Query{Catalog: stars})
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err = e.Search(context.Background(), Query{Catalog: stars, Terms: []string{"mass"}})
	assert.True(t, errors.Is(err, ErrNotFacetable))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "invalid query never reaches the backend")
}

func TestClassifier(t *testing.T) {
	c := transientClassifier{}
	assert.Equal(t, retrier.Succeed, c.Classify(nil))
	assert.Equal(t, retrier.Retry, c.Classify(&StatusError{Code: 503}))
	assert.Equal(t, retrier.Retry, c.Classify(errors.Wrap(&StatusError{Code: 429}, "search")))
	assert.Equal(t, retrier.Fail, c.Classify(&StatusError{Code: 404}))
	assert.Equal(t, retrier.Fail, c.Classify(context.Canceled))
	assert.Equal(t, retrier.Fail, c.Classify(errors.New("syntax error")))
}

func TestClickHouseSQL(t *testing.T) {
	q := Query{
		Catalog:   stars,
		Filters:   map[string]string{"status": "1", "name": "Vega"},
		Histogram: &Histogram{Field: "mass", Interval: 0.5},
		HitsSize:  10,
		TermsSize: 5,
	}
	table := "`db`.`cat_stars`"

	where, args := whereClause(q)
	assert.Equal(t, " WHERE `name` = ? AND `status` = ?", where)
	assert.Equal(t, []interface{}{"Vega", int64(1)}, args)

	sqlText, _ := termsSQL(table, q, "status")
	assert.Equal(t, "SELECT toString(`status`) AS key, count() AS doc_count FROM `db`.`cat_stars` WHERE `name` = ? AND `status` = ? GROUP BY key ORDER BY doc_count DESC, key LIMIT 5", sqlText)

	sqlText, _ = nestedHistogramSQL(table, q, "status")
	assert.Equal(t, "SELECT toString(`status`) AS key, floor(`mass` / 0.5) * 0.5 AS hist_key, count() AS doc_count FROM `db`.`cat_stars` WHERE `name` = ? AND `status` = ? GROUP BY key, hist_key ORDER BY key, hist_key", sqlText)

	sqlText, _ = histogramSQL(table, Query{Catalog: stars, Histogram: q.Histogram})
	assert.Equal(t, "SELECT floor(`mass` / 0.5) * 0.5 AS key, count() AS doc_count FROM `db`.`cat_stars` GROUP BY key ORDER BY key", sqlText)

	sqlText, _ = statsSQL(table, Query{Catalog: stars}, "mass")
	assert.Equal(t, "SELECT toFloat64(min(`mass`)), toFloat64(max(`mass`)), avg(`mass`) FROM `db`.`cat_stars`", sqlText)

	sqlText, _ = hitsSQL(table, q, stars.BulkFields())
	assert.Equal(t, "SELECT toString(`id`) AS `id`, toString(`name`) AS `name` FROM `db`.`cat_stars` WHERE `name` = ? AND `status` = ? LIMIT 10", sqlText)
}

func TestClickHouseRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args := whereClause(Query{Catalog: stars, Range: &TimeRange{Field: "seen", From: from}})
	assert.Equal(t, " WHERE `seen` >= ?", where)
	assert.Equal(t, []interface{}{from}, args)
}

func TestClickHouseTable(t *testing.T) {
	c, err := NewClickHouse(config.Backend{Addresses: []string{"localhost:9000"}, Database: "db", IndexPrefix: "cat_"}, "test")
	require.NoError(t, err)
	assert.Equal(t, "`db`.`cat_stars`", c.table(stars))
	assert.Equal(t, "`a\\`b`", quoteIdent("a`b"))
}

func TestBucketKey(t *testing.T) {
	status, _ := stars.Field("status")
	name, _ := stars.Field("name")
	assert.True(t, bucketKey(status, "1").IsNumber())
	assert.False(t, bucketKey(name, "1").IsNumber())
	assert.False(t, bucketKey(status, "n/a").IsNumber())
}

func TestNew(t *testing.T) {
	b, err := New(config.Backend{Kind: config.KindClickHouse, Addresses: []string{"localhost:9000"}}, "test")
	require.NoError(t, err)
	assert.IsType(t, &ClickHouse{}, b)
	require.NoError(t, b.Close())

	b, err = New(config.Backend{Kind: config.KindElasticsearch, Addresses: []string{"http://localhost:9200"}}, "test")
	require.NoError(t, err)
	assert.IsType(t, &Elastic{}, b)

	_, err = New(config.Backend{Name: "x", Kind: "solr"}, "test")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
