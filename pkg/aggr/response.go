package aggr

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Total is hits.total, a plain integer or the {"value": n} object newer backends send
type Total int64

func (t *Total) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Total(n)
		return nil
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "bad hits.total")
	}
	*t = Total(obj.Value)
	return nil
}

type Hits struct {
	Total Total            `json:"total"`
	Hits  []map[string]any `json:"hits"`
}

// Response is the result of one catalog query
type Response struct {
	Hits         Hits            `json:"hits"`
	Aggregations map[string]Aggr `json:"aggregations,omitempty"`
	// HistSize is only read by the renderer
	HistSize []int64 `json:"histsize"`
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Hits         Hits                       `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
		HistSize     []int64                    `json:"histsize"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "bad catalog response")
	}
	r.Hits = raw.Hits
	r.HistSize = raw.HistSize
	r.Aggregations = nil
	if raw.Aggregations != nil {
		r.Aggregations = make(map[string]Aggr, len(raw.Aggregations))
		for name, msg := range raw.Aggregations {
			var a Aggr
			if err := json.Unmarshal(msg, &a); err != nil {
				return errors.Wrapf(err, "aggregation %s", name)
			}
			r.Aggregations[name] = a
		}
	}
	return nil
}

// Decode reads a Response from JSON
func Decode(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Terms returns the terms aggregation for a field, ok is false when it is
// missing or has the stats shape
func (r *Response) Terms(field string) (*Terms, bool) {
	a, ok := r.Aggregations[field]
	if !ok || a.Terms == nil {
		return nil, false
	}
	return a.Terms, true
}

func (r *Response) Stats(field string) (*Stats, bool) {
	a, ok := r.Aggregations[field]
	if !ok || a.Stats == nil {
		return nil, false
	}
	return a.Stats, true
}
