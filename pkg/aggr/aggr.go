package aggr

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrUnknownShape = errors.New("aggregation is neither terms nor stats")

// Stats is a numeric summary aggregation
type Stats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Bucket is one group of a terms aggregation
type Bucket struct {
	Key         Key    `json:"key"`
	KeyAsString string `json:"key_as_string,omitempty"`
	DocCount    int64  `json:"doc_count"`
	// Hist is a second level histogram, passed through untouched
	Hist *Terms `json:"hist,omitempty"`
}

// Terms is a bucketed aggregation, bucket order comes from the backend and is kept
type Terms struct {
	Buckets []Bucket `json:"buckets"`
}

type Kind int

const (
	KindUnknown Kind = iota
	KindStats
	KindTerms
)

// Aggr holds exactly one of Stats or Terms. Backends carry no tag,
// the shape of the JSON object decides.
type Aggr struct {
	Stats *Stats
	Terms *Terms
}

func (a Aggr) Kind() Kind {
	switch {
	case a.Terms != nil:
		return KindTerms
	case a.Stats != nil:
		return KindStats
	}
	return KindUnknown
}

func (a Aggr) MarshalJSON() ([]byte, error) {
	switch a.Kind() {
	case KindTerms:
		return json.Marshal(a.Terms)
	case KindStats:
		return json.Marshal(a.Stats)
	}
	return nil, ErrUnknownShape
}

func (a *Aggr) UnmarshalJSON(data []byte) error {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return errors.Wrap(err, "aggregation is not an object")
	}
	if _, ok := shape["buckets"]; ok {
		var t Terms
		if err := json.Unmarshal(data, &t); err != nil {
			return errors.Wrap(err, "bad terms aggregation")
		}
		*a = Aggr{Terms: &t}
		return nil
	}
	_, hasMin := shape["min"]
	_, hasMax := shape["max"]
	_, hasAvg := shape["avg"]
	if hasMin || hasMax || hasAvg {
		var s Stats
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "bad stats aggregation")
		}
		*a = Aggr{Stats: &s}
		return nil
	}
	return errors.WithStack(ErrUnknownShape)
}
