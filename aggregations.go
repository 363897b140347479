package elasticsearch

import (
	"encoding/json"
	"fmt"
)

// RawAggregations is an undecoded typed-keys aggregation object, as found
// in bucket sub-aggregations. Decode it with Client.DecodeAggregations.
type RawAggregations map[string]json.RawMessage

// ValueAggregation is a single-value metric result (avg, min, max, sum,
// cardinality, value_count).
type ValueAggregation struct {
	Value         *float64 `json:"value"`
	ValueAsString string   `json:"value_as_string,omitempty"`
}

// StatsAggregation is the stats metric result.
type StatsAggregation struct {
	Count int64    `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Sum   float64  `json:"sum"`
}

// TermsAggregation is the terms bucket result.
type TermsAggregation struct {
	DocCountErrorUpperBound int64         `json:"doc_count_error_upper_bound"`
	SumOtherDocCount        int64         `json:"sum_other_doc_count"`
	Buckets                 []TermsBucket `json:"buckets"`
}

// TermsBucket is one terms bucket. Sub-aggregations stay raw; decode
// them with Client.DecodeAggregations.
type TermsBucket struct {
	Key          any             `json:"key"`
	KeyAsString  string          `json:"key_as_string,omitempty"`
	DocCount     int64           `json:"doc_count"`
	Aggregations RawAggregations `json:"-"`
}

// HistogramAggregation is the histogram / date_histogram bucket result.
type HistogramAggregation struct {
	Buckets []HistogramBucket `json:"buckets"`
}

// HistogramBucket is one histogram bucket.
type HistogramBucket struct {
	Key          float64         `json:"key"`
	KeyAsString  string          `json:"key_as_string,omitempty"`
	DocCount     int64           `json:"doc_count"`
	Aggregations RawAggregations `json:"-"`
}

// RangeAggregation is the range bucket result.
type RangeAggregation struct {
	Buckets []RangeBucket `json:"buckets"`
}

// RangeBucket is one range bucket.
type RangeBucket struct {
	Key          string          `json:"key"`
	From         *float64        `json:"from"`
	To           *float64        `json:"to"`
	DocCount     int64           `json:"doc_count"`
	Aggregations RawAggregations `json:"-"`
}

// TopHitsAggregation is the top_hits metric result.
type TopHitsAggregation struct {
	Hits SearchHits `json:"hits"`
}

// DecodeAggregations decodes a raw typed-keys aggregation object (for
// example the sub-aggregations of a bucket) through the client's variant
// registry.
func (c *Client) DecodeAggregations(raw RawAggregations) (map[string]any, error) {
	return c.registry.decodeTyped(CategoryAggregation, raw)
}

// builtinAggregations returns the aggregation variant decoders shipped
// with the client.
func builtinAggregations() []VariantEntry {
	entries := make([]VariantEntry, 0, 16)
	for _, name := range []string{"avg", "min", "max", "sum", "value_count", "cardinality"} {
		entries = append(entries, VariantEntry{
			Category: CategoryAggregation,
			Name:     name,
			Decode:   decodeValueAggregation,
		})
	}
	entries = append(entries,
		VariantEntry{CategoryAggregation, "stats", decodeStatsAggregation},
		VariantEntry{CategoryAggregation, "terms", decodeTermsAggregation},
		VariantEntry{CategoryAggregation, "histogram", decodeHistogramAggregation},
		VariantEntry{CategoryAggregation, "date_histogram", decodeHistogramAggregation},
		VariantEntry{CategoryAggregation, "range", decodeRangeAggregation},
		VariantEntry{CategoryAggregation, "top_hits", decodeTopHitsAggregation},
	)
	return entries
}

func decodeValueAggregation(raw json.RawMessage, name string) (any, error) {
	var agg ValueAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	return &agg, nil
}

func decodeStatsAggregation(raw json.RawMessage, name string) (any, error) {
	var agg StatsAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	return &agg, nil
}

func decodeTermsAggregation(raw json.RawMessage, name string) (any, error) {
	var agg TermsAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	var shape struct {
		Buckets []bucketExtras `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	for i := range agg.Buckets {
		agg.Buckets[i].Aggregations = shape.Buckets[i].subAggregations()
	}
	return &agg, nil
}

func decodeHistogramAggregation(raw json.RawMessage, name string) (any, error) {
	var agg HistogramAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	var shape struct {
		Buckets []bucketExtras `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	for i := range agg.Buckets {
		agg.Buckets[i].Aggregations = shape.Buckets[i].subAggregations()
	}
	return &agg, nil
}

func decodeRangeAggregation(raw json.RawMessage, name string) (any, error) {
	var agg RangeAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	var shape struct {
		Buckets []bucketExtras `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	for i := range agg.Buckets {
		agg.Buckets[i].Aggregations = shape.Buckets[i].subAggregations()
	}
	return &agg, nil
}

func decodeTopHitsAggregation(raw json.RawMessage, name string) (any, error) {
	var agg TopHitsAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("aggregation %q: %w", name, err)
	}
	return &agg, nil
}

// bucketExtras captures the typed-keys sub-aggregation entries of one
// bucket: everything except the fixed bucket fields.
type bucketExtras map[string]json.RawMessage

var fixedBucketFields = map[string]struct{}{
	"key": {}, "key_as_string": {}, "doc_count": {},
	"from": {}, "to": {},
}

func (b bucketExtras) subAggregations() RawAggregations {
	var subs RawAggregations
	for k, v := range b {
		if _, fixed := fixedBucketFields[k]; fixed {
			continue
		}
		if subs == nil {
			subs = make(RawAggregations)
		}
		subs[k] = v
	}
	return subs
}
