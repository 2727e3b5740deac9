package query

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/pkg/errors"
)

// DecodeFunc maps a raw item to a caller value. The default decodes into
// map[string]any.
type DecodeFunc func(map[string]types.AttributeValue) (any, error)

// DecodeRaw passes raw attribute-value maps through untouched.
func DecodeRaw(item map[string]types.AttributeValue) (any, error) {
	return item, nil
}

// DecodeMap unmarshals an item into a plain map[string]any.
func DecodeMap(item map[string]types.AttributeValue) (any, error) {
	out := make(map[string]any, len(item))
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResultIterator yields decoded items across pages. It is single-pass and
// non-restartable; iterating again requires a new iterator. At most limit
// items are yielded in total, and excess items in an over-fetched final
// page are discarded without another fetch.
type ResultIterator struct {
	pages       *PageIterator
	decode      DecodeFunc
	keyAttrs    []string
	buffer      []map[string]types.AttributeValue
	bufIdx      int
	lastYielded map[string]types.AttributeValue
	remaining   int32
	limited     bool
	fetched     bool
	done        bool
}

// NewResultIterator wraps a page iterator. limit of zero means unbounded.
// keyAttrs names the attributes that form a continuation key for this
// access path; they rebuild the resume token when the limit cuts a page
// short.
func NewResultIterator(pages *PageIterator, decode DecodeFunc, limit int32, keyAttrs []string) *ResultIterator {
	if decode == nil {
		decode = DecodeMap
	}
	return &ResultIterator{
		pages:     pages,
		decode:    decode,
		keyAttrs:  keyAttrs,
		remaining: limit,
		limited:   limit > 0,
	}
}

// Next returns the next decoded item, or ErrIteratorExhausted once the
// stream ends.
func (r *ResultIterator) Next(ctx context.Context) (any, error) {
	for {
		if r.done {
			return nil, errors.ErrIteratorExhausted
		}
		if r.limited && r.remaining == 0 {
			r.done = true
			return nil, errors.ErrIteratorExhausted
		}

		if r.bufIdx < len(r.buffer) {
			item := r.buffer[r.bufIdx]
			r.bufIdx++
			r.lastYielded = item
			if r.limited {
				r.remaining--
			}
			return r.decode(item)
		}

		if r.pages.Exhausted() {
			r.done = true
			return nil, errors.ErrIteratorExhausted
		}
		page, err := r.pages.Next(ctx)
		if err != nil {
			r.done = true
			return nil, err
		}
		r.fetched = true
		r.buffer = page.Items
		r.bufIdx = 0
	}
}

// All drains the iterator into a slice.
func (r *ResultIterator) All(ctx context.Context) ([]any, error) {
	var out []any
	for {
		item, err := r.Next(ctx)
		if err != nil {
			if err == errors.ErrIteratorExhausted {
				return out, nil
			}
			return out, err
		}
		out = append(out, item)
	}
}

// TotalCount reports server-matched rows across fetched pages, even when
// the limit truncated the yielded stream.
func (r *ResultIterator) TotalCount() int32 { return r.pages.TotalCount() }

// TotalScannedCount reports raw scanned rows across fetched pages.
func (r *ResultIterator) TotalScannedCount() int32 { return r.pages.TotalScannedCount() }

// LastEvaluatedKey returns the continuation key matching the last item
// actually yielded. Valid only after at least one page has been fetched;
// when the limit stopped mid-page the key is rebuilt from that item, not
// taken from the final RPC.
func (r *ResultIterator) LastEvaluatedKey() map[string]types.AttributeValue {
	if !r.fetched {
		return nil
	}
	if r.bufIdx < len(r.buffer) && r.lastYielded != nil {
		return r.keyFromItem(r.lastYielded)
	}
	return r.pages.LastEvaluatedKey()
}

func (r *ResultIterator) keyFromItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(r.keyAttrs) == 0 {
		return item
	}
	key := make(map[string]types.AttributeValue, len(r.keyAttrs))
	for _, attr := range r.keyAttrs {
		if v, ok := item[attr]; ok {
			key[attr] = v
		}
	}
	return key
}
