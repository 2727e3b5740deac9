package query

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// PageIterator fetches pages one RPC at a time. Each call to Next issues
// exactly one RPC; no fetch happens until Next is called, and no fetch
// begins before the previous page's continuation key is known.
//
// The Limit sent on the wire is fixed for the iterator's lifetime: the page
// size when one is set, otherwise the caller's overall limit. Truncating
// the stream at the overall limit is the ResultIterator's job.
type PageIterator struct {
	exec              *Executor
	req               *core.CompiledRequest
	resumeKey         map[string]types.AttributeValue
	sendLimit         *int32
	pagesFetched      int
	totalCount        int32
	totalScannedCount int32
	exhausted         bool
}

// NewPageIterator builds a page iterator for a compiled request. limit and
// pageSize of zero mean unbounded; startKey resumes a previous iteration.
func NewPageIterator(exec *Executor, req *core.CompiledRequest, limit, pageSize int32, startKey map[string]types.AttributeValue) *PageIterator {
	var sendLimit *int32
	switch {
	case pageSize > 0:
		sendLimit = &pageSize
	case limit > 0:
		sendLimit = &limit
	}
	return &PageIterator{
		exec:      exec,
		req:       req,
		resumeKey: startKey,
		sendLimit: sendLimit,
	}
}

// Next fetches the next page. After the final page it returns
// ErrIteratorExhausted.
func (it *PageIterator) Next(ctx context.Context) (*core.Page, error) {
	if it.exhausted {
		return nil, errors.ErrIteratorExhausted
	}

	page, err := it.exec.FetchPage(ctx, it.req, it.resumeKey, it.sendLimit)
	if err != nil {
		return nil, err
	}

	it.pagesFetched++
	it.totalCount += page.Count
	it.totalScannedCount += page.ScannedCount
	it.resumeKey = page.LastEvaluatedKey
	if !page.HasMore() {
		it.exhausted = true
	}
	return page, nil
}

// Exhausted reports whether the final page has been fetched.
func (it *PageIterator) Exhausted() bool { return it.exhausted }

// PagesFetched returns the number of RPCs issued so far.
func (it *PageIterator) PagesFetched() int { return it.pagesFetched }

// TotalCount accumulates raw, pre-truncation Count across fetched pages.
func (it *PageIterator) TotalCount() int32 { return it.totalCount }

// TotalScannedCount accumulates raw ScannedCount across fetched pages.
func (it *PageIterator) TotalScannedCount() int32 { return it.totalScannedCount }

// LastEvaluatedKey returns the continuation token of the most recent page.
// It stays readable after exhaustion so a later iteration can resume.
func (it *PageIterator) LastEvaluatedKey() map[string]types.AttributeValue {
	return it.resumeKey
}
