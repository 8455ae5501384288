package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
)

// Executor runs compiled pipelines against one collection. The indirection
// keeps the Paginator testable without a storage engine.
type Executor interface {
	Aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error
	Count(ctx context.Context, p mongo.Pipeline) (int64, error)
}

// CollectionExecutor backs an Executor with a live mongo collection.
type CollectionExecutor struct {
	Coll *mongo.Collection
}

func (e *CollectionExecutor) Aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error {
	cursor, err := e.Coll.Aggregate(ctx, p)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (e *CollectionExecutor) Count(ctx context.Context, p mongo.Pipeline) (int64, error) {
	cursor, err := e.Coll.Aggregate(ctx, p)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	var res []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &res); err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Total, nil
}

// Page is the metadata envelope around one result slice.
type Page struct {
	Items       interface{} `json:"items"`
	Page        int64       `json:"page"`
	Limit       int64       `json:"limit"`
	TotalItems  int64       `json:"totalItems"`
	TotalPages  int64       `json:"totalPages"`
	HasNextPage bool        `json:"hasNextPage"`
	HasPrevPage bool        `json:"hasPrevPage"`
}

// Paginator executes a stage sequence with page/limit semantics.
//
// The total count and the page slice are two separate reads with no shared
// snapshot: a write landing between them can shift which documents fall on
// a page. That weak consistency is accepted here; a stronger guarantee
// would need a snapshot read.
type Paginator struct {
	MaxLimit     int64
	MaxQueryTime time.Duration
}

func NewPaginator() *Paginator {
	return &Paginator{
		MaxLimit:     constants.MaxPageSize,
		MaxQueryTime: constants.MaxQueryTime,
	}
}

// Execute counts matches of the stage prefix preceding Sort/Project, then
// runs the full pipeline with skip/limit, decoding items into out (a
// pointer to a slice). Reads run under a bounded deadline; hitting it maps
// to UpstreamTimeout and mutates nothing.
func (p *Paginator) Execute(ctx context.Context, exec Executor, stages []Stage, page, limit int64, out interface{}) (*Page, error) {
	page, limit = p.clamp(page, limit)

	ctx, cancel := context.WithTimeout(ctx, p.MaxQueryTime)
	defer cancel()

	total, err := exec.Count(ctx, countPipeline(stages))
	if err != nil {
		return nil, convertExecErr(err)
	}

	full := Compile(stages)
	full = append(full,
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	)
	if err := exec.Aggregate(ctx, full, out); err != nil {
		return nil, convertExecErr(err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &Page{
		Items:       out,
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}, nil
}

func (p *Paginator) clamp(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	// page*limit must stay inside int64 for the $skip computation.
	if page > math.MaxInt32 {
		page = math.MaxInt32
	}
	if limit < 1 {
		limit = constants.DefaultLimit
	}
	if limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit
}

// countPipeline keeps the stages that decide membership and drops the ones
// that only shape or order output, then appends $count.
func countPipeline(stages []Stage) mongo.Pipeline {
	prefix := make([]Stage, 0, len(stages))
	for _, s := range stages {
		switch s.(type) {
		case Sort, Project:
			continue
		}
		prefix = append(prefix, s)
	}
	compiled := Compile(prefix)
	return append(compiled, bson.D{{Key: "$count", Value: "total"}})
}

func convertExecErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return errno.UpstreamTimeout
	}
	return err
}
