// Package pipeline builds and executes the multi-stage aggregation queries
// behind every denormalized feed. Builders emit an ordered []Stage that is
// inspectable in tests; Compile turns the sequence into driver form and the
// Paginator runs it with page semantics.
package pipeline

import "go.mongodb.org/mongo-driver/bson"

// Stage is one step of an aggregation. Concrete stages form a closed set of
// tagged variants rather than raw bson so that builders can be unit-tested
// without a storage engine and ordering rules can be checked structurally.
type Stage interface {
	stage()
}

// SearchText is an opaque full-text stage. It must be the first stage of
// any sequence containing it: the search index cannot see documents already
// filtered by earlier stages.
type SearchText struct {
	Index  string
	Fields []string
	Term   string
}

// Match filters documents by a predicate.
type Match struct {
	Predicate bson.D
}

// Lookup joins documents from another collection into an array field.
// An optional sub-pipeline restricts and shapes the joined documents.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     []Stage
}

// Unwind flattens an array field produced by a Lookup into a single value.
type Unwind struct {
	Path string
}

// AddFields derives computed fields (like counts, viewer-relative flags)
// from previously looked-up arrays.
type AddFields struct {
	Fields bson.D
}

// SortKey orders by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders documents. Keys are applied in sequence; builders always
// append the document id as a final descending key so that pagination is
// stable when the primary key has duplicates.
type Sort struct {
	Keys []SortKey
}

// Project enumerates the output allow-list. Anything not named here never
// leaves the pipeline, which is how credential fields stay private.
type Project struct {
	Fields bson.D
}

func (SearchText) stage() {}
func (Match) stage()      {}
func (Lookup) stage()     {}
func (Unwind) stage()     {}
func (AddFields) stage()  {}
func (Sort) stage()       {}
func (Project) stage()    {}
