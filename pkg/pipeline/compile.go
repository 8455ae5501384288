package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile lowers a stage sequence into driver form. It is pure: no storage
// access, no mutation of the input.
func Compile(stages []Stage) mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(stages))
	for _, s := range stages {
		out = append(out, compileStage(s))
	}
	return out
}

func compileStage(s Stage) bson.D {
	switch st := s.(type) {
	case SearchText:
		return bson.D{{Key: "$search", Value: bson.D{
			{Key: "index", Value: st.Index},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: st.Term},
				{Key: "path", Value: st.Fields},
			}},
		}}}
	case Match:
		return bson.D{{Key: "$match", Value: st.Predicate}}
	case Lookup:
		doc := bson.D{
			{Key: "from", Value: st.From},
			{Key: "localField", Value: st.LocalField},
			{Key: "foreignField", Value: st.ForeignField},
			{Key: "as", Value: st.As},
		}
		if len(st.Pipeline) > 0 {
			doc = append(doc, bson.E{Key: "pipeline", Value: Compile(st.Pipeline)})
		}
		return bson.D{{Key: "$lookup", Value: doc}}
	case Unwind:
		return bson.D{{Key: "$unwind", Value: "$" + st.Path}}
	case AddFields:
		return bson.D{{Key: "$addFields", Value: st.Fields}}
	case Sort:
		keys := make(bson.D, 0, len(st.Keys))
		for _, k := range st.Keys {
			dir := 1
			if k.Desc {
				dir = -1
			}
			keys = append(keys, bson.E{Key: k.Field, Value: dir})
		}
		return bson.D{{Key: "$sort", Value: keys}}
	case Project:
		return bson.D{{Key: "$project", Value: st.Fields}}
	}
	// The Stage set is closed; an unknown variant is a programming error.
	panic("pipeline: unknown stage variant")
}
