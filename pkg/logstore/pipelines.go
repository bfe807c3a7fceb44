package logstore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	fieldDuration = "$data.info.tdur"
	fieldTaskName = "$data.lam_name"
)

func durationSeconds() bson.M {
	return bson.M{"$divide": bson.A{fieldDuration, 1000}}
}

func hasDuration() bson.E {
	return bson.E{Key: "data.info.tdur", Value: bson.M{"$exists": true}}
}

func sessionsPipeline(f SessionFilter) mongo.Pipeline {
	var p mongo.Pipeline
	if f.Host != "" {
		p = append(p, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"data.host_name": f.Host},
			bson.M{"machine.host_name": f.Host},
		}}}})
	}
	return append(p,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$session.id"},
			{Key: "numLogEntries", Value: bson.M{"$sum": 1}},
			{Key: "tstart", Value: bson.M{"$first": "$session.tstart"}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "tstart", Value: -1}, {Key: "_id", Value: 1}}}},
	)
}

func entriesPipeline(sessionID string, since float64) mongo.Pipeline {
	match := bson.D{{Key: "session.id", Value: sessionID}}
	if since > 0 {
		match = append(match, bson.E{Key: "timestamp", Value: bson.M{"$gt": since}})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
	}
}

func sessionStatsPipeline(sessionID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "session.id", Value: sessionID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "entries", Value: bson.M{"$sum": 1}},
			{Key: "invocations", Value: bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{bson.M{"$type": fieldDuration}, bson.A{"missing", "null"}}}, 0, 1,
			}}}},
			{Key: "maxDuration", Value: bson.M{"$max": durationSeconds()}},
			{Key: "sumDuration", Value: bson.M{"$sum": durationSeconds()}},
			{Key: "avgDuration", Value: bson.M{"$avg": durationSeconds()}},
			{Key: "sdDuration", Value: bson.M{"$stdDevSamp": durationSeconds()}},
		}}},
	}
}

func taskTypeStatsPipeline(sessionID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "session.id", Value: sessionID}, hasDuration()}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: fieldTaskName},
			{Key: "invocations", Value: bson.M{"$sum": 1}},
			{Key: "minDuration", Value: bson.M{"$min": durationSeconds()}},
			{Key: "maxDuration", Value: bson.M{"$max": durationSeconds()}},
			{Key: "sumDuration", Value: bson.M{"$sum": durationSeconds()}},
			{Key: "avgDuration", Value: bson.M{"$avg": durationSeconds()}},
			{Key: "sdDuration", Value: bson.M{"$stdDevSamp": durationSeconds()}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func durationsPipeline(q DurationsQuery) mongo.Pipeline {
	match := bson.D{hasDuration()}
	if len(q.Sessions) > 0 {
		match = append(match, bson.E{Key: "session.id", Value: bson.M{"$in": q.Sessions}})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: fieldTaskName},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "mean_duration", Value: bson.M{"$avg": fieldDuration}},
			{Key: "sd_duration", Value: bson.M{"$stdDevSamp": fieldDuration}},
			{Key: "data", Value: bson.M{"$push": bson.D{
				{Key: "session_id", Value: "$session.id"},
				{Key: "duration", Value: durationSeconds()},
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gte": q.minCount()}}}},
	}
}
