// Package mongo implements store.Store on the official MongoDB driver.
// Suitable for deployments that need durable runs and schedules across
// process restarts.
//
// Run logs are stored embedded in the run document and appended with
// $push, so concurrent appends from the execution goroutine and reads
// from the API never lose entries.
//
//	client, _ := mongod.Connect(options.Client().ApplyURI(uri))
//	store := mongo.New(client, "conduct")
//	store.Migrate(ctx)
package mongo
