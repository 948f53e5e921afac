// Package mongo provides MongoDB connection management for the notification
// pipeline's document-store boundary.
//
// Events, templates, user settings, and notification records all live in the
// platform's MongoDB instance; this package owns the connection lifecycle so
// the domain packages only deal with *mongo.Database handles.
//
// Key features:
//   - Environment-driven configuration
//   - Built-in retry logic for transient connection failures
//   - Connection pool defaults suited to steady background workloads
//   - Health check integration for container orchestration
//
// # Usage
//
//	cfg := mongo.Config{ConnectionURL: "mongodb://localhost:27017"}
//	db, err := mongo.NewWithDatabase(context.Background(), cfg, "notifications")
//	if err != nil {
//	    log.Fatal(err)
//	}
package mongo
