// Package mongo connects to MongoDB through the official v2 driver and stores
// onboarding drafts as one document per key.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(ctx)
//
//	store := draft.NewStore(mongo.NewStorageFromConfig(client, cfg), schemas)
//
// Healthcheck adapts the client to readiness probes.
package mongo
