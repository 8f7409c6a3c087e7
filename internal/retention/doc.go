// Package retention decides which backup artifacts in a remote location are
// kept and which are deleted, and hands the deletions to the remote store.
//
// A run is a single pass with no state carried between invocations:
//
//  1. BuildCatalog lists the remote location, admits artifacts whose name
//     carries the configured prefix and an archive suffix, parses the
//     creation time out of the name and orders the result newest first.
//  2. A Policy (forever, count, days or smart) computes the deletion subset
//     from the catalog. Policies are pure and never reorder their input.
//  3. The Deleter logs one audit line per scheduled artifact and issues a
//     single batch delete against the store.
//
// Artifacts whose date cannot be parsed never enter the catalog, so they are
// never deleted. A failed listing yields an empty catalog and therefore no
// deletions.
//
// Example usage:
//
//	engine := retention.NewEngine(store, retention.Options{
//		Prefix:  "vaultwarden",
//		Policy:  retention.NewCountPolicy(30),
//		Timeout: time.Minute,
//	}, logger)
//
//	result, err := engine.Run(ctx)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("deleted %d of %d artifacts\n", result.ArtifactsDeleted, result.ArtifactsProcessed)
//
// The engine must not run concurrently with jobs producing new artifacts in
// the same location; a partially written archive may otherwise be listed.
// Scheduling the two apart is the operator's responsibility.
package retention
