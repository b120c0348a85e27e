// Package geocode resolves delivery addresses to coordinates.
//
// The pieces compose:
//
//	cache := geocode.NewCache(store, geocode.DefaultSnapshotName)
//	if err := cache.Load(ctx); err != nil { ... }
//	defer cache.Flush(ctx)
//
//	g := geocode.NewCachingGeocoder(geocode.NewNominatim(), cache, logger)
//	res, err := geocode.Batch(ctx, g, addresses)
//	// res.Found feeds clustering, res.Failures are reported back.
//
// A definitive "not found" is a Result with Found == false and is cached,
// so the address is never sent upstream again. Transport errors are
// returned as errors and are not cached.
package geocode
