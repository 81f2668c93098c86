// Package ownership resolves which principal owns a resource.
//
// A Store knows a fixed set of resource kinds, each mapped to a table, an
// ID column, an owner column and optionally a tenant column. Identifiers are
// validated when the store is built, so lookups only bind the resource and
// tenant IDs. ForResource adapts a kind to middleware.OwnerLookup for
// RequireOwnershipOrAdmin; ForTenantResource scopes the lookup to the
// requested tenant for RequireTenantOwnershipOrAdmin:
//
//	store, err := ownership.NewStore(db, ownership.DriverPostgres, ownership.DefaultKinds(),
//	    ownership.WithCache(10000, 30*time.Second),
//	    ownership.WithMetrics(metrics))
//	guard := middleware.RequireTenantOwnershipOrAdmin("courseId", store.ForTenantResource("courses"))
//
// Successful lookups may be cached for a short TTL; failures never are.
package ownership
