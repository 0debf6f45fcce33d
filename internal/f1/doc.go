// Package f1 defines the domain types shared by the collection pipeline,
// the loader and the REST facade: upstream envelopes, flat result rows,
// weather snapshots and the error taxonomy.
package f1
