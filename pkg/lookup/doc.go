// Package lookup connects fields to the external lookup service.
//
// A search field's Lookup.Fill maps JSONPath expressions over the record the
// user picked to the ids of the fields those values should populate:
//
//	"lookup": {
//	  "datasource": "payers",
//	  "fill": {"$.plan.code": "planCode", "name": "payerName"}
//	}
//
// Select fields name a datasource whose options are fetched through a
// Resolver, at most once per datasource name.
package lookup
