// Package document converts between persisted template documents and the
// canonical template tree.
//
// Normalize is total: malformed substructures degrade to empty collections
// instead of failing, so an editor can always render something. Save is its
// inverse and reassigns dense order values right before serialising. The
// persisted shape is an array of sections whose subsections are keyed maps:
//
//	{
//	  "id": 12,
//	  "name": "Inpatient review",
//	  "sections": [
//	    {
//	      "sectionName": "patient",
//	      "displayName": "Patient",
//	      "order": 1,
//	      "fields": [{"id": "mrn", "displayName": "MRN", "type": "text", "order": 0}],
//	      "subsections": {"contact": {"sectionName": "contact", "order": 0, "fields": []}}
//	    }
//	  ]
//	}
//
// Decode accepts JSON, JSON with comments and trailing commas, and YAML.
package document
