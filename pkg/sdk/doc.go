// Package lineage is an embedded Go client for the lineage document store
// backed by Valkey or Redis with the JSON module.
//
// Documents reference their place in the hierarchy by id stubs
// (parent, contact). The client stores them minified, keeps the view
// indexes in sync and returns them hydrated on request.
//
//	client, _ := lineage.New(ctx, lineage.WithValkey("localhost:6379", ""))
//	defer client.Close()
//
//	_, _, _ = client.Documents().Save(ctx, lineage.Doc{
//	    "_id": "r1", "type": "data_record", "form": "V",
//	    "contact": lineage.Doc{"_id": "chw", "parent": lineage.Doc{"_id": "clinic"}},
//	})
//	report, _ := client.Lineage().FetchHydratedDoc(ctx, "r1")
//
//	page, _ := client.Search().Reports(ctx,
//	    lineage.Filters{Forms: []string{"V"}},
//	    lineage.SearchOptions{Limit: 20},
//	)
package lineage
