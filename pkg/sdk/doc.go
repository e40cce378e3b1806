// Package tourdex embeds the tourdex attraction search engine in a Go program.
//
// The client reads its corpus from Redis, Valkey, SQLite, a YAML/JSON file or
// an in-memory slice, and answers fuzzy Thai/English queries with keyword
// expansion, geo filtering and popularity/recency ranking.
//
//	client, _ := tourdex.New(ctx,
//	    tourdex.WithAttractions("v1", attractions...),
//	    tourdex.WithExpansionTable("config/expansion.yaml"),
//	)
//	defer client.Close()
//
//	res, _ := client.Search("ทะเล").
//	    Near(7.89, 98.30).Km(30).
//	    Sort(tourdex.SortDistance).
//	    Limit(10).
//	    Do(ctx)
//
//	suggestions, _ := client.Autocomplete(ctx, "เชียง", 5)
package tourdex
