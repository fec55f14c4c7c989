// Package dedup decides whether a pull request or issue duplicates earlier
// work in the same repository.
//
// Two independent signals are fused into one ranked verdict: cosine
// similarity against cached embeddings, and a lexical search the caller
// supplies (usually GitHub search). Either signal may be missing; the engine
// degrades to whatever is left and never returns an error to the caller.
//
// Example usage:
//
//	engine, err := dedup.NewEngine(embedder, collection, searcher, dedup.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	verdict := engine.FindDuplicates(ctx, item)
//	if verdict.IsDuplicate {
//	    fmt.Printf("likely duplicate of #%d (%.2f)\n",
//	        verdict.Candidates[0].Number, verdict.Candidates[0].Similarity)
//	}
package dedup
