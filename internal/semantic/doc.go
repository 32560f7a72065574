// Package semantic holds the heuristic vocabulary shared by ingestion and
// retrieval: accent folding, tokenisation, and the keyword tables that
// label chunks (category, role, topic, doc type) and infer query intent.
//
// Tables are data. Role and topic tables are ordered and the first match
// wins; category tables are scored and the highest count wins.
package semantic
