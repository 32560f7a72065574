// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns enriched text into vectors
//   - ExtractorRegistry: Turns a policy file into page texts
//   - PostProcessorPipeline: Chunks and tags extracted pages
//   - SnapshotStore: Whole-store persistence of chunk records
//   - IngestStateStore: Per-document hashes under a schema version
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, only context assembly is available.
//   - PromptStore: Editable answer prompts. Without it, built-in prompts are used.
//   - Metrics: Instrumentation. NopMetrics is used when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
