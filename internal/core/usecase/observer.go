package usecase

// PipelineObserver receives degradation events from the retrieval
// pipeline. Implementations must be safe for concurrent use; a nil
// observer disables reporting.
type PipelineObserver interface {
	HydeFallback()
	RerankFallback()
}
