package translation

// Translation methods reported in results. The archive and the metrics
// pipeline both key off these values, so they are part of the wire contract.
const (
	// MethodPassthrough marks results where source and target language match.
	MethodPassthrough = "passthrough"
	// MethodModel marks results produced by the base model.
	MethodModel = "mbart"
	// MethodAdapterFusion marks results produced with domain adapters active.
	MethodAdapterFusion = "adapter_fusion"
	// MethodError marks degraded batch items that echo the original text.
	MethodError = "error"
)

// Quality scores attached to results. The model runner does not score
// individual translations, so these are coarse per-method estimates.
const (
	scorePassthrough   = 1.0
	scoreAdapterFusion = 0.85
	scoreModel         = 0.75
	scoreFailed        = 0.0
)

// Result is the outcome of one translation request.
type Result struct {
	TranslatedText string  `json:"translated_text"`
	Source         string  `json:"source_language"`
	Target         string  `json:"target_language"`
	QualityScore   float64 `json:"quality_score"`
	Method         string  `json:"translation_method"`
	ModelVersion   string  `json:"model_version"`
	Cached         bool    `json:"cached"`
}
