package translation

// NothingToTranslate is the message of a run whose source had no translatable text.
const NothingToTranslate = "No translatable content found"

// LanguageOutcome is the result of translating one entity into one language.
type LanguageOutcome struct {
	Success bool   `json:"success"`
	Fields  int    `json:"fields"`
	Skipped int    `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EntityResult summarizes a product or CMS page run. Languages is keyed by
// locale code, or by language id when the language could not be resolved.
type EntityResult struct {
	Message   string                     `json:"message,omitempty"`
	Total     int                        `json:"total"`
	Succeeded int                        `json:"success"`
	Failed    int                        `json:"errors"`
	Languages map[string]LanguageOutcome `json:"languages"`
}

func (r *EntityResult) add(key string, o LanguageOutcome) {
	r.Languages[key] = o
	r.Total++
	if o.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// KeyOutcome is the result for one snippet key.
type KeyOutcome struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult summarizes a snippet set or snippet file run. Success stays
// true when individual keys fail; their errors are listed in Details.
type BatchResult struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	TargetPath string                `json:"target_path,omitempty"`
	Total      int                   `json:"total"`
	Translated int                   `json:"translated"`
	Skipped    int                   `json:"skipped"`
	Errors     int                   `json:"errors"`
	Details    map[string]KeyOutcome `json:"details,omitempty"`
}

func newBatchResult(total int) *BatchResult {
	return &BatchResult{Success: true, Total: total, Details: make(map[string]KeyOutcome, total)}
}

func (r *BatchResult) translated(key string) {
	r.Details[key] = KeyOutcome{Success: true}
	r.Translated++
}

func (r *BatchResult) skipped(key string) {
	r.Details[key] = KeyOutcome{Success: true, Skipped: true}
	r.Skipped++
}

func (r *BatchResult) failed(key, msg string) {
	r.Details[key] = KeyOutcome{Error: msg}
	r.Errors++
}

// SnippetResult is the result of translating a single snippet.
type SnippetResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	TranslationKey string `json:"translation_key,omitempty"`
	TargetIso      string `json:"target_iso,omitempty"`
}
