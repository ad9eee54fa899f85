package translation

import (
	"time"

	"github.com/vivatura/translator/internal/config"
)

// Settings is the per-call configuration of a translation run.
type Settings struct {
	SourceLocale      string
	GlobalPrompt      string
	SnippetChunkSize  int
	FileChunkSize     int
	ChunkDelay        time.Duration
	OverwriteExisting bool
}

// SettingsFromConfig copies the translation section of the loaded config.
func SettingsFromConfig(cfg config.TranslationConfig) Settings {
	return Settings{
		SourceLocale:      cfg.SourceLanguage,
		GlobalPrompt:      cfg.SystemPrompt,
		SnippetChunkSize:  cfg.SnippetChunkSize,
		FileChunkSize:     cfg.FileChunkSize,
		ChunkDelay:        cfg.ChunkDelay,
		OverwriteExisting: cfg.OverwriteExisting,
	}
}

func (s Settings) snippetChunkSize() int {
	if s.SnippetChunkSize > 0 {
		return s.SnippetChunkSize
	}
	return DefaultChunkSize
}

func (s Settings) fileChunkSize() int {
	if s.FileChunkSize > 0 {
		return s.FileChunkSize
	}
	return DefaultChunkSize
}
