package types

import "time"

// Config is the contents of spicy.yaml after environment and flag
// overrides have been applied.
type Config struct {
	// Prefix is the project prefix every element name starts with (e.g. "TD").
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// IgnoredLinks silences required forward links per variant,
	// e.g. {"SystemElement": ["Implements"]}.
	IgnoredLinks map[string][]string `json:"ignored_links,omitempty" yaml:"ignored_links,omitempty" mapstructure:"ignored_links"`

	// IgnoredRefs are regular expressions for names the reference checker skips.
	IgnoredRefs []string `json:"ignored_refs,omitempty" yaml:"ignored_refs,omitempty" mapstructure:"ignored_refs"`

	// Include lists doublestar globs of documents to read (default "**/*.md").
	Include []string `json:"include,omitempty" yaml:"include,omitempty" mapstructure:"include"`

	// Exclude lists doublestar globs removed from the included set.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" mapstructure:"exclude"`

	Index IndexConfig `json:"index" yaml:"index" mapstructure:"index"`
	Watch WatchConfig `json:"watch" yaml:"watch" mapstructure:"watch"`
}

// IndexConfig holds settings for the element index.
type IndexConfig struct {
	// Dir holds spicy.db and exports (default ".spicy").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after a change before re-checking (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`

	// CacheSize bounds the number of files whose extraction is cached (default 256).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
}
