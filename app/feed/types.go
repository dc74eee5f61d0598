package feed

// Normalized feed model

type Feed struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Date     int64  `json:"date"` // Unix seconds, 0 when unknown
	Language string `json:"language"`
	Items    []Item `json:"items"`
}

type Item struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Date          int64  `json:"date"` // Unix seconds, 0 when unknown
	Author        string `json:"author"`
	Content       string `json:"content"`
	Language      string `json:"language"`
	EnclosureURL  string `json:"enclosure_url"`
	EnclosureType string `json:"enclosure_type"`
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool     `yaml:"enabled"`
	MaxItems       int      `yaml:"max_items"`
	Timeout        int      `yaml:"timeout"`  // seconds
	Encoding       string   `yaml:"encoding"` // overrides the charset reported by the server
	IDExclude      []string `yaml:"id_exclude"`
	RejectEntities bool     `yaml:"reject_entities"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
