package config

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		Paths: Paths{
			IssuesDir: "issues",
			LoginFile: "login.json",
		},
		Catalog: Catalog{
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			UserAgent:         "booklist/1.0",
		},
		Cache: Cache{
			Backend: "file",
			MaxAge:  "0",
		},
		Pipeline: Pipeline{
			Concurrency:    1,
			DownloadCovers: true,
		},
		Logging: Logging{
			Format: "auto",
			Level:  "info",
		},
		Categories: DefaultCategories(),
	}
}

// DefaultCategories is the section structure of the printed catalogue, in
// page order
func DefaultCategories() []Category {
	return []Category{
		{Name: "toddler", Heading: "Für die Kleinsten", Page: 5},
		{Name: "bilderbuch", Heading: "Bilderbuch", Page: 6},
		{Name: "vorlesebuch", Heading: "Vorlesegeschichten", Page: 7},
		{Name: "ab6", Heading: "Erstleser", Page: 8},
		{Name: "ab8", Heading: "Bücher ab 8", Page: 9},
		{Name: "ab10", Heading: "Bücher ab 10", Page: 10},
		{Name: "ab12", Heading: "Bücher ab 12", Page: 11},
		{Name: "ab14", Heading: "Junge Erwachsene", Page: 12},
		{Name: "comic", Heading: "Graphic Novel", Page: 13},
		{Name: "sachbuch", Heading: "Sachbuch", Page: 14},
		{Name: "kreatives", Heading: "Kreatives Gestalten", Page: 15},
		{Name: "besonderes", Heading: "Besonderes", Page: 16},
		{Name: "hoerbuch", Heading: "Hörbuch Spezial", Page: 17},
		{Name: "ostern", Heading: "Ostern Spezial", Page: 18, Season: "spring"},
		{Name: "weihnachten", Heading: "Weihnachten Spezial", Page: 19, Season: "autumn"},
		{Name: "kalender", Heading: "Kalender für {next_year}", Page: 20, Season: "autumn"},
	}
}
