package confpub

// Converter converts storage-format HTML to Markdown for previews.
type Converter interface {
	// Convert transforms page content into Markdown.
	Convert(html string) (string, error)
}
