package docsystem

// ContentAnalyzer derives reading statistics from markdown
type ContentAnalyzer interface {
	// CountWords counts the words of the readable text
	CountWords(markdown string) int

	// CountCharacters counts the characters of the readable text
	CountCharacters(markdown string) int

	// CleanMarkdown reduces markdown to its readable text
	CleanMarkdown(markdown string) string

	// ReadingMinutes estimates reading time, rounded up
	ReadingMinutes(words int) int
}
