package extractors

// DefaultVirtualPageChars bounds synthetic pages.
const DefaultVirtualPageChars = 2500

// VirtualPages cuts text into consecutive pages of at most size characters.
// Empty text yields no pages.
func VirtualPages(text string, size int) []string {
	if size <= 0 {
		size = DefaultVirtualPageChars
	}
	runes := []rune(text)
	pages := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		pages = append(pages, string(runes[start:min(start+size, len(runes))]))
	}
	return pages
}
