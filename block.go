package harvest

// BlockType identifies the variant of a content Block.
type BlockType string

// Block variants.
const (
	BlockText   BlockType = "text"
	BlockImage  BlockType = "image"
	BlockHTML   BlockType = "html"
	BlockMarker BlockType = "marker"
)

// LinkTag is the reserved marker tag for discovered outbound links.
const LinkTag = "harvest:link"

// Block is one unit of extracted page content.
//
// Text and HTML blocks carry Content. Image blocks carry URL. HTML blocks
// for embedded players also carry Video. Marker blocks carry Tag and URL and
// are not page content; they exist to be filtered out by consumers such as
// the crawl controller.
type Block struct {
	Type    BlockType `json:"type"`
	Content string    `json:"content,omitempty"`
	URL     string    `json:"url,omitempty"`
	Video   string    `json:"video,omitempty"`
	Tag     string    `json:"tag,omitempty"`
}

// Text returns a text block.
func Text(content string) Block {
	return Block{Type: BlockText, Content: content}
}

// Image returns an image block.
func Image(url string) Block {
	return Block{Type: BlockImage, URL: url}
}

// HTML returns an HTML block.
func HTML(content string) Block {
	return Block{Type: BlockHTML, Content: content}
}

// Marker returns a marker block with the given tag.
func Marker(tag, url string) Block {
	return Block{Type: BlockMarker, Tag: tag, URL: url}
}

// Link returns a marker block for a discovered link.
func Link(url string) Block {
	return Marker(LinkTag, url)
}

// IsLink reports whether b is a discovered link marker.
func (b Block) IsLink() bool {
	return b.Type == BlockMarker && b.Tag == LinkTag
}

// Links returns the URLs of all link markers in blocks, in order.
func Links(blocks []Block) []string {
	var urls []string
	for _, b := range blocks {
		if b.IsLink() && b.URL != "" {
			urls = append(urls, b.URL)
		}
	}
	return urls
}
