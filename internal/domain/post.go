/**
 * @description
 * Domain models for blog content. Posts are markdown files with a YAML front
 * matter block; PostMeta carries the front matter fields and Post adds the
 * raw body.
 */
package domain

// PostMeta holds the front matter of a blog post.
type PostMeta struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Date        string   `json:"date" yaml:"date"`
	Author      string   `json:"author" yaml:"author"`
	Category    string   `json:"category" yaml:"category"`
	Tags        []string `json:"tags" yaml:"tags"`
	Thumbnail   string   `json:"thumbnail,omitempty" yaml:"thumbnail"`
	ReadingTime string   `json:"reading_time,omitempty" yaml:"readingTime"`
}

// Post is a full blog post: front matter plus the markdown body.
type Post struct {
	PostMeta
	Content string `json:"content"`
}
