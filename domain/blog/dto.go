package blog

import (
	"time"
)

// Frontmatter is the YAML header of a post file.
type Frontmatter struct {
	Title      string   `yaml:"title"`
	Author     string   `yaml:"author"`
	Date       string   `yaml:"date"`
	Updated    string   `yaml:"updated"`
	Excerpt    string   `yaml:"excerpt"`
	Tags       []string `yaml:"tags"`
	CoverImage string   `yaml:"cover_image"`
	Draft      bool     `yaml:"draft"`
}

type PostSummary struct {
	Slug               string     `json:"slug"`
	Title              string     `json:"title"`
	Author             string     `json:"author"`
	Date               time.Time  `json:"date"`
	Updated            *time.Time `json:"updated,omitempty"`
	Excerpt            string     `json:"excerpt"`
	Tags               []string   `json:"tags"`
	CoverImage         string     `json:"cover_image,omitempty"`
	Draft              bool       `json:"draft"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	ReadingTime        string     `json:"reading_time"`
	WordCount          int        `json:"word_count"`
}

type Post struct {
	PostSummary
	HTML string `json:"html"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// LintResult reports the outcome of parsing one content file.
type LintResult struct {
	File  string `json:"file"`
	Slug  string `json:"slug"`
	Error string `json:"error,omitempty"`
}

func (r LintResult) OK() bool {
	return r.Error == ""
}
