package routes

import "github.com/danielgtaylor/huma/v2"

type Tag string

const (
	TagGeneral Tag = "General"
	TagRuns    Tag = "Runs"
)

func (t Tag) String() string { return string(t) }

var tagDescriptions = map[Tag]string{
	TagGeneral: "Service metadata and health",
	TagRuns:    "Configure and execute the current training run",
}

// AllTags returns the document-level tag entries in display order.
func AllTags() []*huma.Tag {
	tags := make([]*huma.Tag, 0, len(tagDescriptions))
	for _, t := range []Tag{TagGeneral, TagRuns} {
		tags = append(tags, &huma.Tag{Name: t.String(), Description: tagDescriptions[t]})
	}
	return tags
}
