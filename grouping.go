package datasetgen

// PromptGroup is the images sharing one prompt, in collection order.
type PromptGroup struct {
	Prompt string           `json:"prompt"`
	Images []GeneratedImage `json:"images"`
}

// GroupByPrompt partitions images by prompt. Groups are ordered by the first
// appearance of their prompt. The input is not modified.
func GroupByPrompt(images []GeneratedImage) []PromptGroup {
	var groups []PromptGroup
	index := make(map[string]int)

	for _, img := range images {
		i, ok := index[img.Prompt]
		if !ok {
			i = len(groups)
			index[img.Prompt] = i
			groups = append(groups, PromptGroup{Prompt: img.Prompt})
		}
		groups[i].Images = append(groups[i].Images, img)
	}

	return groups
}
