package episodes_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brogergvhs/comicwalk/internal/episodes"
	"github.com/brogergvhs/comicwalk/internal/providers"
)

func sample() []episodes.Item {
	return episodes.Number([]providers.Episode{
		{Title: "Chapter 1", URL: "https://a/1"},
		{Title: "Chapter 2", URL: "https://a/2"},
		{Title: "Chapter 3 - The End", URL: "https://a/3"},
		{Title: "第4話", URL: "https://a/4"},
	})
}

func numbers(items []episodes.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.Number)
	}

	return out
}

func TestFilter(t *testing.T) {
	all := sample()

	tests := []struct {
		name             string
		episode, rng, ls string
		want             []int
	}{
		{name: "none", want: []int{1, 2, 3, 4}},
		{name: "by title", episode: "chapter 2", want: []int{2}},
		{name: "by number", episode: "3", want: []int{3}},
		{name: "unknown", episode: "99", want: []int{}},
		{name: "range", rng: "2-3", want: []int{2, 3}},
		{name: "range out of bounds", rng: "2-9", want: []int{}},
		{name: "bad range", rng: "x-2", want: []int{}},
		{name: "list", ls: "4, 1,1,zz,7", want: []int{4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numbers(episodes.Filter(all, tt.episode, tt.rng, tt.ls)))
		})
	}
}

func TestNaming(t *testing.T) {
	all := sample()

	assert.Equal(t, "0003_chapter_3_the_end.cbz", all[2].OutputCBZ())
	assert.Equal(t, "0004_第4話_tmp", all[3].FolderName())
	assert.Equal(t, filepath.Join("out", "0001_chapter_1.cbz"), all[0].OutputCBZPath("out"))

	untitled := episodes.Item{Number: 12}
	assert.Equal(t, "0012.cbz", untitled.OutputCBZ())
}
