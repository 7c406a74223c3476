package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     MaterialCategory
	}{
		{"lecture.pdf", MaterialCategoryPDF},
		{"https://cdn.example.com/courses/algo/intro.MP4", MaterialCategoryVideo},
		{"slides.pptx", MaterialCategoryPresentation},
		{"notes.docx", MaterialCategoryDocument},
		{"grades.xlsx", MaterialCategorySpreadsheet},
		{"diagram.png", MaterialCategoryImage},
		{"podcast.mp3", MaterialCategoryAudio},
		{"archive.tar", MaterialCategoryCompressed},
		{"readme.md", MaterialCategoryArticle},
		{"mystery.bin", MaterialCategoryOther},
		{"no-extension", MaterialCategoryOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryFromFilename(tc.filename), tc.filename)
	}
}

func TestMaterialCategoryValid(t *testing.T) {
	assert.True(t, MaterialCategoryPDF.Valid())
	assert.True(t, MaterialCategoryOther.Valid())
	assert.False(t, MaterialCategory("EBOOK").Valid())
	assert.False(t, MaterialCategory("").Valid())
}
