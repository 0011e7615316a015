package materials

import (
	"testing"

	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGuessFileCategory(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		want   models.FileTag
		wantOK bool
	}{
		{"recommender 2 resume", "推荐人2简历.pdf", models.FileTag{CategoryID: "folder_4", ItemID: "recommender_2_resume"}, true},
		{"recommender 1 letter", "推荐人1推荐信.docx", models.FileTag{CategoryID: "folder_4", ItemID: "recommender_1_letter"}, true},
		{"recommender english spacing", "Recommender_3 Resume.PDF", models.FileTag{CategoryID: "folder_4", ItemID: "recommender_3_resume"}, true},
		{"applicant resume", "张三简历.pdf", models.FileTag{CategoryID: "folder_1", ItemID: "resume"}, true},
		{"passport", "Passport-scan.jpg", models.FileTag{CategoryID: "folder_1", ItemID: "passport"}, true},
		{"passport chinese", "护照首页.png", models.FileTag{CategoryID: "folder_1", ItemID: "passport"}, true},
		{"degree before certificate", "学位证书.pdf", models.FileTag{CategoryID: "folder_2", ItemID: "degree_certificate"}, true},
		{"award certificate", "获奖证书.pdf", models.FileTag{CategoryID: "folder_5", ItemID: "awards"}, true},
		{"recommender number is digit bounded", "推荐人12推荐信.pdf", models.FileTag{}, false},
		{"recommender number before date", "recommender-1_2024.pdf", models.FileTag{CategoryID: "folder_4", ItemID: "recommender_1_letter"}, true},
		{"diploma photocopy is a degree", "diploma_photocopy.pdf", models.FileTag{CategoryID: "folder_2", ItemID: "degree_certificate"}, true},
		{"photocopy alone is not a photo", "passport_photocopy.pdf", models.FileTag{CategoryID: "folder_1", ItemID: "passport"}, true},
		{"photo", "证件照片.jpg", models.FileTag{CategoryID: "folder_1", ItemID: "photo"}, true},
		{"newspaper is not a paper", "newspaper_interview.pdf", models.FileTag{}, false},
		{"paper", "conference_paper_2023.pdf", models.FileTag{CategoryID: "folder_5", ItemID: "publications"}, true},
		{"no match", "随便的文件.xyz", models.FileTag{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GuessFileCategory(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuessFileCategoryDeterministic(t *testing.T) {
	first, _ := GuessFileCategory("推荐人2简历.pdf")
	for i := 0; i < 100; i++ {
		got, _ := GuessFileCategory("推荐人2简历.pdf")
		assert.Equal(t, first, got)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Name: "broad", All: [][]string{{"report"}}, Tag: models.FileTag{CategoryID: "a", ItemID: "1"}},
		{Name: "narrow", All: [][]string{{"report"}, {"annual"}}, Tag: models.FileTag{CategoryID: "b", ItemID: "2"}},
	}
	got, ok := Classify(rules, "annual report.pdf")
	assert.True(t, ok)
	assert.Equal(t, "a", got.CategoryID)

	rules[0], rules[1] = rules[1], rules[0]
	got, _ = Classify(rules, "annual report.pdf")
	assert.Equal(t, "b", got.CategoryID, "reordering rules changes the winner")
}

func TestTagForFallsBackToSentinel(t *testing.T) {
	assert.Equal(t, models.SentinelTag, TagFor("随便的文件.xyz"))
	assert.Equal(t, models.FileTag{CategoryID: "folder_1", ItemID: "passport"}, TagFor("passport.pdf"))
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("materials.zip"))
	assert.True(t, IsArchive("MATERIALS.ZIP"))
	assert.False(t, IsArchive("zip-notes.pdf"))
}
