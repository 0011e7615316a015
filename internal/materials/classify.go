package materials

import (
	"regexp"
	"strings"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// Rule maps file names to a checklist slot. A name matches when Pattern (if
// set) matches the lowercased name, every group in All has at least one
// keyword contained in the normalized name, and no Except keyword is.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	All     [][]string
	Except  []string
	Tag     models.FileTag
}

func (r Rule) matches(lower, normalized string) bool {
	if r.Pattern == nil && len(r.All) == 0 {
		return false
	}
	if r.Pattern != nil && !r.Pattern.MatchString(lower) {
		return false
	}
	for _, group := range r.All {
		if !containsAny(normalized, group) {
			return false
		}
	}
	return !containsAny(normalized, r.Except)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var resumeWords = []string{"简历", "履历", "resume"}

// recommender matches "推荐人2", "Recommender_2" or "referee-2", but not
// "推荐人12".
func recommender(n string) *regexp.Regexp {
	return regexp.MustCompile(`(?:推荐人|recommender|referee)[\s_\-.]*` + n + `(?:\D|$)`)
}

// DefaultRules is the ordered rule list used by GuessFileCategory. Numbered
// recommender rules precede the applicant's resume so "推荐人2简历" is never
// filed as the applicant's own resume, and degree rules precede photo so a
// "diploma photocopy" is filed as a degree.
var DefaultRules = []Rule{
	{Name: "recommender 1 resume", Pattern: recommender("1"), All: [][]string{resumeWords}, Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_1_resume"}},
	{Name: "recommender 2 resume", Pattern: recommender("2"), All: [][]string{resumeWords}, Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_2_resume"}},
	{Name: "recommender 3 resume", Pattern: recommender("3"), All: [][]string{resumeWords}, Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_3_resume"}},
	{Name: "recommender 1 letter", Pattern: recommender("1"), Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_1_letter"}},
	{Name: "recommender 2 letter", Pattern: recommender("2"), Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_2_letter"}},
	{Name: "recommender 3 letter", Pattern: recommender("3"), Tag: models.FileTag{CategoryID: "folder_4", ItemID: "recommender_3_letter"}},
	{Name: "resume", All: [][]string{resumeWords}, Tag: models.FileTag{CategoryID: "folder_1", ItemID: "resume"}},
	{Name: "passport", All: [][]string{{"护照", "passport"}}, Tag: models.FileTag{CategoryID: "folder_1", ItemID: "passport"}},
	{Name: "id card", All: [][]string{{"身份证", "idcard"}}, Tag: models.FileTag{CategoryID: "folder_1", ItemID: "id_card"}},
	{Name: "degree", All: [][]string{{"学位", "毕业证", "diploma", "degree"}}, Tag: models.FileTag{CategoryID: "folder_2", ItemID: "degree_certificate"}},
	{Name: "transcript", All: [][]string{{"成绩单", "transcript"}}, Tag: models.FileTag{CategoryID: "folder_2", ItemID: "transcript"}},
	{Name: "photo", All: [][]string{{"照片", "photo"}}, Except: []string{"photocopy", "复印件"}, Tag: models.FileTag{CategoryID: "folder_1", ItemID: "photo"}},
	{Name: "employment letter", All: [][]string{{"在职证明", "employment", "工作证明"}}, Tag: models.FileTag{CategoryID: "folder_3", ItemID: "employment_letter"}},
	{Name: "labor contract", All: [][]string{{"劳动合同", "laborcontract", "labourcontract"}}, Tag: models.FileTag{CategoryID: "folder_3", ItemID: "labor_contract"}},
	{Name: "awards", All: [][]string{{"获奖", "奖项", "证书", "award", "certificate"}}, Tag: models.FileTag{CategoryID: "folder_5", ItemID: "awards"}},
	{Name: "publications", All: [][]string{{"论文", "publication", "paper"}}, Except: []string{"newspaper"}, Tag: models.FileTag{CategoryID: "folder_5", ItemID: "publications"}},
	{Name: "patents", All: [][]string{{"专利", "patent"}}, Tag: models.FileTag{CategoryID: "folder_5", ItemID: "patents"}},
}

// normalizeName lowercases a file name and drops separators so "Recommender_2
// Resume.pdf" and "recommender2resume.pdf" match the same keywords.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '（', '）', '　':
			return -1
		}
		return r
	}, name)
}

// Classify evaluates rules top to bottom and returns the first match.
func Classify(rules []Rule, fileName string) (models.FileTag, bool) {
	lower := strings.ToLower(fileName)
	normalized := normalizeName(fileName)
	for _, r := range rules {
		if r.matches(lower, normalized) {
			return r.Tag, true
		}
	}
	return models.FileTag{}, false
}

// GuessFileCategory classifies a file name with DefaultRules. The second
// result is false when no rule matched; callers then use models.SentinelTag.
func GuessFileCategory(fileName string) (models.FileTag, bool) {
	return Classify(DefaultRules, fileName)
}

// TagFor returns the guessed tag for fileName, or the sentinel tag.
func TagFor(fileName string) models.FileTag {
	if tag, ok := GuessFileCategory(fileName); ok {
		return tag
	}
	return models.SentinelTag
}
