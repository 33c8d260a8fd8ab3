package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"

	"github.com/honeycarbs/career-compass/internal/domain"
)

func TestCareerParams(t *testing.T) {
	params := careerParams(domain.Career{
		ID:           "12",
		Title:        "Data Engineer",
		SalaryMin:    90000,
		SalaryMax:    120000,
		Skills:       []string{" SQL ", "", "Go"},
		CategoryID:   "3",
		CategoryName: "IT",
	})

	assert.Equal(t, "12", params["id"])
	assert.Equal(t, "90000-120000", params["salary"])
	assert.Equal(t, []string{"sql", "go"}, params["skills"])
	assert.Equal(t, "3", params["categoryId"])
}

func TestCareerFromRecord(t *testing.T) {
	record := &neo4j.Record{
		Keys: []string{"c", "categories", "skills"},
		Values: []any{
			neo4j.Node{Props: map[string]any{"id": "12", "title": "Data Engineer", "salary": "90000-120000"}},
			[]any{neo4j.Node{Props: map[string]any{"id": "3", "name": "IT"}}},
			[]any{"sql", "go"},
		},
	}

	c, ok := careerFromRecord(record)
	assert.True(t, ok)
	assert.Equal(t, domain.ID("12"), c.ID)
	assert.Equal(t, "90000-120000", c.SalaryRange)
	assert.Equal(t, "IT", c.CategoryName)
	assert.Equal(t, []string{"sql", "go"}, c.Skills)

	_, ok = careerFromRecord(&neo4j.Record{Keys: []string{"x"}, Values: []any{1}})
	assert.False(t, ok)
}

func TestIDStrings(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, idStrings([]domain.ID{"1", "", "2"}))
}
