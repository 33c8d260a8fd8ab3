package domain

import (
	"encoding/json"
	"fmt"
)

// Career is a loosely typed career record. The backend has shipped several
// field spellings over time so decoding accepts all of them; anything not
// mapped is kept in Extra.
type Career struct {
	ID           ID       `json:"id"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	SalaryRange  string   `json:"salary_range,omitempty"`
	SalaryMin    float64  `json:"salary_min,omitempty"`
	SalaryMax    float64  `json:"salary_max,omitempty"`
	MedianSalary float64  `json:"median_salary,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	CategoryID   ID       `json:"category_id,omitempty"`
	CategoryName string   `json:"category_name,omitempty"`
	Education    string   `json:"education_required,omitempty"`
	Experience   string   `json:"experience_required,omitempty"`
	Outlook      string   `json:"job_outlook,omitempty"`
	IsFavorite   bool     `json:"is_favorite,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var careerKnownFields = map[string]struct{}{
	"id": {}, "title": {}, "name": {}, "careerName": {},
	"description": {}, "summary": {},
	"salary_range": {}, "salary_min": {}, "salary_max": {}, "median_salary": {},
	"skills": {}, "skills_required": {}, "required_skills": {},
	"category_id": {}, "categoryId": {}, "category1_id": {}, "category_name": {},
	"education_required": {}, "education_requirements": {},
	"experience_required": {}, "job_outlook": {}, "career_prospect": {},
	"is_favorite": {},
}

// UnmarshalJSON tolerates missing fields and alternate spellings. Only JSON
// objects decode; anything else is an error so list decoding can skip it.
func (c *Career) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("career: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("career: not an object")
	}

	out := Career{}
	if v, ok := fields["id"]; ok {
		out.ID = ID(flexString(v))
	}
	if v, _, ok := firstOf(fields, "title", "name", "careerName"); ok {
		out.Title = flexString(v)
	}
	if v, _, ok := firstOf(fields, "description", "summary"); ok {
		out.Description = flexString(v)
	}
	if v, ok := fields["salary_range"]; ok {
		out.SalaryRange = flexString(v)
	}
	out.SalaryMin = flexFloat(fields["salary_min"])
	out.SalaryMax = flexFloat(fields["salary_max"])
	out.MedianSalary = flexFloat(fields["median_salary"])
	if v, _, ok := firstOf(fields, "skills_required", "required_skills", "skills"); ok {
		out.Skills = flexStrings(v)
	}
	if v, _, ok := firstOf(fields, "category_id", "categoryId", "category1_id"); ok {
		out.CategoryID = ID(flexString(v))
	}
	out.CategoryName = flexString(fields["category_name"])
	if v, _, ok := firstOf(fields, "education_required", "education_requirements"); ok {
		out.Education = flexString(v)
	}
	out.Experience = flexString(fields["experience_required"])
	if v, _, ok := firstOf(fields, "job_outlook", "career_prospect"); ok {
		out.Outlook = flexString(v)
	}
	out.IsFavorite = flexBool(fields["is_favorite"])

	for k, v := range fields {
		if _, known := careerKnownFields[k]; known {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*c = out
	return nil
}

// DisplaySalary renders the salary as the UI would: explicit range text
// first, then min-max, then the median
func (c Career) DisplaySalary() string {
	switch {
	case c.SalaryRange != "":
		return c.SalaryRange
	case c.SalaryMin > 0 && c.SalaryMax > 0:
		return fmt.Sprintf("%.0f-%.0f", c.SalaryMin, c.SalaryMax)
	case c.SalaryMax > 0:
		return fmt.Sprintf("up to %.0f", c.SalaryMax)
	case c.MedianSalary > 0:
		return fmt.Sprintf("~%.0f", c.MedianSalary)
	default:
		return ""
	}
}

// Category is a node of the career category tree
type Category struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    ID         `json:"parent_id,omitempty"`
	Children    []Category `json:"children,omitempty"`
	Level       int        `json:"level,omitempty"`
	Count       int        `json:"count,omitempty"`
	Order       int        `json:"order,omitempty"`
}

// Walk visits the category and all descendants depth first
func (c Category) Walk(fn func(Category, int)) {
	c.walk(fn, 0)
}

func (c Category) walk(fn func(Category, int), depth int) {
	fn(c, depth)
	for _, child := range c.Children {
		child.walk(fn, depth+1)
	}
}

// UserInfo is the authenticated user as reported by /auth/me
type UserInfo struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Recommendation is a career with a match score
type Recommendation struct {
	Career
	Match   float64  `json:"match_degree,omitempty"`
	Reasons []string `json:"match_reasons,omitempty"`
}

// UnmarshalJSON decodes the embedded career and the match fields, which have
// appeared as match_degree, matchDegree and match_score
func (r *Recommendation) UnmarshalJSON(b []byte) error {
	var c Career
	if err := c.UnmarshalJSON(b); err != nil {
		return err
	}
	out := Recommendation{Career: c}
	if v, key, ok := firstOf(c.Extra, "match_degree", "matchDegree", "match_score", "score"); ok {
		out.Match = flexFloat(v)
		delete(out.Extra, key)
	}
	if v, key, ok := firstOf(c.Extra, "match_reasons", "reasons"); ok {
		out.Reasons = flexStrings(v)
		delete(out.Extra, key)
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	*r = out
	return nil
}

// Recommendations is the recommendation endpoint payload
type Recommendations struct {
	Status          string           `json:"status"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Candidates      []Recommendation `json:"candidates"`
	SessionID       string           `json:"session_id,omitempty"`
	Timestamp       string           `json:"timestamp,omitempty"`
	TotalMatch      int              `json:"total_match,omitempty"`
	UserTraits      json.RawMessage  `json:"user_traits,omitempty"`
}

// CareerQuery narrows list endpoints
type CareerQuery struct {
	SortBy               string
	Keyword              string
	Skills               []string
	IncludeSubcategories bool
}
