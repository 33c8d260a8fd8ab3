package mockapi

// career is the backend's wire form of a career. Field names follow the
// newest backend; the normalizer maps the older spellings.
type career struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	SalaryMin    float64  `json:"salary_min,omitempty"`
	SalaryMax    float64  `json:"salary_max,omitempty"`
	Skills       []string `json:"skills_required"`
	CategoryID   int      `json:"category_id"`
	CategoryName string   `json:"category_name,omitempty"`
	Education    string   `json:"education_required,omitempty"`
	Outlook      string   `json:"job_outlook,omitempty"`
}

type category struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *int       `json:"parent_id"`
	Level       int        `json:"level"`
	Children    []category `json:"children,omitempty"`
}

type user struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	password  string
}

func parent(id int) *int {
	return &id
}

func seedCategories() []category {
	return []category{
		{ID: 1, Name: "Technology", Level: 1},
		{ID: 11, Name: "Software", ParentID: parent(1), Level: 2},
		{ID: 12, Name: "Data", ParentID: parent(1), Level: 2},
		{ID: 2, Name: "Healthcare", Level: 1},
		{ID: 21, Name: "Nursing", ParentID: parent(2), Level: 2},
		{ID: 3, Name: "Education", Level: 1},
		{ID: 33, Name: "Emerging Roles", Description: "Roles whose listings change daily", Level: 1},
	}
}

func seedCareers() []career {
	return []career{
		{ID: 1, Title: "Backend Engineer", Description: "Builds and runs server side systems", SalaryMin: 90000, SalaryMax: 150000, Skills: []string{"Go", "SQL", "Docker"}, CategoryID: 11, Education: "Bachelor", Outlook: "growing"},
		{ID: 2, Title: "Frontend Engineer", Description: "Builds browser applications", SalaryMin: 85000, SalaryMax: 140000, Skills: []string{"TypeScript", "Vue", "CSS"}, CategoryID: 11, Education: "Bachelor", Outlook: "stable"},
		{ID: 3, Title: "Site Reliability Engineer", Description: "Keeps production healthy", SalaryMin: 110000, SalaryMax: 170000, Skills: []string{"Go", "Kubernetes", "Linux"}, CategoryID: 11, Education: "Bachelor", Outlook: "growing"},
		{ID: 4, Title: "Mobile Developer", Description: "Ships iOS and Android apps", SalaryMin: 80000, SalaryMax: 135000, Skills: []string{"Kotlin", "Swift"}, CategoryID: 11},
		{ID: 5, Title: "QA Engineer", Description: "Designs automated test suites", SalaryMin: 65000, SalaryMax: 110000, Skills: []string{"Python", "Selenium"}, CategoryID: 11},
		{ID: 6, Title: "Data Analyst", Description: "Turns data into reports", SalaryMin: 60000, SalaryMax: 100000, Skills: []string{"SQL", "Excel", "Python"}, CategoryID: 12, Education: "Bachelor", Outlook: "growing"},
		{ID: 7, Title: "Data Engineer", Description: "Builds data pipelines", SalaryMin: 95000, SalaryMax: 155000, Skills: []string{"SQL", "Spark", "Python"}, CategoryID: 12},
		{ID: 8, Title: "Machine Learning Engineer", Description: "Trains and serves models", SalaryMin: 120000, SalaryMax: 190000, Skills: []string{"Python", "PyTorch"}, CategoryID: 12, Education: "Master"},
		{ID: 9, Title: "Registered Nurse", Description: "Provides patient care", SalaryMin: 60000, SalaryMax: 95000, Skills: []string{"Patient Care", "Triage"}, CategoryID: 21, Education: "Bachelor", Outlook: "growing"},
		{ID: 10, Title: "Nurse Practitioner", Description: "Diagnoses and treats patients", SalaryMin: 100000, SalaryMax: 140000, Skills: []string{"Diagnosis", "Patient Care"}, CategoryID: 21, Education: "Master"},
		{ID: 11, Title: "Pharmacist", Description: "Dispenses medication", SalaryMin: 110000, SalaryMax: 135000, Skills: []string{"Pharmacology"}, CategoryID: 2, Education: "Doctorate"},
		{ID: 12, Title: "Physical Therapist", Description: "Restores movement after injury", SalaryMin: 75000, SalaryMax: 105000, Skills: []string{"Rehabilitation"}, CategoryID: 2},
		{ID: 13, Title: "Primary School Teacher", Description: "Teaches core subjects", SalaryMin: 40000, SalaryMax: 65000, Skills: []string{"Lesson Planning", "Communication"}, CategoryID: 3, Education: "Bachelor"},
		{ID: 14, Title: "Instructional Designer", Description: "Designs learning material", SalaryMin: 60000, SalaryMax: 90000, Skills: []string{"Communication", "E-learning"}, CategoryID: 3},
		{ID: 15, Title: "Prompt Engineer", Description: "Designs prompts for language models", SalaryMin: 90000, SalaryMax: 160000, Skills: []string{"Python", "Communication"}, CategoryID: 33, Outlook: "volatile"},
		{ID: 16, Title: "AI Ethicist", Description: "Reviews the impact of automated decisions", SalaryMin: 85000, SalaryMax: 130000, Skills: []string{"Policy", "Communication"}, CategoryID: 33, Outlook: "volatile"},
	}
}

func seedUsers() []user {
	return []user{
		{ID: 1, Username: "admin", Email: "admin@example.com", Role: "admin", Status: "active", CreatedAt: "2024-01-01T00:00:00Z", password: "admin123"},
	}
}
