package resume

// Content — структурированное представление резюме.
// Все обязательные ключи присутствуют всегда: пустые строки и [] вместо null.
type Content struct {
	ContactInfo         ContactInfo   `json:"contactInfo"`
	ProfessionalSummary string        `json:"professionalSummary"`
	Skills              Skills        `json:"skills"`
	Experience          []Experience  `json:"experience"`
	Education           []Education   `json:"education"`
	Projects            []Project     `json:"projects"`
	Awards              []Award       `json:"awards"`
	VolunteerWork       []Volunteer   `json:"volunteerWork"`
	Languages           []Language    `json:"languages"`
	Publications        []Publication `json:"publications"`
}

type ContactInfo struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

type Skills struct {
	Technical      []string `json:"technical"`
	Soft           []string `json:"soft"`
	Certifications []string `json:"certifications"`
}

type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Achievements []string `json:"achievements"`
}

type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	Field          string `json:"field"`
	GraduationDate string `json:"graduationDate"`
	GPA            string `json:"gpa,omitempty"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
}

type Award struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

type Volunteer struct {
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Period       string `json:"period"`
	Description  string `json:"description"`
}

type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

type Publication struct {
	Title string `json:"title"`
	Venue string `json:"venue"`
	Date  string `json:"date"`
	URL   string `json:"url,omitempty"`
}

// Normalize fills nil slices so the serialized form always has every key.
func (c Content) Normalize() Content {
	c.Skills.Technical = nonNil(c.Skills.Technical)
	c.Skills.Soft = nonNil(c.Skills.Soft)
	c.Skills.Certifications = nonNil(c.Skills.Certifications)
	if c.Experience == nil {
		c.Experience = []Experience{}
	}
	for i := range c.Experience {
		c.Experience[i].Achievements = nonNil(c.Experience[i].Achievements)
	}
	if c.Education == nil {
		c.Education = []Education{}
	}
	if c.Projects == nil {
		c.Projects = []Project{}
	}
	for i := range c.Projects {
		c.Projects[i].Technologies = nonNil(c.Projects[i].Technologies)
	}
	if c.Awards == nil {
		c.Awards = []Award{}
	}
	if c.VolunteerWork == nil {
		c.VolunteerWork = []Volunteer{}
	}
	if c.Languages == nil {
		c.Languages = []Language{}
	}
	if c.Publications == nil {
		c.Publications = []Publication{}
	}
	return c
}

// IsEmpty is true when nothing meaningful was extracted.
func (c Content) IsEmpty() bool {
	return c.ContactInfo == (ContactInfo{}) &&
		c.ProfessionalSummary == "" &&
		len(c.Skills.Technical) == 0 && len(c.Skills.Soft) == 0 &&
		len(c.Experience) == 0 && len(c.Education) == 0 && len(c.Projects) == 0
}

func EmptyContent() Content { return Content{}.Normalize() }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
