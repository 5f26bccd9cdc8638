// Package classroom implements the gradebook.Client capability against a
// Classroom-style REST API: courses own course work, course work owns student
// submissions, and grades are written by patching submissions.
package classroom

// courseDTO is a course as returned by the gradebook API.
type courseDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
	State   string `json:"courseState,omitempty"`
}

type courseListDTO struct {
	Courses []courseDTO `json:"courses"`
}

// studentDTO is a roster entry. The API nests identity under a profile.
type studentDTO struct {
	UserID  string `json:"userId"`
	Profile struct {
		Name struct {
			FullName string `json:"fullName"`
		} `json:"name"`
		EmailAddress string `json:"emailAddress,omitempty"`
	} `json:"profile"`
}

type studentListDTO struct {
	Students []studentDTO `json:"students"`
}

// courseWorkDTO is a gradable item.
type courseWorkDTO struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	MaxPoints   int    `json:"maxPoints"`
	WorkType    string `json:"workType,omitempty"`
	State       string `json:"state,omitempty"`
}

type courseWorkListDTO struct {
	CourseWork []courseWorkDTO `json:"courseWork"`
}

// submissionDTO is one student's submission. Grades are pointers because the
// API distinguishes an ungraded submission from a zero grade.
type submissionDTO struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	DraftGrade    *int   `json:"draftGrade,omitempty"`
	AssignedGrade *int   `json:"assignedGrade,omitempty"`
}

type submissionListDTO struct {
	StudentSubmissions []submissionDTO `json:"studentSubmissions"`
}

// gradePatchDTO is the body of a submission grade patch.
type gradePatchDTO struct {
	DraftGrade    int `json:"draftGrade"`
	AssignedGrade int `json:"assignedGrade"`
}

// maxPointsPatchDTO is the body of a course work maxPoints patch.
type maxPointsPatchDTO struct {
	MaxPoints int `json:"maxPoints"`
}

// errorDTO is the API error envelope.
type errorDTO struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
