package classroom

import "github.com/classpulse/participation-hub/internal/domain/gradebook"

// Mapper converts API DTOs into domain types.
type Mapper struct{}

// NewMapper creates a Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

func (m *Mapper) Course(dto courseDTO) gradebook.Course {
	return gradebook.Course{
		ID:      dto.ID,
		Name:    dto.Name,
		Section: dto.Section,
	}
}

func (m *Mapper) Courses(dtos []courseDTO) []gradebook.Course {
	out := make([]gradebook.Course, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, m.Course(dto))
	}
	return out
}

func (m *Mapper) Student(dto studentDTO) gradebook.Student {
	return gradebook.Student{
		ID:    dto.UserID,
		Name:  dto.Profile.Name.FullName,
		Email: dto.Profile.EmailAddress,
	}
}

func (m *Mapper) Students(dtos []studentDTO) []gradebook.Student {
	out := make([]gradebook.Student, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, m.Student(dto))
	}
	return out
}

func (m *Mapper) Assignment(dto courseWorkDTO) gradebook.Assignment {
	return gradebook.Assignment{
		ID:        dto.ID,
		Title:     dto.Title,
		MaxPoints: dto.MaxPoints,
	}
}

func (m *Mapper) Assignments(dtos []courseWorkDTO) []gradebook.Assignment {
	out := make([]gradebook.Assignment, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, m.Assignment(dto))
	}
	return out
}

func (m *Mapper) Submission(dto submissionDTO) gradebook.Submission {
	return gradebook.Submission{
		ID:            dto.ID,
		StudentID:     dto.UserID,
		DraftGrade:    dto.DraftGrade,
		AssignedGrade: dto.AssignedGrade,
	}
}

func (m *Mapper) Submissions(dtos []submissionDTO) []gradebook.Submission {
	out := make([]gradebook.Submission, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, m.Submission(dto))
	}
	return out
}
