package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/in"
)

func TestRegister_InitializesOfflineStatus(t *testing.T) {
	statusRepo := newFakeStatusRepo()
	facultyRepo := newFakeFacultyRepo(statusRepo)
	uc := NewFacultyUseCase(facultyRepo, statusRepo)

	faculty, err := uc.Register(context.Background(), &in.RegisterFacultyRequest{
		FacultyID:  "FAC001",
		Name:       "Dr. Sarah Johnson",
		Email:      "sarah.johnson@university.edu",
		Department: "Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, "FAC001", faculty.FacultyID)

	// 注册后立刻能查到一条 Offline 状态
	rec, err := statusRepo.Get(context.Background(), "FAC001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entity.StatusOffline, rec.Code)
	assert.Empty(t, rec.Note)
}

func TestRegister_GeneratesFacultyID(t *testing.T) {
	statusRepo := newFakeStatusRepo()
	facultyRepo := newFakeFacultyRepo(statusRepo)
	uc := NewFacultyUseCase(facultyRepo, statusRepo)

	faculty, err := uc.Register(context.Background(), &in.RegisterFacultyRequest{
		Name:  "Prof. Michael Chen",
		Email: "michael.chen@university.edu",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(faculty.FacultyID, "FAC-"))
	assert.Len(t, faculty.FacultyID, len("FAC-")+8)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	statusRepo := newFakeStatusRepo()
	facultyRepo := newFakeFacultyRepo(statusRepo, drJohnson())
	uc := NewFacultyUseCase(facultyRepo, statusRepo)

	_, err := uc.Register(context.Background(), &in.RegisterFacultyRequest{
		FacultyID: "FAC777",
		Name:      "Someone Else",
		Email:     "sarah.johnson@university.edu",
	})
	assert.ErrorIs(t, err, entity.ErrFacultyAlreadyExists)
}

func TestRegister_DuplicateFacultyID(t *testing.T) {
	statusRepo := newFakeStatusRepo()
	facultyRepo := newFakeFacultyRepo(statusRepo, drJohnson())
	uc := NewFacultyUseCase(facultyRepo, statusRepo)

	_, err := uc.Register(context.Background(), &in.RegisterFacultyRequest{
		FacultyID: "FAC001",
		Name:      "Someone Else",
		Email:     "someone.else@university.edu",
	})
	assert.ErrorIs(t, err, entity.ErrFacultyAlreadyExists)
}

func TestGetFaculty_NotFound(t *testing.T) {
	statusRepo := newFakeStatusRepo()
	facultyRepo := newFakeFacultyRepo(statusRepo)
	uc := NewFacultyUseCase(facultyRepo, statusRepo)

	_, err := uc.GetFaculty(context.Background(), "FAC404")
	assert.ErrorIs(t, err, entity.ErrFacultyNotFound)
}
