package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

func (m *mockUserRepo) ListWorkers(ctx context.Context, skills []string, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, skills, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func TestUserService_SetSkills_DuplicateName(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)

	_, err := svc.SetSkills(context.Background(), uuid.New(), []SkillInput{
		{Name: "go", Level: models.SkillLevelAdvanced},
		{Name: "Go", Level: models.SkillLevelExpert},
	})

	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUserService_SetSkills_PreservesCertification(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)

	hash := "deadbeef"
	txID := "tx-1"
	user := workerWithSkill("go")
	user.Skills[0].Certified = true
	user.Skills[0].CertificateHash = &hash
	user.Skills[0].CertificationTxID = &txID

	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
	users.On("Update", mock.Anything, user).Return(nil).Once()

	updated, err := svc.SetSkills(context.Background(), user.ID, []SkillInput{
		{Name: "go", Level: models.SkillLevelExpert},
		{Name: "postgresql", Level: models.SkillLevelIntermediate},
	})

	require.NoError(t, err)
	require.Len(t, updated.Skills, 2)
	assert.True(t, updated.Skills[0].Certified)
	require.NotNil(t, updated.Skills[0].CertificateHash)
	assert.Equal(t, hash, *updated.Skills[0].CertificateHash)
	assert.Equal(t, models.SkillLevelExpert, updated.Skills[0].Level)
	assert.False(t, updated.Skills[1].Certified)
}
