package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillmarket-backend/internal/gateway"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/storage"
)

type mockCertGateway struct {
	mock.Mock
}

func (m *mockCertGateway) Certify(ctx context.Context, userID uuid.UUID, skillName, certificateHash string) (*gateway.CertificationResult, error) {
	args := m.Called(ctx, userID, skillName, certificateHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CertificationResult), args.Error(1)
}

type mockCertStore struct {
	mock.Mock
}

func (m *mockCertStore) Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (*storage.SavedCertificate, error) {
	args := m.Called(ctx, userID, originalName, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SavedCertificate), args.Error(1)
}

func (m *mockCertStore) Delete(ctx context.Context, relativePath string) error {
	args := m.Called(ctx, relativePath)
	return args.Error(0)
}

func workerWithSkill(name string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Role:     models.RoleWorker,
		IsActive: true,
		Skills:   []models.Skill{{Name: name, Level: models.SkillLevelAdvanced}},
	}
}

func TestCertificationService_CertifySkill_Success(t *testing.T) {
	users := new(mockUserRepo)
	gw := new(mockCertGateway)
	store := new(mockCertStore)
	svc := NewCertificationService(users, gw, store)

	user := workerWithSkill("go")
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	users.On("Update", mock.Anything, user).Return(nil).Once()

	saved := &storage.SavedCertificate{RelativePath: "ab/cert.pdf", SHA256: "deadbeef"}
	store.On("Save", mock.Anything, user.ID, "cert.pdf", mock.Anything).Return(saved, nil).Once()

	gw.On("Certify", mock.Anything, user.ID, "go", "deadbeef").
		Return(&gateway.CertificationResult{TransactionID: "tx-42", CertificateHash: "deadbeef"}, nil).Once()

	skill, err := svc.CertifySkill(context.Background(), user.ID, "go", "cert.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	assert.True(t, skill.Certified)
	require.NotNil(t, skill.CertificateHash)
	assert.Equal(t, "deadbeef", *skill.CertificateHash)
	require.NotNil(t, skill.CertificationTxID)
	assert.Equal(t, "tx-42", *skill.CertificationTxID)
	assert.NotNil(t, skill.CertifiedAt)
	users.AssertExpectations(t)
}

func TestCertificationService_CertifySkill_UnknownSkill(t *testing.T) {
	users := new(mockUserRepo)
	store := new(mockCertStore)
	svc := NewCertificationService(users, new(mockCertGateway), store)

	user := workerWithSkill("go")
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	_, err := svc.CertifySkill(context.Background(), user.ID, "rust", "cert.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCertificationService_CertifySkill_GatewayFailureCleansUp(t *testing.T) {
	users := new(mockUserRepo)
	gw := new(mockCertGateway)
	store := new(mockCertStore)
	svc := NewCertificationService(users, gw, store)

	user := workerWithSkill("go")
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	saved := &storage.SavedCertificate{RelativePath: "ab/cert.pdf", SHA256: "deadbeef"}
	store.On("Save", mock.Anything, user.ID, "cert.pdf", mock.Anything).Return(saved, nil).Once()
	store.On("Delete", mock.Anything, "ab/cert.pdf").Return(nil).Once()

	gw.On("Certify", mock.Anything, user.ID, "go", "deadbeef").
		Return(nil, errors.New("реестр недоступен")).Once()

	_, err := svc.CertifySkill(context.Background(), user.ID, "go", "cert.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	store.AssertExpectations(t)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
