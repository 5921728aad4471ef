package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

type mockFinanceRepo struct {
	fees     map[string]*models.FeeStructure
	feePairs map[string]bool
	salaries map[string]*models.StaffSalaryDetail
	bill     float64
}

func newMockFinanceRepo() *mockFinanceRepo {
	return &mockFinanceRepo{
		fees:     map[string]*models.FeeStructure{},
		feePairs: map[string]bool{},
		salaries: map[string]*models.StaffSalaryDetail{},
	}
}

func (m *mockFinanceRepo) FindFeeStructure(_ context.Context, id string) (*models.FeeStructure, error) {
	fee, ok := m.fees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *fee
	return &copied, nil
}

func (m *mockFinanceRepo) ListFeeStructures(_ context.Context, _ models.FeeFilter) ([]models.FeeStructureDetail, int, error) {
	var out []models.FeeStructureDetail
	for _, fee := range m.fees {
		out = append(out, models.FeeStructureDetail{FeeStructure: *fee})
	}
	return out, len(out), nil
}

func (m *mockFinanceRepo) CreateFeeStructure(_ context.Context, fee *models.FeeStructure) error {
	pair := fee.ProgramID + "|" + fee.SemesterID
	if m.feePairs[pair] {
		return uniqueViolation()
	}
	fee.ID = uuid.NewString()
	m.feePairs[pair] = true
	stored := *fee
	m.fees[fee.ID] = &stored
	return nil
}

func (m *mockFinanceRepo) UpdateFeeStructure(_ context.Context, fee *models.FeeStructure) error {
	stored := *fee
	m.fees[fee.ID] = &stored
	return nil
}

func (m *mockFinanceRepo) ProgramFeeSummaries(_ context.Context) ([]models.ProgramFeeSummary, error) {
	return nil, nil
}

func (m *mockFinanceRepo) FindSalary(_ context.Context, id string) (*models.StaffSalary, error) {
	for _, salary := range m.salaries {
		if salary.ID == id {
			copied := salary.StaffSalary
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockFinanceRepo) ListSalaries(_ context.Context, filter models.SalaryFilter) ([]models.StaffSalaryDetail, int, error) {
	var out []models.StaffSalaryDetail
	for _, salary := range m.salaries {
		if filter.UserID != "" && salary.UserID != filter.UserID {
			continue
		}
		out = append(out, *salary)
	}
	return out, len(out), nil
}

func (m *mockFinanceRepo) CreateSalary(_ context.Context, salary *models.StaffSalary) error {
	if _, exists := m.salaries[salary.UserID]; exists {
		return uniqueViolation()
	}
	salary.ID = uuid.NewString()
	m.salaries[salary.UserID] = &models.StaffSalaryDetail{StaffSalary: *salary}
	return nil
}

func (m *mockFinanceRepo) UpdateSalary(_ context.Context, salary *models.StaffSalary) error {
	m.salaries[salary.UserID] = &models.StaffSalaryDetail{StaffSalary: *salary}
	return nil
}

func (m *mockFinanceRepo) TotalSalaryBill(_ context.Context) (float64, error) {
	return m.bill, nil
}

type mockStaffReader struct {
	byID map[string]*models.User
}

func (m *mockStaffReader) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func newFinanceService(repo *mockFinanceRepo, users *mockStaffReader) *FinanceService {
	return NewFinanceService(repo, users, &mockAuditWriter{}, nil, nil)
}

func TestFinanceCreateFeeRejectsDuplicatePair(t *testing.T) {
	repo := newMockFinanceRepo()
	svc := newFinanceService(repo, &mockStaffReader{})

	req := UpsertFeeRequest{ProgramID: "prog-1", SemesterID: "sem-1", Amount: 1500}
	first, err := svc.CreateFee(context.Background(), "bursar-1", req)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = svc.CreateFee(context.Background(), "bursar-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestFinanceCreateFeeRequiresPositiveAmount(t *testing.T) {
	svc := newFinanceService(newMockFinanceRepo(), &mockStaffReader{})

	_, err := svc.CreateFee(context.Background(), "bursar-1", UpsertFeeRequest{ProgramID: "prog-1", SemesterID: "sem-1", Amount: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFinanceUpsertSalaryCreatesThenUpdates(t *testing.T) {
	repo := newMockFinanceRepo()
	users := &mockStaffReader{byID: map[string]*models.User{
		"user-1": {ID: "user-1", Role: models.RoleLecturer, Active: true},
	}}
	svc := newFinanceService(repo, users)

	created, err := svc.UpsertSalary(context.Background(), "bursar-1", UpsertSalaryRequest{
		UserID: "user-1", BasicAmount: 3000, Allowances: 500, Deductions: 200,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	updated, err := svc.UpsertSalary(context.Background(), "bursar-1", UpsertSalaryRequest{
		UserID: "user-1", BasicAmount: 3200, Allowances: 500, Deductions: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.InDelta(t, 3200, updated.BasicAmount, 0.001)
	assert.Len(t, repo.salaries, 1)
}

func TestFinanceUpsertSalaryRejectsStudents(t *testing.T) {
	users := &mockStaffReader{byID: map[string]*models.User{
		"user-2": {ID: "user-2", Role: models.RoleStudent, Active: true},
	}}
	svc := newFinanceService(newMockFinanceRepo(), users)

	_, err := svc.UpsertSalary(context.Background(), "bursar-1", UpsertSalaryRequest{UserID: "user-2", BasicAmount: 1000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFinanceExportSalariesCSV(t *testing.T) {
	repo := newMockFinanceRepo()
	repo.salaries["user-1"] = &models.StaffSalaryDetail{
		StaffSalary: models.StaffSalary{ID: "sal-1", UserID: "user-1", BasicAmount: 3000, Allowances: 500, Deductions: 200},
		FullName:    "Grace Eze",
		Role:        models.RoleLecturer,
	}
	svc := newFinanceService(repo, &mockStaffReader{})

	payload, err := svc.ExportSalariesCSV(context.Background(), models.SalaryFilter{})
	require.NoError(t, err)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Name,Role,Basic,Allowances,Deductions,Net"))
	assert.Contains(t, content, "Grace Eze")
	assert.Contains(t, content, "3300.00")
}

func TestFinanceExportFeesCSV(t *testing.T) {
	repo := newMockFinanceRepo()
	svc := newFinanceService(repo, &mockStaffReader{})

	_, err := svc.CreateFee(context.Background(), "bursar-1", UpsertFeeRequest{
		ProgramID: "prog-1", SemesterID: "sem-1", Amount: 2750.5, Description: "Tuition",
	})
	require.NoError(t, err)

	payload, err := svc.ExportFeesCSV(context.Background(), models.FeeFilter{})
	require.NoError(t, err)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Program,Semester,Amount,Description"))
	assert.Contains(t, content, "2750.50")
	assert.Contains(t, content, "Tuition")
}
