package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/service"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

type fakeStaffState struct {
	payment   *service.SalaryPaymentRequest
	paidStaff string
	payErr    error
}

func (f *fakeStaffState) Staff() []models.StaffMember {
	return []models.StaffMember{
		{ID: "t1", Name: "Mrs. Anderson", Category: models.StaffTeaching},
		{ID: "s1", Name: "Mr. John (Driver)", Category: models.StaffSupport},
		{ID: "t2", Name: "Ms. Rivera"},
	}
}

func (f *fakeStaffState) FindStaff(string) (models.StaffMember, bool) {
	return models.StaffMember{}, false
}

func (f *fakeStaffState) AddStaff(context.Context, service.CreateStaffRequest) (dto.MutationAck, error) {
	return dto.MutationAck{ID: "new"}, nil
}

func (f *fakeStaffState) UpdateStaff(context.Context, string, service.UpdateStaffRequest) error {
	return nil
}

func (f *fakeStaffState) DeleteStaff(context.Context, string) error {
	return nil
}

func (f *fakeStaffState) PaySalary(_ context.Context, staffID string, req service.SalaryPaymentRequest) (dto.MutationAck, error) {
	f.paidStaff = staffID
	f.payment = &req
	if f.payErr != nil {
		return dto.MutationAck{}, f.payErr
	}
	return dto.MutationAck{ID: "exp-1"}, nil
}

func TestStaffHandlerListByCategory(t *testing.T) {
	handler := NewStaffHandler(&fakeStaffState{})

	c, w := newGinContext(http.MethodGet, "/staff?category=Support%20Staff", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Mr. John (Driver)", body.Data[0]["name"])
}

func TestStaffHandlerListTeachingIncludesUncategorised(t *testing.T) {
	handler := NewStaffHandler(&fakeStaffState{})

	c, w := newGinContext(http.MethodGet, "/staff?category=Teaching", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Mrs. Anderson", body.Data[0]["name"])
	assert.Equal(t, "Ms. Rivera", body.Data[1]["name"])
}

func TestStaffHandlerPaySalaryWithOverrides(t *testing.T) {
	state := &fakeStaffState{}
	handler := NewStaffHandler(state)

	c, w := newGinContext(http.MethodPost, "/staff/t1/salary-payments", []byte(`{"amount":12500,"date":"2024-03-31"}`))
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.PaySalary(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "t1", state.paidStaff)
	require.NotNil(t, state.payment.Amount)
	assert.EqualValues(t, 12500, *state.payment.Amount)
	assert.Equal(t, "2024-03-31", state.payment.Date)
}

func TestStaffHandlerPaySalaryUnknownStaff(t *testing.T) {
	handler := NewStaffHandler(&fakeStaffState{payErr: appErrors.Clone(appErrors.ErrNotFound, "staff member not found")})

	c, w := newGinContext(http.MethodPost, "/staff/ghost/salary-payments", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	handler.PaySalary(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
