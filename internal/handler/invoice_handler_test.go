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

type fakeInvoiceState struct {
	invoices  []models.Invoice
	created   []service.CreateInvoiceRequest
	updatedID string
	addErr    error
	nextClass string
}

func (f *fakeInvoiceState) Invoices() []models.Invoice {
	return append([]models.Invoice(nil), f.invoices...)
}

func (f *fakeInvoiceState) FindInvoice(id string) (models.Invoice, bool) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return models.Invoice{}, false
}

func (f *fakeInvoiceState) NextInvoiceID(studentClass string) string {
	f.nextClass = studentClass
	return "APSLK004"
}

func (f *fakeInvoiceState) AddInvoice(_ context.Context, req service.CreateInvoiceRequest) (dto.MutationAck, error) {
	if f.addErr != nil {
		return dto.MutationAck{}, f.addErr
	}
	f.created = append(f.created, req)
	return dto.MutationAck{ID: "inv-9", DisplayID: "APSUK002"}, nil
}

func (f *fakeInvoiceState) UpdateInvoice(_ context.Context, id string, _ service.UpdateInvoiceRequest) (dto.MutationAck, error) {
	f.updatedID = id
	return dto.MutationAck{ID: id}, nil
}

func (f *fakeInvoiceState) DeleteInvoice(_ context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "invoice id is required")
	}
	return nil
}

type listEnvelope struct {
	Data []map[string]interface{} `json:"data"`
	Meta map[string]interface{}   `json:"meta"`
}

func TestInvoiceHandlerListIncludesBalance(t *testing.T) {
	handler := NewInvoiceHandler(&fakeInvoiceState{invoices: []models.Invoice{
		{ID: "a", DisplayID: "APSUK001", Amount: 450, Paid: 200, Status: models.InvoicePending},
		{ID: "b", DisplayID: "APSUK002", Amount: 450, Paid: 450, Status: models.InvoicePaid},
	}})

	c, w := newGinContext(http.MethodGet, "/invoices?status=Pending", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "APSUK001", body.Data[0]["displayId"])
	assert.EqualValues(t, 250, body.Data[0]["balance"])
	assert.EqualValues(t, 1, body.Meta["total"])
}

func TestInvoiceHandlerCreateAccepted(t *testing.T) {
	state := &fakeInvoiceState{}
	handler := NewInvoiceHandler(state)

	c, w := newGinContext(http.MethodPost, "/invoices", []byte(`{"student":"Eva Davis","studentClass":"Kindergarten","amount":"450","paid":0,"type":"Tuition"}`))
	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, state.created, 1)
	assert.EqualValues(t, 450, state.created[0].Amount)

	var body responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "APSUK002", body.Data["displayId"])
}

func TestInvoiceHandlerCreateGatewayFailure(t *testing.T) {
	handler := NewInvoiceHandler(&fakeInvoiceState{
		addErr: appErrors.Wrap(assert.AnError, appErrors.ErrGatewayFailure.Code, appErrors.ErrGatewayFailure.Status, "failed to create invoice"),
	})

	c, w := newGinContext(http.MethodPost, "/invoices", []byte(`{"student":"Eva Davis"}`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "GATEWAY_FAILURE", body.Error.Code)
}

func TestInvoiceHandlerCreateRejectsMalformedJSON(t *testing.T) {
	handler := NewInvoiceHandler(&fakeInvoiceState{})

	c, w := newGinContext(http.MethodPost, "/invoices", []byte(`{"student":`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandlerNextID(t *testing.T) {
	state := &fakeInvoiceState{}
	handler := NewInvoiceHandler(state)

	c, w := newGinContext(http.MethodGet, "/invoices/next-id?class=LKG", nil)
	handler.NextID(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "LKG", state.nextClass)
	assert.Contains(t, w.Body.String(), `"displayId":"APSLK004"`)
}

func TestInvoiceHandlerNextIDRequiresClass(t *testing.T) {
	handler := NewInvoiceHandler(&fakeInvoiceState{})

	c, w := newGinContext(http.MethodGet, "/invoices/next-id", nil)
	handler.NextID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandlerGetNotFound(t *testing.T) {
	handler := NewInvoiceHandler(&fakeInvoiceState{})

	c, w := newGinContext(http.MethodGet, "/invoices/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoiceHandlerUpdate(t *testing.T) {
	state := &fakeInvoiceState{}
	handler := NewInvoiceHandler(state)

	c, w := newGinContext(http.MethodPut, "/invoices/inv-1", []byte(`{"paid":450}`))
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}
	handler.Update(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "inv-1", state.updatedID)
}
