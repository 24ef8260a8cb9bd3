package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/entity"
	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/credits"
	"rimshield/internal/infrastructure/http/v1/middleware"
)

type stubCreditRepo struct {
	notes map[id.ID]*credits.CreditNote
	order []*credits.CreditNote
}

func newStubCreditRepo() *stubCreditRepo {
	return &stubCreditRepo{notes: make(map[id.ID]*credits.CreditNote)}
}

func (r *stubCreditRepo) add(note *credits.CreditNote) {
	r.notes[note.ID] = note
	r.order = append(r.order, note)
}

func (r *stubCreditRepo) Create(_ context.Context, note *credits.CreditNote) error {
	r.add(note)
	return nil
}

func (r *stubCreditRepo) GetByID(_ context.Context, creditID id.ID) (*credits.CreditNote, error) {
	note, ok := r.notes[creditID]
	if !ok {
		return nil, apperror.NewNotFound("credit note", creditID.String())
	}
	return note, nil
}

func (r *stubCreditRepo) List(_ context.Context) ([]*credits.CreditNote, error) {
	return r.order, nil
}

func (r *stubCreditRepo) UpdateSync(_ context.Context, creditID id.ID, sync *credits.SyncState) error {
	note, ok := r.notes[creditID]
	if !ok {
		return apperror.NewNotFound("credit note", creditID.String())
	}
	note.Sync = sync
	return nil
}

func newCreditsTestRouter(repo *stubCreditRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	service := credits.NewService(repo, nil, nil, nil, nil, nil, nil, types.DefaultVATRates(), nil)
	handler := NewCreditsHandler(service)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.GET("/api/credits", handler.List)
	router.GET("/api/credits/:id", handler.Get)
	return router
}

func syncedNote(number string) *credits.CreditNote {
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return &credits.CreditNote{
		BaseDocument: entity.NewBaseDocument(),
		CreditNumber: number,
		OrderID:      id.New(),
		OrderNumber:  "ORD-1001",
		CustomerName: "J. Vermeer",
		Email:        "j.vermeer@example.com",
		PDFURL:       "/files/credit-notes/" + number + ".pdf",
		Sync: &credits.SyncState{
			Status:        credits.SyncSuccess,
			CreditMutatie: 90210,
			SyncTimestamp: &now,
		},
	}
}

func TestCreditsList(t *testing.T) {
	repo := newStubCreditRepo()
	repo.add(syncedNote("C-2026-00001"))
	repo.add(syncedNote("C-2026-00002"))
	router := newCreditsTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/credits", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Credits []struct {
			CreditNumber string `json:"credit_number"`
			Sync         *struct {
				Status        string `json:"status"`
				CreditMutatie int64  `json:"credit_mutatie_id"`
			} `json:"eboekhouden_sync"`
		} `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Credits, 2)
	assert.Equal(t, "C-2026-00001", body.Credits[0].CreditNumber)
	require.NotNil(t, body.Credits[0].Sync)
	assert.Equal(t, credits.SyncSuccess, body.Credits[0].Sync.Status)
	assert.Equal(t, int64(90210), body.Credits[0].Sync.CreditMutatie)
}

func TestCreditsGet(t *testing.T) {
	repo := newStubCreditRepo()
	note := syncedNote("C-2026-00007")
	repo.add(note)
	router := newCreditsTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/credits/"+note.ID.String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CreditNumber string `json:"credit_number"`
		PDFURL       string `json:"pdf_url"`
		Sync         *struct {
			Status string `json:"status"`
		} `json:"eboekhouden_sync"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "C-2026-00007", body.CreditNumber)
	assert.Equal(t, note.PDFURL, body.PDFURL)
	require.NotNil(t, body.Sync)
	assert.Equal(t, credits.SyncSuccess, body.Sync.Status)
}

func TestCreditsGet_NotFound(t *testing.T) {
	router := newCreditsTestRouter(newStubCreditRepo())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/credits/"+id.New().String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeNotFound, body.Code)
}

func TestCreditsGet_InvalidID(t *testing.T) {
	router := newCreditsTestRouter(newStubCreditRepo())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/credits/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
