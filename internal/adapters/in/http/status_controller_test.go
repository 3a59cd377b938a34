package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/middleware"
	"github.com/facultyhub/faculty-status/internal/ports/in"
)

// fakeStatusUseCase 按需注入各方法的返回值
type fakeStatusUseCase struct {
	updateFn func(ctx context.Context, callerID string, req *in.UpdateStatusRequest) (*entity.StatusRecord, error)
	getFn    func(ctx context.Context, facultyID string) (*entity.FacultyStatus, error)
	listFn   func(ctx context.Context) ([]*entity.FacultyStatus, error)
}

func (f *fakeStatusUseCase) UpdateStatus(ctx context.Context, callerID string, req *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
	return f.updateFn(ctx, callerID, req)
}

func (f *fakeStatusUseCase) GetStatus(ctx context.Context, facultyID string) (*entity.FacultyStatus, error) {
	return f.getFn(ctx, facultyID)
}

func (f *fakeStatusUseCase) ListStatuses(ctx context.Context) ([]*entity.FacultyStatus, error) {
	return f.listFn(ctx)
}

func (f *fakeStatusUseCase) BulkUpdate(ctx context.Context, callerID string, items []*in.UpdateStatusRequest) []*in.BulkUpdateResult {
	results := make([]*in.BulkUpdateResult, 0, len(items))
	for _, item := range items {
		rec, err := f.updateFn(ctx, callerID, item)
		if err != nil {
			results = append(results, &in.BulkUpdateResult{FacultyID: item.FacultyID, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, &in.BulkUpdateResult{FacultyID: item.FacultyID, Success: true, Record: rec})
	}
	return results
}

func newTestRouter(uc in.StatusUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TrustedIdentity())
	api := r.Group("/api")
	NewStatusController(uc).RegisterRoutes(api, middleware.RequireIdentity())
	return r
}

func doRequest(r *gin.Engine, method, path, callerID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if callerID != "" {
		req.Header.Set("X-Faculty-ID", callerID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateStatus_HTTPSuccess(t *testing.T) {
	uc := &fakeStatusUseCase{
		updateFn: func(_ context.Context, callerID string, req *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
			assert.Equal(t, "FAC001", callerID)
			assert.Equal(t, "FAC001", req.FacultyID)
			return &entity.StatusRecord{
				FacultyID: req.FacultyID,
				Code:      entity.StatusCode(req.Code),
				Note:      req.Note,
				UpdatedAt: time.Now().UTC(),
			}, nil
		},
	}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodPut, "/api/status/FAC001", "FAC001", `{"code":1,"note":"In meeting"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status struct {
			Code   int8   `json:"code"`
			Binary string `json:"binary"`
			Name   string `json:"name"`
			Color  string `json:"color"`
			Note   string `json:"note"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int8(1), resp.Status.Code)
	assert.Equal(t, "01", resp.Status.Binary)
	assert.Equal(t, "Busy", resp.Status.Name)
	assert.Equal(t, "#F44336", resp.Status.Color)
	assert.Equal(t, "In meeting", resp.Status.Note)
}

func TestUpdateStatus_HTTPErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"forbidden", entity.ErrForbidden, http.StatusForbidden},
		{"invalid code", entity.ErrInvalidStatusCode, http.StatusBadRequest},
		{"note too long", entity.ErrNoteTooLong, http.StatusBadRequest},
		{"not found", entity.ErrFacultyNotFound, http.StatusNotFound},
		{"storage down", entity.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeStatusUseCase{
				updateFn: func(context.Context, string, *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
					return nil, tt.err
				},
			}
			r := newTestRouter(uc)

			w := doRequest(r, http.MethodPut, "/api/status/FAC001", "FAC001", `{"code":0}`)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestUpdateStatus_RequiresIdentity(t *testing.T) {
	uc := &fakeStatusUseCase{
		updateFn: func(context.Context, string, *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
			t.Fatal("use case must not be reached without identity")
			return nil, nil
		},
	}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodPut, "/api/status/FAC001", "", `{"code":0}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStatus_HTTP(t *testing.T) {
	uc := &fakeStatusUseCase{
		getFn: func(_ context.Context, facultyID string) (*entity.FacultyStatus, error) {
			if facultyID != "FAC001" {
				return nil, entity.ErrFacultyNotFound
			}
			return &entity.FacultyStatus{
				Faculty: &entity.Faculty{FacultyID: "FAC001", Name: "Dr. Sarah Johnson", Department: "Computer Science"},
				Status:  &entity.StatusRecord{FacultyID: "FAC001", Code: entity.StatusAvailable, Note: "Office hours until 4 PM"},
			}, nil
		},
	}
	r := newTestRouter(uc)

	// 读接口不需要身份
	w := doRequest(r, http.MethodGet, "/api/status/FAC001", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		FacultyID string `json:"faculty_id"`
		Status    struct {
			Binary string `json:"binary"`
			Color  string `json:"color"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FAC001", resp.FacultyID)
	assert.Equal(t, "00", resp.Status.Binary)
	assert.Equal(t, "#4CAF50", resp.Status.Color)

	w = doRequest(r, http.MethodGet, "/api/status/FAC404", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListStatuses_HTTP(t *testing.T) {
	uc := &fakeStatusUseCase{
		listFn: func(context.Context) ([]*entity.FacultyStatus, error) {
			return []*entity.FacultyStatus{
				{
					Faculty: &entity.Faculty{FacultyID: "FAC001", Name: "Dr. Sarah Johnson"},
					Status:  &entity.StatusRecord{FacultyID: "FAC001", Code: entity.StatusBusy},
				},
				{
					// 没有状态记录的教师也要出现在目录里
					Faculty: &entity.Faculty{FacultyID: "FAC002", Name: "Prof. Michael Chen"},
				},
			}, nil
		},
	}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Faculty []map[string]any `json:"faculty"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Contains(t, resp.Faculty[0], "status")
	assert.NotContains(t, resp.Faculty[1], "status")
}

func TestGetStatusCodes_HTTP(t *testing.T) {
	r := newTestRouter(&fakeStatusUseCase{})

	w := doRequest(r, http.MethodGet, "/api/status/codes/all", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		StatusNames    map[string]string `json:"status_names"`
		StatusColors   map[string]string `json:"status_colors"`
		BinaryEncoding map[string]string `json:"binary_encoding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Available", resp.StatusNames["0"])
	assert.Equal(t, "#9E9E9E", resp.StatusColors["3"])
	assert.Equal(t, "Away", resp.BinaryEncoding["10"])
}

func TestBulkUpdate_HTTP(t *testing.T) {
	uc := &fakeStatusUseCase{
		updateFn: func(_ context.Context, callerID string, req *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
			if callerID != req.FacultyID {
				return nil, entity.ErrForbidden
			}
			return &entity.StatusRecord{FacultyID: req.FacultyID, Code: entity.StatusCode(req.Code)}, nil
		},
	}
	r := newTestRouter(uc)

	body := `{"updates":[{"faculty_id":"FAC001","code":0},{"faculty_id":"FAC002","code":1}]}`
	w := doRequest(r, http.MethodPost, "/api/status/bulk-update", "FAC001", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
}
