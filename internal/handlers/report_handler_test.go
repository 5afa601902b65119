package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"
	"github.com/Farmanaslam/Infofix-New-App/internal/services"
)

func newReportHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:report_handler_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.QCReport{}, &models.QCReportHistoryEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newReportTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newReportHandlerTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewReportHandler(services.NewReportService(db, logger), logger)

	router := gin.New()
	api := router.Group("/api")
	RegisterReportRoutes(api, handler)
	return router, db
}

func TestReportHandler_SaveReport_Success(t *testing.T) {
	router, _ := newReportTestRouter(t)

	payload := map[string]interface{}{
		"laptop_no":   "LT-1001",
		"dealer_name": "Sharma Traders",
		"checklist":   map[string]string{"1": "pass"},
		"actor":       "Arun",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body: %s", w.Code, w.Body.String())
	}

	var report models.QCReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.NotEmpty(t, report.ReportNo)
	assert.Equal(t, "Draft", report.Status)
	assert.Equal(t, 1, report.Progress)
}

func TestReportHandler_SaveReport_Update(t *testing.T) {
	router, db := newReportTestRouter(t)

	db.Create(&models.QCReport{
		ReportNo: "QC-1", LaptopNo: "LT-1001",
		Checklist: models.ChecklistState{},
	})

	payload := map[string]interface{}{
		"id":        1,
		"laptop_no": "LT-1001",
		"checklist": map[string]string{"1": "pass"},
		"actor":     "Arun",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// 更新已有报告返回 200，新建才是 201
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandler_SaveReport_UnknownItem(t *testing.T) {
	router, _ := newReportTestRouter(t)

	payload := map[string]interface{}{
		"laptop_no": "LT-1001",
		"checklist": map[string]string{"77": "pass"},
		"actor":     "Arun",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_ToggleChecklistItem(t *testing.T) {
	router, db := newReportTestRouter(t)

	db.Create(&models.QCReport{
		ReportNo: "QC-1", LaptopNo: "LT-1001",
		Checklist: models.ChecklistState{},
	})

	body := []byte(`{"item_id":"1","status":"pass"}`)
	req := httptest.NewRequest("POST", "/api/reports/1/toggle", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body: %s", w.Code, w.Body.String())
	}

	var result services.ToggleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, 1, result.Report.Progress)
	assert.False(t, result.Celebrate)
}

func TestReportHandler_ToggleChecklistItem_BadStatus(t *testing.T) {
	router, db := newReportTestRouter(t)

	db.Create(&models.QCReport{
		ReportNo: "QC-1", LaptopNo: "LT-1001",
		Checklist: models.ChecklistState{},
	})

	// 只接受 pass / fail
	body := []byte(`{"item_id":"1","status":"maybe"}`)
	req := httptest.NewRequest("POST", "/api/reports/1/toggle", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_GetChecklistSchema(t *testing.T) {
	router, _ := newReportTestRouter(t)

	req := httptest.NewRequest("GET", "/api/reports/checklist", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var schema []services.ChecklistCategory
	if err := json.Unmarshal(w.Body.Bytes(), &schema); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.NotEmpty(t, schema)

	total := 0
	for _, cat := range schema {
		total += len(cat.Items)
	}
	assert.Equal(t, 79, total)
}

func TestReportHandler_SetActionRequired(t *testing.T) {
	router, db := newReportTestRouter(t)

	db.Create(&models.QCReport{
		ReportNo: "QC-1", LaptopNo: "LT-1001",
		Checklist: models.ChecklistState{"1": "fail"},
	})

	body := []byte(`{"value":"Sent to Service Centre"}`)
	req := httptest.NewRequest("PUT", "/api/reports/1/action", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body: %s", w.Code, w.Body.String())
	}

	var report models.QCReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if assert.NotNil(t, report.ActionRequired) {
		assert.Equal(t, "Sent to Service Centre", *report.ActionRequired)
	}
}
