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

func newTicketHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ticket_handler_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.TicketHistoryEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTicketTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTicketHandlerTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewTicketHandler(services.NewTicketService(db, logger), logger)

	router := gin.New()
	api := router.Group("/api")
	RegisterTicketRoutes(api, handler)
	return router, db
}

func TestTicketHandler_CreateTicket_Success(t *testing.T) {
	router, db := newTicketTestRouter(t)

	db.Create(&models.User{Name: "Priya Nair", Email: "priya@example.com", Role: "customer"})

	payload := map[string]interface{}{
		"customer_id":       1,
		"device_type":       "Laptop",
		"brand":             "Dell",
		"issue_description": "Screen flickering on boot",
		"store":             "Main Branch",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body: %s", w.Code, w.Body.String())
	}

	var ticket models.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &ticket); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, models.StatusPendingApproval, ticket.Status)
	assert.Contains(t, ticket.TicketCode, "REQ-")
}

func TestTicketHandler_CreateTicket_MissingFields(t *testing.T) {
	router, _ := newTicketTestRouter(t)

	req := httptest.NewRequest("POST", "/api/tickets", bytes.NewReader([]byte(`{"brand":"Dell"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTicketHandler_GetTicket_NotFound(t *testing.T) {
	router, _ := newTicketTestRouter(t)

	req := httptest.NewRequest("GET", "/api/tickets/999", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketHandler_GetTicket_InvalidID(t *testing.T) {
	router, _ := newTicketTestRouter(t)

	req := httptest.NewRequest("GET", "/api/tickets/abc", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTicketHandler_ApproveTicket_Conflict(t *testing.T) {
	router, db := newTicketTestRouter(t)

	db.Create(&models.User{Name: "Priya Nair", Role: "customer"})
	db.Create(&models.Ticket{
		TicketCode: "REQ-100", CustomerID: 1, DeviceType: "Laptop",
		IssueDescription: "won't boot", Status: models.StatusResolved,
	})

	body := []byte(`{"actor":"Admin"}`)
	req := httptest.NewRequest("POST", "/api/tickets/1/approve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// 只有待审批工单可以被审批
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTicketHandler_ApproveTicket_Success(t *testing.T) {
	router, db := newTicketTestRouter(t)

	db.Create(&models.User{Name: "Priya Nair", Role: "customer"})
	db.Create(&models.Ticket{
		TicketCode: "REQ-100", CustomerID: 1, DeviceType: "Laptop",
		IssueDescription: "won't boot", Status: models.StatusPendingApproval,
	})

	body := []byte(`{"actor":"Admin"}`)
	req := httptest.NewRequest("POST", "/api/tickets/1/approve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body: %s", w.Code, w.Body.String())
	}

	var ticket models.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &ticket); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, models.StatusNew, ticket.Status)
	assert.Equal(t, "IF-100", ticket.TicketCode)
}

func TestTicketHandler_ListTickets_Paginated(t *testing.T) {
	router, db := newTicketTestRouter(t)

	db.Create(&models.User{Name: "Priya Nair", Role: "customer"})
	for i := 0; i < 3; i++ {
		db.Create(&models.Ticket{
			TicketCode: "REQ-" + string(rune('a'+i)), CustomerID: 1,
			DeviceType: "Laptop", IssueDescription: "issue", Status: models.StatusNew,
		})
	}

	req := httptest.NewRequest("GET", "/api/tickets?page=1&page_size=2", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp PaginatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.Pages)
}
