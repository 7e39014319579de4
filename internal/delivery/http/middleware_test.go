package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestLoggerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestLoggerMiddleware())

	var gotID string
	router.GET("/ping", func(c *gin.Context) {
		gotID = c.GetString("request_id")
		c.String(http.StatusOK, "pong")
	})

	req, _ := http.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(gotID) != 8 {
		t.Errorf("request_id = %q, want 8-char id", gotID)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware())

	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	// No internal detail leaks to the caller
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("response leaked panic detail: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("body = %s, want generic internal error", w.Body.String())
	}
}
