package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
	"go.ngs.io/oceanprep/internal/usecase"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.OutputDir = "out"
	mem := store.NewMemory()

	ds := domain.NewDataset(domain.Attrs{"description": "test product"})
	ds.AddCoord(&domain.Coord{Name: domain.DimMonth, Values: domain.Months(1)})
	ds.AddCoord(&domain.Coord{Name: domain.DimDepth, Values: []float64{5}})
	ds.AddCoord(&domain.Coord{Name: domain.DimLat, Values: []float64{0, 10}})
	ds.AddCoord(&domain.Coord{Name: domain.DimLon, Values: []float64{-20, -10}})
	values := make([]float64, 0, 12*4)
	for m := 0; m < 12; m++ {
		values = append(values, 0, 0, 10, 10)
	}
	data, _ := domain.NewArray(values, 12, 1, 2, 2)
	v, _ := domain.NewVariable("T", []string{domain.DimMonth, domain.DimDepth, domain.DimLat, domain.DimLon}, data,
		domain.Attrs{"units": "deg C"})
	if err := ds.AddVar(v); err != nil {
		t.Fatalf("AddVar: %v", err)
	}
	mem.Put(cfg.OutputPath(cfg.Seawater.Output), ds)

	uc := usecase.NewInspectUseCase(mem, usecase.Products(cfg))
	return SetupRouter(uc, nil)
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := doGet(setupTestRouter(t), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestListProducts(t *testing.T) {
	w := doGet(setupTestRouter(t), "/v1/products")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count    int                   `json:"count"`
		Products []usecase.ProductInfo `json:"products"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || !body.Products[0].Prepared || body.Products[1].Prepared {
		t.Errorf("unexpected products %+v", body)
	}
}

func TestDescribeProduct(t *testing.T) {
	router := setupTestRouter(t)

	w := doGet(router, "/v1/products/seawater")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var d usecase.Description
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Attrs["description"] != "test product" || len(d.Variables) != 1 {
		t.Errorf("unexpected description %+v", d)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/v1/products/salinity", http.StatusNotFound},
		{"/v1/products/plafom", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := doGet(router, tt.path); w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.want, w.Code)
		}
	}
}

func TestGetProfile(t *testing.T) {
	router := setupTestRouter(t)

	w := doGet(router, "/v1/products/seawater/profile?lat=2.5&lon=-15&month=3")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p usecase.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := p.Values["T"]; len(got) != 1 || got[0] == nil || *got[0] != 2.5 {
		t.Errorf("unexpected profile %+v", p.Values)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing lat", "/v1/products/seawater/profile?lon=-15", http.StatusBadRequest},
		{"invalid lon", "/v1/products/seawater/profile?lat=1&lon=abc", http.StatusBadRequest},
		{"latitude out of range", "/v1/products/seawater/profile?lat=91&lon=-15", http.StatusBadRequest},
		{"invalid month", "/v1/products/seawater/profile?lat=1&lon=-15&month=13", http.StatusBadRequest},
		{"outside grid", "/v1/products/seawater/profile?lat=30&lon=-15", http.StatusBadRequest},
		{"unknown product", "/v1/products/salinity/profile?lat=1&lon=-15", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doGet(router, tt.query); w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
