package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/interfaces/http/client"
	"github.com/octabyte/pharmacy-session/models"
	"github.com/octabyte/pharmacy-session/navigation"
	"github.com/octabyte/pharmacy-session/session"
	"github.com/octabyte/pharmacy-session/storage"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
	Form   map[string]string
}

type CatalogTestSuite struct {
	suite.Suite
	ctx        context.Context
	store      *session.Store
	recorder   *navigation.Recorder
	server     *httptest.Server
	mu         sync.Mutex
	requests   []capturedRequest
	status     int
	response   string
	products   *Products
	categories *Categories
	batches    *Batches
}

func (s *CatalogTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.requests = nil
	s.status = http.StatusOK
	s.response = `{}`

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := capturedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get(client.Authorization)}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				captured.Form = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					captured.Form[k] = v[0]
				}
			}
		} else {
			b, _ := io.ReadAll(r.Body)
			captured.Body = string(b)
		}

		s.mu.Lock()
		s.requests = append(s.requests, captured)
		status, body := s.status, s.response
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	s.recorder = navigation.NewRecorder()
	s.store = session.NewStore(s.ctx, storage.NewMemory(), nil, s.recorder,
		session.WithDemoAccount(&session.DemoAccount{Email: session.DefaultDemoEmail, Password: session.DefaultDemoPassword}))
	_, err := s.store.Login(s.ctx, models.Credentials{Email: session.DefaultDemoEmail, Password: session.DefaultDemoPassword})
	s.Require().NoError(err)

	c := client.NewAuthorized(client.Config{BaseURL: s.server.URL}, s.store, s.recorder, nil)
	s.products = NewProducts(c)
	s.categories = NewCategories(c)
	s.batches = NewBatches(c)
}

func (s *CatalogTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *CatalogTestSuite) reply(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.response = status, body
}

func (s *CatalogTestSuite) last() capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *CatalogTestSuite) TestProductsAll() {
	s.reply(http.StatusOK, `[
		{"id":1,"name":"Paracetamol","category_id":2,"status":1,"batches":[
			{"id":10,"product_id":1,"stock":30,"status":1},
			{"id":11,"product_id":1,"stock":5,"status":0},
			{"id":12,"product_id":1,"stock":12,"status":1}
		]},
		{"id":2,"name":"Ibuprofeno","category_id":2,"status":1}
	]`)

	products, err := s.products.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Equal("Paracetamol", products[0].Name)
	s.Equal(42, products[0].Stock())
	s.Equal(0, products[1].Stock())

	req := s.last()
	s.Equal(http.MethodGet, req.Method)
	s.Equal("/products/all", req.Path)
	s.Equal("Bearer "+s.store.Token(), req.Auth)
}

func (s *CatalogTestSuite) TestProductsCreate() {
	s.reply(http.StatusOK, `{"id":3,"name":"Amoxicilina","category_id":1,"status":1}`)

	out, err := s.products.Create(s.ctx, models.ProductCreate{Name: "Amoxicilina", CategoryID: 1, Presentation: "capsulas", Concentration: "500mg"})
	s.Require().NoError(err)
	s.Equal(uint64(3), out.ID)

	req := s.last()
	s.Equal(http.MethodPost, req.Method)
	s.Equal("/products/create", req.Path)
	s.JSONEq(`{"name":"Amoxicilina","category_id":1,"presentation":"capsulas","concentration":"500mg"}`, req.Body)
}

func (s *CatalogTestSuite) TestProductsCreateRejectsInvalidInput() {
	_, err := s.products.Create(s.ctx, models.ProductCreate{Name: ""})
	var verrs validator.ValidationErrors
	s.True(errors.As(err, &verrs))
	s.mu.Lock()
	s.Empty(s.requests)
	s.mu.Unlock()
}

func (s *CatalogTestSuite) TestProductsUpdateSendsForm() {
	s.reply(http.StatusOK, `{"id":3,"name":"Amoxicilina","category_id":1,"status":1}`)
	desc, empty := "  antibiotico  ", "  "

	_, err := s.products.Update(s.ctx, 3, models.ProductUpdate{Name: " Amoxicilina ", CategoryID: 1, Description: &desc, Presentation: &empty})
	s.Require().NoError(err)

	req := s.last()
	s.Equal(http.MethodPut, req.Method)
	s.Equal("/products/update", req.Path)
	s.Equal(map[string]string{
		"product_id":  "3",
		"name":        "Amoxicilina",
		"category_id": "1",
		"description": "antibiotico",
	}, req.Form)
}

func (s *CatalogTestSuite) TestProductsDelete() {
	s.reply(http.StatusOK, `null`)
	s.Require().NoError(s.products.Delete(s.ctx, 5))
	req := s.last()
	s.Equal(http.MethodDelete, req.Method)
	s.Equal("/products/delete/5", req.Path)
}

func (s *CatalogTestSuite) TestCategories() {
	s.reply(http.StatusOK, `[{"id":1,"name":"Analgesicos"},{"id":2,"name":"Antibioticos"}]`)
	all, err := s.categories.All(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("/categories/all", s.last().Path)

	s.reply(http.StatusOK, `{"id":2,"name":"Antibioticos"}`)
	one, err := s.categories.Get(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal("Antibioticos", one.Name)
	s.Equal("/categories/2", s.last().Path)
}

func (s *CatalogTestSuite) TestBatches() {
	s.reply(http.StatusOK, `[{"id":10,"product_id":1,"expiration_date":"2027-01-31","stock":30,"status":1}]`)
	all, err := s.batches.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("2027-01-31", all[0].ExpirationDate)

	stock := 25
	s.reply(http.StatusOK, `{"id":11,"product_id":1,"stock":25,"status":1}`)
	_, err = s.batches.Create(s.ctx, models.MedicineBatchCreate{ProductID: 1, ExpirationDate: "2027-06-30", Stock: &stock})
	s.Require().NoError(err)
	s.Equal("/batches/create", s.last().Path)

	_, err = s.batches.Create(s.ctx, models.MedicineBatchCreate{ProductID: 1, ExpirationDate: "30/06/2027"})
	s.Error(err)

	s.reply(http.StatusOK, `{"id":11,"product_id":1,"stock":20,"status":1}`)
	newStock := 20
	_, err = s.batches.Update(s.ctx, 11, models.MedicineBatchUpdate{Stock: &newStock})
	s.Require().NoError(err)
	req := s.last()
	s.Equal(http.MethodPut, req.Method)
	s.Equal("/batches/update/", req.Path)
	s.JSONEq(`{"id":11,"stock":20}`, req.Body)

	s.Require().NoError(s.batches.Delete(s.ctx, 11))
	s.Equal("/batches/delete/11", s.last().Path)
}

func (s *CatalogTestSuite) TestAPIErrorCarriesDetail() {
	s.reply(http.StatusConflict, `{"detail":"Product has active batches"}`)

	err := s.products.Delete(s.ctx, 1)
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusConflict, apiErr.StatusCode)
	s.Equal("Product has active batches", apiErr.Detail)
	s.True(s.store.IsAuthenticated())
}

func (s *CatalogTestSuite) TestUnauthorizedEndsSession() {
	s.reply(http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	_, err := s.products.All(s.ctx)
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.Unauthorized())

	s.False(s.store.IsAuthenticated())
	s.Nil(s.store.CurrentUser())
	s.Equal(enums.RouteLogin, s.recorder.Last())

	s.reply(http.StatusOK, `[]`)
	_, err = s.categories.All(s.ctx)
	s.Require().NoError(err)
	s.Empty(s.last().Auth)
}

func TestCatalogTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}
