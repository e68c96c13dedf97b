// Package billingtest serves an in-memory Roomio billing backend for tests
// and local runs of the client.
package billingtest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/platform/httpx"
)

type failure struct {
	status  int
	message string
}

// Server is a fake backend. All methods are safe for concurrent use.
type Server struct {
	mu        sync.Mutex
	token     string
	now       func() time.Time
	seq       int
	invoices  map[string]billing.Invoice
	order     []string
	roommate  map[string]bool
	templates map[string]billing.InvoiceTemplate
	tplOrder  []string
	contracts map[string]billing.Contract
	failures  map[string]failure
	calls     map[string]int
}

// New builds a Server accepting the given bearer token.
func New(token string) *Server {
	return &Server{
		token:     token,
		now:       time.Now,
		invoices:  make(map[string]billing.Invoice),
		roommate:  make(map[string]bool),
		templates: make(map[string]billing.InvoiceTemplate),
		contracts: make(map[string]billing.Contract),
		failures:  make(map[string]failure),
		calls:     make(map[string]int),
	}
}

// SetClock overrides the server clock.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddContract stores a contract.
func (s *Server) AddContract(c billing.Contract) billing.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.nextID("ct")
	}
	s.contracts[c.ID] = c
	return c
}

// AddInvoice stores an invoice, assigning an id when missing.
func (s *Server) AddInvoice(inv billing.Invoice) billing.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = s.nextID("inv")
	}
	s.putInvoice(inv)
	return inv
}

// ShareWithRoommate exposes an invoice on the roommate endpoints.
func (s *Server) ShareWithRoommate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roommate[id] = true
}

// AddTemplate stores a template.
func (s *Server) AddTemplate(tpl billing.InvoiceTemplate) billing.InvoiceTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl.ID == "" {
		tpl.ID = s.nextID("tpl")
	}
	if _, exists := s.templates[tpl.ID]; !exists {
		s.tplOrder = append(s.tplOrder, tpl.ID)
	}
	s.templates[tpl.ID] = tpl
	return tpl
}

// Invoice returns the stored invoice.
func (s *Server) Invoice(id string) (billing.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

// FailNext makes the next request to route fail. route is "METHOD pattern",
// for example "GET /billing/templates".
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Calls returns how many authorized requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of authorized requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Handler returns the HTTP handler serving the backend routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Route("/billing", func(r chi.Router) {
		r.Get("/invoices", s.intercept(s.listInvoices))
		r.Post("/invoices", s.intercept(s.createInvoice))
		r.Get("/invoices/roommate", s.intercept(s.listRoommateInvoices))
		r.Get("/invoices/roommate/{id}", s.intercept(s.getRoommateInvoice))
		r.Get("/invoices/{id}", s.intercept(s.getInvoice))
		r.Put("/invoices/{id}", s.intercept(s.updateInvoice))
		r.Delete("/invoices/{id}", s.intercept(s.deleteInvoice))
		r.Post("/invoices/{id}/confirm-payment", s.intercept(s.confirmPayment))
		r.Post("/invoices/{id}/mark-paid", s.intercept(s.markPaid))
		r.Post("/invoices/{id}/finalize", s.intercept(s.finalize))
		r.Post("/invoices/{id}/items", s.intercept(s.addItem))
		r.Put("/invoices/{id}/items", s.intercept(s.updateItems))
		r.Delete("/invoices/{id}/items/{index}", s.intercept(s.deleteItem))
		r.Post("/invoices/{id}/save-template", s.intercept(s.saveTemplate))
		r.Get("/templates", s.intercept(s.listTemplates))
		r.Post("/templates/{id}/apply", s.intercept(s.applyTemplate))
		r.Delete("/templates/{id}", s.intercept(s.deleteTemplate))
	})
	r.Route("/contract", func(r chi.Router) {
		r.Get("/", s.intercept(s.listContracts))
		r.Get("/{id}", s.intercept(s.getContract))
	})
	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// intercept counts calls and injects queued failures. It wraps endpoint
// handlers so the matched route pattern is known.
func (s *Server) intercept(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + routePattern(r)
		s.mu.Lock()
		s.calls[route]++
		f, failing := s.failures[route]
		delete(s.failures, route)
		s.mu.Unlock()
		if failing {
			httpx.Fail(w, f.status, f.message)
			return
		}
		next(w, r)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return strings.TrimSuffix(pattern, "/")
		}
	}
	return r.URL.Path
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%04d", prefix, s.seq)
}

func (s *Server) putInvoice(inv billing.Invoice) {
	if _, exists := s.invoices[inv.ID]; !exists {
		s.order = append(s.order, inv.ID)
	}
	s.invoices[inv.ID] = inv
}

func (s *Server) removeInvoice(id string) {
	delete(s.invoices, id)
	delete(s.roommate, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
