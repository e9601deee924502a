package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pharma-erp/internal/auth"
	"pharma-erp/internal/core"
	"pharma-erp/internal/export"
)

// Config carries the handler's non-service settings.
type Config struct {
	JWTSecret      string
	AllowedOrigins string
	Metrics        bool
}

// Handler is the HTTP adapter: it decodes requests, calls the core services,
// and encodes responses. All business rules live in the services.
type Handler struct {
	parties   core.PartyService
	catalog   core.CatalogService
	docs      core.SalesDocService
	payments  core.PaymentService
	patients  core.PatientService
	jwtSecret string
	router    chi.Router
}

// NewHandler wires every route onto a chi router.
func NewHandler(parties core.PartyService, catalog core.CatalogService, docs core.SalesDocService,
	payments core.PaymentService, patients core.PatientService, cfg Config) *Handler {

	h := &Handler{
		parties:   parties,
		catalog:   catalog,
		docs:      docs,
		payments:  payments,
		patients:  patients,
		jwtSecret: cfg.JWTSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/api/health", h.handleHealth)
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)
	r.Post("/api/doctors", h.handleCreateDoctor)

	// Customer and supplier registries share one handler set; the route picks
	// the party type.
	for _, reg := range []struct {
		path string
		typ  core.PartyType
	}{
		{"/api/customers", core.PartyCustomer},
		{"/api/suppliers", core.PartySupplier},
	} {
		reg := reg
		r.Route(reg.path, func(r chi.Router) {
			r.Get("/", h.handleListParties(reg.typ))
			r.Post("/", h.handleCreateParty(reg.typ))
			r.Get("/{id}", h.handleGetParty)
			r.Put("/{id}", h.handleUpdateParty)
			r.Delete("/{id}", h.handleDeleteParty)
		})
	}

	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", h.handleListItems)
		r.Post("/", h.handleCreateItem)
		r.Get("/export", h.handleExportStock)
		r.Get("/{id}", h.handleGetItem)
		r.Put("/{id}", h.handleUpdateItem)
		r.Post("/{id}/receipts", h.handleReceiveStock)
		r.Get("/{id}/movements", h.handleMovements)
	})

	// The three sales-document variants share one handler set; the route
	// selects the kind.
	for _, doc := range []struct {
		path string
		kind core.DocKind
	}{
		{"/api/invoices", core.DocInvoice},
		{"/api/quotations", core.DocQuotation},
		{"/api/proforma-invoices", core.DocProforma},
	} {
		doc := doc
		r.Route(doc.path, func(r chi.Router) {
			r.Get("/", h.handleListDocuments(doc.kind))
			r.Post("/", h.handleCreateDocument(doc.kind))
			r.Get("/export", h.handleExportDocuments(doc.kind))
			r.Get("/{id}", h.handleGetDocument(doc.kind))
			r.Patch("/{id}", h.handleUpdateDocument(doc.kind))
		})
	}

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.handleCreatePayment)
		r.Get("/books/{mode}", h.handlePaymentBook)
		r.Get("/{id}", h.handleGetPayment)
	})

	r.Route("/api/patients", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.handleListPatients)
		r.Post("/", h.handleCreatePatient)
		r.Get("/{id}", h.handleGetPatient)
		r.Put("/{id}", h.handleUpdatePatient)
		r.Delete("/{id}", h.handleDeletePatient)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- parties ---

type partyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
}

func (h *Handler) handleListParties(typ core.PartyType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parties, err := h.parties.List(r.Context(), typ)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, parties)
	}
}

func (h *Handler) handleCreateParty(typ core.PartyType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req partyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		party, err := h.parties.Create(r.Context(), core.Party{
			Type: typ, Name: req.Name, Address: req.Address,
			Phone: req.Phone, Email: req.Email, TaxID: req.TaxID,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, party)
	}
}

func (h *Handler) handleGetParty(w http.ResponseWriter, r *http.Request) {
	party, err := h.parties.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, party)
}

func (h *Handler) handleUpdateParty(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	party, err := h.parties.Update(r.Context(), core.Party{
		ID: chi.URLParam(r, "id"), Name: req.Name, Address: req.Address,
		Phone: req.Phone, Email: req.Email, TaxID: req.TaxID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, party)
}

func (h *Handler) handleDeleteParty(w http.ResponseWriter, r *http.Request) {
	if err := h.parties.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- inventory ---

type itemRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type receiveStockRequest struct {
	Quantity string `json:"quantity"`
	Date     string `json:"date"`
	Source   string `json:"source"`
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	item, err := h.catalog.Create(r.Context(), req.Name, req.Unit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	item, err := h.catalog.UpdateDetails(r.Context(), chi.URLParam(r, "id"), req.Name, req.Unit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req receiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	item, err := h.catalog.ReceiveStock(r.Context(), chi.URLParam(r, "id"),
		core.ParseAmount(req.Quantity), req.Date, req.Source)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.catalog.Movements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *Handler) handleExportStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	data, err := export.StockLevels(items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeXLSX(w, "stock_levels.xlsx", data)
}

// --- sales documents ---

func (h *Handler) handleListDocuments(kind core.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.docs.List(r.Context(), kind, r.URL.Query().Get("status"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func (h *Handler) handleCreateDocument(kind core.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req core.CreateDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		doc, err := h.docs.Create(r.Context(), kind, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

func (h *Handler) handleGetDocument(kind core.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.docs.Get(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) handleUpdateDocument(kind core.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req core.UpdateDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		doc, err := h.docs.Update(r.Context(), kind, chi.URLParam(r, "id"), req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) handleExportDocuments(kind core.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.docs.List(r.Context(), kind, r.URL.Query().Get("status"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		// List rows omit line items; fetch full documents for the export.
		docs := make([]core.SalesDocument, 0, len(list))
		for _, d := range list {
			full, err := h.docs.Get(r.Context(), kind, d.ID)
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			docs = append(docs, *full)
		}
		data, err := export.SalesDocuments(docs)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeXLSX(w, string(kind)+"s.xlsx", data)
	}
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- payments ---

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req core.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	payment, err := h.payments.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) handlePaymentBook(w http.ResponseWriter, r *http.Request) {
	mode := core.PaymentMode(chi.URLParam(r, "mode"))
	book, err := h.payments.Book(r.Context(), mode,
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// --- doctor portal ---

type createDoctorRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) handleCreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err.Error(), "VALIDATION", http.StatusUnprocessableEntity)
		return
	}
	doctor, err := h.patients.CreateDoctor(r.Context(), req.Username, hash, req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doctor)
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patients.ListPatients(r.Context(), doctorIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *Handler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var p core.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	p.DoctorID = doctorIDFromContext(r.Context())
	patient, err := h.patients.CreatePatient(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := h.patients.GetPatient(r.Context(), doctorIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var p core.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	p.ID = chi.URLParam(r, "id")
	p.DoctorID = doctorIDFromContext(r.Context())
	patient, err := h.patients.UpdatePatient(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.patients.DeletePatient(r.Context(), doctorIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
