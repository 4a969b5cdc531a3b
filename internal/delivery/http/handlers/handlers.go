package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/usecase"
	"github.com/jaevor/go-nanoid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

type MessageSender interface {
	SendMessage(ctx context.Context, payload string) error
}

type MessageInbox interface {
	Size() int
	PollOne() (string, bool)
	Clear()
}

// HealthFunc reports nil when the service can do useful work.
type HealthFunc func(ctx context.Context) error

type HTTPHandler struct {
	products usecase.ProductUsecase
	producer MessageSender
	inbox    MessageInbox
	health   HealthFunc
	gatherer prometheus.Gatherer
	log      *slog.Logger

	productValidator *SchemaValidator
	messageValidator *SchemaValidator
	newRequestID     func() string
}

func NewHTTPHandler(
	products usecase.ProductUsecase,
	producer MessageSender,
	inbox MessageInbox,
	health HealthFunc,
	gatherer prometheus.Gatherer,
	log *slog.Logger,
) (*HTTPHandler, error) {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &HTTPHandler{
		products:         products,
		producer:         producer,
		inbox:            inbox,
		health:           health,
		gatherer:         gatherer,
		log:              log,
		productValidator: mustSchemaValidator(createProductSchema),
		messageValidator: mustSchemaValidator(sendMessageSchema),
		newRequestID:     idGenerator,
	}, nil
}

func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", h.listProducts)
	mux.HandleFunc("POST /products", h.createProduct)
	mux.HandleFunc("GET /products/{id}", h.getProductByID)
	mux.HandleFunc("GET /products/by-name/{name}", h.getProductByName)

	mux.HandleFunc("POST /messages", h.sendMessage)
	mux.HandleFunc("GET /messages/size", h.messagesSize)
	mux.HandleFunc("POST /messages/poll", h.pollMessage)
	mux.HandleFunc("DELETE /messages", h.clearMessages)

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	return h.withRequestID(mux)
}

func (h *HTTPHandler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = h.newRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		h.log.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r)
	})
}

type productResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Price: p.Price}
}

type createProductRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type sendMessageRequest struct {
	Payload string `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.GetAllProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) getProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a positive integer"})
		return
	}
	product, err := h.products.GetProductByID(r.Context(), uint(id))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) getProductByName(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProductByName(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !h.decodeValidated(w, r, h.productValidator, &req) {
		return
	}
	product, err := h.products.CreateProduct(r.Context(), req.Name, req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *HTTPHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !h.decodeValidated(w, r, h.messageValidator, &req) {
		return
	}
	if err := h.producer.SendMessage(r.Context(), req.Payload); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *HTTPHandler) messagesSize(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"size": h.inbox.Size()})
}

func (h *HTTPHandler) pollMessage(w http.ResponseWriter, _ *http.Request) {
	payload, ok := h.inbox.PollOne()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageRequest{Payload: payload})
}

func (h *HTTPHandler) clearMessages(w http.ResponseWriter, _ *http.Request) {
	h.inbox.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) decodeValidated(w http.ResponseWriter, r *http.Request, v *SchemaValidator, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return false
	}
	if err := v.Validate(body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidProduct):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSubmissionFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
