package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appOrder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	roleAdmin            = "admin"

	maxBodyBytes = 1 << 20
)

type (
	PlaceOrderUseCase         = application.UseCase[appOrder.PlaceOrderInput, *appOrder.PlaceOrderResult]
	ListCustomerOrdersUseCase = application.UseCase[string, []*domainOrder.Order]
)

// ReconciliationLister exposes the entries awaiting manual stock repair.
type ReconciliationLister interface {
	Pending(ctx context.Context, limit int) ([]domainOrder.ReconciliationEntry, error)
}

type HandlerDeps struct {
	PlaceOrder     PlaceOrderUseCase
	ListOrders     ListCustomerOrdersUseCase
	Reconciliation ReconciliationLister
	Identity       appOrder.IdentityVerifier
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	deps HandlerDeps
	log  observability.Logger
	tel  observability.Observability

	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewHandler(deps HandlerDeps, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		deps:         deps,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Trace → ObservabilityMiddleware (request logger) → Access log → HTTP metrics → Handler
	h.handle(r, http.MethodPost, "/api/orders", h.handleCreateOrder)
	h.handle(r, http.MethodGet, "/api/orders/my", h.handleMyOrders)
	h.handle(r, http.MethodGet, "/api/admin/reconciliation", h.handleReconciliation)
	h.handle(r, http.MethodGet, "/health", h.handleHealth)
	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics)
	}

	return r
}

func (h *Handler) handle(r chi.Router, method, route string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerTenantID) },
		)(
			h.withAccessLog(
				h.withHTTPMetrics(handler),
			),
		),
	)
	r.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Stable route template for low-cardinality labels.
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), method+" "+route)))
	}))
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logctx.FromOr(r.Context(), h.log).Warn("http_decode_failed", observability.Err(err))
		writeError(w, r, http.StatusBadRequest, errorResponse{Code: msgInvalidBody, Kind: string(appOrder.KindValidation)})
		return
	}

	result, err := h.deps.PlaceOrder.Execute(r.Context(), req.toInput(bearerToken(r)))
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newOrderResponse(result.Order, result.Lines))
}

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	orders, err := h.deps.ListOrders.Execute(r.Context(), caller.CustomerID)
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if caller.Role != roleAdmin {
		writeError(w, r, http.StatusForbidden, errorResponse{Code: msgForbidden, Kind: "auth"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, errorResponse{Code: msgInvalidBody, Kind: string(appOrder.KindValidation)})
			return
		}
		limit = n
	}

	entries, err := h.deps.Reconciliation.Pending(r.Context(), limit)
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	out := make([]reconciliationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, reconciliationResponse{
			ID:         e.ID,
			OrderID:    e.OrderID,
			ProductID:  e.ProductID,
			Quantity:   e.Quantity,
			Reason:     e.Reason,
			RecordedAt: e.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authenticate resolves the bearer token and writes 401 for anonymous callers.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (appOrder.Principal, bool) {
	token := bearerToken(r)
	if token == "" || h.deps.Identity == nil {
		writeError(w, r, http.StatusUnauthorized, errorResponse{Code: msgUnauthorized, Kind: "auth"})
		return appOrder.Principal{}, false
	}
	caller := h.deps.Identity.Resolve(r.Context(), token)
	if caller.Anonymous() {
		writeError(w, r, http.StatusUnauthorized, errorResponse{Code: msgUnauthorized, Kind: "auth"})
		return appOrder.Principal{}, false
	}
	return caller, true
}

func bearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

// writeUseCaseError maps pipeline errors: validation and domain → 400,
// store and anything unrecognized → 500.
func (h *Handler) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := appOrder.AsError(err)
	if !ok {
		logctx.FromOr(r.Context(), h.log).Error("http_unhandled_error", observability.Err(err))
		writeError(w, r, http.StatusInternalServerError, errorResponse{Code: msgInternal, Kind: string(appOrder.KindStore)})
		return
	}

	body := errorResponse{Code: e.Code, Kind: string(e.Kind), Product: e.Product, OrderID: e.OrderID}
	switch e.Kind {
	case appOrder.KindValidation, appOrder.KindDomain:
		writeError(w, r, http.StatusBadRequest, body)
	default:
		writeError(w, r, http.StatusInternalServerError, body)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body errorResponse) {
	body.Message = localize(r, body.Code, body.Product)
	if body.Message == body.Code {
		body.Message = localize(r, fallbackMessage(status), "")
	}
	writeJSON(w, status, body)
}

func fallbackMessage(status int) string {
	if status >= http.StatusInternalServerError {
		return msgInternal
	}
	return msgInvalidBody
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

