package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/ingest"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/pricing"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/service"
)

// SalePublisher streams recorded sales to the ingestion topic.
// *service.SaleProducer satisfies it.
type SalePublisher interface {
	Publish(ctx context.Context, ev entity.SaleEvent) error
}

// Handler exposes the analysis engine over HTTP.
type Handler struct {
	datasets   *service.DatasetService
	deductions *service.DeductionService
	auth       *service.AuthService
	sales      SalePublisher
	ingestOpts ingest.Options
}

func NewHandler(datasets *service.DatasetService, deductions *service.DeductionService, auth *service.AuthService, sales SalePublisher, ingestOpts ingest.Options) *Handler {
	return &Handler{
		datasets:   datasets,
		deductions: deductions,
		auth:       auth,
		sales:      sales,
		ingestOpts: ingestOpts,
	}
}

// tokenClaims extracts the JWT claims echo-jwt stored on the context.
func tokenClaims(c echo.Context) (jwt.MapClaims, *jwt.Token, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, false
	}
	return claims, token, true
}

// SessionGuard rejects tokens whose cached session was dropped by a
// logout, so a logged out JWT is dead even before it expires.
func (h *Handler) SessionGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, token, ok := tokenClaims(c)
		if !ok {
			return c.JSON(401, map[string]string{"error": "invalid session"})
		}
		username, _ := claims["username"].(string)
		cached, err := h.auth.ValidateSession(c.Request().Context(), username)
		if err != nil || cached != token.Raw {
			return c.JSON(401, map[string]string{"error": "session expired"})
		}
		return next(c)
	}
}

// Login authenticates a user for a requested role --> POST /login
func (h *Handler) Login(c echo.Context) error {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}

	token, err := h.auth.Login(c.Request().Context(), service.Credentials{
		Username: req.Username,
		Password: req.Password,
	}, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrDenied) {
			return c.JSON(401, map[string]string{"error": "invalid credentials or role"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"token": token, "role": req.Role})
}

// Logout drops the caller's cached session --> POST /logout
func (h *Handler) Logout(c echo.Context) error {
	claims, _, ok := tokenClaims(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "invalid session"})
	}
	username, _ := claims["username"].(string)
	if err := h.auth.Logout(c.Request().Context(), username); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// CreateUser registers a new account; only masters may --> POST /users
func (h *Handler) CreateUser(c echo.Context) error {
	claims, _, ok := tokenClaims(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "invalid session"})
	}
	if role, _ := claims["role"].(string); role != entity.RoleMaster {
		return c.JSON(403, map[string]string{"error": "only a master account may create users"})
	}

	var user entity.User
	if err := c.Bind(&user); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	created, err := h.auth.Register(c.Request().Context(), user)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	return c.JSON(201, map[string]interface{}{"id": created.ID, "username": created.Username, "role": created.Role})
}

// RecordSale publishes one sale to the ingestion topic --> POST /sales
func (h *Handler) RecordSale(c echo.Context) error {
	var ev entity.SaleEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	if ev.Product == "" {
		return c.JSON(400, map[string]string{"error": "product is required"})
	}
	if ev.Quantity < 0 || ev.Revenue < 0 || ev.UnitCost < 0 || ev.UnitPrice < 0 {
		return c.JSON(400, map[string]string{"error": "negative values are not allowed"})
	}
	if err := h.sales.Publish(c.Request().Context(), ev); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(202, map[string]string{"status": "accepted"})
}

// UploadDataset parses an uploaded report and stages it for confirmation
// --> POST /datasets/upload
func (h *Handler) UploadDataset(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(400, map[string]string{"error": "file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	defer src.Close()

	kind, err := ingest.KindFromName(file.Filename)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	ds, err := ingest.Read(src, file.Filename, kind, h.ingestOpts)
	if err != nil {
		var fe *ingest.FormatError
		if errors.As(err, &fe) {
			return c.JSON(400, map[string]string{"error": fe.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	preview, err := h.datasets.StagePreview(c.Request().Context(), ds)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, preview)
}

// CommitDataset loads a staged upload as the canonical dataset
// --> POST /datasets/commit
func (h *Handler) CommitDataset(c echo.Context) error {
	req := struct {
		BatchID string `json:"batch_id"`
	}{}
	if err := c.Bind(&req); err != nil || req.BatchID == "" {
		return c.JSON(400, map[string]string{"error": "batch_id is required"})
	}
	rows, err := h.datasets.Commit(c.Request().Context(), req.BatchID)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]interface{}{"loaded_rows": rows})
}

// GetDataset returns the current canonical dataset --> GET /datasets
func (h *Handler) GetDataset(c echo.Context) error {
	return c.JSON(200, h.datasets.Current())
}

// UpsertRow adds or corrects one product row --> PUT /datasets/rows
func (h *Handler) UpsertRow(c echo.Context) error {
	var rec entity.ProductRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	if rec.Quantity < 0 || rec.UnitCost < 0 || rec.UnitPrice < 0 || rec.Revenue < 0 {
		return c.JSON(400, map[string]string{"error": "negative values are not allowed"})
	}
	if err := h.datasets.UpsertRow(c.Request().Context(), rec); err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// DeleteRow removes a product row --> DELETE /datasets/rows/:name
func (h *Handler) DeleteRow(c echo.Context) error {
	name := c.Param("name")
	if err := h.datasets.DeleteRow(c.Request().Context(), name); err != nil {
		return c.JSON(404, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// GetClassified returns the classified dataset --> GET /analysis/classified
func (h *Handler) GetClassified(c echo.Context) error {
	ds, err := h.datasets.Classified(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, ds)
}

// GetSummary returns dashboard figures --> GET /analysis/summary
func (h *Handler) GetSummary(c echo.Context) error {
	summary, err := h.datasets.Summary(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, summary)
}

// GetPnL computes the net-profit statement --> POST /analysis/pnl
func (h *Handler) GetPnL(c echo.Context) error {
	var params entity.FixedParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	return c.JSON(200, h.datasets.PnL(c.Request().Context(), params))
}

// PriceCounter runs the counter-sale reverse markup --> POST /pricing/counter
func (h *Handler) PriceCounter(c echo.Context) error {
	req := struct {
		DirectCosts   float64 `json:"direct_costs"`
		DesiredMargin float64 `json:"desired_margin"`
		SeedProduct   string  `json:"seed_product,omitempty"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}

	if req.SeedProduct != "" {
		rec, ok := h.datasets.Current().Find(req.SeedProduct)
		if !ok {
			return c.JSON(404, map[string]string{"error": "seed product not found"})
		}
		req.DirectCosts = pricing.SeedFromRecord(rec)
	}

	dna, err := h.deductions.Profile(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	price, err := pricing.CounterPrice(req.DirectCosts, dna, req.DesiredMargin)
	if err != nil {
		if errors.Is(err, pricing.ErrMarginExceedsCeiling) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]interface{}{
		"price":          price,
		"composite_rate": dna.CompositeRate(),
		"desired_margin": req.DesiredMargin,
	})
}

// PriceDelivery runs the delivery-platform variant --> POST /pricing/delivery
func (h *Handler) PriceDelivery(c echo.Context) error {
	req := struct {
		ListPrice      float64 `json:"list_price"`
		DeliveryCost   float64 `json:"delivery_cost"`
		CampaignSpend  float64 `json:"campaign_spend"`
		CouponValue    float64 `json:"coupon_value"`
		CommissionRate float64 `json:"commission_rate"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	quote, err := pricing.DeliveryPrice(req.ListPrice, req.DeliveryCost, req.CampaignSpend, req.CouponValue, req.CommissionRate)
	if err != nil {
		if errors.Is(err, pricing.ErrCommissionExceedsCeiling) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, quote)
}

// SuggestCombos produces promotional bundles --> POST /combos/suggest
func (h *Handler) SuggestCombos(c echo.Context) error {
	req := struct {
		Count int `json:"count"`
	}{Count: 3}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}

	dna, err := h.deductions.Profile(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	suggestions, err := h.datasets.Combos(c.Request().Context(), dna, req.Count)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if suggestions == nil {
		suggestions = []entity.ComboSuggestion{}
	}
	return c.JSON(200, suggestions)
}

// GetDeductionProfile returns the configured profile --> GET /settings/deduction-profile
func (h *Handler) GetDeductionProfile(c echo.Context) error {
	dna, err := h.deductions.Profile(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]interface{}{
		"profile":        dna,
		"composite_rate": dna.CompositeRate(),
	})
}

// UpdateDeductionProfile overwrites the profile from either the raw
// fixed-cost amount plus expected revenue, or a direct ratio
// --> PUT /settings/deduction-profile
func (h *Handler) UpdateDeductionProfile(c echo.Context) error {
	req := struct {
		FixedCosts      float64  `json:"fixed_costs"`
		ExpectedRevenue float64  `json:"expected_revenue"`
		FixedCostRatio  *float64 `json:"fixed_cost_ratio,omitempty"`
		TaxRate         float64  `json:"tax_rate"`
		CardFeeRate     float64  `json:"card_fee_rate"`
		RoyaltyRate     float64  `json:"royalty_rate"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}

	var profile entity.DeductionProfile
	if req.FixedCostRatio != nil {
		profile = entity.DeductionProfile{
			FixedCostRatio: *req.FixedCostRatio,
			TaxRate:        req.TaxRate,
			CardFeeRate:    req.CardFeeRate,
			RoyaltyRate:    req.RoyaltyRate,
		}
	} else {
		profile = entity.NewDeductionProfile(req.FixedCosts, req.ExpectedRevenue, req.TaxRate, req.CardFeeRate, req.RoyaltyRate)
	}

	if err := h.deductions.Update(c.Request().Context(), profile); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]interface{}{
		"profile":        profile,
		"composite_rate": profile.CompositeRate(),
	})
}
