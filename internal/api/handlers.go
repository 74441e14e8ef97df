package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Srinuas/Foodapp/internal/checkout"
	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/pricing"
)

type catalogEntry struct {
	domain.CatalogItem
	DisplayPrice string `json:"display_price"`
}

type addItemRequest struct {
	ID int `json:"id" binding:"required"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type currencyRequest struct {
	Currency string `json:"currency" binding:"required"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type selectAddressRequest struct {
	ID string `json:"id" binding:"required"`
}

type addressesResponse struct {
	Addresses  []domain.Address `json:"addresses"`
	SelectedID string           `json:"selected_id,omitempty"`
}

type sessionResponse struct {
	LoggedIn bool         `json:"logged_in"`
	User     *domain.User `json:"user,omitempty"`
}

type ratesResponse struct {
	State    string              `json:"state"`
	Snapshot domain.RateSnapshot `json:"snapshot"`
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func itemID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, fmt.Errorf("%w: item id %q", errBadRequest, c.Param("id")))
		return 0, false
	}
	return id, true
}

// respondQuote replies with the fresh quote and pushes it to subscribers.
func (s *Server) respondQuote(c *gin.Context, status int) {
	sess := sessionFrom(c)
	quote := sess.Quote(c.Request.Context())
	s.hub.Publish(sess.ID(), quote)
	c.JSON(status, quote)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"rate_state": s.registry.Rates().State().String(),
	})
}

func (s *Server) listCatalog(c *gin.Context) {
	sess := sessionFrom(c)
	code := sess.Currency(c.Request.Context())
	rates := s.registry.Rates()
	rate := rates.RateFor(rates.Latest(), code)

	items := s.registry.Catalog().Filter(c.Query("category"), c.Query("q"))
	out := make([]catalogEntry, 0, len(items))
	for _, item := range items {
		out = append(out, catalogEntry{
			CatalogItem:  item,
			DisplayPrice: pricing.Format(pricing.Convert(item.Price, rate), code),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getQuote(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Quote(c.Request.Context()))
}

func (s *Server) addItem(c *gin.Context) {
	var req addItemRequest
	if !bind(c, &req) {
		return
	}
	if err := sessionFrom(c).Cart().Add(c.Request.Context(), req.ID); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) setQuantity(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req quantityRequest
	if !bind(c, &req) {
		return
	}
	if err := sessionFrom(c).Cart().SetQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) removeItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := sessionFrom(c).Cart().Remove(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) clearCart(c *gin.Context) {
	if err := sessionFrom(c).Cart().Clear(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) setCurrency(c *gin.Context) {
	var req currencyRequest
	if !bind(c, &req) {
		return
	}
	if err := sessionFrom(c).SetCurrency(c.Request.Context(), req.Currency); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) applyCoupon(c *gin.Context) {
	var req couponRequest
	if !bind(c, &req) {
		return
	}
	if err := sessionFrom(c).ApplyCoupon(c.Request.Context(), req.Code); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) clearCoupon(c *gin.Context) {
	if err := sessionFrom(c).ClearCoupon(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	s.respondQuote(c, http.StatusOK)
}

func (s *Server) currentUser(c *gin.Context) {
	u, ok := sessionFrom(c).Profile().CurrentUser(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, sessionResponse{})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{LoggedIn: true, User: &u})
}

func (s *Server) login(c *gin.Context) {
	var req domain.User
	if !bind(c, &req) {
		return
	}
	u, err := sessionFrom(c).Profile().Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{LoggedIn: true, User: &u})
}

func (s *Server) logout(c *gin.Context) {
	if err := sessionFrom(c).Profile().Logout(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listAddresses(c *gin.Context) {
	ctx := c.Request.Context()
	p := sessionFrom(c).Profile()
	id, _ := p.SelectedAddressID(ctx)
	c.JSON(http.StatusOK, addressesResponse{Addresses: p.Addresses(ctx), SelectedID: id})
}

func (s *Server) saveAddress(c *gin.Context) {
	var req domain.Address
	if !bind(c, &req) {
		return
	}
	addr, err := sessionFrom(c).Profile().SaveAddress(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func (s *Server) selectAddress(c *gin.Context) {
	var req selectAddressRequest
	if !bind(c, &req) {
		return
	}
	if err := sessionFrom(c).Profile().SelectAddress(c.Request.Context(), req.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) placeOrder(c *gin.Context) {
	sess := sessionFrom(c)
	receipt, err := checkout.New(sess.Cart(), sess.Profile(), sess).Place(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	s.hub.Publish(sess.ID(), sess.Quote(c.Request.Context()))
	c.JSON(http.StatusCreated, receipt)
}

// getRates returns the current snapshot. ?refresh=1 drops the held snapshot
// and waits for a new acquisition.
func (s *Server) getRates(c *gin.Context) {
	rates := s.registry.Rates()
	snap := rates.Latest()
	if c.Query("refresh") == "1" {
		snap = rates.Refresh(c.Request.Context())
		s.RefreshSubscribers(c.Request.Context())
	}
	c.JSON(http.StatusOK, ratesResponse{State: rates.State().String(), Snapshot: snap})
}

func (s *Server) streamQuote(c *gin.Context) {
	sess := sessionFrom(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.serve(c.Request.Context(), sess.ID(), conn, sess.Quote(c.Request.Context()))
}
