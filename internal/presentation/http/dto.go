package httppresentation

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	appOrder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type addressDTO struct {
	FullName string `json:"fullName"`
	City     string `json:"city"`
	Address  string `json:"address"`
}

// createOrderRequest keeps items untyped: normalization owns the synonyms.
// Client-supplied totals or prices are ignored.
type createOrderRequest struct {
	Items           []map[string]any `json:"items"`
	ShippingAddress addressDTO       `json:"shippingAddress"`
	GuestEmail      string           `json:"guestEmail"`
}

type lineItemResponse struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Image     string      `json:"image,omitempty"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	Requested int         `json:"requested"`
	Reduced   bool        `json:"reduced"`
	LineTotal json.Number `json:"lineTotal"`
}

type orderResponse struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customerId,omitempty"`
	GuestEmail            string             `json:"guestEmail,omitempty"`
	Items                 []lineItemResponse `json:"items"`
	SubTotal              json.Number        `json:"subTotal"`
	TaxTotal              json.Number        `json:"taxTotal"`
	ShippingFee           json.Number        `json:"shippingFee"`
	GrandTotal            json.Number        `json:"grandTotal"`
	ShippingAddress       addressDTO         `json:"shippingAddress"`
	Status                string             `json:"status"`
	ReservationIncomplete bool               `json:"reservationIncomplete,omitempty"`
	EstimatedDeliveryDate time.Time          `json:"estimatedDeliveryDate"`
	CreatedAt             time.Time          `json:"createdAt"`
}

type reconciliationResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recordedAt"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Product string `json:"product,omitempty"`
	OrderID string `json:"orderId,omitempty"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (req createOrderRequest) toInput(credential string) appOrder.PlaceOrderInput {
	items := make([]appOrder.RawLine, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, appOrder.RawLine(it))
	}
	return appOrder.PlaceOrderInput{
		Credential: credential,
		Items:      items,
		ShippingAddress: domainOrder.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			City:     req.ShippingAddress.City,
			Address:  req.ShippingAddress.Address,
		},
		GuestEmail: req.GuestEmail,
	}
}

// newOrderResponse renders an order. lines, when given, carry the requested
// quantities of a freshly placed order.
func newOrderResponse(o *domainOrder.Order, lines []appOrder.PricedLine) orderResponse {
	requested := make(map[string]int, len(lines))
	for _, l := range lines {
		requested[l.ProductID] = l.Requested
	}

	items := make([]lineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		req, ok := requested[it.ProductID]
		if !ok {
			req = it.Quantity
		}
		items = append(items, lineItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: money(it.UnitPrice),
			Quantity:  it.Quantity,
			Requested: req,
			Reduced:   it.Quantity < req,
			LineTotal: money(it.LineTotal),
		})
	}

	return orderResponse{
		ID:          o.ID,
		CustomerID:  o.Buyer.CustomerID,
		GuestEmail:  o.Buyer.GuestEmail,
		Items:       items,
		SubTotal:    money(o.Totals.SubTotal),
		TaxTotal:    money(o.Totals.TaxTotal),
		ShippingFee: money(o.Totals.ShippingFee),
		GrandTotal:  money(o.Totals.GrandTotal),
		ShippingAddress: addressDTO{
			FullName: o.ShippingAddress.FullName,
			City:     o.ShippingAddress.City,
			Address:  o.ShippingAddress.Address,
		},
		Status:                string(o.Status),
		ReservationIncomplete: o.ReservationIncomplete,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
	}
}
