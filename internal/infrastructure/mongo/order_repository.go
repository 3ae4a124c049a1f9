package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type lineItemDocument struct {
	ProductID string `bson:"productId"`
	Name      string `bson:"name"`
	Image     string `bson:"image,omitempty"`
	UnitPrice amount `bson:"unitPrice"`
	Quantity  int    `bson:"quantity"`
	LineTotal amount `bson:"lineTotal"`
}

type addressDocument struct {
	FullName string `bson:"fullName"`
	City     string `bson:"city"`
	Address  string `bson:"address"`
}

type orderDocument struct {
	ID                    string             `bson:"_id"`
	CustomerID            string             `bson:"customerId,omitempty"`
	GuestEmail            string             `bson:"guestEmail,omitempty"`
	Items                 []lineItemDocument `bson:"items"`
	SubTotal              amount             `bson:"subTotal"`
	TaxTotal              amount             `bson:"taxTotal"`
	ShippingFee           amount             `bson:"shippingFee"`
	GrandTotal            amount             `bson:"grandTotal"`
	ShippingAddress       addressDocument    `bson:"shippingAddress"`
	Status                string             `bson:"status"`
	ReservationIncomplete bool               `bson:"reservationIncomplete,omitempty"`
	EstimatedDeliveryDate time.Time          `bson:"estimatedDeliveryDate"`
	CreatedAt             time.Time          `bson:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt"`
}

func newOrderDocument(o *domain.Order) orderDocument {
	items := make([]lineItemDocument, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemDocument{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: newAmount(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: newAmount(it.LineTotal),
		})
	}
	return orderDocument{
		ID:          o.ID,
		CustomerID:  o.Buyer.CustomerID,
		GuestEmail:  o.Buyer.GuestEmail,
		Items:       items,
		SubTotal:    newAmount(o.Totals.SubTotal),
		TaxTotal:    newAmount(o.Totals.TaxTotal),
		ShippingFee: newAmount(o.Totals.ShippingFee),
		GrandTotal:  newAmount(o.Totals.GrandTotal),
		ShippingAddress: addressDocument{
			FullName: o.ShippingAddress.FullName,
			City:     o.ShippingAddress.City,
			Address:  o.ShippingAddress.Address,
		},
		Status:                string(o.Status),
		ReservationIncomplete: o.ReservationIncomplete,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func (d orderDocument) toDomain() *domain.Order {
	o := &domain.Order{
		ID:    d.ID,
		Buyer: domain.Buyer{CustomerID: d.CustomerID, GuestEmail: d.GuestEmail},
		ShippingAddress: domain.ShippingAddress{
			FullName: d.ShippingAddress.FullName,
			City:     d.ShippingAddress.City,
			Address:  d.ShippingAddress.Address,
		},
		Status:                domain.Status(d.Status),
		ReservationIncomplete: d.ReservationIncomplete,
		EstimatedDeliveryDate: d.EstimatedDeliveryDate.UTC(),
		CreatedAt:             d.CreatedAt.UTC(),
		UpdatedAt:             d.UpdatedAt.UTC(),
		Items:                 make([]domain.LineItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: it.UnitPrice.Decimal,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal.Decimal,
		})
	}
	o.Totals = domain.Totals{
		SubTotal:    d.SubTotal.Decimal,
		TaxTotal:    d.TaxTotal.Decimal,
		ShippingFee: d.ShippingFee.Decimal,
		GrandTotal:  d.GrandTotal.Decimal,
	}
	return o
}

type OrderRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection(ordersCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, err := r.collection.InsertOne(ctx, newOrderDocument(o)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"customerId": customerID}, opts)
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.M{"status": string(status), "reservationIncomplete": bson.M{"$ne": true}}
	return r.find(ctx, filter, opts)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrStatusConflict
}

func (r *OrderRepository) HoldForReconciliation(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reservationIncomplete": true, "updatedAt": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to hold order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

