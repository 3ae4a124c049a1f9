package mongo

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// amount is a money field. It is written as Decimal128 and read back from
// Decimal128 or from the plain numbers older catalogs store.
type amount struct {
	decimal.Decimal
}

func newAmount(d decimal.Decimal) amount { return amount{d} }

func (a amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(toDecimal128(a.Decimal))
}

func (a *amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		v, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("mongo: malformed decimal128 amount")
		}
		d, err := fromDecimal128(v)
		if err != nil {
			return err
		}
		a.Decimal = d
	case bson.TypeDouble:
		f, ok := raw.DoubleOK()
		if !ok {
			return fmt.Errorf("mongo: malformed double amount")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("mongo: non-finite amount %v", f)
		}
		a.Decimal = decimal.NewFromFloat(f)
	case bson.TypeInt32:
		v, ok := raw.Int32OK()
		if !ok {
			return fmt.Errorf("mongo: malformed int32 amount")
		}
		a.Decimal = decimal.NewFromInt32(v)
	case bson.TypeInt64:
		v, ok := raw.Int64OK()
		if !ok {
			return fmt.Errorf("mongo: malformed int64 amount")
		}
		a.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("mongo: cannot decode %s into an amount", t)
	}
	return nil
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		panic(fmt.Sprintf("mongo: decimal %s out of Decimal128 range: %v", d, err))
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("mongo: decode decimal %q: %w", v.String(), err)
	}
	return d, nil
}

// idKey maps an id onto the stored _id: ObjectID hex strings become ObjectIDs,
// anything else is kept as a string.
func idKey(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
