package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Categories the catalog accepts, in display order.
var ProductCategories = []string{"tops", "bottoms", "outerwear", "footwear", "accessories"}

func ValidCategory(c string) bool {
	for _, v := range ProductCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string          `gorm:"not null"                      json:"name"`
	Description string          `gorm:"not null"                      json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"price"`
	Images      pq.StringArray  `gorm:"type:text[]"                   json:"images"`
	Category    string          `gorm:"index;not null"                json:"category"`
	Featured    bool            `gorm:"default:false"                 json:"featured"`
	InStock     bool            `gorm:"default:true"                  json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"                         json:"id"`
	UserID    uint    `gorm:"index:idx_cart_user_product,unique" json:"user_id"`
	ProductID uint    `gorm:"index:idx_cart_user_product,unique" json:"product_id"`
	Quantity  uint    `gorm:"not null;check:quantity>0"          json:"quantity"`
	Product   Product `gorm:"foreignKey:ProductID"               json:"product"`
}

type Order struct {
	ID               uint            `gorm:"primaryKey"                  json:"id"`
	UserID           uint            `gorm:"index;not null"              json:"user_id"`
	Total            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status           string          `gorm:"not null"                    json:"status"`
	PaymentSessionID string          `gorm:"index"                       json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

// OrderItem.Price is the catalog price captured at checkout time and is
// never rewritten after the order transaction commits.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Quantity  uint            `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Product   Product         `gorm:"foreignKey:ProductID"        json:"product"`
}
