package stitch

import graphql "github.com/graph-gophers/graphql-go"

// Output types mirror the unified schema. Backend responses unmarshal
// straight into them; field resolution is by name (UseFieldResolvers).

type User struct {
	ID        graphql.ID    `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      string        `json:"role"`
	Favorites *[]graphql.ID `json:"favorites"`
}

type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Product struct {
	ID          graphql.ID `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Price       float64    `json:"price"`
	Stock       int32      `json:"stock"`
	Category    *Category  `json:"category"`
}

type Category struct {
	ID   graphql.ID `json:"id"`
	Name string     `json:"name"`
}

type Order struct {
	ID        graphql.ID  `json:"id"`
	UserID    graphql.ID  `json:"userId"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt string      `json:"createdAt"`
}

type OrderItem struct {
	ProductID graphql.ID `json:"productId"`
	Quantity  int32      `json:"quantity"`
	Price     float64    `json:"price"`
}

// Input types carry json tags so resolver arguments forward to the backends
// under the field names the backend schemas expect.

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type ProductInput struct {
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Price       float64     `json:"price"`
	Stock       int32       `json:"stock"`
	CategoryID  *graphql.ID `json:"categoryId,omitempty"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type OrderInput struct {
	Items []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	ProductID graphql.ID `json:"productId"`
	Quantity  int32      `json:"quantity"`
}
