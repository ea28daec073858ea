package stitch

import (
	"context"
	"encoding/json"

	graphql "github.com/graph-gophers/graphql-go"
	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/microshop/graphql-gateway/pkg/gateway"
)

// Fixed sub-queries, one per unified schema root field. A resolver is
// pinned to exactly one backend at registration time; there is no dynamic
// classification on this path.
const (
	meQuery         = `query { me { id email name role favorites } }`
	usersQuery      = `query { users { id email name role favorites } }`
	productsQuery   = `query { products { id name description price stock category { id name } } }`
	productQuery    = `query ($id: ID!) { product(id: $id) { id name description price stock category { id name } } }`
	categoriesQuery = `query { categories { id name } }`
	ordersQuery     = `query { orders { id userId items { productId quantity price } total status createdAt } }`

	loginMutation               = `mutation ($input: LoginInput!) { login(input: $input) { token user { id email name role favorites } } }`
	registerMutation            = `mutation ($input: RegisterInput!) { register(input: $input) { token user { id email name role favorites } } }`
	createProductMutation       = `mutation ($input: ProductInput!) { createProduct(input: $input) { id name description price stock category { id name } } }`
	updateProductMutation       = `mutation ($id: ID!, $input: ProductInput!) { updateProduct(id: $id, input: $input) { id name description price stock category { id name } } }`
	deleteProductMutation       = `mutation ($id: ID!) { deleteProduct(id: $id) }`
	createCategoryMutation      = `mutation ($input: CategoryInput!) { createCategory(input: $input) { id name } }`
	createOrderMutation         = `mutation ($input: OrderInput!) { createOrder(input: $input) { id userId items { productId quantity price } total status createdAt } }`
	addToFavoritesMutation      = `mutation ($productId: ID!) { addToFavorites(productId: $productId) { id email name role favorites } }`
	removeFromFavoritesMutation = `mutation ($productId: ID!) { removeFromFavorites(productId: $productId) { id email name role favorites } }`
)

// Resolver stitches the unified schema onto the two backends. Root fields
// resolve independently and may run concurrently; each resolution is one
// backend call.
type Resolver struct {
	log         log.Logger
	client      *gateway.Client
	backendURLs map[gateway.Backend]string
}

func NewResolver(client *gateway.Client, authURL, productsURL string, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.NoopLogger
	}
	return &Resolver{
		log:    logger,
		client: client,
		backendURLs: map[gateway.Backend]string{
			gateway.BackendAuth:     authURL,
			gateway.BackendProducts: productsURL,
		},
	}
}

// forward runs one fixed sub-query against the owning backend and decodes
// data.<field> into out. Backend GraphQL errors come back as resolver
// errors carrying the original message and extensions; the handler level
// normalization pass adds userMessage on the way out.
func (r *Resolver) forward(ctx context.Context, backend gateway.Backend, field, query string, variables map[string]interface{}, out interface{}) error {
	var rawVariables json.RawMessage
	if variables != nil {
		var err error
		rawVariables, err = json.Marshal(variables)
		if err != nil {
			return errors.Wrap(err, "marshal variables")
		}
	}

	envelope := gateway.ForwardEnvelope{
		Query:         query,
		Variables:     rawVariables,
		Authorization: AuthorizationFromContext(ctx),
	}

	result, err := r.client.Call(ctx, r.backendURLs[backend], envelope)
	if err != nil {
		r.log.Error("stitch: backend call failed",
			log.String("backend", backend.String()),
			log.String("field", field),
			log.Error(err),
		)
		return dispatchError(err)
	}

	if backendErrs := gjson.GetBytes(result, "errors"); backendErrs.IsArray() {
		if errs := backendErrs.Array(); len(errs) > 0 {
			return backendErrorFrom(errs[0])
		}
	}

	data := gjson.GetBytes(result, "data."+field)
	if !data.Exists() || data.Type == gjson.Null {
		return errors.Wrapf(errNoData, "field %q", field)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return errors.Wrapf(err, "decode backend data for field %q", field)
	}
	return nil
}

func (r *Resolver) Me(ctx context.Context) (*User, error) {
	var user User
	if err := r.forward(ctx, gateway.BackendAuth, "me", meQuery, nil, &user); err != nil {
		if isNoData(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Resolver) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.forward(ctx, gateway.BackendAuth, "users", usersQuery, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Resolver) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.forward(ctx, gateway.BackendProducts, "products", productsQuery, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Resolver) Product(ctx context.Context, args struct{ ID graphql.ID }) (*Product, error) {
	var product Product
	variables := map[string]interface{}{"id": args.ID}
	if err := r.forward(ctx, gateway.BackendProducts, "product", productQuery, variables, &product); err != nil {
		if isNoData(err) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *Resolver) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.forward(ctx, gateway.BackendProducts, "categories", categoriesQuery, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Resolver) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := r.forward(ctx, gateway.BackendProducts, "orders", ordersQuery, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input LoginInput }) (*AuthPayload, error) {
	var payload AuthPayload
	variables := map[string]interface{}{"input": args.Input}
	if err := r.forward(ctx, gateway.BackendAuth, "login", loginMutation, variables, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input RegisterInput }) (*AuthPayload, error) {
	var payload AuthPayload
	variables := map[string]interface{}{"input": args.Input}
	if err := r.forward(ctx, gateway.BackendAuth, "register", registerMutation, variables, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (r *Resolver) CreateProduct(ctx context.Context, args struct{ Input ProductInput }) (*Product, error) {
	var product Product
	variables := map[string]interface{}{"input": args.Input}
	if err := r.forward(ctx, gateway.BackendProducts, "createProduct", createProductMutation, variables, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Resolver) UpdateProduct(ctx context.Context, args struct {
	ID    graphql.ID
	Input ProductInput
}) (*Product, error) {
	var product Product
	variables := map[string]interface{}{"id": args.ID, "input": args.Input}
	if err := r.forward(ctx, gateway.BackendProducts, "updateProduct", updateProductMutation, variables, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Resolver) DeleteProduct(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	var deleted bool
	variables := map[string]interface{}{"id": args.ID}
	if err := r.forward(ctx, gateway.BackendProducts, "deleteProduct", deleteProductMutation, variables, &deleted); err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *Resolver) CreateCategory(ctx context.Context, args struct{ Input CategoryInput }) (*Category, error) {
	var category Category
	variables := map[string]interface{}{"input": args.Input}
	if err := r.forward(ctx, gateway.BackendProducts, "createCategory", createCategoryMutation, variables, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct{ Input OrderInput }) (*Order, error) {
	var order Order
	variables := map[string]interface{}{"input": args.Input}
	if err := r.forward(ctx, gateway.BackendProducts, "createOrder", createOrderMutation, variables, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Resolver) AddToFavorites(ctx context.Context, args struct{ ProductID graphql.ID }) (*User, error) {
	var user User
	variables := map[string]interface{}{"productId": args.ProductID}
	if err := r.forward(ctx, gateway.BackendAuth, "addToFavorites", addToFavoritesMutation, variables, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Resolver) RemoveFromFavorites(ctx context.Context, args struct{ ProductID graphql.ID }) (*User, error) {
	var user User
	variables := map[string]interface{}{"productId": args.ProductID}
	if err := r.forward(ctx, gateway.BackendAuth, "removeFromFavorites", removeFromFavoritesMutation, variables, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
