// Package stitch serves the unified schema by forwarding each root field to
// the backend that owns it.
package stitch

// SchemaSDL is the unified schema the gateway exposes. It is a fixed
// contract stitched over the two backends: auth/users own me, users and the
// auth mutations, products/orders own the rest. Each root field is resolved
// by forwarding one fixed sub-query to the owning backend.
const SchemaSDL = `
schema {
	query: Query
	mutation: Mutation
}

type Query {
	me: User
	users: [User!]!
	products: [Product!]!
	product(id: ID!): Product
	categories: [Category!]!
	orders: [Order!]!
}

type Mutation {
	login(input: LoginInput!): AuthPayload!
	register(input: RegisterInput!): AuthPayload!
	createProduct(input: ProductInput!): Product!
	updateProduct(id: ID!, input: ProductInput!): Product!
	deleteProduct(id: ID!): Boolean!
	createCategory(input: CategoryInput!): Category!
	createOrder(input: OrderInput!): Order!
	addToFavorites(productId: ID!): User!
	removeFromFavorites(productId: ID!): User!
}

type User {
	id: ID!
	email: String!
	name: String!
	role: String!
	favorites: [ID!]
}

type AuthPayload {
	token: String!
	user: User!
}

type Product {
	id: ID!
	name: String!
	description: String
	price: Float!
	stock: Int!
	category: Category
}

type Category {
	id: ID!
	name: String!
}

type Order {
	id: ID!
	userId: ID!
	items: [OrderItem!]!
	total: Float!
	status: String!
	createdAt: String!
}

type OrderItem {
	productId: ID!
	quantity: Int!
	price: Float!
}

input LoginInput {
	email: String!
	password: String!
}

input RegisterInput {
	email: String!
	password: String!
	name: String!
}

input ProductInput {
	name: String!
	description: String
	price: Float!
	stock: Int!
	categoryId: ID
}

input CategoryInput {
	name: String!
}

input OrderInput {
	items: [OrderItemInput!]!
}

input OrderItemInput {
	productId: ID!
	quantity: Int!
}
`
