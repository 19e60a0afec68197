package pkgconstants

const (
	DBNameOrders = "orders"

	DBTableName_Customers     = "customers"
	DBTableName_Products      = "products"
	DBTableName_Orders        = "orders"
	DBTableName_OrderProducts = "order_products"
	DBTableName_OutboxEvents  = "events"
)
