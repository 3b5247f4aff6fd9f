package inventory

import "bizflow/internal/biz/code"

// Inventory codes. 404xx and 409xx follow HTTP semantics; 50003xxx sit in the
// storage range.
var (
	ItemNotFound      = code.New(40401, "item {0} not found")
	DuplicateSKU      = code.New(40901, "sku {0} already exists")
	InsufficientStock = code.New(40902, "item {0} has {1} in stock, cannot remove {2}")
	ItemNotPersisted  = code.New(50003001, "item {0} was not persisted")
)

// Catalog is the inventory code table.
var Catalog = code.MustCatalog("inventory",
	ItemNotFound,
	DuplicateSKU,
	InsufficientStock,
	ItemNotPersisted,
)
