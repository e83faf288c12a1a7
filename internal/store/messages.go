package store

// User-facing messages. Remote failures always collapse to one of these;
// the underlying cause is only logged.
const (
	msgLoadItems   = "Unable to load items. Please try again."
	msgCreateItem  = "Failed to create item. Please try again."
	msgUpdateItem  = "Failed to update item. Please try again."
	msgDeleteItem  = "Failed to delete item. Please try again."
	msgUpdateItems = "Failed to update items. Please try again."
	msgAddLink     = "Failed to add link. Please try again."
	msgDeleteLink  = "Failed to delete link. Please try again."

	msgLoadLists  = "Unable to load gift lists. Please try again."
	msgCreateList = "Failed to create list. Please try again."
	msgUpdateList = "Failed to update list. Please try again."
	msgDeleteList = "Failed to delete list. Please try again."

	msgNotAuthenticated = "Not authenticated"

	msgItemNameRequired = "Item name is required"
	msgListNameRequired = "List name is required"
	msgInvalidStatus    = "Status must be required or optional"
	msgPriceRange       = "Low price cannot exceed high price"
	msgNegativePrice    = "Prices cannot be negative"
	msgStoreRequired    = "Store name is required"
	msgURLInvalid       = "Link URL must be a valid http(s) address"
	msgItemNotFound     = "Item not found"
	msgListNotFound     = "List not found"
	msgNoItemsSelected  = "No items selected"
)
